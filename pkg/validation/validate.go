// Package validation applies configurable structural rules to request
// payloads before they reach the graph. Rules are keyed by payload kind
// and operate on the decoded JSON object, so missing fields, explicit
// nulls and empty strings are distinguished the same way clients sent
// them.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Payload kinds with built-in rule sets.
const (
	KindUser       = "user"
	KindUserUpdate = "user_update"
	KindPost       = "post"
	KindComment    = "comment"
	KindLike       = "like"
)

type Rules struct {
	Required []string
	NonEmpty []string
	Types    map[string]string
	MaxLen   map[string]int
	Enums    map[string][]string
}

var rulesets = DefaultRules()

// DefaultRules returns the built-in rule sets for each payload kind.
func DefaultRules() map[string]Rules {
	return map[string]Rules{
		KindUser: {
			Required: []string{"username", "display_name"},
			NonEmpty: []string{"username", "display_name"},
			Types: map[string]string{
				"username":        "string",
				"display_name":    "string",
				"bio":             "string",
				"profile_pic_url": "string",
			},
		},
		KindUserUpdate: {
			Types: map[string]string{
				"display_name":    "string",
				"bio":             "string",
				"profile_pic_url": "string",
			},
		},
		KindPost: {
			Required: []string{"user_id", "media_url", "media_type"},
			NonEmpty: []string{"media_url"},
			Types: map[string]string{
				"user_id":    "string",
				"media_url":  "string",
				"media_type": "string",
				"caption":    "string",
			},
			Enums: map[string][]string{
				"media_type": {"image", "video"},
			},
		},
		KindComment: {
			Required: []string{"user_id", "text"},
			Types: map[string]string{
				"user_id": "string",
				"text":    "string",
			},
		},
		KindLike: {
			Required: []string{"user_id"},
			Types: map[string]string{
				"user_id": "string",
			},
		},
	}
}

// SetRules replaces the rule set for a payload kind.
func SetRules(kind string, r Rules) { rulesets[kind] = r }

// Validate checks a decoded JSON object against the rules for kind.
// Unknown kinds validate as empty rule sets.
func Validate(kind string, payload map[string]interface{}) error {
	r := rulesets[kind]
	var errs []string
	root := interface{}(payload)

	// Required paths must be present and not null.
	for _, p := range r.Required {
		v, ok := valueAt(root, p)
		if !ok || v == nil {
			errs = append(errs, fmt.Sprintf("required field missing: %s", p))
		}
	}
	// Type checks apply only to present, non-null values; nulls on
	// optional fields mean "no value".
	for p, t := range r.Types {
		if v, ok := valueAt(root, p); ok && v != nil {
			if !typeMatches(v, t) {
				errs = append(errs, fmt.Sprintf("type mismatch at %s: expected %s", p, t))
			}
		}
	}
	// Non-empty strings
	for _, p := range r.NonEmpty {
		if v, ok := valueAt(root, p); ok {
			if s, ok2 := v.(string); ok2 && len(s) == 0 {
				errs = append(errs, fmt.Sprintf("must not be empty: %s", p))
			}
		}
	}
	// Max length
	for p, max := range r.MaxLen {
		if v, ok := valueAt(root, p); ok {
			switch vv := v.(type) {
			case string:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			case []interface{}:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			}
		}
	}
	// Enums
	for p, vals := range r.Enums {
		if v, ok := valueAt(root, p); ok && v != nil {
			s, ok2 := v.(string)
			if !ok2 || !contains(vals, s) {
				errs = append(errs, fmt.Sprintf("invalid value at %s: must be one of %s", p, strings.Join(vals, ", ")))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func valueAt(root interface{}, path string) (interface{}, bool) {
	segs := strings.Split(path, ".")
	cur := root
	for _, s := range segs {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[s]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			if s == "*" {
				if len(node) == 0 {
					return nil, false
				}
				cur = node[0]
			} else if idx, err := strconv.Atoi(s); err == nil {
				if idx < 0 || idx >= len(node) {
					return nil, false
				}
				cur = node[idx]
			} else {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

func typeMatches(v interface{}, t string) bool {
	switch strings.ToLower(t) {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		default:
			return false
		}
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]interface{})
		return ok
	case "array":
		_, ok := v.([]interface{})
		return ok
	default:
		return true
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
