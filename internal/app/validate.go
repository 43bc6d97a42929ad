package app

import (
	"gramdb/pkg/config"
	"gramdb/pkg/validation"
)

// initValidation layers rule overrides from config onto the built-in rule
// sets and installs them globally. Overrides exist for the create payloads
// only; update and like payloads always use the built-ins.
func initValidation(eff config.EffectiveConfigResult) {
	overlay(validation.KindUser, eff.Config.Validation.User)
	overlay(validation.KindPost, eff.Config.Validation.Post)
	overlay(validation.KindComment, eff.Config.Validation.Comment)
}

// overlay merges one kind's configured overrides into its built-in rules.
func overlay(kind string, ov config.RuleOverrides) {
	if len(ov.Required) == 0 && len(ov.NonEmpty) == 0 && len(ov.MaxLen) == 0 && len(ov.Enums) == 0 {
		return
	}
	vr := validation.DefaultRules()[kind]
	if vr.Types == nil {
		vr.Types = map[string]string{}
	}
	if vr.MaxLen == nil {
		vr.MaxLen = map[string]int{}
	}
	if vr.Enums == nil {
		vr.Enums = map[string][]string{}
	}
	vr.Required = append(vr.Required, ov.Required...)
	vr.NonEmpty = append(vr.NonEmpty, ov.NonEmpty...)
	for _, ml := range ov.MaxLen {
		vr.MaxLen[ml.Path] = ml.Max
	}
	for _, e := range ov.Enums {
		vr.Enums[e.Path] = append([]string{}, e.Values...)
	}
	validation.SetRules(kind, vr)
}
