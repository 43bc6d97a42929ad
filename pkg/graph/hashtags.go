package graph

import (
	"regexp"
	"strings"
)

// hashtagRe matches a '#' immediately followed by one or more word
// characters (letters, digits, underscore).
var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags returns the tags found in caption, lowercased, in
// first-appearance order. Duplicates are kept so a repeated tag stays
// visible in the post's own tag list.
func ExtractHashtags(caption string) []string {
	ms := hashtagRe.FindAllStringSubmatch(caption, -1)
	tags := make([]string, 0, len(ms))
	for _, m := range ms {
		tags = append(tags, strings.ToLower(m[1]))
	}
	return tags
}
