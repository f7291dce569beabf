package user

import (
	"encoding/json"
	"strings"
)

// NormalizeSkills decodes a stored skills column. Only a JSON array keeps its
// string elements; NULL, scalars, objects and malformed input yield an empty
// list. The result is never nil.
func NormalizeSkills(raw []byte) []string {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}

	skills := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			skills = append(skills, s)
		}
	}
	return skills
}

// uniqueSkills trims the submitted values and drops blanks and repeats,
// keeping the first occurrence order.
func uniqueSkills(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func encodeSkills(skills []string) (string, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
