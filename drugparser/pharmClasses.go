package drugparser

import (
	"strings"

	"github.com/giygas/fdadrugs-api/drugparser/entities"
)

// parsePharmClasses reads a PHARM_CLASSES cell such as
//
//	Atypical Antipsychotic [EPC],Serotonin 2A Receptor Antagonists [MoA]
//
// Class names may themselves contain commas, so fragments are accumulated
// until one ends with a bracketed class type. Trailing fragments that never
// close are dropped, as are exact duplicates.
func parsePharmClasses(cell string) []entities.PharmClass {
	classes := []entities.PharmClass{}
	if strings.TrimSpace(cell) == "" {
		return classes
	}

	seen := make(map[string]bool)
	var pending []string

	for _, fragment := range strings.Split(cell, ",") {
		pending = append(pending, fragment)

		name, classType, ok := splitClass(fragment)
		if !ok {
			continue
		}
		if len(pending) > 1 {
			name, classType, _ = splitClass(strings.Join(pending, ","))
		}
		pending = pending[:0]

		key := name + "\x00" + classType
		if seen[key] {
			continue
		}
		seen[key] = true
		classes = append(classes, entities.PharmClass{
			ClassName: name,
			ClassType: classType,
		})
	}

	return classes
}

// splitClass splits "name [type]" into its trimmed parts. Both parts must be
// non-empty.
func splitClass(s string) (name, classType string, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	open := strings.LastIndex(s, "[")
	if open <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(s[:open])
	classType = strings.TrimSpace(s[open+1 : len(s)-1])
	if name == "" || classType == "" {
		return "", "", false
	}
	return name, classType, true
}
