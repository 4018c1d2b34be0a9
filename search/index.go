package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/giygas/fdadrugs-api/drugparser/entities"
)

// Field identifies one searchable representation of a drug
type Field int

const (
	FieldProprietaryName Field = iota
	FieldProprietaryNameSuffix
	FieldNonProprietaryNames
	FieldPharmClasses
	FieldSubstances
	numFields
)

func (f Field) String() string {
	switch f {
	case FieldProprietaryName:
		return "proprietaryName"
	case FieldProprietaryNameSuffix:
		return "proprietaryNameSuffix"
	case FieldNonProprietaryNames:
		return "nonProprietaryNames"
	case FieldPharmClasses:
		return "pharmClasses"
	case FieldSubstances:
		return "substances"
	}
	return "unknown"
}

// Index holds the normalized text of every searchable field, one slice per
// field aligned with the corpus order. It is built once and never mutated.
type Index struct {
	fields      [numFields][]string
	tokenNorms  [numFields][]float64
	classCounts []int
	drugs       []entities.Drug
}

// BuildIndex derives the per-field representations of drugs
func BuildIndex(drugs []entities.Drug) *Index {
	idx := &Index{
		classCounts: make([]int, len(drugs)),
		drugs:       drugs,
	}
	for f := range numFields {
		idx.fields[f] = make([]string, len(drugs))
		idx.tokenNorms[f] = make([]float64, len(drugs))
	}

	for i := range drugs {
		d := &drugs[i]
		idx.set(FieldProprietaryName, i, deref(d.ProprietaryName))
		idx.set(FieldProprietaryNameSuffix, i, deref(d.ProprietaryNameSuffix))
		idx.set(FieldNonProprietaryNames, i, strings.Join(d.NonProprietaryNames, ", "))
		idx.set(FieldPharmClasses, i, joinClassNames(d.PharmClasses))
		idx.set(FieldSubstances, i, joinSubstanceNames(d.Products))
		idx.classCounts[i] = len(d.PharmClasses)
	}

	return idx
}

func (idx *Index) set(f Field, i int, raw string) {
	text := normalize(raw)
	idx.fields[f][i] = text
	idx.tokenNorms[f][i] = fieldNorm(text)
}

// Len returns the number of indexed drugs
func (idx *Index) Len() int {
	return len(idx.drugs)
}

// Text returns the normalized text of field f for the drug at pos
func (idx *Index) Text(f Field, pos int) string {
	return idx.fields[f][pos]
}

// ClassCount returns the number of pharmacological classes of the drug at pos
func (idx *Index) ClassCount(pos int) int {
	return idx.classCounts[pos]
}

// Drug returns the indexed drug at pos
func (idx *Index) Drug(pos int) *entities.Drug {
	return &idx.drugs[pos]
}

// source adapts one field column to fuzzy.Source
type source []string

func (s source) String(i int) string { return s[i] }
func (s source) Len() int            { return len(s) }

func (idx *Index) source(f Field) source {
	return source(idx.fields[f])
}

// normalize folds compatibility forms and lower-cases s
func normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinClassNames(classes []entities.PharmClass) string {
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		if c.ClassName != "" {
			names = append(names, c.ClassName)
		}
	}
	return strings.Join(names, ", ")
}

// joinSubstanceNames joins the distinct substance names of all products in order
func joinSubstanceNames(products []entities.Product) string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range products {
		for _, s := range p.Substances {
			if s.Name == "" || seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			names = append(names, s.Name)
		}
	}
	return strings.Join(names, ", ")
}
