package search

import (
	"math"
	"testing"

	"github.com/giygas/fdadrugs-api/drugparser/entities"
)

func TestOrderedMatchScore(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		target  string
		query   string
		matched []int
		want    float64
	}{
		{"exact proprietary name", FieldProprietaryName, "zyprexa", "zyprexa", nil, exactNameBonus},
		{"exact other field", FieldNonProprietaryNames, "olanzapine", "olanzapine", nil, exactMatchBonus},
		{"prefix", FieldProprietaryName, "zyprexa", "zyp", []int{0, 1, 2}, -4},
		// contiguous but starting mid-word at offset 3: (0 - 9*0.2) * 1000 - 4
		{"mid-word substring", FieldProprietaryName, "zyprexa", "rex", []int{3, 4, 5}, -1804},
		// second word: offset 9 penalized but anchored, so not scaled
		{"second word", FieldPharmClasses, "atypical antipsychotic", "antip", []int{9, 10, 11, 12, 13}, -16.2 - 17},
		{"no match", FieldProprietaryName, "zyprexa", "q", nil, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orderedMatchScore(tt.field, tt.target, tt.query, tt.matched)
			if math.Abs(got-tt.want) > 1e-9 && !(math.IsInf(got, -1) && math.IsInf(tt.want, -1)) {
				t.Errorf("orderedMatchScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderedMatchScoreGapsArePenalized(t *testing.T) {
	contiguous := orderedMatchScore(FieldProprietaryName, "advil", "adv", []int{0, 1, 2})
	gapped := orderedMatchScore(FieldProprietaryName, "advil", "avl", []int{0, 2, 4})
	if gapped >= contiguous {
		t.Errorf("Expected gapped match %v to score below contiguous %v", gapped, contiguous)
	}
}

func TestRunePositions(t *testing.T) {
	// é is two bytes, so byte offset 3 is rune position 2
	got := runePositions("aéb", []int{0, 3})
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("runePositions = %v, want [0 2]", got)
	}
}

func TestIsWordStart(t *testing.T) {
	s := "tablet, film-coated"
	tests := []struct {
		offset int
		want   bool
	}{
		{0, true},
		{1, false},
		{8, true},  // "film"
		{13, true}, // "coated" after a hyphen
		{14, false},
	}
	for _, tt := range tests {
		if got := isWordStart(s, tt.offset); got != tt.want {
			t.Errorf("isWordStart(%q, %d) = %v, want %v", s, tt.offset, got, tt.want)
		}
	}
}

func TestPrimaryRankerRank(t *testing.T) {
	drugs := []entities.Drug{
		{BasicDrug: entities.BasicDrug{DrugID: "adv-1", ProprietaryName: strPtr("Advil")}},
		{BasicDrug: entities.BasicDrug{DrugID: "zyp-1", ProprietaryName: strPtr("Zyprexa"), NonProprietaryNames: []string{"Olanzapine"}}},
		{BasicDrug: entities.BasicDrug{DrugID: "gen-1", NonProprietaryNames: []string{"Olanzapine"}}},
	}
	r := NewPrimaryRanker(BuildIndex(drugs))

	if r.Name() != "primary" || r.Polarity() != HigherIsBetter {
		t.Errorf("Unexpected identity %s/%v", r.Name(), r.Polarity())
	}

	results, err := r.Rank("olanzapine")
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 matches, got %+v", results)
	}
	if results[0].Pos != 1 || results[1].Pos != 2 {
		t.Errorf("Expected matches in index order, got %+v", results)
	}
	for _, res := range results {
		if res.Score != exactMatchBonus {
			t.Errorf("Expected exact bonus for pos %d, got %v", res.Pos, res.Score)
		}
	}

	score, ok := r.Score("zyprexa", 1)
	if !ok || score != exactNameBonus {
		t.Errorf("Expected exact name bonus, got %v (ok=%v)", score, ok)
	}
	if _, ok := r.Score("zyprexa", 0); ok {
		t.Error("Advil should not match zyprexa")
	}

	empty, err := r.Rank("")
	if err != nil || len(empty) != 0 {
		t.Errorf("Expected no results for an empty query, got %v, %v", empty, err)
	}
}
