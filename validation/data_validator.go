// Package validation provides data validation functionality for the FDA drugs API.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/giygas/fdadrugs-api/drugparser/entities"
	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/search"
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// Drug ids are the SPL document ids of the NDC directory
	drugIDRegex = regexp.MustCompile(`^[A-Za-z0-9\-]{1,64}$`)
)

// searchParamKeys are the only query parameters a search accepts
var searchParamKeys = []string{"q", "limit", "skip"}

// reportSampleSize caps the id lists stored in a DataQualityReport
const reportSampleSize = 10

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateDrug checks if a drug entity is valid
func (v *DataValidatorImpl) ValidateDrug(d *entities.Drug) error {
	if d == nil {
		return fmt.Errorf("drug is nil")
	}

	if !drugIDRegex.MatchString(d.DrugID) {
		return fmt.Errorf("invalid drug id: %q", d.DrugID)
	}

	if d.ProprietaryName != nil && len(*d.ProprietaryName) > 500 {
		return fmt.Errorf("proprietary name too long for drug %s: %d characters", d.DrugID, len(*d.ProprietaryName))
	}

	for _, name := range d.NonProprietaryNames {
		if len(name) > 1000 {
			return fmt.Errorf("non-proprietary name too long for drug %s: %d characters", d.DrugID, len(name))
		}
	}

	for _, c := range d.PharmClasses {
		if strings.TrimSpace(c.ClassName) == "" || strings.TrimSpace(c.ClassType) == "" {
			return fmt.Errorf("incomplete pharmacological class for drug %s: %+v", d.DrugID, c)
		}
	}

	if len(d.Products) == 0 {
		return fmt.Errorf("drug %s has no products", d.DrugID)
	}

	return nil
}

// ReportDataQuality walks the corpus once and collects data quality issues
func (v *DataValidatorImpl) ReportDataQuality(corpus *interfaces.Corpus) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateDrugIDs:            []string{},
		DrugsWithoutNamesIDs:        []string{},
		DrugsWithoutSubstancesIDs:   []string{},
		OrphanPackagesProductIDList: []string{},
	}
	if corpus == nil {
		return report
	}

	seen := make(map[string]bool, len(corpus.Drugs))
	for i := range corpus.Drugs {
		d := &corpus.Drugs[i]

		if seen[d.DrugID] {
			report.DuplicateDrugIDs = append(report.DuplicateDrugIDs, d.DrugID)
		}
		seen[d.DrugID] = true

		if d.ProprietaryName == nil && len(d.NonProprietaryNames) == 0 {
			report.DrugsWithoutNames++
			if len(report.DrugsWithoutNamesIDs) < reportSampleSize {
				report.DrugsWithoutNamesIDs = append(report.DrugsWithoutNamesIDs, d.DrugID)
			}
		}

		if len(d.Products) == 0 {
			report.DrugsWithoutProducts++
		}

		if len(d.PharmClasses) == 0 {
			report.DrugsWithoutPharmClasses++
		}

		if !hasSubstances(d) {
			report.DrugsWithoutSubstances++
			if len(report.DrugsWithoutSubstancesIDs) < reportSampleSize {
				report.DrugsWithoutSubstancesIDs = append(report.DrugsWithoutSubstancesIDs, d.DrugID)
			}
		}
	}

	report.OrphanPackages = len(corpus.OrphanPackages)
	for _, id := range corpus.OrphanPackages {
		if len(report.OrphanPackagesProductIDList) == reportSampleSize {
			break
		}
		report.OrphanPackagesProductIDList = append(report.OrphanPackagesProductIDList, id)
	}

	return report
}

func hasSubstances(d *entities.Drug) bool {
	for _, p := range d.Products {
		if len(p.Substances) > 0 {
			return true
		}
	}
	return false
}

// ParseSearchParams validates raw query parameters.
// Unknown keys are rejected, limit defaults to 10 and skip to 0. Range checks
// on the parsed numbers are left to the searcher, which owns the limits.
func (v *DataValidatorImpl) ParseSearchParams(query map[string][]string) (entities.SearchParams, error) {
	params := entities.SearchParams{
		Limit: search.DefaultLimit,
		Skip:  0,
	}

	var unknown []string
	for key := range query {
		if !slices.Contains(searchParamKeys, key) {
			unknown = append(unknown, "'"+key+"'")
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return params, &search.ClientInputError{
			Message: "Unrecognized key(s) in object: " + strings.Join(unknown, ", "),
		}
	}

	for _, key := range searchParamKeys {
		if values, ok := query[key]; ok && len(values) > 1 {
			return params, &search.ClientInputError{
				Message: fmt.Sprintf("Expected string, received array for %s", key),
			}
		}
	}

	q, ok := query["q"]
	if !ok || len(q) == 0 {
		return params, &search.ClientInputError{Message: "q is required"}
	}
	params.Query = q[0]

	if raw, ok := query["limit"]; ok && len(raw) == 1 {
		limit, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil {
			return params, &search.ClientInputError{Message: "Invalid limit"}
		}
		params.Limit = limit
	}

	if raw, ok := query["skip"]; ok && len(raw) == 1 {
		skip, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil {
			return params, &search.ClientInputError{Message: "Invalid skip"}
		}
		params.Skip = skip
	}

	return params, nil
}

// ValidateDrugID validates a drug identifier taken from a URL path.
// A malformed id cannot exist in the corpus and is reported as not found.
func (v *DataValidatorImpl) ValidateDrugID(input string) error {
	if strings.TrimSpace(input) == "" {
		return &search.ClientInputError{Message: "Drug id cannot be empty"}
	}
	if !drugIDRegex.MatchString(input) {
		return &search.NotFoundError{ID: input}
	}
	return nil
}
