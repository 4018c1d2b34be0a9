// Package drugparser reads the FDA National Drug Code directory exports and
// turns them into the merged drug corpus served by the API.
package drugparser

import (
	"cmp"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/giygas/fdadrugs-api/drugparser/entities"
	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/logging"
)

var (
	errMissingColumns = errors.New("missing columns")
	errBadFormat      = errors.New("bad format")
)

// Compile-time check to ensure DrugsParser implements Parser interface
var _ interfaces.Parser = (*DrugsParser)(nil)

// DrugsParser reads the four source files from a data directory, optionally
// refreshing them from a remote base URL first.
type DrugsParser struct {
	dataDir string
	baseURL string
	client  *http.Client
}

// NewDrugsParser creates a parser reading from dataDir. When baseURL is not
// empty every source file is downloaded from it before parsing.
func NewDrugsParser(dataDir, baseURL string) *DrugsParser {
	return &DrugsParser{
		dataDir: dataDir,
		baseURL: baseURL,
		client:  newHTTPClient(),
	}
}

type fileResult struct {
	records [][]string
	err     error
}

// ParseAllDrugs reads every source file and returns the merged corpus.
// The finished products file is required; the other three are optional and
// skipped with a warning when absent.
func (p *DrugsParser) ParseAllDrugs() (*interfaces.Corpus, error) {
	start := time.Now()

	if p.baseURL != "" {
		logging.Info("Downloading source files", "base_url", p.baseURL)
		if err := downloadAll(p.client, p.baseURL, p.dataDir); err != nil {
			return nil, err
		}
	}

	results := make([]fileResult, len(sourceFiles))
	var wg sync.WaitGroup
	for i, name := range sourceFiles {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			records, err := readCSV(filepath.Join(p.dataDir, name))
			results[i] = fileResult{records: records, err: err}
		}(i, name)
	}
	wg.Wait()

	for i, name := range sourceFiles {
		if results[i].err == nil {
			continue
		}
		if name == finishedProductsFile || !errors.Is(results[i].err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", name, results[i].err)
		}
		logging.Warn("Optional source file missing, skipping", "file", name)
	}

	b := newCorpusBuilder()
	b.addProducts(finishedProductsFile, results[0].records, parseFinishedRow)
	b.addProducts(unfinishedProductsFile, results[1].records, parseUnfinishedRow)
	b.addPackages(finishedPackagesFile, results[2].records)
	b.addPackages(unfinishedPackagesFile, results[3].records)

	corpus := b.build()

	logging.Info("All drugs parsed successfully",
		"drug_count", len(corpus.Drugs),
		"class_count", len(corpus.ClassFrequency),
		"orphan_packages", len(corpus.OrphanPackages),
		"duration", time.Since(start).String())

	return corpus, nil
}

// corpusBuilder accumulates product rows in source order and merges them by
// drug id once every file is applied
type corpusBuilder struct {
	rows      []*entities.Drug
	byProduct map[string]*entities.Drug
	orphans   []string
}

func newCorpusBuilder() *corpusBuilder {
	return &corpusBuilder{
		byProduct: make(map[string]*entities.Drug),
	}
}

func (b *corpusBuilder) addProducts(file string, records [][]string, parse func([]string) (*productRow, error)) {
	skippedMissingColumns := 0
	skippedFormatErrors := 0

	for _, record := range records {
		row, err := parse(record)
		if err != nil {
			if errors.Is(err, errMissingColumns) {
				skippedMissingColumns++
			} else {
				skippedFormatErrors++
			}
			continue
		}
		b.rows = append(b.rows, row.drug)
		b.byProduct[row.productID] = row.drug
	}

	if skippedMissingColumns > 0 || skippedFormatErrors > 0 {
		logging.Info("Product skip statistics",
			"file", file,
			"missing_columns", skippedMissingColumns,
			"format_errors", skippedFormatErrors,
			"total_lines", len(records))
	}
}

// addPackages attaches each package to the product row it references.
// Packages whose product id is unknown are recorded as orphans.
func (b *corpusBuilder) addPackages(file string, records [][]string) {
	skippedMissingColumns := 0
	orphans := 0

	for _, record := range records {
		productID, pkg, err := parsePackageRow(record)
		if err != nil {
			skippedMissingColumns++
			continue
		}
		drug, ok := b.byProduct[productID]
		if !ok {
			orphans++
			b.orphans = append(b.orphans, productID)
			continue
		}
		drug.Products[0].Packages = append(drug.Products[0].Packages, pkg)
	}

	if skippedMissingColumns > 0 || orphans > 0 {
		logging.Warn("Package skip statistics",
			"file", file,
			"missing_columns", skippedMissingColumns,
			"orphan_packages", orphans,
			"total_lines", len(records))
	}
}

// build merges rows sharing a drug id. The first row supplies the drug
// fields; products of later rows are appended in source order.
func (b *corpusBuilder) build() *interfaces.Corpus {
	drugs := make([]entities.Drug, 0, len(b.rows))
	positions := make(map[string]int, len(b.rows))

	for _, row := range b.rows {
		if pos, ok := positions[row.DrugID]; ok {
			drugs[pos].Products = append(drugs[pos].Products, row.Products...)
			continue
		}
		positions[row.DrugID] = len(drugs)
		drugs = append(drugs, *row)
	}

	orphans := b.orphans
	if orphans == nil {
		orphans = []string{}
	}

	return &interfaces.Corpus{
		Drugs:          drugs,
		ClassFrequency: classFrequency(drugs),
		OrphanPackages: orphans,
	}
}

// classFrequency counts the drugs carrying each class, most frequent first
// and by name on ties
func classFrequency(drugs []entities.Drug) []entities.ClassFrequency {
	counts := make(map[entities.PharmClass]int)
	for _, d := range drugs {
		for _, c := range d.PharmClasses {
			counts[c]++
		}
	}

	freq := make([]entities.ClassFrequency, 0, len(counts))
	for c, n := range counts {
		freq = append(freq, entities.ClassFrequency{
			ClassName: c.ClassName,
			ClassType: c.ClassType,
			Count:     n,
		})
	}

	slices.SortFunc(freq, func(a, b entities.ClassFrequency) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ClassName, b.ClassName); c != 0 {
			return c
		}
		return cmp.Compare(a.ClassType, b.ClassType)
	})

	return freq
}
