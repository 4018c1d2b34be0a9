package drugparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/giygas/fdadrugs-api/logging"
)

// Source files, in the order they are applied
const (
	finishedProductsFile   = "Drugs_product.csv"
	unfinishedProductsFile = "Drugs_unfinished_products.csv"
	finishedPackagesFile   = "Drugs_package.csv"
	unfinishedPackagesFile = "Drugs_unfinished_package.csv"
)

var sourceFiles = []string{
	finishedProductsFile,
	unfinishedProductsFile,
	finishedPackagesFile,
	unfinishedPackagesFile,
}

// readCSV reads every record of a comma separated file, header excluded.
// Files that are not valid UTF-8 are decoded from ISO-8859-1.
func readCSV(path string) ([][]string, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	content, err := toUTF8(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	lineCount := 0
	skippedMalformed := 0
	header := true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineCount++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skippedMalformed++
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		records = append(records, record)
	}

	if skippedMalformed > 0 {
		logging.Info("CSV skip statistics",
			"file", filepath.Base(path),
			"malformed_lines", skippedMalformed,
			"total_lines", lineCount,
			"records_read", len(records))
	}

	return records, nil
}
