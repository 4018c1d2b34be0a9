package drugparser

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/giygas/fdadrugs-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// downloadFile fetches one source file and stores it as UTF-8 under dataDir
func downloadFile(client *http.Client, baseURL, dataDir, name string) error {
	fileURL, err := url.JoinPath(baseURL, name)
	if err != nil {
		return fmt.Errorf("invalid download url for %s: %w", name, err)
	}

	response, err := client.Get(fileURL)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", fileURL, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: unexpected status %d", fileURL, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	body, err = toUTF8(body)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	// Write to a temp file first so a failed download never truncates a good copy
	target := filepath.Join(dataDir, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", target, err)
	}

	logging.Debug(fmt.Sprintf("%s downloaded without errors", name), "bytes", len(body))
	return nil
}

// downloadAll fetches every source file concurrently
func downloadAll(client *http.Client, baseURL, dataDir string) error {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, name := range sourceFiles {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := downloadFile(client, baseURL, dataDir, name); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()

	if len(errs) > 0 {
		logging.Error("Download errors occurred", "errors", errs)
		return fmt.Errorf("download errors: %v", errs)
	}

	return nil
}

// toUTF8 returns b unchanged when it is valid UTF-8 and decodes it from
// ISO-8859-1 otherwise. A leading byte order mark is dropped.
func toUTF8(b []byte) ([]byte, error) {
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	if utf8.Valid(b) {
		return b, nil
	}
	return charmap.ISO8859_1.NewDecoder().Bytes(b)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Minute,
	}
}
