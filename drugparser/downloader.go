package drugparser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/giygas/automedication-api/logging"
)

// BaseDownloadURL is the BDPM public download endpoint
var BaseDownloadURL = "https://base-donnees-publique.medicaments.gouv.fr/download/file/"

var downloadClient = &http.Client{
	Timeout: 5 * time.Minute,
}

// DownloadSources fetches both registry files into dataDir concurrently.
// Files are written to a temporary name and renamed once complete, so a
// failed download never truncates the previous copy.
func DownloadSources(ctx context.Context, dataDir string) error {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	files := []string{HeaderFileName, CompositionFileName}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, name := range files {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := downloadFile(ctx, BaseDownloadURL+name, filepath.Join(dataDir, name)); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("download errors: %w", errors.Join(errs...))
	}
	return nil
}

func downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	response, err := downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: status %d", url, response.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", dest, err)
	}
	tmpPath := tmp.Name()

	// registry bytes are stored untouched, decoding happens when reading
	written, copyErr := io.Copy(tmp, response.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", dest, errors.Join(copyErr, closeErr))
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", dest, err)
	}

	logging.Debug("Registry file downloaded", "path", dest, "bytes", written)
	return nil
}
