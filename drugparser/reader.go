// Package drugparser provides functionality for reading the BDPM registry extracts
// and reducing them to a deduplicated, brand-level drug catalog.
package drugparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/giygas/automedication-api/drugparser/entities"
	"golang.org/x/text/encoding/charmap"
)

// ErrSourceUnreadable is returned when a registry file exists but cannot be read.
var ErrSourceUnreadable = errors.New("registry source unreadable")

const (
	// CIS_bdpm.txt: code CIS, denomination, ...
	minHeaderFields = 2
	// CIS_COMPO_bdpm.txt: code CIS, element, code substance, denomination, dosage, ...
	// The dosage column is optional.
	minCompositionFields = 4
)

// RowReader splits a registry stream into tab-separated field tuples.
// Rows are produced lazily by Rows; Err reports the first read failure.
type RowReader struct {
	r         io.Reader
	minFields int
	stats     entities.ParseStats
	err       error
}

// NewRowReader creates a reader that skips lines with fewer than minFields columns
func NewRowReader(r io.Reader, minFields int) *RowReader {
	return &RowReader{r: r, minFields: minFields}
}

// Rows yields the fields of every non-empty line with enough columns.
// The registry is published in ISO-8859-1; lines that are not valid UTF-8 are
// decoded from it, lines that already are valid UTF-8 are kept as-is.
func (rr *RowReader) Rows() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		if rr.r == nil {
			return
		}

		decoder := charmap.ISO8859_1.NewDecoder()
		scanner := bufio.NewScanner(rr.r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1*1024*1024)

		for scanner.Scan() {
			rr.stats.TotalLines++
			line := strings.TrimRight(scanner.Text(), "\r\n")

			if len(line) == 0 {
				rr.stats.EmptyLines++
				continue
			}

			if !utf8.ValidString(line) {
				decoded, err := decoder.String(line)
				if err != nil {
					rr.err = fmt.Errorf("%w: decoding line %d: %w", ErrSourceUnreadable, rr.stats.TotalLines, err)
					return
				}
				line = decoded
			}

			fields := strings.Split(line, "\t")
			if len(fields) < rr.minFields {
				rr.stats.MissingColumns++
				continue
			}

			rr.stats.Records++
			if !yield(fields) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			rr.err = fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
		}
	}
}

// Err returns the read error that stopped Rows, if any
func (rr *RowReader) Err() error {
	return rr.err
}

// Stats returns the line counters accumulated so far
func (rr *RowReader) Stats() entities.ParseStats {
	return rr.stats
}

// HeaderRows yields CIS_bdpm.txt rows
func HeaderRows(r io.Reader) (iter.Seq[entities.HeaderRow], *RowReader) {
	rr := NewRowReader(r, minHeaderFields)
	seq := func(yield func(entities.HeaderRow) bool) {
		for fields := range rr.Rows() {
			row := entities.HeaderRow{
				Cis:  strings.TrimSpace(fields[0]),
				Name: strings.TrimSpace(fields[1]),
			}
			if !yield(row) {
				return
			}
		}
	}
	return seq, rr
}

// CompositionRows yields CIS_COMPO_bdpm.txt rows
func CompositionRows(r io.Reader) (iter.Seq[entities.CompositionRow], *RowReader) {
	rr := NewRowReader(r, minCompositionFields)
	seq := func(yield func(entities.CompositionRow) bool) {
		for fields := range rr.Rows() {
			row := entities.CompositionRow{
				Cis:                   strings.TrimSpace(fields[0]),
				ElementPharmaceutique: strings.TrimSpace(fields[1]),
				CodeSubstance:         strings.TrimSpace(fields[2]),
				DenominationSubstance: strings.TrimSpace(fields[3]),
			}
			if len(fields) > 4 {
				row.Dosage = strings.TrimSpace(fields[4])
			}
			if !yield(row) {
				return
			}
		}
	}
	return seq, rr
}

// openSource opens a registry file. A missing file is reported with found=false
// and no error so the catalog can degrade to empty instead of failing startup.
func openSource(path string) (f *os.File, found bool, err error) {
	f, err = os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, path, err)
	}
	return f, true, nil
}
