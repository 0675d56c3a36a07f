package fec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Column names the pipeline depends on. Files may carry any number of
// additional columns; those are pruned or ignored downstream.
const (
	colEcritureDate = "EcritureDate"
	colCompteNum    = "CompteNum"
	colDebit        = "Debit"
	colCredit       = "Credit"
)

var requiredColumns = []string{colEcritureDate, colCompteNum, colDebit, colCredit}

// File is one uploaded ledger export: a name for error reporting and the
// raw bytes of a tab-separated table with a header row.
type File struct {
	Name string
	Data []byte
}

// Row is one parsed ledger line, kept as a header-keyed field map so that
// files with slightly different column sets concatenate cleanly. File and
// Line identify the source for error reporting.
type Row struct {
	File   string
	Line   int
	Fields map[string]string
}

// Dataset is the combined row set of one upload, owned by a single
// session. Rows keep their within-file order and the upload order of the
// files; chronological ordering happens in Process.
type Dataset struct {
	rows []Row
}

// Ingest parses each file as tab-separated tabular data with a header row
// and concatenates the results. Any file that fails to parse, or that
// lacks one of the required columns, aborts the whole ingest with an
// *IngestError naming the file.
func Ingest(files []File) (*Dataset, error) {
	ds := &Dataset{}
	for _, f := range files {
		rows, err := parseFile(f)
		if err != nil {
			return nil, &IngestError{File: f.Name, Err: err}
		}
		ds.rows = append(ds.rows, rows...)
	}
	return ds, nil
}

// Len returns the number of ingested rows.
func (ds *Dataset) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.rows)
}

// DateBounds scans the dataset for the earliest and latest parseable
// EcritureDate. The interactive surface uses the bounds to prefill the
// date pickers; unparseable dates are skipped here and only rejected by
// Process.
func (ds *Dataset) DateBounds() (min, max Date, ok bool) {
	if ds == nil {
		return Date{}, Date{}, false
	}
	for _, row := range ds.rows {
		d, err := ParseEcritureDate(strings.TrimSpace(row.Fields[colEcritureDate]))
		if err != nil {
			continue
		}
		if !ok {
			min, max, ok = d, d, true
			continue
		}
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max, ok
}

func parseFile(f File) ([]Row, error) {
	data, err := decodeText(f.Data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '\t'
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := checkRequiredColumns(header); err != nil {
		return nil, err
	}

	var rows []Row
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fields := make(map[string]string, len(header))
		for i, name := range header {
			fields[name] = record[i]
		}
		rows = append(rows, Row{File: f.Name, Line: line, Fields: fields})
	}
	return rows, nil
}

func checkRequiredColumns(header []string) error {
	var missing []string
	for _, want := range requiredColumns {
		found := false
		for _, h := range header {
			if h == want {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// decodeText returns the bytes as UTF-8. Real FEC exports are frequently
// ISO 8859-1; anything that is not valid UTF-8 is re-decoded as latin-1,
// which cannot fail, so encoding alone never rejects a file.
func decodeText(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	return charmap.ISO8859_1.NewDecoder().Bytes(data)
}
