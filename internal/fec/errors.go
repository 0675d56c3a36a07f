package fec

import "fmt"

// IngestError reports a file that could not be parsed as tab-separated
// tabular data. Ingestion is all-or-nothing: one bad file aborts the
// whole upload.
type IngestError struct {
	File string
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.File, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// DateParseError reports a row whose EcritureDate field is not a valid
// 8-digit date. This is a hard failure: every downstream step keys on the
// parsed date, so coercing or dropping the row would corrupt the whole
// aggregation.
type DateParseError struct {
	File  string
	Line  int
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("%s line %d: EcritureDate %q: %v", e.File, e.Line, e.Value, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }
