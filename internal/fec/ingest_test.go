package fec

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const fecHeader = "JournalCode\tJournalLib\tEcritureDate\tCompteNum\tPieceDate\tDebit\tCredit"

func tsv(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func TestIngestConcatenatesFiles(t *testing.T) {
	files := []File{
		{Name: "a.txt", Data: tsv(
			fecHeader,
			"VT\tVentes\t20230105\t70100000\t20230105\t0,00\t100,00",
		)},
		{Name: "b.txt", Data: tsv(
			fecHeader,
			"VT\tVentes\t20230107\t70100000\t20230107\t50,00\t0,00",
			"BQ\tBanque\t20230103\t51200000\t20230103\t100,00\t0,00",
		)},
	}

	ds, err := Ingest(files)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if got := ds.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	// Upload order and within-file order are preserved.
	if ds.rows[0].File != "a.txt" || ds.rows[1].File != "b.txt" || ds.rows[2].File != "b.txt" {
		t.Errorf("row provenance = %s, %s, %s", ds.rows[0].File, ds.rows[1].File, ds.rows[2].File)
	}
	if ds.rows[2].Fields["CompteNum"] != "51200000" {
		t.Errorf("row 2 CompteNum = %q, want 51200000", ds.rows[2].Fields["CompteNum"])
	}
}

func TestIngestVaryingColumnSets(t *testing.T) {
	files := []File{
		{Name: "a.txt", Data: tsv(
			fecHeader+"\tIdClient",
			"VT\tVentes\t20230105\t70100000\t20230105\t0,00\t100,00\tC42",
		)},
		{Name: "b.txt", Data: tsv(
			fecHeader,
			"VT\tVentes\t20230106\t70100000\t20230106\t0,00\t10,00",
		)},
	}

	ds, err := Ingest(files)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if got := ds.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	if ds.rows[0].Fields["IdClient"] != "C42" {
		t.Errorf("extra column lost: %v", ds.rows[0].Fields)
	}
	if _, ok := ds.rows[1].Fields["IdClient"]; ok {
		t.Errorf("column leaked across files: %v", ds.rows[1].Fields)
	}
}

func TestIngestLatin1(t *testing.T) {
	// "Opérations" encoded as ISO 8859-1: 0xe9 is not valid UTF-8.
	data := []byte("JournalCode\tJournalLib\tEcritureDate\tCompteNum\tPieceDate\tDebit\tCredit\n" +
		"VT\tOp\xe9rations\t20230105\t70100000\t20230105\t0,00\t100,00\n")

	ds, err := Ingest([]File{{Name: "latin1.txt", Data: data}})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if got := ds.rows[0].Fields["JournalLib"]; got != "Opérations" {
		t.Errorf("JournalLib = %q, want %q", got, "Opérations")
	}
}

func TestIngestBOMHeader(t *testing.T) {
	data := append([]byte("\xef\xbb\xbf"), tsv(
		fecHeader,
		"VT\tVentes\t20230105\t70100000\t20230105\t0,00\t100,00",
	)...)

	ds, err := Ingest([]File{{Name: "bom.txt", Data: data}})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if got := ds.rows[0].Fields["JournalCode"]; got != "VT" {
		t.Errorf("JournalCode = %q, want VT (BOM not stripped?)", got)
	}
}

func TestIngestMalformedStructure(t *testing.T) {
	files := []File{
		{Name: "good.txt", Data: tsv(
			fecHeader,
			"VT\tVentes\t20230105\t70100000\t20230105\t0,00\t100,00",
		)},
		{Name: "bad.txt", Data: tsv(
			fecHeader,
			"VT\tVentes\t20230105", // truncated row
		)},
	}

	_, err := Ingest(files)
	if err == nil {
		t.Fatal("Ingest() = nil error, want *IngestError")
	}
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("error type = %T, want *IngestError", err)
	}
	if ingestErr.File != "bad.txt" {
		t.Errorf("IngestError.File = %q, want bad.txt", ingestErr.File)
	}
}

func TestIngestMissingRequiredColumn(t *testing.T) {
	files := []File{
		{Name: "nodates.txt", Data: tsv(
			"JournalCode\tCompteNum\tDebit\tCredit",
			"VT\t70100000\t0,00\t100,00",
		)},
	}

	_, err := Ingest(files)
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("error = %v, want *IngestError for missing EcritureDate", err)
	}
	if !strings.Contains(ingestErr.Error(), "EcritureDate") {
		t.Errorf("error %q does not name the missing column", ingestErr.Error())
	}
}

func TestIngestEmptyFile(t *testing.T) {
	_, err := Ingest([]File{{Name: "empty.txt", Data: nil}})
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("error = %v, want *IngestError for empty file", err)
	}
}

func TestDateBounds(t *testing.T) {
	ds, err := Ingest([]File{{Name: "a.txt", Data: tsv(
		fecHeader,
		"VT\tVentes\t20230107\t70100000\t20230107\t0,00\t1,00",
		"VT\tVentes\t20230103\t70100000\t20230103\t0,00\t1,00",
		"VT\tVentes\t20230105\t70100000\t20230105\t0,00\t1,00",
	)}})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	min, max, ok := ds.DateBounds()
	if !ok {
		t.Fatal("DateBounds() ok = false")
	}
	if want := NewDate(2023, time.January, 3); !min.Equal(want) {
		t.Errorf("min = %v, want %v", min, want)
	}
	if want := NewDate(2023, time.January, 7); !max.Equal(want) {
		t.Errorf("max = %v, want %v", max, want)
	}

	var empty *Dataset
	if _, _, ok := empty.DateBounds(); ok {
		t.Error("nil dataset DateBounds() ok = true, want false")
	}
}
