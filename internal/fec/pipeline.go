package fec

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Params are the filter parameters of one process invocation. All bounds
// are inclusive. An inverted date range is not an error: it yields an
// empty date range and therefore an empty report.
type Params struct {
	StartCompte int64
	EndCompte   int64
	StartDate   Date
	EndDate     Date
	MinTotal    decimal.Decimal
	MaxTotal    decimal.Decimal
}

// DayTotal is the net cumulative total of one calendar day: the sum of
// credit minus debit over all entries of that day that survived the
// account filter.
type DayTotal struct {
	Date  Date
	Total decimal.Decimal
}

// Diagnostics counts the rows whose numeric fields failed coercion and
// were therefore excluded from the relevant computation. The reference
// behavior is to drop them silently; the counts exist so the surface can
// tell a reconciliation reader that something was dropped.
type Diagnostics struct {
	BadAccounts int
	BadDebits   int
	BadCredits  int
}

// Dropped reports whether any row was excluded by numeric coercion.
func (d Diagnostics) Dropped() bool {
	return d.BadAccounts > 0 || d.BadDebits > 0 || d.BadCredits > 0
}

// Report is the terminal artifact of Process: the threshold-filtered
// daily cumulative sequence, in ascending date order, possibly
// non-contiguous because the threshold filter keeps only the days whose
// total falls inside the band.
type Report struct {
	Days        []DayTotal
	DenseDays   int // days in [StartDate, EndDate] before threshold filtering
	Diagnostics Diagnostics
}

// Columns dropped before any further shaping: settlement metadata,
// currency fields, client id, and the artifact column some exports grow
// from a malformed header. Absence of any of them is not an error.
var prunedColumns = []string{
	"EcritureLet", "DateLet", "ValidDate", "Montantdevise", "Idevise",
	"DateRglt", "ModeRglt", "NatOp", "IdClient", "Unnamed: 22",
}

// Columns retained after the account filter.
var keptColumns = []string{
	"JournalCode", "JournalLib", colCompteNum, "PieceDate", colDebit, colCredit,
}

// entry is one row after date parsing and column shaping. Account, debit
// and credit are explicit optionals: a failed coercion is recorded as
// absent, never as zero.
type entry struct {
	date       Date
	account    int64
	accountOK  bool
	debit      decimal.NullDecimal
	credit     decimal.NullDecimal
	total      decimal.NullDecimal
	debitBad   bool
	creditBad  bool
}

// Process runs the full pipeline: chronological ordering, column
// shaping, account and date filtering, daily aggregation, dense date
// fill and threshold filtering. A nil or empty dataset is a no-op and
// returns an empty report. The dataset is never mutated, so re-running
// with identical parameters yields an identical report.
func (ds *Dataset) Process(p Params) (*Report, error) {
	if ds.Len() == 0 {
		return &Report{}, nil
	}

	entries := make([]entry, len(ds.rows))

	// Dates first: a malformed EcritureDate anywhere in the dataset is a
	// hard failure, even on rows a later filter would have discarded.
	for i, row := range ds.rows {
		raw := strings.TrimSpace(row.Fields[colEcritureDate])
		d, err := ParseEcritureDate(raw)
		if err != nil {
			return nil, &DateParseError{File: row.File, Line: row.Line, Value: raw, Err: err}
		}
		entries[i].date = d
	}

	// Chronological order, stable so same-day rows keep ingest order.
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return entries[idx[a]].date.Before(entries[idx[b]].date)
	})

	var diag Diagnostics
	var filtered []entry
	for _, i := range idx {
		e := entries[i]

		// Column shaping works on a copy so the session dataset survives
		// repeated invocations unchanged.
		fields := cloneFields(ds.rows[i].Fields)
		for _, col := range prunedColumns {
			delete(fields, col)
		}

		e.account, e.accountOK = parseAccount(fields[colCompteNum])
		if !e.accountOK {
			diag.BadAccounts++
			continue // unparseable accounts match no range
		}
		if e.account < p.StartCompte || e.account > p.EndCompte {
			continue
		}

		narrowColumns(fields)

		e.debit, e.debitBad = parseAmount(fields[colDebit])
		e.credit, e.creditBad = parseAmount(fields[colCredit])
		if e.debitBad {
			diag.BadDebits++
		}
		if e.creditBad {
			diag.BadCredits++
		}
		if e.debit.Valid && e.credit.Valid {
			e.total = decimal.NewNullDecimal(e.credit.Decimal.Sub(e.debit.Decimal))
		}
		filtered = append(filtered, e)
	}

	// Date-range filter and daily aggregation. Entries without a defined
	// total contribute nothing to the day's sum.
	sums := make(map[Date]decimal.Decimal)
	for _, e := range filtered {
		if e.date.Before(p.StartDate) || e.date.After(p.EndDate) {
			continue
		}
		if !e.total.Valid {
			continue
		}
		sums[e.date] = sums[e.date].Add(e.total.Decimal)
	}

	// Dense date fill: every calendar day of the range appears, absent
	// days at zero. An inverted range produces no days at all.
	report := &Report{Diagnostics: diag}
	for d := p.StartDate; !d.After(p.EndDate); d = d.Add(1) {
		report.DenseDays++
		total := sums[d]
		if total.Cmp(p.MinTotal) >= 0 && total.Cmp(p.MaxTotal) <= 0 {
			report.Days = append(report.Days, DayTotal{Date: d, Total: total})
		}
	}
	return report, nil
}

// parseAccount reinterprets the leading 8 characters of CompteNum as an
// integer account code. Longer codes carry the account number in their
// prefix; anything non-numeric is reported as unparseable, never as 0.
func parseAccount(v string) (int64, bool) {
	s := strings.TrimSpace(v)
	if len(s) > 8 {
		s = s[:8]
	}
	if s == "" {
		return 0, false
	}
	var n int64
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

// parseAmount parses a debit or credit field written with the comma
// decimal convention. An empty field is a true absence and counts as
// zero; a malformed non-empty field is unparseable (bad=true) and makes
// the row's total undefined.
func parseAmount(v string) (d decimal.NullDecimal, bad bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return decimal.NewNullDecimal(decimal.Zero), false
	}
	s = strings.ReplaceAll(s, ",", ".")
	n, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, true
	}
	return decimal.NewNullDecimal(n), false
}

func cloneFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func narrowColumns(fields map[string]string) {
	for name := range fields {
		keep := false
		for _, k := range keptColumns {
			if name == k {
				keep = true
				break
			}
		}
		if !keep {
			delete(fields, name)
		}
	}
}
