// Package http provides the interactive surface of the report tool: the
// upload form, the process trigger, and the artifact downloads.
//
// This file parses and validates the process-form parameters.

package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fecviz/internal/fec"
)

// Form defaults mirror the revenue-account use the tool was built for:
// the 70xxxxxx class and a 25k threshold band.
const (
	defaultStartCompte = 70000000
	defaultEndCompte   = 70999999
	defaultMinTotal    = "0"
	defaultMaxTotal    = "25000"
)

// parseProcessParams extracts the six pipeline parameters from the form.
// Account bounds and thresholds fall back to their defaults when left
// blank; the dates are required because there is no sensible default
// before a dataset is loaded. An inverted date range is accepted and
// yields an empty report downstream.
func parseProcessParams(form url.Values) (fec.Params, error) {
	var p fec.Params
	var err error

	if p.StartCompte, err = compteValue(form, "start_compte", defaultStartCompte); err != nil {
		return p, err
	}
	if p.EndCompte, err = compteValue(form, "end_compte", defaultEndCompte); err != nil {
		return p, err
	}

	if p.StartDate, err = dateValue(form, "start_date"); err != nil {
		return p, err
	}
	if p.EndDate, err = dateValue(form, "end_date"); err != nil {
		return p, err
	}

	if p.MinTotal, err = totalValue(form, "min_total", defaultMinTotal); err != nil {
		return p, err
	}
	if p.MaxTotal, err = totalValue(form, "max_total", defaultMaxTotal); err != nil {
		return p, err
	}

	return p, nil
}

func compteValue(form url.Values, key string, defaultValue int64) (int64, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("paramètre %s invalide: %q n'est pas un entier", key, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("paramètre %s invalide: doit être positif", key)
	}
	return n, nil
}

func dateValue(form url.Values, key string) (fec.Date, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return fec.Date{}, fmt.Errorf("paramètre %s manquant", key)
	}
	d, err := fec.ParseDate(v)
	if err != nil {
		return fec.Date{}, fmt.Errorf("paramètre %s invalide: %q n'est pas une date", key, v)
	}
	return d, nil
}

func totalValue(form url.Values, key, defaultValue string) (decimal.Decimal, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		v = defaultValue
	}
	// Accept the comma decimal convention in thresholds too.
	n, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("paramètre %s invalide: %q n'est pas un nombre", key, v)
	}
	if n.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("paramètre %s invalide: doit être positif", key)
	}
	return n, nil
}
