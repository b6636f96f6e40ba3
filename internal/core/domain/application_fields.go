package domain

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Keys accepted by Application.ApplyFields. Anything else is ignored.
const (
	FieldRates             = "rates"
	FieldBiro              = "biro"
	FieldBanca             = "banca"
	FieldTenureApplied     = "tenure_applied"
	FieldTenureApproved    = "tenure_approved"
	FieldAmountApplied     = "amount_applied"
	FieldAmountApproved    = "amount_approved"
	FieldAmountDisbursed   = "amount_disbursed"
	FieldDateReceived      = "date_received"
	FieldDateApproved      = "date_approved"
	FieldDateDisbursed     = "date_disbursed"
	FieldDateRejected      = "date_rejected"
	FieldDateSubmitted     = "date_submitted"
	FieldDocumentChecklist = "document_checklist"
	FieldProductID         = "product_id"
)

type fieldSetter func(a *Application, key string, v any) error

var autoSaveFields = map[string]fieldSetter{
	FieldRates:             floatField(func(a *Application) **float64 { return &a.Rates }),
	FieldBiro:              stringField(func(a *Application) *string { return &a.Biro }),
	FieldBanca:             stringField(func(a *Application) *string { return &a.Banca }),
	FieldTenureApplied:     intField(func(a *Application) **int { return &a.TenureApplied }),
	FieldTenureApproved:    intField(func(a *Application) **int { return &a.TenureApproved }),
	FieldAmountApplied:     amountField(func(a *Application) **float64 { return &a.AmountApplied }),
	FieldAmountApproved:    amountField(func(a *Application) **float64 { return &a.AmountApproved }),
	FieldAmountDisbursed:   amountField(func(a *Application) **float64 { return &a.AmountDisbursed }),
	FieldDateReceived:      dateField(func(a *Application) **time.Time { return &a.DateReceived }),
	FieldDateApproved:      dateField(func(a *Application) **time.Time { return &a.DateApproved }),
	FieldDateDisbursed:     dateField(func(a *Application) **time.Time { return &a.DateDisbursed }),
	FieldDateRejected:      dateField(func(a *Application) **time.Time { return &a.DateRejected }),
	FieldDateSubmitted:     dateField(func(a *Application) **time.Time { return &a.DateSubmitted }),
	FieldDocumentChecklist: checklistField,
	FieldProductID:         stringField(func(a *Application) *string { return &a.ProductID }),
}

// IsAutoSaveField reports whether key is part of the auto-save whitelist.
func IsAutoSaveField(key string) bool {
	_, ok := autoSaveFields[key]
	return ok
}

// ApplyFields merges the whitelisted keys of fields into a and returns the
// keys it applied, sorted. Unknown keys are skipped. A malformed value aborts
// the merge with a validation error before anything is written.
func (a *Application) ApplyFields(fields map[string]any) ([]string, error) {
	staged := *a
	applied := make([]string, 0, len(fields))
	for key, v := range fields {
		set, ok := autoSaveFields[key]
		if !ok {
			continue
		}
		if err := set(&staged, key, v); err != nil {
			return nil, err
		}
		applied = append(applied, key)
	}
	*a = staged
	sort.Strings(applied)
	return applied, nil
}

func stringField(ref func(*Application) *string) fieldSetter {
	return func(a *Application, key string, v any) error {
		switch t := v.(type) {
		case nil:
			*ref(a) = ""
		case string:
			*ref(a) = strings.TrimSpace(t)
		case json.Number:
			*ref(a) = t.String()
		case float64:
			*ref(a) = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return Invalid("%s must be a string", key)
		}
		return nil
	}
}

func floatField(ref func(*Application) **float64) fieldSetter {
	return func(a *Application, key string, v any) error {
		f, ok, err := toFloat(key, v)
		if err != nil {
			return err
		}
		if !ok {
			*ref(a) = nil
			return nil
		}
		*ref(a) = &f
		return nil
	}
}

func amountField(ref func(*Application) **float64) fieldSetter {
	inner := floatField(ref)
	return func(a *Application, key string, v any) error {
		if err := inner(a, key, v); err != nil {
			return err
		}
		if p := *ref(a); p != nil && *p < 0 {
			return Invalid("%s must not be negative", key)
		}
		return nil
	}
}

func intField(ref func(*Application) **int) fieldSetter {
	return func(a *Application, key string, v any) error {
		f, ok, err := toFloat(key, v)
		if err != nil {
			return err
		}
		if !ok {
			*ref(a) = nil
			return nil
		}
		if f != math.Trunc(f) || f < 0 {
			return Invalid("%s must be a whole number of years", key)
		}
		n := int(f)
		*ref(a) = &n
		return nil
	}
}

func dateField(ref func(*Application) **time.Time) fieldSetter {
	return func(a *Application, key string, v any) error {
		switch t := v.(type) {
		case nil:
			*ref(a) = nil
			return nil
		case string:
			if strings.TrimSpace(t) == "" {
				*ref(a) = nil
				return nil
			}
			d, err := ParseDate(t)
			if err != nil {
				return Invalid("%s must be a date (YYYY-MM-DD)", key)
			}
			*ref(a) = &d
			return nil
		case time.Time:
			d := t.UTC()
			*ref(a) = &d
			return nil
		default:
			return Invalid("%s must be a date (YYYY-MM-DD)", key)
		}
	}
}

func checklistField(a *Application, key string, v any) error {
	switch t := v.(type) {
	case nil:
		a.DocumentChecklist = nil
	case []string:
		a.DocumentChecklist = dedupe(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return Invalid("%s must be a list of strings", key)
			}
			items = append(items, s)
		}
		a.DocumentChecklist = dedupe(items)
	default:
		return Invalid("%s must be a list of strings", key)
	}
	return nil
}

// toFloat accepts JSON numbers and numeric strings. ok is false for null or
// an empty string, which clear the field.
func toFloat(key string, v any) (f float64, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return t, true, nil
	case int:
		return float64(t), true, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false, Invalid("%s must be numeric", key)
		}
		return f, true, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, Invalid("%s must be numeric", key)
		}
		return f, true, nil
	default:
		return 0, false, Invalid("%s must be numeric", key)
	}
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return d.UTC(), nil
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
