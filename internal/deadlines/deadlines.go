// Package deadlines derives court deadlines from recorded milestone dates.
package deadlines

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CreditorPeriodMonths is the offset from letters issued to both the
// inventory due date and the end of the creditor claims period.
const CreditorPeriodMonths = 4

const (
	dayLayout   = "2006-01-02"
	labelLayout = "Jan 2, 2006"
)

// Sub-record field names that hold milestone dates.
const (
	FieldHearingDate       = "hearingDate"
	FieldPublicationDates  = "publicationDates"
	FieldLettersIssuedDate = "lettersIssuedDate"
)

// Kind identifies a key date.
type Kind string

const (
	KindHearing         Kind = "first_hearing"
	KindLastPublication Kind = "last_publication"
	KindLettersIssued   Kind = "letters_issued"
	KindInventoryDue    Kind = "inventory_due"
	KindCreditorEnd     Kind = "creditor_period_end"
)

// KeyDate is a milestone or derived deadline.
type KeyDate struct {
	Kind  Kind      `json:"kind"`
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
}

// Day truncates t to a UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months, clamping to the last day of the target
// month instead of overflowing into the next one.
func AddMonths(t time.Time, n int) time.Time {
	t = Day(t)
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// InventoryDue is when the inventory and appraisal must be filed.
func InventoryDue(lettersIssued time.Time) time.Time {
	return AddMonths(lettersIssued, CreditorPeriodMonths)
}

// CreditorPeriodEnd is when the creditor claims window closes.
func CreditorPeriodEnd(lettersIssued time.Time) time.Time {
	return AddMonths(lettersIssued, CreditorPeriodMonths)
}

// LastPublication returns the latest date in dates.
func LastPublication(dates []time.Time) (time.Time, bool) {
	if len(dates) == 0 {
		return time.Time{}, false
	}
	latest := Day(dates[0])
	for _, d := range dates[1:] {
		if d = Day(d); d.After(latest) {
			latest = d
		}
	}
	return latest, true
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the calendar day.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dayLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return Day(t), nil
}

// KeyDates collects milestone dates from the case phase records and derives
// the dependent deadlines. A deadline whose milestone is missing or
// unparsable is left out.
func KeyDates(records map[string]map[string]any) []KeyDate {
	var out []KeyDate

	if d, ok := dateField(records["hearing"], FieldHearingDate); ok {
		out = append(out, KeyDate{Kind: KindHearing, Label: "First Hearing", Date: d})
	}

	if last, ok := LastPublication(dateList(records["publication"], FieldPublicationDates)); ok {
		out = append(out, KeyDate{Kind: KindLastPublication, Label: "Last Publication", Date: last})
	}

	if letters, ok := dateField(records["letters"], FieldLettersIssuedDate); ok {
		out = append(out,
			KeyDate{Kind: KindLettersIssued, Label: "Letters Issued", Date: letters},
			KeyDate{Kind: KindInventoryDue, Label: "Inventory Due", Date: InventoryDue(letters)},
			KeyDate{Kind: KindCreditorEnd, Label: "Creditor Period Ends", Date: CreditorPeriodEnd(letters)},
		)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func dateField(rec map[string]any, field string) (time.Time, bool) {
	raw, ok := rec[field].(string)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	d, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func dateList(rec map[string]any, field string) []time.Time {
	var raws []string
	switch v := rec[field].(type) {
	case []string:
		raws = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raws = append(raws, s)
			}
		}
	}
	out := make([]time.Time, 0, len(raws))
	for _, raw := range raws {
		if d, err := ParseDate(raw); err == nil {
			out = append(out, d)
		}
	}
	return out
}
