// Package billing implements the MMYY pay-cycle tag used to key fee
// payments against calendar months. Tags are pure data; nothing here
// touches the database.
package billing

import (
	"fmt"
	"regexp"
	"time"
)

// tagPattern accepts exactly four digits with a month in 01-12.
var tagPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])\d{2}$`)

// Cycle is a parsed pay-cycle tag. Year is the full four-digit year
// (two-digit tag years are anchored to 2000+).
type Cycle struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year"`
}

// Classification of a payment relative to the cycle it was recorded in.
type Classification string

const (
	ClassRegular Classification = "regular"
	ClassArrear  Classification = "arrear"
	ClassAdvance Classification = "advance"
)

// TagAt returns the MMYY tag for the month containing t.
func TagAt(t time.Time) string {
	return fmt.Sprintf("%02d%02d", int(t.Month()), t.Year()%100)
}

// CurrentTag returns the tag for the current billing cycle.
func CurrentTag() string {
	return TagAt(time.Now())
}

// IsValid reports whether tag is a syntactically valid cycle tag.
func IsValid(tag string) bool {
	return tagPattern.MatchString(tag)
}

// Parse converts an MMYY tag into a Cycle.
func Parse(tag string) (Cycle, error) {
	if !tagPattern.MatchString(tag) {
		return Cycle{}, fmt.Errorf("invalid cycle tag %q: want MMYY with month 01-12", tag)
	}
	month := int(tag[0]-'0')*10 + int(tag[1]-'0')
	year := int(tag[2]-'0')*10 + int(tag[3]-'0')
	return Cycle{Month: time.Month(month), Year: 2000 + year}, nil
}

// Tag renders the cycle back into its MMYY form.
func (c Cycle) Tag() string {
	return fmt.Sprintf("%02d%02d", int(c.Month), c.Year%100)
}

// Start returns midnight UTC on the first day of the cycle's month.
func (c Cycle) Start() time.Time {
	return time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Compare orders two tags by calendar position: -1 if a is earlier
// than b, 0 if equal, 1 if later. Tags must be parsed before
// comparison; raw string order breaks across year boundaries
// ("1229" sorts after "0130" lexicographically but is a year earlier).
func Compare(a, b string) (int, error) {
	ca, err := Parse(a)
	if err != nil {
		return 0, err
	}
	cb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	switch {
	case ca.Year != cb.Year:
		if ca.Year < cb.Year {
			return -1, nil
		}
		return 1, nil
	case ca.Month != cb.Month:
		if ca.Month < cb.Month {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, nil
	}
}

// Classify buckets a payment's tag against the cycle current at ref:
// earlier cycles are arrears, later ones advances, the same cycle is a
// regular payment.
func Classify(tag string, ref time.Time) (Classification, error) {
	cmp, err := Compare(tag, TagAt(ref))
	if err != nil {
		return "", err
	}
	switch {
	case cmp < 0:
		return ClassArrear, nil
	case cmp > 0:
		return ClassAdvance, nil
	default:
		return ClassRegular, nil
	}
}
