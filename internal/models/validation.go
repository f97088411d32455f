package models

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	nimPattern   = regexp.MustCompile(`^[0-9]{8}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
)

const dateLayout = "2006-01-02"

// FieldErrors maps a payload field name to a user-facing message. The first
// message recorded for a field wins.
type FieldErrors map[string]string

// Add records msg for field unless one is already present.
func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// Empty reports whether no violations were recorded.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Fields returns the violating field names in stable order.
func (f FieldErrors) Fields() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidNIM reports whether nim is an 8 digit student number.
func ValidNIM(nim string) bool {
	return nimPattern.MatchString(nim)
}

// ValidEmail performs a permissive address check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone accepts 9 to 15 digits with an optional leading plus.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(phone, " ", ""))
}

func requireText(errs FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, field+" is required")
	}
}

func requireYear(errs FieldErrors, field string, year int) {
	if year <= 0 {
		errs.Add(field, field+" is required")
		return
	}
	if year < 1950 || year > time.Now().Year()+10 {
		errs.Add(field, field+" is out of range")
	}
}

// requireEndWhenInactive enforces "an end year is present once the activity stopped".
func requireEndWhenInactive(errs FieldErrors, active bool, start int, end *int, reason string) {
	if end == nil {
		if !active {
			errs.Add("endYear", "endYear is required when "+reason)
		}
		return
	}
	if start > 0 && *end < start {
		errs.Add("endYear", "endYear must not be before startYear")
	}
}

func validateDateRange(errs FieldErrors, start, end string) {
	startAt, err := time.Parse(dateLayout, strings.TrimSpace(start))
	if err != nil {
		errs.Add("startDate", "startDate must use YYYY-MM-DD")
		return
	}
	if strings.TrimSpace(end) == "" {
		return
	}
	endAt, err := time.Parse(dateLayout, strings.TrimSpace(end))
	if err != nil {
		errs.Add("endDate", "endDate must use YYYY-MM-DD")
		return
	}
	if endAt.Before(startAt) {
		errs.Add("endDate", "endDate must not be before startDate")
	}
}
