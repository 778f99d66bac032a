package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ReminderInterval is how often the counterparty of an account is reminded.
type ReminderInterval string

const (
	ReminderDaily   ReminderInterval = "daily"
	ReminderWeekly  ReminderInterval = "weekly"
	ReminderMonthly ReminderInterval = "monthly"
	ReminderYearly  ReminderInterval = "yearly"
)

// DefaultReminderInterval applies when an account is created without one.
const DefaultReminderInterval = ReminderMonthly

var reminderCodes = map[ReminderInterval]string{
	ReminderDaily:   "DA",
	ReminderWeekly:  "WE",
	ReminderMonthly: "MO",
	ReminderYearly:  "YE",
}

// ParseReminderInterval accepts the names (any case) or the two-letter
// storage codes. An empty string yields the default.
func ParseReminderInterval(s string) (ReminderInterval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultReminderInterval, nil
	}
	lower := ReminderInterval(strings.ToLower(s))
	if _, ok := reminderCodes[lower]; ok {
		return lower, nil
	}
	upper := strings.ToUpper(s)
	for ri, code := range reminderCodes {
		if code == upper {
			return ri, nil
		}
	}
	return "", fmt.Errorf("unknown reminder interval %q", s)
}

// Label is the human readable name, e.g. "Monthly".
func (r ReminderInterval) Label() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// Code is the two-letter storage code.
func (r ReminderInterval) Code() string { return reminderCodes[r] }

func (r ReminderInterval) Value() (driver.Value, error) {
	code, ok := reminderCodes[r]
	if !ok {
		return nil, fmt.Errorf("unknown reminder interval %q", string(r))
	}
	return code, nil
}

func (r *ReminderInterval) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into ReminderInterval", src)
	}
	parsed, err := ParseReminderInterval(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
