package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestProfileComplete(t *testing.T) {
	u := &User{Email: "a@x.com"}
	u.RecomputeProfileComplete()
	if u.ProfileComplete {
		t.Fatal("empty name and mobile should be incomplete")
	}

	u.FullName, u.Mobile = "Rahim Uddin", "01712345678"
	u.RecomputeProfileComplete()
	if !u.ProfileComplete {
		t.Fatal("name and mobile set should be complete")
	}

	u.Mobile = ""
	u.RecomputeProfileComplete()
	if u.ProfileComplete {
		t.Fatal("clearing mobile should flip back to incomplete")
	}

	u.Mobile, u.FullName = "01712345678", ""
	u.ProfileComplete = true
	u.RecomputeProfileComplete()
	if u.ProfileComplete {
		t.Fatal("a stale stored value must not survive recomputation")
	}
}

func TestUserNames(t *testing.T) {
	u := &User{Email: "rahim@example.com"}
	if u.DisplayName() != "rahim@example.com" || u.ShortName() != "rahim" {
		t.Errorf("unexpected names %q %q", u.DisplayName(), u.ShortName())
	}
	u.FullName = "Rahim Uddin"
	if u.DisplayName() != "Rahim Uddin" || u.ShortName() != "Rahim" {
		t.Errorf("unexpected names %q %q", u.DisplayName(), u.ShortName())
	}
}

func TestSum(t *testing.T) {
	txs := []Transaction{
		{Amount: decimal.RequireFromString("0.10")},
		{Amount: decimal.RequireFromString("0.20")},
		{Amount: decimal.RequireFromString("-0.30")},
	}
	if !Sum(txs).IsZero() {
		t.Errorf("expected exact zero, got %s", Sum(txs))
	}
	if !Sum(nil).IsZero() {
		t.Error("empty sum should be zero")
	}
}

func TestParseReminderInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    ReminderInterval
		wantErr bool
	}{
		{"", ReminderMonthly, false},
		{"daily", ReminderDaily, false},
		{"Weekly", ReminderWeekly, false},
		{"YE", ReminderYearly, false},
		{"mo", ReminderMonthly, false},
		{"hourly", "", true},
	}
	for _, tt := range tests {
		got, err := ParseReminderInterval(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseReminderInterval(%q) = %q, %v", tt.in, got, err)
		}
	}
	if ReminderWeekly.Label() != "Weekly" || ReminderWeekly.Code() != "WE" {
		t.Error("unexpected label or code")
	}
}

func TestReminderIntervalSQL(t *testing.T) {
	v, err := ReminderYearly.Value()
	if err != nil || v != "YE" {
		t.Fatalf("Value() = %v, %v", v, err)
	}
	var r ReminderInterval
	if err := r.Scan([]byte("DA")); err != nil || r != ReminderDaily {
		t.Fatalf("Scan() = %q, %v", r, err)
	}
	if _, err := ReminderInterval("bogus").Value(); err == nil {
		t.Error("expected error for unknown interval")
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2024-01-05")
	if err != nil {
		t.Fatal(err)
	}
	if d != NewDate(2024, time.January, 5) || d.String() != "2024-01-05" {
		t.Errorf("unexpected date %s", d)
	}
	if _, err := ParseDate("05/01/2024"); err == nil {
		t.Error("expected error for non ISO date")
	}
	if _, err := ParseDate("2024-02-30"); err == nil {
		t.Error("expected error for impossible date")
	}
	if !NewDate(2024, 1, 1).Before(d) || !d.After(NewDate(2024, 1, 1)) {
		t.Error("ordering is wrong")
	}

	b, _ := json.Marshal(d)
	if string(b) != `"2024-01-05"` {
		t.Errorf("unexpected JSON %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil || back != d {
		t.Errorf("unmarshal = %s, %v", back, err)
	}

	var scanned Date
	if err := scanned.Scan(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)); err != nil || scanned != d {
		t.Errorf("scan time = %s, %v", scanned, err)
	}
	if err := scanned.Scan("2024-01-05T00:00:00Z"); err != nil || scanned != d {
		t.Errorf("scan string = %s, %v", scanned, err)
	}
}

func TestSignedDisplay(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"150.50", "+$150.50"},
		{"-349.50", "-$349.50"},
		{"0", "$0.00"},
		{"1234567.89", "+$1,234,567.89"},
	}
	for _, tt := range tests {
		got := SignedDisplay(decimal.RequireFromString(tt.amount), "USD")
		if got != tt.want {
			t.Errorf("SignedDisplay(%s) = %q, want %q", tt.amount, got, tt.want)
		}
	}
	if FormatAmount(decimal.RequireFromString("-500")) != "-500.00" {
		t.Error("amounts should render with two decimals")
	}
}
