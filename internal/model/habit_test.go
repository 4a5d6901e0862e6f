package model

import "testing"

func TestParseFrequency(t *testing.T) {
	valid := map[string]Frequency{
		"daily":    FrequencyDaily,
		"Weekly":   FrequencyWeekly,
		" MONTHLY": FrequencyMonthly,
	}
	for in, want := range valid {
		got, err := ParseFrequency(in)
		if err != nil {
			t.Fatalf("ParseFrequency(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFrequency(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "hourly", "bi-weekly", "day"} {
		if _, err := ParseFrequency(in); err == nil {
			t.Fatalf("ParseFrequency(%q): expected error", in)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if got, err := ParseStatus("Active"); err != nil || got != StatusActive {
		t.Fatalf("ParseStatus(Active) = %q, %v", got, err)
	}
	if got, err := ParseStatus("inactive"); err != nil || got != StatusInactive {
		t.Fatalf("ParseStatus(inactive) = %q, %v", got, err)
	}
	if _, err := ParseStatus("paused"); err == nil {
		t.Fatal("ParseStatus(paused): expected error")
	}
}

func TestParseReminderTime(t *testing.T) {
	for _, in := range []string{"09:00 AM", "12:30 PM", "01:05 AM"} {
		if err := ParseReminderTime(in); err != nil {
			t.Fatalf("ParseReminderTime(%q): %v", in, err)
		}
	}
	for _, in := range []string{"", "9am", "25:00", "09:00", "13:00 PM"} {
		if err := ParseReminderTime(in); err == nil {
			t.Fatalf("ParseReminderTime(%q): expected error", in)
		}
	}
}
