package regions

import (
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"2d":        48 * time.Hour,
		"2 days":    48 * time.Hour,
		" 1 hour ":  time.Hour,
		"30m":       30 * time.Minute,
		"1M":        30 * 24 * time.Hour,
		"3 MINUTES": 3 * time.Minute,
		"1y":        365 * 24 * time.Hour,
		"1 week":    7 * 24 * time.Hour,
	}
	for in, want := range cases {
		d, err := ParseDuration(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if d.Std() != want {
			t.Fatalf("%q: got %v want %v", in, d.Std(), want)
		}
	}
	for _, bad := range []string{"", "d", "2", "2 fortnights", "-1d", "0d", "two days"} {
		if _, err := ParseDuration(bad); !errors.Is(err, ErrBadDuration) {
			t.Fatalf("%q: expected ErrBadDuration, got %v", bad, err)
		}
	}
}

func TestDurationString(t *testing.T) {
	if s := (Duration{Amount: 2, Unit: UnitDay}).String(); s != "2 days" {
		t.Fatalf("got %q", s)
	}
	if s := (Duration{Amount: 1, Unit: UnitMonth}).String(); s != "1 month" {
		t.Fatalf("got %q", s)
	}
}

func TestParsePrice(t *testing.T) {
	v, err := ParsePrice("10.5")
	if err != nil || v != 10.5 {
		t.Fatalf("got %v err=%v", v, err)
	}
	if v, err := ParsePrice("0"); err != nil || v != 0 {
		t.Fatalf("zero price: %v %v", v, err)
	}
	for _, bad := range []string{"abc", "-1", "NaN", "Inf", ""} {
		if _, err := ParsePrice(bad); !errors.Is(err, ErrBadPrice) {
			t.Fatalf("%q: expected ErrBadPrice, got %v", bad, err)
		}
	}
}
