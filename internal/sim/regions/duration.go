package regions

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	ErrBadDuration = errors.New("invalid duration")
	ErrBadPrice    = errors.New("invalid price")
)

type Unit int

const (
	UnitSecond Unit = iota + 1
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

var unitLength = map[Unit]time.Duration{
	UnitSecond: time.Second,
	UnitMinute: time.Minute,
	UnitHour:   time.Hour,
	UnitDay:    24 * time.Hour,
	UnitWeek:   7 * 24 * time.Hour,
	UnitMonth:  30 * 24 * time.Hour,
	UnitYear:   365 * 24 * time.Hour,
}

var unitName = map[Unit][2]string{
	UnitSecond: {"second", "seconds"},
	UnitMinute: {"minute", "minutes"},
	UnitHour:   {"hour", "hours"},
	UnitDay:    {"day", "days"},
	UnitWeek:   {"week", "weeks"},
	UnitMonth:  {"month", "months"},
	UnitYear:   {"year", "years"},
}

// "M" is months and "m" minutes, so exact matches win over folded ones.
var unitAliases = map[string]Unit{
	"s": UnitSecond, "sec": UnitSecond, "secs": UnitSecond, "second": UnitSecond, "seconds": UnitSecond,
	"m": UnitMinute, "min": UnitMinute, "mins": UnitMinute, "minute": UnitMinute, "minutes": UnitMinute,
	"h": UnitHour, "hr": UnitHour, "hrs": UnitHour, "hour": UnitHour, "hours": UnitHour,
	"d": UnitDay, "day": UnitDay, "days": UnitDay,
	"w": UnitWeek, "week": UnitWeek, "weeks": UnitWeek,
	"M": UnitMonth, "mo": UnitMonth, "mon": UnitMonth, "month": UnitMonth, "months": UnitMonth,
	"y": UnitYear, "yr": UnitYear, "yrs": UnitYear, "year": UnitYear, "years": UnitYear,
}

// Duration is a rent period as written on a marker, e.g. "2d" or "1 month".
type Duration struct {
	Amount int
	Unit   Unit
}

var DefaultRentDuration = Duration{Amount: 1, Unit: UnitDay}

func (d Duration) Std() time.Duration {
	return time.Duration(d.Amount) * unitLength[d.Unit]
}

func (d Duration) String() string {
	n, ok := unitName[d.Unit]
	if !ok {
		return strconv.Itoa(d.Amount)
	}
	if d.Amount == 1 {
		return "1 " + n[0]
	}
	return fmt.Sprintf("%d %s", d.Amount, n[1])
}

// ParseDuration accepts <amount>[whitespace]<unit> with a positive amount.
func ParseDuration(text string) (Duration, error) {
	s := strings.TrimSpace(text)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return Duration{}, fmt.Errorf("%w: %q", ErrBadDuration, text)
	}
	amount, err := strconv.Atoi(s[:i])
	if err != nil || amount <= 0 {
		return Duration{}, fmt.Errorf("%w: %q", ErrBadDuration, text)
	}
	unitText := strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	u, ok := unitAliases[unitText]
	if !ok {
		u, ok = unitAliases[strings.ToLower(unitText)]
	}
	if !ok {
		return Duration{}, fmt.Errorf("%w: unknown unit in %q", ErrBadDuration, text)
	}
	return Duration{Amount: amount, Unit: u}, nil
}

func CheckDuration(text string) bool {
	_, err := ParseDuration(text)
	return err == nil
}

// ParsePrice accepts a finite, non-negative decimal.
func ParsePrice(text string) (float64, error) {
	s := strings.TrimSpace(text)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadPrice, text)
	}
	return v, nil
}
