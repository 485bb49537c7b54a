// Normalize free-text salary strings into comparable monthly-K ranges.
// Boards mix formats freely: "15-25K·13薪", "3-5K", "200元/天", "面议".

package salary

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// workingDaysPerMonth converts daily-rate postings to a monthly figure.
const workingDaysPerMonth = 21.75

var (
	bonusRe = regexp.MustCompile(`·(\d+)薪$`)
	dailyRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:-(\d+(?:\.\d+)?))?元/天$`)
	rangeRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:-(\d+(?:\.\d+)?))?[Kk]$`)
)

// Range is a normalized salary band in thousands of yuan per month.
// PeriodMonths carries the "·N薪" annual-bonus notation (12 when absent).
type Range struct {
	MinK         float64
	MaxK         float64
	PeriodMonths int
}

// Parse converts raw salary text into a Range. The second return value
// reports whether the text carried a usable range; "面议" and anything
// unparsable yield false. Parse never panics.
func Parse(text string) (Range, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.Contains(text, "面议") {
		return Range{}, false
	}

	months := 12
	if m := bonusRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			months = n
		}
		text = strings.TrimSuffix(text, m[0])
	}

	if m := dailyRe.FindStringSubmatch(text); m != nil {
		lo, hi, ok := bounds(m[1], m[2])
		if !ok {
			return Range{}, false
		}
		return Range{
			MinK:         roundHalfUp(lo * workingDaysPerMonth / 1000),
			MaxK:         roundHalfUp(hi * workingDaysPerMonth / 1000),
			PeriodMonths: months,
		}, true
	}

	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false
	}
	lo, hi, ok := bounds(m[1], m[2])
	if !ok {
		return Range{}, false
	}
	return Range{MinK: lo, MaxK: hi, PeriodMonths: months}, true
}

// bounds parses one or two numeric tokens; a missing second token means
// a point value (min == max).
func bounds(first, second string) (float64, float64, bool) {
	lo, err := strconv.ParseFloat(first, 64)
	if err != nil {
		return 0, 0, false
	}
	hi := lo
	if second != "" {
		hi, err = strconv.ParseFloat(second, 64)
		if err != nil {
			return 0, 0, false
		}
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
