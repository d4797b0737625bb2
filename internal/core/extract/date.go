package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

// Date patterns in priority order. Numeric forms outrank spelled-out month
// names, which outrank ISO. The word boundaries keep a pattern from eating
// part of a longer token, so "2024-03-15" is left for the ISO form instead
// of half-matching as a numeric date.
var (
	reDateNumeric  = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	reDateDayMonth = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{2,4})\b`)
	reDateMonthDay = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{1,2}),?\s+(\d{2,4})\b`)
	reDateISO      = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Date scans text for the first plausible calendar date. Pattern classes
// are tried strictly in priority order; within a class the leftmost valid
// match wins, and matches that fail calendar validation are skipped without
// abandoning the scan.
func Date(text string) (domain.Date, bool) {
	if d, ok := firstNumericDate(text); ok {
		return d, true
	}
	if d, ok := firstMonthNameDate(text); ok {
		return d, true
	}
	return firstISODate(text)
}

// firstNumericDate handles d/m/y and m/d/y forms. The first component
// decides the reading: values up to 12 are month-first, anything larger
// flips to day-first.
func firstNumericDate(text string) (domain.Date, bool) {
	for _, m := range reDateNumeric.FindAllStringSubmatch(text, -1) {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year := expandYear(m[3])
		month, day := first, second
		if first > 12 {
			month, day = second, first
		}
		if d, ok := domain.NewDate(year, time.Month(month), day); ok {
			return d, true
		}
	}
	return domain.Date{}, false
}

// firstMonthNameDate handles "15 March 2024" and "March 15, 2024". Both
// spellings share one priority class, so candidates from the two patterns
// are merged by position before validation.
func firstMonthNameDate(text string) (domain.Date, bool) {
	type candidate struct {
		pos              int
		year, month, day int
	}
	var candidates []candidate

	for _, idx := range reDateDayMonth.FindAllStringSubmatchIndex(text, -1) {
		month, ok := monthsByPrefix[strings.ToLower(text[idx[4]:idx[4]+3])]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(text[idx[2]:idx[3]])
		candidates = append(candidates, candidate{
			pos:   idx[0],
			year:  expandYear(text[idx[6]:idx[7]]),
			month: int(month),
			day:   day,
		})
	}
	for _, idx := range reDateMonthDay.FindAllStringSubmatchIndex(text, -1) {
		month, ok := monthsByPrefix[strings.ToLower(text[idx[2]:idx[2]+3])]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(text[idx[4]:idx[5]])
		candidates = append(candidates, candidate{
			pos:   idx[0],
			year:  expandYear(text[idx[6]:idx[7]]),
			month: int(month),
			day:   day,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].pos < candidates[j].pos })
	for _, c := range candidates {
		if d, ok := domain.NewDate(c.year, time.Month(c.month), c.day); ok {
			return d, true
		}
	}
	return domain.Date{}, false
}

func firstISODate(text string) (domain.Date, bool) {
	for _, m := range reDateISO.FindAllStringSubmatch(text, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := domain.NewDate(year, time.Month(month), day); ok {
			return d, true
		}
	}
	return domain.Date{}, false
}

// expandYear maps two-digit years onto 2000-2049 and 1950-1999. Receipts
// old enough to need 1950 are rarer than receipts dated past 2049.
func expandYear(s string) int {
	year, _ := strconv.Atoi(s)
	if len(s) == 2 {
		if year <= 49 {
			return 2000 + year
		}
		return 1900 + year
	}
	return year
}
