package extract

import (
	"regexp"
	"strings"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

var (
	// reTotalKeyword marks lines whose amounts are authoritative. The word
	// boundary keeps "subtotal" from qualifying.
	reTotalKeyword = regexp.MustCompile(`(?i)\b(?:grand\s+total|amount\s+due|total|balance|sum)\b`)

	// reAmountToken over-captures on purpose; validateToken decides which
	// matches are monetary.
	reAmountToken = regexp.MustCompile(`[$£€¥]?\d[\d,]*(?:\.\d+)?`)

	currencySymbols = []string{"$", "£", "€", "¥"}
)

// maxAmountDigits caps the integer part of a candidate. OCR loves to smear
// phone numbers and barcodes into the text, and no receipt totals eight
// figures.
const maxAmountDigits = 7

// Amount scans normalized lines for the money total. Lines carrying a
// total-family keyword are authoritative: the last amount on the last such
// line wins. Without any, the largest amount anywhere is used.
func Amount(lines []string) (domain.Amount, bool) {
	var all []domain.Amount
	var fromTotalLine *domain.Amount

	for _, line := range lines {
		totalLine := reTotalKeyword.MatchString(line)
		candidates := lineAmounts(line, totalLine)
		all = append(all, candidates...)
		if totalLine && len(candidates) > 0 {
			last := candidates[len(candidates)-1]
			fromTotalLine = &last
		}
	}

	if fromTotalLine != nil {
		return *fromTotalLine, true
	}
	if len(all) == 0 {
		return domain.Amount{}, false
	}
	max := all[0]
	for _, a := range all[1:] {
		if max.LessThan(a) {
			max = a
		}
	}
	return max, true
}

// lineAmounts extracts the monetary candidates of one line, left to right.
func lineAmounts(line string, totalLine bool) []domain.Amount {
	var out []domain.Amount
	for _, token := range reAmountToken.FindAllString(line, -1) {
		if amt, ok := validateToken(token, totalLine); ok {
			out = append(out, amt)
		}
	}
	return out
}

// validateToken applies the monetary shape rules. A bare integer is only
// trusted on a total-family line; elsewhere a candidate needs a currency
// symbol, a two-digit fraction, or comma grouping to count as money.
func validateToken(token string, totalLine bool) (domain.Amount, bool) {
	token = strings.TrimRight(token, ",")
	hasSymbol := false
	for _, sym := range currencySymbols {
		if strings.HasPrefix(token, sym) {
			token = strings.TrimPrefix(token, sym)
			hasSymbol = true
			break
		}
	}

	intPart := token
	fracPart := ""
	if i := strings.IndexByte(token, '.'); i >= 0 {
		intPart, fracPart = token[:i], token[i+1:]
		if len(fracPart) != 2 {
			return domain.Amount{}, false
		}
	}

	hasGrouping := strings.Contains(intPart, ",")
	if hasGrouping && !validGrouping(intPart) {
		return domain.Amount{}, false
	}

	digits := strings.ReplaceAll(intPart, ",", "")
	if len(digits) > maxAmountDigits {
		return domain.Amount{}, false
	}
	if len(digits) > 1 && digits[0] == '0' {
		return domain.Amount{}, false
	}
	if fracPart == "" && !totalLine && !hasSymbol && !hasGrouping {
		return domain.Amount{}, false
	}

	amt, err := domain.ParseAmount(token)
	if err != nil {
		return domain.Amount{}, false
	}
	return amt, true
}

// validGrouping accepts standard thousands grouping: 1-3 leading digits,
// then groups of exactly three.
func validGrouping(intPart string) bool {
	groups := strings.Split(intPart, ",")
	if len(groups[0]) < 1 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}
