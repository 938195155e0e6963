// Package orders turns rendered order cards into structured records and
// aggregates them.
package orders

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/orderlens/api/schemas"
)

// DateLayout is the ISO calendar-date form of Order.Date.
const DateLayout = "2006-01-02"

var (
	amountPattern = regexp.MustCompile(`(?:₹|Rs\.?)\s*(\d[\d,]*(?:\.\d+)?)`)
	datePattern   = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+(\d{4})\b`)
)

// ParseAmount returns the first currency-prefixed amount in text.
func ParseAmount(text string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ParseDate returns the first "day month year" date in text as YYYY-MM-DD.
func ParseDate(text string) (string, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	month := strings.ToUpper(m[2][:1]) + strings.ToLower(m[2][1:3])
	t, err := time.Parse("2 Jan 2006", m[1]+" "+month+" "+m[3])
	if err != nil {
		// e.g. "31 Feb 2024"
		return "", false
	}
	return t.Format(DateLayout), true
}

// RestaurantName returns the first non-blank line of text, trimmed.
func RestaurantName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return schemas.UnknownRestaurant
}

// ParseOrderText builds an order from one card's text. Both an amount and a
// date are required.
func ParseOrderText(text string) (schemas.Order, bool) {
	amount, ok := ParseAmount(text)
	if !ok {
		return schemas.Order{}, false
	}
	date, ok := ParseDate(text)
	if !ok {
		return schemas.Order{}, false
	}
	return schemas.Order{
		Date:           date,
		Amount:         amount,
		RestaurantName: RestaurantName(text),
	}, true
}

// ParseAll parses every card and returns the records found along with the
// number of cards that were dropped. The result is never nil.
func ParseAll(texts []string) ([]schemas.Order, int) {
	out := make([]schemas.Order, 0, len(texts))
	for _, text := range texts {
		if o, ok := ParseOrderText(text); ok {
			out = append(out, o)
		}
	}
	return out, len(texts) - len(out)
}
