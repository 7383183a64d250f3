package expenses

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseable is returned when a message has no amount or category.
var ErrUnparseable = errors.New("Could not parse expense message")

var (
	amountPattern   = regexp.MustCompile(`₹?\s*([0-9]+(?:\.[0-9]+)?)`)
	categoryPattern = regexp.MustCompile(`on\s+([A-Za-z]+)`)
	datePattern     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// ParseMessage extracts an expense from text like "Spent ₹250 on lunch
// yesterday". An explicit YYYY-MM-DD date wins over "yesterday"; otherwise
// the expense is dated now. The category is lowercased.
func ParseMessage(message string, now time.Time) (Expense, error) {
	amountMatch := amountPattern.FindStringSubmatch(message)
	categoryMatch := categoryPattern.FindStringSubmatch(message)
	if amountMatch == nil || categoryMatch == nil {
		return Expense{}, ErrUnparseable
	}

	amount, err := strconv.ParseFloat(amountMatch[1], 64)
	if err != nil {
		return Expense{}, ErrUnparseable
	}

	ts := now
	if d := datePattern.FindString(message); d != "" {
		parsed, err := time.ParseInLocation("2006-01-02", d, now.Location())
		if err != nil {
			return Expense{}, ErrUnparseable
		}
		ts = parsed
	} else if strings.Contains(strings.ToLower(message), "yesterday") {
		ts = now.AddDate(0, 0, -1)
	}

	return Expense{
		Amount:    amount,
		Category:  strings.ToLower(categoryMatch[1]),
		Timestamp: ts,
	}, nil
}
