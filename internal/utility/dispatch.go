package utility

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Usage strings returned when a command has the wrong number of arguments.
const (
	UsageCurrency = "Usage: currency <amount> <from_currency> <to_currency>"
	UsageUnit     = "Usage: unit <value> <from_unit> <to_unit>"
	UsageTime     = "Usage: time <city>"
	UsageSplit    = "Usage: split <total> <num_people> <tip_percent>"
	UsageAge      = "Usage: age <YYYY-MM-DD>"
	UsageCalc     = "Usage: calc <expression>"

	MsgNoCommand      = "Please provide a command."
	MsgUnknownCommand = "Unknown command. Available: currency, unit, time, split, age, calc."
)

// Dispatcher interprets one-line utility commands such as
// "currency 10 usd eur" or "calc sqrt(2)".
type Dispatcher struct {
	currency *CurrencyConverter
	now      func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherClock sets the clock used by the time and age commands.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a dispatcher using currency for conversions.
func NewDispatcher(currency *CurrencyConverter, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{currency: currency, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Currency exposes the converter for the dedicated tool.
func (d *Dispatcher) Currency() *CurrencyConverter {
	return d.currency
}

// Now is the dispatcher's clock.
func (d *Dispatcher) Now() time.Time {
	return d.now()
}

var cityTitle = cases.Title(language.English)

// Dispatch runs query and returns the reply. Every outcome, including bad
// input, is a human-readable string.
func (d *Dispatcher) Dispatch(ctx context.Context, query string) string {
	parts := strings.Fields(query)
	if len(parts) == 0 {
		return MsgNoCommand
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	reply, err := d.run(ctx, cmd, args)
	if err == nil {
		return reply
	}

	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Msg
	}
	if cmd == "currency" {
		return "Currency conversion failed: " + err.Error()
	}
	return err.Error()
}

func (d *Dispatcher) run(ctx context.Context, cmd string, args []string) (string, error) {
	switch cmd {
	case "currency":
		if len(args) != 3 {
			return UsageCurrency, nil
		}
		amount, err := parseNumber(args[0])
		if err != nil {
			return "", err
		}
		result, err := d.currency.Convert(ctx, amount, args[1], args[2])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s = %.2f %s", FormatNumber(amount), strings.ToUpper(args[1]), result, strings.ToUpper(args[2])), nil

	case "unit":
		if len(args) != 3 {
			return UsageUnit, nil
		}
		value, err := parseNumber(args[0])
		if err != nil {
			return "", err
		}
		result, err := ConvertUnits(value, args[1], args[2])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s = %.2f %s", FormatNumber(value), args[1], result, args[2]), nil

	case "time":
		if len(args) == 0 {
			return UsageTime, nil
		}
		city := strings.Join(args, " ")
		current, err := TimeIn(city, d.now())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("The time in %s is %s", cityTitle.String(city), current), nil

	case "split":
		if len(args) != 3 {
			return UsageSplit, nil
		}
		total, err := parseNumber(args[0])
		if err != nil {
			return "", err
		}
		people, err := strconv.Atoi(args[1])
		if err != nil {
			return "", &InputError{Msg: fmt.Sprintf("invalid number of people: %q", args[1])}
		}
		tip, err := parseNumber(args[2])
		if err != nil {
			return "", err
		}
		each, err := SplitBill(total, people, tip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Each person should pay %.2f", each), nil

	case "age":
		if len(args) != 1 {
			return UsageAge, nil
		}
		years, err := CalculateAge(args[0], d.now())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You are %d years old.", years), nil

	case "calc":
		if len(args) == 0 {
			return UsageCalc, nil
		}
		expression := strings.Join(args, " ")
		result, err := Evaluate(expression)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", expression, FormatNumber(result)), nil
	}
	return MsgUnknownCommand, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &InputError{Msg: fmt.Sprintf("invalid number: %q", s)}
	}
	return v, nil
}
