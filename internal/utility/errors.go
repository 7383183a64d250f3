package utility

// InputError is a failure the user can fix. Its message is shown verbatim.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}

var (
	ErrInvalidExpression     = &InputError{Msg: "Invalid expression."}
	ErrCurrencyNotConfigured = &InputError{Msg: "Currency API key not configured."}
	ErrUnsupportedCurrency   = &InputError{Msg: "Unsupported currency code."}
	ErrUnsupportedConversion = &InputError{Msg: "Unsupported unit conversion."}
	ErrUnknownCity           = &InputError{Msg: "Unknown city."}
	ErrNonPositivePeople     = &InputError{Msg: "Number of people must be positive."}
	ErrNegativeAmount        = &InputError{Msg: "Total and tip must be non-negative."}
	ErrBirthdateFormat       = &InputError{Msg: "Birthdate must be in YYYY-MM-DD format."}
	ErrBirthdateInFuture     = &InputError{Msg: "Birthdate cannot be in the future."}
)
