package fuel

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CalcMode selects what the calculator input represents.
type CalcMode string

const (
	// ByVolume takes liters and computes the amount to pay.
	ByVolume CalcMode = "liters"
	// ByValue takes an amount of money and computes the liters it buys.
	ByValue CalcMode = "value"
)

const litersPlaces = 6

var (
	ErrInvalidPrice  = errors.New("invalid price")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrUnknownMode   = errors.New("unknown calculation mode")
)

var (
	amountChars = regexp.MustCompile(`[^0-9.,]`)
	nonDigits   = regexp.MustCompile(`[^0-9]`)
	centsSuffix = regexp.MustCompile(`^(\d+)(\d{2})$`)
)

// Calculation is the calculator result for a selected fuel.
type Calculation struct {
	Mode   CalcMode `json:"mode"`
	Price  float64  `json:"price"`
	Liters float64  `json:"liters"`
	Total  float64  `json:"total"`
}

// ComputeTotal computes either the total cost of input liters (ByVolume)
// or the liters bought with input money (ByValue) at the record price.
func ComputeTotal(mode CalcMode, record Record, input float64) (Calculation, error) {
	if record.Price <= 0 || !finite(record.Price) {
		return Calculation{}, fmt.Errorf("%w: %v", ErrInvalidPrice, record.Price)
	}
	if input < 0 || !finite(input) {
		return Calculation{}, fmt.Errorf("%w: %v", ErrInvalidAmount, input)
	}

	price := decimal.NewFromFloat(record.Price)
	amount := decimal.NewFromFloat(input)
	calc := Calculation{Mode: mode, Price: record.Price}

	switch mode {
	case ByVolume:
		calc.Liters = input
		calc.Total = amount.Mul(price).InexactFloat64()
	case ByValue:
		calc.Total = input
		calc.Liters = amount.DivRound(price, litersPlaces).InexactFloat64()
	default:
		return Calculation{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if !finite(calc.Total) || !finite(calc.Liters) {
		return Calculation{}, fmt.Errorf("%w: result out of range", ErrInvalidAmount)
	}

	return calc, nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// ParseAmount parses calculator input, ignoring anything that is not a
// digit or decimal separator and accepting a comma as separator.
func ParseAmount(text string) (float64, error) {
	cleaned := strings.Replace(amountChars.ReplaceAllString(text, ""), ",", ".", 1)
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	f := d.InexactFloat64()
	if !finite(f) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return f, nil
}

// FormatPriceInput turns keyed-in digits into a price string with two
// decimal places ("599" becomes "5.99"). Inputs with fewer than three
// digits are returned as digits only.
func FormatPriceInput(text string) string {
	digits := nonDigits.ReplaceAllString(text, "")
	return centsSuffix.ReplaceAllString(digits, "$1.$2")
}

// ParsePrice parses a submitted price and rejects anything not strictly
// positive.
func ParsePrice(text string) (float64, error) {
	cleaned := strings.Replace(strings.TrimSpace(text), ",", ".", 1)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPrice, d.String())
	}
	f := d.InexactFloat64()
	if !finite(f) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidPrice)
	}
	return f, nil
}
