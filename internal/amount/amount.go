// Package amount implements the signed 128-bit integer quantity used for
// invoice amounts and asset balances.
package amount

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// ErrOutOfRange is returned when a value does not fit in a signed 128-bit integer.
	ErrOutOfRange = errors.New("amount out of int128 range")
	// ErrNotInteger is returned when a value carries a fractional part.
	ErrNotInteger = errors.New("amount must be an integer")
)

var (
	maxValue = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)), 0)
	minValue = decimal.NewFromBigInt(new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127)), 0)
)

// Amount is an exact integer in [-2^127, 2^127-1]. The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// New builds an Amount from an int64.
func New(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// Parse reads a base-10 integer string.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is like Parse but panics on error. Use for literals.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal validates d as an int128 value.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.IsInteger() {
		return Zero, ErrNotInteger
	}
	if d.GreaterThan(maxValue) || d.LessThan(minValue) {
		return Zero, ErrOutOfRange
	}
	return Amount{d: decimal.NewFromBigInt(d.BigInt(), 0)}, nil
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Neg returns -a. Negating the minimum value overflows.
func (a Amount) Neg() (Amount, error) { return FromDecimal(a.d.Neg()) }

// Add returns a+b, failing on overflow.
func (a Amount) Add(b Amount) (Amount, error) { return FromDecimal(a.d.Add(b.d)) }

// Sub returns a-b, failing on overflow.
func (a Amount) Sub(b Amount) (Amount, error) { return FromDecimal(a.d.Sub(b.d)) }

func (a Amount) String() string { return a.d.String() }

// MarshalJSON encodes the amount as a decimal string so that values beyond
// 2^53 survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.d.String())
}

// UnmarshalJSON accepts a decimal string or a JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer; amounts are stored as NUMERIC text.
func (a Amount) Value() (driver.Value, error) {
	return a.d.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Zero
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case []byte:
		return a.Scan(string(v))
	case int64:
		*a = New(v)
		return nil
	default:
		return fmt.Errorf("amount: unsupported scan type %T", src)
	}
}
