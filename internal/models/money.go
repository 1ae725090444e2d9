package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact amount in one currency. Balances and report totals use it;
// transaction and payment amounts stay float64 because scoring works on ratios.
type Money struct {
	Amount   decimal.Decimal `json:"amount" yaml:"amount"`
	Currency string          `json:"currency" yaml:"currency"`
}

// NewMoney pairs an amount with a currency.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// NewMoneyFromFloat converts a float amount; NaN and infinities are rejected.
func NewMoneyFromFloat(amount float64, currency string) (Money, error) {
	if !IsFiniteAmount(amount) {
		return Money{}, fmt.Errorf("non-finite amount %v", amount)
	}
	return NewMoney(decimal.NewFromFloat(amount), currency), nil
}

// NewMoneyFromString parses a plain decimal string such as "1500.50".
func NewMoneyFromString(amount, currency string) (Money, error) {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string '%s': %w", amount, err)
	}
	return NewMoney(dec, currency), nil
}

// ZeroMoney is the additive identity for currency.
func ZeroMoney(currency string) Money {
	return NewMoney(decimal.Zero, currency)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Add fails when the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot add different currencies: %s and %s", m.Currency, other.Currency)
	}
	return NewMoney(m.Amount.Add(other.Amount), m.Currency), nil
}

// Sub fails when the currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot subtract different currencies: %s and %s", m.Currency, other.Currency)
	}
	return NewMoney(m.Amount.Sub(other.Amount), m.Currency), nil
}

// PlusFloat adds an amount already known to be in m's currency. Non-finite
// amounts are ignored so one corrupt line cannot poison a total.
func (m Money) PlusFloat(amount float64) Money {
	if !IsFiniteAmount(amount) {
		return m
	}
	return NewMoney(m.Amount.Add(decimal.NewFromFloat(amount)), m.Currency)
}

// String renders two decimals followed by the currency, e.g. "1500.50 CHF".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

// Float64 is lossy; use it only for display or scoring.
func (m Money) Float64() float64 {
	f, _ := m.Amount.Float64()
	return f
}

func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount) && m.Currency == other.Currency
}
