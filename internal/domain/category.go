package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SeatCategory is a named pricing/priority tier. Two categories are the same
// category when their names match case-insensitively.
type SeatCategory struct {
	name        string
	basePrice   decimal.NullDecimal
	hasPriority bool
}

func NewSeatCategory(name string, basePrice decimal.NullDecimal, hasPriority bool) (SeatCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SeatCategory{}, fmt.Errorf("%w: category name must not be empty", ErrInvalidArgument)
	}

	if basePrice.Valid && basePrice.Decimal.IsNegative() {
		return SeatCategory{}, fmt.Errorf("%w: base price must not be negative", ErrInvalidArgument)
	}

	return SeatCategory{
		name:        name,
		basePrice:   basePrice,
		hasPriority: hasPriority,
	}, nil
}

// CategoryKey normalizes a category name into the key used for identity checks.
func CategoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c SeatCategory) Name() string {
	return c.name
}

func (c SeatCategory) Key() string {
	return CategoryKey(c.name)
}

func (c SeatCategory) BasePrice() decimal.NullDecimal {
	return c.basePrice
}

func (c SeatCategory) HasPriority() bool {
	return c.hasPriority
}

func (c SeatCategory) Equal(other SeatCategory) bool {
	return c.Key() == other.Key()
}

func (c SeatCategory) IsZero() bool {
	return c.name == ""
}
