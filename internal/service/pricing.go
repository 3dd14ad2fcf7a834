package service

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Pricing is pure decimal arithmetic. Money never touches float64; every
// intermediate value stays an exact decimal so cent-level drift cannot
// accumulate across line items.

// LineSubtotal computes (unitPrice + sum(optionDeltas)) * qty.
func LineSubtotal(unitPrice decimal.Decimal, optionDeltas []decimal.Decimal, qty int32) decimal.Decimal {
	unit := unitPrice
	for _, d := range optionDeltas {
		unit = unit.Add(d)
	}
	return unit.Mul(decimal.NewFromInt32(qty))
}

// OrderTotal sums line subtotals.
func OrderTotal(subtotals []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, s := range subtotals {
		total = total.Add(s)
	}
	return total
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
