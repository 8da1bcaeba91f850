package interfacing

import "github.com/shopspring/decimal"

// RoundCents rounds half away from zero to two decimals.
func RoundCents(amount decimal.Decimal) decimal.Decimal { return amount.Round(2) }

// SumLines returns the unrounded sum of line amounts.
func SumLines(lines []StatementLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total
}

func sumOpenItems(items []OpenItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

func sumPayments(items []PaymentItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}
