package service

import "github.com/shopspring/decimal"

// Allocate chia total discount cho các shop order theo tỷ lệ subtotal.
// Mỗi phần được làm tròn xuống VND, phần dư dồn vào order cuối cùng
// nên tổng các phần luôn bằng đúng total.
//
// Callers pass subtotals in a stable order (shop id ascending) so the
// order that absorbs the remainder is deterministic.
func Allocate(total decimal.Decimal, subtotals []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(subtotals))
	if len(subtotals) == 0 {
		return shares
	}

	for i := range shares {
		shares[i] = decimal.Zero
	}
	if !total.IsPositive() {
		return shares
	}

	sum := decimal.Zero
	for _, s := range subtotals {
		sum = sum.Add(s)
	}

	last := len(subtotals) - 1
	if !sum.IsPositive() {
		shares[last] = total
		return shares
	}

	allocated := decimal.Zero
	for i := 0; i < last; i++ {
		shares[i] = total.Mul(subtotals[i]).Div(sum).Floor()
		allocated = allocated.Add(shares[i])
	}
	shares[last] = total.Sub(allocated)

	return shares
}
