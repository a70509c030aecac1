package cart

// ProrateDiscount splits the cart-level discount across lines in proportion
// to their subtotals. Shares are truncated to whole minor units and the last
// line with a positive subtotal absorbs the rounding remainder, so the shares
// always sum to exactly the discount.
func ProrateDiscount(lines []*Line, discount int64) []int64 {
	shares := make([]int64, len(lines))
	if discount <= 0 || len(lines) == 0 {
		return shares
	}
	var subtotal int64
	for _, l := range lines {
		subtotal += l.Subtotal()
	}
	if subtotal <= 0 {
		return shares
	}
	var distributed int64
	lastIdx := -1
	for i, l := range lines {
		ls := l.Subtotal()
		if ls <= 0 {
			continue
		}
		shares[i] = discount * ls / subtotal
		distributed += shares[i]
		lastIdx = i
	}
	if lastIdx >= 0 {
		shares[lastIdx] += discount - distributed
	}
	return shares
}
