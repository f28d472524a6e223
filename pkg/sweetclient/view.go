package sweetclient

import (
	"math"
	"strconv"
	"strings"
)

// Filter keeps sweets whose name or description contains term, case-insensitively,
// and whose category matches. CategoryAll or an empty category matches everything.
func Filter(sweets []Sweet, term, category string) []Sweet {
	term = strings.ToLower(term)
	out := make([]Sweet, 0, len(sweets))
	for _, s := range sweets {
		if s.Name == "" {
			continue
		}
		if !matchesTerm(s, term) {
			continue
		}
		if category != "" && category != CategoryAll && categoryOf(s) != category {
			continue
		}
		out = append(out, s)
	}
	return out
}

func matchesTerm(s Sweet, term string) bool {
	if strings.Contains(strings.ToLower(s.Name), term) {
		return true
	}
	return s.Description != nil && strings.Contains(strings.ToLower(*s.Description), term)
}

func categoryOf(s Sweet) string {
	if s.Category == "" {
		return DefaultCategory
	}
	return s.Category
}

// StockBadge returns the badge text and whether one should be shown at all.
func StockBadge(s Sweet) (string, bool) {
	if s.Quantity == nil {
		return "", false
	}
	if *s.Quantity == 0 {
		return "Out of Stock", true
	}
	return strconv.Itoa(*s.Quantity) + " left", true
}

// Purchasable is false only when the stock is known to be zero.
func Purchasable(s Sweet) bool {
	return s.Quantity == nil || *s.Quantity != 0
}

type Stats struct {
	TotalProducts int
	TotalStock    int
	OutOfStock    int
	TotalValue    float64
}

// AdminStats aggregates the catalog. Unknown quantities count as zero stock but not as out of stock.
func AdminStats(sweets []Sweet) Stats {
	st := Stats{TotalProducts: len(sweets)}
	for _, s := range sweets {
		if s.Quantity == nil {
			continue
		}
		q := *s.Quantity
		st.TotalStock += q
		st.TotalValue += s.Price * float64(q)
		if q == 0 {
			st.OutOfStock++
		}
	}
	return st
}

// FormatPrice renders p as whole rupees with Indian digit grouping, e.g. ₹1,23,456. Nil is ₹0.
func FormatPrice(p *float64) string {
	v := 0.0
	if p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0) {
		v = math.Round(*p)
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "₹" + groupIndian(strconv.FormatFloat(v, 'f', 0, 64))
}

// groupIndian groups the last three digits, then every two: 12345678 -> 1,23,45,678.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var b strings.Builder
	first := len(head) % 2
	if first > 0 {
		b.WriteString(head[:first])
	}
	for i := first; i < len(head); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
