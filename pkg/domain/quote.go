package domain

import (
	"math"
	"strconv"
	"strings"
)

// QuoteLine is the price contribution of one selected option.
type QuoteLine struct {
	OptionID string  `json:"option_id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
}

// Quote is the price breakdown of a booking.
type Quote struct {
	Base     float64     `json:"base"`
	Lines    []QuoteLine `json:"lines,omitempty"`
	Discount float64     `json:"discount,omitempty"`
	Total    float64     `json:"total"`
}

// NewQuote prices a service with the option values found in fields.
//
// Fixed impacts add the amount once for choice, text and checkbox options and
// once per unit for numeric options. Percentage impacts apply to the base price.
func NewQuote(svc *Service, fields map[FieldKey]FieldState) Quote {
	if svc == nil {
		return Quote{}
	}
	q := Quote{Base: svc.Price, Total: svc.Price}
	for _, opt := range svc.Options {
		v := strings.TrimSpace(fields[OptionField(opt.ID)].Value)
		if v == "" || v == "0" || opt.PriceImpact == 0 {
			continue
		}

		units := 1.0
		if opt.Type.IsNumeric() {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil || n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
				continue
			}
			units = n
		}

		var amount float64
		switch opt.ImpactType {
		case ImpactPercentage:
			amount = svc.Price * opt.PriceImpact / 100 * units
		default:
			amount = opt.PriceImpact * units
		}
		amount = round2(amount)
		q.Lines = append(q.Lines, QuoteLine{OptionID: opt.ID, Name: opt.Name, Amount: amount})
		q.Total += amount
	}
	q.Total = round2(math.Max(q.Total-q.Discount, 0))
	return q
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
