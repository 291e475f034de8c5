package analytics

// Params are the fixed assumptions of the inventory models.
type Params struct {
	// LeadTimeDays is the supplier lead time used for stockout reorder points.
	LeadTimeDays int
	// OrderCost and HoldingCost feed the simplified EOQ formula. They are
	// placeholders, not modeled costs.
	OrderCost   float64
	HoldingCost float64
	// SmoothingAlpha weights older weeks in the backward demand fold.
	SmoothingAlpha float64
	// MaxForecastDays bounds the sales forecast horizon.
	MaxForecastDays int
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		LeadTimeDays:    7,
		OrderCost:       100,
		HoldingCost:     5,
		SmoothingAlpha:  0.3,
		MaxForecastDays: 365,
	}
}

// withDefaults replaces unusable values so no formula divides by zero.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.LeadTimeDays <= 0 {
		p.LeadTimeDays = d.LeadTimeDays
	}
	if p.OrderCost <= 0 {
		p.OrderCost = d.OrderCost
	}
	if p.HoldingCost <= 0 {
		p.HoldingCost = d.HoldingCost
	}
	if p.SmoothingAlpha <= 0 || p.SmoothingAlpha > 1 {
		p.SmoothingAlpha = d.SmoothingAlpha
	}
	if p.MaxForecastDays <= 0 {
		p.MaxForecastDays = d.MaxForecastDays
	}
	return p
}
