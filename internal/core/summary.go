package core

import "sort"

// ServiceCost is the normalized spend of one service name.
type ServiceCost struct {
	Name        string `json:"name"`
	MonthlyCost Money  `json:"monthly_cost"`
	YearlyCost  Money  `json:"yearly_cost"`
}

// Statistics is the spend summary for one owner.
type Statistics struct {
	MonthlyCost       Money         `json:"monthly_cost"`
	YearlyCost        Money         `json:"yearly_cost"`
	ServiceCosts      []ServiceCost `json:"service_costs"`
	SubscriptionCount int           `json:"subscription_count"`
}

// TotalMonthlyCost sums monthly equivalents. Yearly plans are carried in
// twelfths of a cent and rounded once, so the total is exact for the stored costs.
func TotalMonthlyCost(subs []Subscription) Money {
	var twelfths int64
	for _, s := range subs {
		twelfths += monthlyTwelfths(s.Cost, s.RenewalType)
	}
	return Money{Cents: roundTwelfths(twelfths)}
}

// TotalYearlyCost sums yearly equivalents. Empty input yields zero.
func TotalYearlyCost(subs []Subscription) Money {
	var total Money
	for _, s := range subs {
		total.Cents += YearlyEquivalent(s.Cost, s.RenewalType).Cents
	}
	return total
}

// CostByService groups subscriptions by name, sorted by name.
func CostByService(subs []Subscription) []ServiceCost {
	type acc struct {
		twelfths int64
		yearly   int64
	}
	byName := make(map[string]*acc)
	for _, s := range subs {
		a, ok := byName[s.Name]
		if !ok {
			a = &acc{}
			byName[s.Name] = a
		}
		a.twelfths += monthlyTwelfths(s.Cost, s.RenewalType)
		a.yearly += YearlyEquivalent(s.Cost, s.RenewalType).Cents
	}

	out := make([]ServiceCost, 0, len(byName))
	for name, a := range byName {
		out = append(out, ServiceCost{
			Name:        name,
			MonthlyCost: Money{Cents: roundTwelfths(a.twelfths)},
			YearlyCost:  Money{Cents: a.yearly},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Summarize builds the full statistics block. It never fails on empty input.
func Summarize(subs []Subscription) Statistics {
	return Statistics{
		MonthlyCost:       TotalMonthlyCost(subs),
		YearlyCost:        TotalYearlyCost(subs),
		ServiceCosts:      CostByService(subs),
		SubscriptionCount: len(subs),
	}
}
