package core

import "testing"

func sub(name string, cents int64, rt RenewalType) Subscription {
	return Subscription{Name: name, Cost: Money{Cents: cents}, RenewalType: rt, SubscriptionDate: NewDate(2026, 10, 1)}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	if stats.MonthlyCost.Cents != 0 || stats.YearlyCost.Cents != 0 {
		t.Fatalf("expected zero totals, got %+v", stats)
	}
	if stats.ServiceCosts == nil || len(stats.ServiceCosts) != 0 {
		t.Fatalf("expected empty non-nil breakdown, got %#v", stats.ServiceCosts)
	}
	if stats.SubscriptionCount != 0 {
		t.Fatalf("expected count 0, got %d", stats.SubscriptionCount)
	}
}

func TestSummarizeMixedCadences(t *testing.T) {
	subs := []Subscription{
		sub("Netflix", 1000, Monthly),
		sub("Spotify", 6000, Yearly),
	}
	stats := Summarize(subs)

	if stats.MonthlyCost.Cents != 1500 {
		t.Errorf("monthly total = %s, want 15.00", stats.MonthlyCost)
	}
	if stats.YearlyCost.Cents != 18000 {
		t.Errorf("yearly total = %s, want 180.00", stats.YearlyCost)
	}
	if stats.SubscriptionCount != 2 {
		t.Errorf("count = %d, want 2", stats.SubscriptionCount)
	}

	want := []ServiceCost{
		{Name: "Netflix", MonthlyCost: Money{Cents: 1000}, YearlyCost: Money{Cents: 12000}},
		{Name: "Spotify", MonthlyCost: Money{Cents: 500}, YearlyCost: Money{Cents: 6000}},
	}
	if len(stats.ServiceCosts) != len(want) {
		t.Fatalf("breakdown = %+v", stats.ServiceCosts)
	}
	for i := range want {
		if stats.ServiceCosts[i] != want[i] {
			t.Errorf("breakdown[%d] = %+v, want %+v", i, stats.ServiceCosts[i], want[i])
		}
	}
}

func TestTotalMonthlyCostRoundsOnce(t *testing.T) {
	// Three yearly plans at 10.00 are 0.8333 each; rounding per item would give 2.49.
	subs := []Subscription{
		sub("A", 1000, Yearly),
		sub("B", 1000, Yearly),
		sub("C", 1000, Yearly),
	}
	if got := TotalMonthlyCost(subs); got.Cents != 250 {
		t.Fatalf("monthly total = %s, want 2.50", got)
	}
}

func TestCostByServiceGroupsByName(t *testing.T) {
	subs := []Subscription{
		sub("Zed", 100, Monthly),
		sub("Cloud", 1200, Yearly),
		sub("Cloud", 100, Monthly),
	}
	got := CostByService(subs)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %+v", got)
	}
	if got[0].Name != "Cloud" || got[1].Name != "Zed" {
		t.Fatalf("expected name order, got %+v", got)
	}
	if got[0].MonthlyCost.Cents != 200 || got[0].YearlyCost.Cents != 2400 {
		t.Fatalf("cloud group = %+v", got[0])
	}
}
