package analytics

import "testing"

func TestMonthlySeries_AlwaysTwelvePoints(t *testing.T) {
	rows := []MonthlyRow{
		{Month: 3, Revenue: 1500, OrderCount: 4, ActiveClients: 3},
		{Month: 11, Revenue: 200, OrderCount: 1, ActiveClients: 1},
	}

	result := MonthlySeries(2025, rows)
	if result.Year != 2025 {
		t.Fatalf("expected year 2025, got %d", result.Year)
	}
	if len(result.Points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(result.Points))
	}
	for i, p := range result.Points {
		if p.Month != i+1 {
			t.Fatalf("point %d: expected month %d, got %d", i, i+1, p.Month)
		}
	}
	if result.Points[2].Revenue != 1500 || result.Points[2].OrderCount != 4 {
		t.Fatalf("march not populated: %+v", result.Points[2])
	}
	if result.Points[0].Revenue != 0 || result.Points[0].OrderCount != 0 {
		t.Fatalf("empty month must be explicit zero row: %+v", result.Points[0])
	}
}

func TestMonthlySeries_NoRows(t *testing.T) {
	result := MonthlySeries(2024, nil)
	if len(result.Points) != 12 {
		t.Fatalf("expected 12 zero points, got %d", len(result.Points))
	}
	for _, p := range result.Points {
		if p.Revenue != 0 || p.OrderCount != 0 || p.ActiveClients != 0 {
			t.Fatalf("expected zero row, got %+v", p)
		}
	}
}

func TestMonthlySeries_IgnoresOutOfRangeMonths(t *testing.T) {
	rows := []MonthlyRow{
		{Month: 0, Revenue: 100},
		{Month: 13, Revenue: 200},
		{Month: 6, Revenue: 300},
	}

	result := MonthlySeries(2025, rows)
	var total float64
	for _, p := range result.Points {
		total += p.Revenue
	}
	if total != 300 {
		t.Fatalf("out-of-range rows must be dropped, total revenue = %v", total)
	}
}
