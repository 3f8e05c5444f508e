package analytics

import (
	"github.com/platformbuilds/salescope-core/internal/models"
)

// MonthlyRow is one aggregated month as fetched from the store. Months
// without activity simply have no row.
type MonthlyRow struct {
	Month         int
	Revenue       float64
	OrderCount    int64
	ActiveClients int64
}

// MonthlySeries expands sparse month rows into a continuous twelve-point
// series with explicit zero rows, so consumers can chart the year without
// gap handling. Rows outside 1..12 are ignored.
func MonthlySeries(year int, rows []MonthlyRow) models.TimeSeriesResult {
	points := make([]models.MonthlyPoint, 12)
	for i := range points {
		points[i].Month = i + 1
	}
	for _, r := range rows {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		p := &points[r.Month-1]
		p.Revenue += r.Revenue
		p.OrderCount += r.OrderCount
		p.ActiveClients += r.ActiveClients
	}
	return models.TimeSeriesResult{Year: year, Points: points}
}
