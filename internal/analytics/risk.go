package analytics

import (
	"sort"
	"time"

	"github.com/platformbuilds/salescope-core/internal/models"
)

// ProductActivity is the last qualifying sale per catalog product. A nil
// LastSale means the product never sold.
type ProductActivity struct {
	ProductID int64
	Name      string
	LastSale  *time.Time
}

// ClientActivity is the last qualifying order per client.
type ClientActivity struct {
	ClientID  int64
	LastOrder *time.Time
}

// DetectDeadStock flags products with no qualifying sale inside the trailing
// window. Items missing any sale at all score 1.0.
func DetectDeadStock(products []ProductActivity, now time.Time, windowMonths int) []models.DeadStockItem {
	cutoff := now.AddDate(0, -windowMonths, 0)
	var items []models.DeadStockItem
	for _, p := range products {
		if p.LastSale != nil && !p.LastSale.Before(cutoff) {
			continue
		}
		items = append(items, models.DeadStockItem{
			ProductID: p.ProductID,
			Name:      p.Name,
			LastSale:  p.LastSale,
			RiskScore: riskScore(p.LastSale, now, windowMonths),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].RiskScore != items[j].RiskScore {
			return items[i].RiskScore > items[j].RiskScore
		}
		return items[i].ProductID < items[j].ProductID
	})
	return items
}

// DetectClientRisk flags clients with no qualifying order inside the trailing
// window.
func DetectClientRisk(clients []ClientActivity, now time.Time, windowMonths int) []models.ClientRiskItem {
	cutoff := now.AddDate(0, -windowMonths, 0)
	var items []models.ClientRiskItem
	for _, c := range clients {
		if c.LastOrder != nil && !c.LastOrder.Before(cutoff) {
			continue
		}
		items = append(items, models.ClientRiskItem{
			ClientID:  c.ClientID,
			LastOrder: c.LastOrder,
			RiskScore: riskScore(c.LastOrder, now, windowMonths),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].RiskScore != items[j].RiskScore {
			return items[i].RiskScore > items[j].RiskScore
		}
		return items[i].ClientID < items[j].ClientID
	})
	return items
}

// riskScore scales with elapsed time since the last qualifying activity and
// saturates at twice the detection window, so it never grows unbounded.
func riskScore(last *time.Time, now time.Time, windowMonths int) float64 {
	if last == nil {
		return 1.0
	}
	maxWindow := now.Sub(now.AddDate(0, -2*windowMonths, 0))
	if maxWindow <= 0 {
		return 1.0
	}
	score := float64(now.Sub(*last)) / float64(maxWindow)
	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}
