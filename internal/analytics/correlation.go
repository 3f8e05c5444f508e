package analytics

import (
	"fmt"
	"sort"

	"github.com/platformbuilds/salescope-core/internal/models"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// CorrelationConfig bounds the co-occurrence computation. MaxOrderLines caps
// pair enumeration per order: an order with more distinct products than the
// cap is skipped (and reported), keeping the pairing cost linear in the
// number of orders.
type CorrelationConfig struct {
	MinSupport    float64
	MinConfidence float64
	MaxOrderLines int
}

type productPair struct {
	a, b int64 // a < b
}

// AssociateProducts builds directed association rules from order-line
// co-occurrence. Support uses all qualifying orders as denominator;
// confidence(A->B) uses A's standalone occurrence count, so the two
// directions of a pair generally differ.
func AssociateProducts(lines []models.OrderLine, cfg CorrelationConfig, log logger.Logger) models.AssociationResult {
	byOrder := make(map[int64]map[int64]bool)
	for _, l := range lines {
		set, ok := byOrder[l.OrderID]
		if !ok {
			set = make(map[int64]bool)
			byOrder[l.OrderID] = set
		}
		set[l.ProductID] = true
	}

	result := models.AssociationResult{
		TotalOrders:   int64(len(byOrder)),
		MinSupport:    cfg.MinSupport,
		MinConfidence: cfg.MinConfidence,
		MaxOrderLines: cfg.MaxOrderLines,
	}
	if result.TotalOrders == 0 {
		return result
	}

	pairCounts := make(map[productPair]int64)
	occurrences := make(map[int64]int64)
	for orderID, set := range byOrder {
		if cfg.MaxOrderLines > 0 && len(set) > cfg.MaxOrderLines {
			result.SkippedOrders++
			log.Warn("Order exceeds correlation line cap, skipping",
				"order_id", orderID, "distinct_products", len(set), "cap", cfg.MaxOrderLines)
			continue
		}

		products := make([]int64, 0, len(set))
		for id := range set {
			products = append(products, id)
		}
		sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })

		for _, id := range products {
			occurrences[id]++
		}
		for i := 0; i < len(products); i++ {
			for j := i + 1; j < len(products); j++ {
				pairCounts[productPair{a: products[i], b: products[j]}]++
			}
		}
	}
	if result.SkippedOrders > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%d orders exceeded the %d-line correlation cap and were skipped", result.SkippedOrders, cfg.MaxOrderLines))
	}

	rules := make([]models.AssociationRule, 0, 2*len(pairCounts))
	for pair, count := range pairCounts {
		support := float64(count) / float64(result.TotalOrders)
		if support < cfg.MinSupport {
			continue
		}
		for _, dir := range [2][2]int64{{pair.a, pair.b}, {pair.b, pair.a}} {
			confidence := float64(count) / float64(occurrences[dir[0]])
			if confidence < cfg.MinConfidence {
				continue
			}
			rules = append(rules, models.AssociationRule{
				ProductA:     dir[0],
				ProductB:     dir[1],
				CoOccurrence: count,
				Support:      support,
				Confidence:   confidence,
			})
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		if rules[i].Support != rules[j].Support {
			return rules[i].Support > rules[j].Support
		}
		if rules[i].ProductA != rules[j].ProductA {
			return rules[i].ProductA < rules[j].ProductA
		}
		return rules[i].ProductB < rules[j].ProductB
	})

	result.Rules = rules
	return result
}
