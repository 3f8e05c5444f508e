// Package analytics holds the pure aggregation functions that turn tenant
// fact rows into decision-grade metrics. Nothing here opens connections or
// holds state; every function is safe to call concurrently for different
// tenants.
package analytics

import (
	"fmt"
	"sort"

	"github.com/platformbuilds/salescope-core/internal/models"
)

// Cumulative-share thresholds for the revenue curve. A product exactly at a
// threshold belongs to the lower curve (cumulative <= threshold is inclusive).
const (
	curveAThreshold = 80.0
	curveBThreshold = 95.0
)

// ClassifyABC partitions products by cumulative revenue contribution. Sold
// products are ranked by descending revenue (stable by ascending product id
// on ties); catalog products without movement in the period land in a fourth
// "no movement" bucket instead of being dropped.
func ClassifyABC(sold []models.ProductRevenue, catalog []models.Product) models.RevenueCurveResult {
	ranked := make([]models.ProductRevenue, 0, len(sold))
	seen := make(map[int64]bool, len(sold))
	var total float64
	for _, p := range sold {
		if p.Revenue > 0 {
			ranked = append(ranked, p)
			total += p.Revenue
		}
		seen[p.ProductID] = true
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	entries := make([]models.CurveEntry, 0, len(ranked))
	var cumulative float64
	for _, p := range ranked {
		cumulative += p.Revenue
		share := 0.0
		if total > 0 {
			share = cumulative / total * 100
		}
		entries = append(entries, models.CurveEntry{
			ProductID:       p.ProductID,
			Name:            p.Name,
			Revenue:         p.Revenue,
			Cumulative:      cumulative,
			CumulativeShare: share,
			Curve:           curveFor(share, total),
		})
	}

	// Catalog products with zero qualifying revenue, plus sold rows that net
	// out to zero, form the no-movement bucket.
	for _, p := range sold {
		if p.Revenue <= 0 {
			entries = append(entries, models.CurveEntry{
				ProductID: p.ProductID,
				Name:      p.Name,
				Curve:     models.CurveNone,
			})
		}
	}
	for _, p := range catalog {
		if !seen[p.ID] {
			entries = append(entries, models.CurveEntry{
				ProductID: p.ID,
				Name:      p.Name,
				Curve:     models.CurveNone,
			})
		}
	}

	return models.RevenueCurveResult{
		Entries:      entries,
		Buckets:      bucketize(entries, total),
		TotalRevenue: total,
	}
}

func curveFor(cumulativeShare, total float64) string {
	if total <= 0 {
		return models.CurveNone
	}
	switch {
	case cumulativeShare <= curveAThreshold:
		return models.CurveA
	case cumulativeShare <= curveBThreshold:
		return models.CurveB
	default:
		return models.CurveC
	}
}

func bucketize(entries []models.CurveEntry, total float64) []models.CurveBucket {
	order := []string{models.CurveA, models.CurveB, models.CurveC, models.CurveNone}
	byCurve := make(map[string]*models.CurveBucket, len(order))
	for _, curve := range order {
		byCurve[curve] = &models.CurveBucket{Curve: curve}
	}
	for _, e := range entries {
		b := byCurve[e.Curve]
		b.ItemCount++
		b.Value += e.Revenue
	}

	buckets := make([]models.CurveBucket, 0, len(order))
	for _, curve := range order {
		b := byCurve[curve]
		if total > 0 {
			b.PercentTotal = b.Value / total * 100
		}
		buckets = append(buckets, *b)
	}
	return buckets
}

// DetectDuplicateCatalog flags products sharing a normalized code within the
// same industry. Duplicates are tolerated as distinct catalog entries; the
// warnings ride along with results instead of blocking reads.
func DetectDuplicateCatalog(catalog []models.Product) []string {
	type dupKey struct {
		code     string
		industry int64
	}
	seen := make(map[dupKey]int64, len(catalog))
	var warnings []string
	for _, p := range catalog {
		if p.Code == "" {
			continue
		}
		key := dupKey{code: p.Code, industry: p.IndustryID}
		if firstID, ok := seen[key]; ok {
			warnings = append(warnings, fmt.Sprintf(
				"duplicate catalog code %q in industry %d: products %d and %d", p.Code, p.IndustryID, firstID, p.ID))
			continue
		}
		seen[key] = p.ID
	}
	return warnings
}
