package models

import "time"

// Qualifying order statuses. Orders in any other status are excluded from
// revenue calculations.
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusInvoiced  = "invoiced"
)

// Order is a sales order fact row scoped to one tenant schema.
type Order struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"clientId"`
	VendorID   int64     `json:"vendorId"`
	IndustryID int64     `json:"industryId"`
	OrderDate  time.Time `json:"orderDate"`
	Status     string    `json:"status"`
	Total      float64   `json:"total"`
}

// OrderLine is a single line item belonging to an order.
type OrderLine struct {
	OrderID   int64   `json:"orderId"`
	ProductID int64   `json:"productId"`
	Quantity  float64 `json:"quantity"`
	NetAmount float64 `json:"netAmount"`
	GrossAmt  float64 `json:"grossAmount"`
}

// Product is a catalog entry. Code is the normalized form (uppercase
// alphanumeric, leading zeros stripped) used for cross-source matching.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IndustryID int64  `json:"industryId"`
	Code       string `json:"code"`
}

// Goal holds twelve monthly targets for a vendor/industry/year. IndustryID 0
// means the goal applies across all industries.
type Goal struct {
	VendorID   int64       `json:"vendorId"`
	IndustryID int64       `json:"industryId"`
	Year       int         `json:"year"`
	Monthly    [12]float64 `json:"monthly"`
}

// YearTotal sums the twelve monthly targets.
func (g *Goal) YearTotal() float64 {
	var total float64
	for _, m := range g.Monthly {
		total += m
	}
	return total
}

// ProductRevenue is an aggregated revenue row for one product in a period.
type ProductRevenue struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Revenue   float64 `json:"revenue"`
}

// Curve labels for the revenue (ABC) classification. CurveNone marks catalog
// products with no movement in the period.
const (
	CurveA    = "A"
	CurveB    = "B"
	CurveC    = "C"
	CurveNone = "no_movement"
)

// CurveEntry is one classified product in a revenue curve.
type CurveEntry struct {
	ProductID       int64   `json:"productId"`
	Name            string  `json:"name"`
	Revenue         float64 `json:"revenue"`
	Cumulative      float64 `json:"cumulative"`
	CumulativeShare float64 `json:"cumulativeShare"` // percent 0..100
	Curve           string  `json:"curve"`
}

// CurveBucket summarizes one curve tier.
type CurveBucket struct {
	Curve        string  `json:"curve"`
	ItemCount    int     `json:"itemCount"`
	Value        float64 `json:"value"`
	PercentTotal float64 `json:"percentOfTotal"`
}

// RevenueCurveResult is the full ABC classification output.
type RevenueCurveResult struct {
	Entries      []CurveEntry  `json:"entries"`
	Buckets      []CurveBucket `json:"buckets"`
	TotalRevenue float64       `json:"totalRevenue"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// AttainmentResult reports goal attainment for a period. Percent is nil when
// no goal row exists, which is different from an attainment of zero.
type AttainmentResult struct {
	VendorID   int64    `json:"vendorId"`
	Year       int      `json:"year"`
	Month      int      `json:"month,omitempty"` // 0 = whole year
	Sales      float64  `json:"sales"`
	Target     float64  `json:"target"`
	Percent    *float64 `json:"percent"`
	HasGoal    bool     `json:"hasGoal"`
	IndustryID int64    `json:"industryId,omitempty"`
}

// DeadStockItem flags a product without qualifying sales inside the trailing
// window. RiskScore grows with elapsed time and is capped at 1.0.
type DeadStockItem struct {
	ProductID int64      `json:"productId"`
	Name      string     `json:"name"`
	LastSale  *time.Time `json:"lastSale"`
	RiskScore float64    `json:"riskScore"`
}

// ClientRiskItem flags a client without qualifying orders inside the trailing
// window.
type ClientRiskItem struct {
	ClientID  int64      `json:"clientId"`
	LastOrder *time.Time `json:"lastOrder"`
	RiskScore float64    `json:"riskScore"`
}

// RiskResult combines dead-stock and client-risk detection output.
type RiskResult struct {
	WindowMonths int              `json:"windowMonths"`
	DeadStock    []DeadStockItem  `json:"deadStock"`
	ClientRisk   []ClientRiskItem `json:"clientRisk"`
}

// MonthlyPoint is one month of the twelve-point time series.
type MonthlyPoint struct {
	Month         int     `json:"month"` // 1..12
	Revenue       float64 `json:"revenue"`
	OrderCount    int64   `json:"orderCount"`
	ActiveClients int64   `json:"activeClients"`
}

// TimeSeriesResult always carries exactly twelve points, including explicit
// zero rows for months without activity.
type TimeSeriesResult struct {
	Year   int            `json:"year"`
	Points []MonthlyPoint `json:"points"`
}

// AssociationRule is a ranked product association A -> B.
type AssociationRule struct {
	ProductA     int64   `json:"productA"`
	ProductB     int64   `json:"productB"`
	CoOccurrence int64   `json:"coOccurrence"`
	Support      float64 `json:"support"`
	Confidence   float64 `json:"confidence"`
}

// AssociationResult is the correlation engine output.
type AssociationResult struct {
	Rules         []AssociationRule `json:"rules"`
	TotalOrders   int64             `json:"totalOrders"`
	SkippedOrders int64             `json:"skippedOrders"`
	Warnings      []string          `json:"warnings,omitempty"`
	MinSupport    float64           `json:"minSupport"`
	MinConfidence float64           `json:"minConfidence"`
	MaxOrderLines int               `json:"maxOrderLines"`
}

// OverviewResult is the multi-metric dashboard payload. A metric that failed
// to compute is nil and explained in Warnings, so one broken metric does not
// block the others.
type OverviewResult struct {
	Year       int                 `json:"year"`
	Curve      *RevenueCurveResult `json:"revenueCurve"`
	TimeSeries *TimeSeriesResult   `json:"timeSeries"`
	Risk       *RiskResult         `json:"risk"`
	Warnings   []string            `json:"warnings,omitempty"`
}
