package analytics

import (
	"github.com/platformbuilds/salescope-core/internal/models"
)

// GoalAttainment divides qualifying sales by the goal target for the period.
// month 0 means the whole year. A nil goal yields a nil percentage, which is
// distinct from an attainment of zero: "no target set" is not "0% reached".
func GoalAttainment(vendorID int64, year, month int, industry models.IDFilter, sales float64, goal *models.Goal) models.AttainmentResult {
	result := models.AttainmentResult{
		VendorID: vendorID,
		Year:     year,
		Month:    month,
		Sales:    sales,
	}
	if !industry.All {
		result.IndustryID = industry.ID
	}

	if goal == nil {
		return result
	}
	result.HasGoal = true

	var target float64
	if month >= 1 && month <= 12 {
		target = goal.Monthly[month-1]
	} else {
		target = goal.YearTotal()
	}
	result.Target = target

	// A goal row with a zero target for the selected period cannot express a
	// ratio; degrade to a nil percentage rather than dividing by zero.
	if target > 0 {
		percent := sales / target * 100
		result.Percent = &percent
	}
	return result
}
