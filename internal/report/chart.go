// Package report renders budget reporting artifacts.
package report

import (
	"fmt"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/po-tracker/internal/models"
	"gitlab.com/yelinaung/po-tracker/internal/reconcile"
)

// GenerateUtilizationChart creates a bar chart of budget utilization per
// sub-organization. Returns PNG image as bytes.
func GenerateUtilizationChart(orgs []models.SubOrganization) ([]byte, error) {
	if len(orgs) == 0 {
		return nil, fmt.Errorf("no sub-organizations to chart")
	}

	values := make([]float64, len(orgs))
	names := make([]string, len(orgs))
	for i, org := range orgs {
		values[i] = reconcile.Utilization(org.BudgetSpent, org.BudgetAllocated)
		names[i] = org.Name
	}

	p, err := charts.BarRender(
		[][]float64{values},
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Budget Utilization (%)",
		}),
		charts.XAxisLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}
