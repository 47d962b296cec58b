package aggregate

import (
	"context"
	"sort"

	"github.com/rshade/synthsales/internal/dataset"
)

// CategoryTotal is the summed quantity for one product category.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
}

// RegionAverage is the mean quantity for one sale region.
type RegionAverage struct {
	Region  string  `json:"region"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// Report holds the aggregation results, each list sorted by key.
type Report struct {
	TotalByCategory []CategoryTotal `json:"total_by_category"`
	AverageByRegion []RegionAverage `json:"average_by_region"`
}

// Summarize computes the total quantity per category and the mean quantity per region.
func Summarize(ctx context.Context, records []dataset.Record) (Report, error) {
	totals := make(map[string]int64)
	sums := make(map[string]int64)
	counts := make(map[string]int64)

	for i, rec := range records {
		if i%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return Report{}, err
			}
		}
		totals[rec.Category] += rec.Quantity
		sums[rec.Region] += rec.Quantity
		counts[rec.Region]++
	}

	var report Report
	for category, total := range totals {
		report.TotalByCategory = append(report.TotalByCategory, CategoryTotal{Category: category, Total: total})
	}
	for region, n := range counts {
		report.AverageByRegion = append(report.AverageByRegion, RegionAverage{
			Region:  region,
			Average: float64(sums[region]) / float64(n),
			Count:   n,
		})
	}

	sort.Slice(report.TotalByCategory, func(i, j int) bool {
		return report.TotalByCategory[i].Category < report.TotalByCategory[j].Category
	})
	sort.Slice(report.AverageByRegion, func(i, j int) bool {
		return report.AverageByRegion[i].Region < report.AverageByRegion[j].Region
	})
	return report, nil
}
