package ingestion

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ignite/insight-engine/internal/table"
)

// SampleColumns is the column layout of SampleDataset.
var SampleColumns = []string{
	"date", "campaign_id", "ad_id", "ad_platform", "device_type", "ad_category",
	"gender", "age", "interest", "impressions", "clicks", "spent", "conversions",
}

var (
	sampleGenders    = []string{"Male", "Female"}
	sampleAges       = []string{"18-24", "25-34", "35-44", "45-54", "55+"}
	sampleInterests  = []string{"Technology", "Fashion", "Sports", "Travel", "Food"}
	samplePlatforms  = []string{"Facebook", "Instagram", "Google", "LinkedIn"}
	sampleDevices    = []string{"Mobile", "Desktop", "Tablet"}
	sampleCategories = []string{"Electronics", "Apparel", "Fitness", "Travel", "Home"}
)

// SampleStart is the first day of the sample dataset.
var SampleStart = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

// SampleDataset generates a synthetic campaign export: days of data from
// SampleStart with 10 to 19 rows per day across 6 campaigns and 10 ads. The
// same seed always yields the same table.
func SampleDataset(seed int64, days int) *table.Table {
	if days <= 0 {
		days = 30
	}
	rng := rand.New(rand.NewSource(seed))
	pick := func(xs []string) table.Value { return table.String(xs[rng.Intn(len(xs))]) }
	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

	t := table.New(SampleColumns...)
	for d := 0; d < days; d++ {
		date := SampleStart.AddDate(0, 0, d).Format("2006-01-02")
		for n := 10 + rng.Intn(10); n > 0; n-- {
			impressions := 1000 + rng.Intn(9000)
			clicks := math.Floor(float64(impressions) * uniform(0.01, 0.08))
			spent := math.Round(clicks*uniform(0.10, 1.50)*100) / 100
			conversions := math.Floor(clicks * uniform(0.01, 0.06))

			t.AppendRecord(map[string]table.Value{
				"date":        table.String(date),
				"campaign_id": table.String(fmt.Sprintf("CMP_%03d", 1+rng.Intn(6))),
				"ad_id":       table.String(fmt.Sprintf("AD_%03d", 1+rng.Intn(10))),
				"ad_platform": pick(samplePlatforms),
				"device_type": pick(sampleDevices),
				"ad_category": pick(sampleCategories),
				"gender":      pick(sampleGenders),
				"age":         pick(sampleAges),
				"interest":    pick(sampleInterests),
				"impressions": table.Number(float64(impressions)),
				"clicks":      table.Number(clicks),
				"spent":       table.Number(spent),
				"conversions": table.Number(conversions),
			})
		}
	}
	return t
}
