package services

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"github.com/samber/lo"
)

const (
	// A listing this far below its peer median is an opportunity outright.
	priceRatioThreshold = 0.92
	// Softer price threshold applied when mileage is also below median.
	priceWithKmThreshold = 0.95
	kmRatioThreshold     = 0.90

	unknownModelBucket = "unknown"

	defaultMinGroupSize = 3
)

var priceDigitsPattern = regexp.MustCompile(`\d+`)

// Opportunity is one alert flagged as statistically cheap against its model
// peer group, with the ratios that produced the flag.
type Opportunity struct {
	Alert       entities.Alert
	Price       float64
	MedianPrice float64
	PriceRatio  float64
	KmRatio     *float64
	Score       float64
}

type alertHistory interface {
	Get(ctx context.Context, searchID int, limit int) ([]entities.Alert, error)
}

// OpportunityScorer ranks persisted alerts by price/mileage anomaly relative
// to a rolling per-model median. It runs over alert history on read and is
// independent of the acquisition pipeline.
type OpportunityScorer struct {
	alerts       alertHistory
	minGroupSize int
}

func NewOpportunityScorer(alerts alertHistory, minGroupSize int) *OpportunityScorer {
	if minGroupSize <= 0 {
		minGroupSize = defaultMinGroupSize
	}
	return &OpportunityScorer{alerts: alerts, minGroupSize: minGroupSize}
}

// TopOpportunities loads the alert history for one search (nil means all
// searches) and returns the best-scored opportunities, at most limit. The
// search's own minimum group size takes precedence over the scorer default.
func (s *OpportunityScorer) TopOpportunities(ctx context.Context, search *entities.SavedSearch, limit int) ([]Opportunity, error) {

	searchID, minGroupSize := 0, s.minGroupSize
	if search != nil {
		searchID = search.ID
		if search.MinGroupSize > 0 {
			minGroupSize = search.MinGroupSize
		}
	}

	history, err := s.alerts.Get(ctx, searchID, 0)
	if err != nil {
		return nil, err
	}
	return s.score(history, minGroupSize, limit), nil
}

// Score ranks alerts against the scorer's default minimum group size.
func (s *OpportunityScorer) Score(alerts []entities.Alert, limit int) []Opportunity {
	return s.score(alerts, s.minGroupSize, limit)
}

// score groups alerts by derived model, computes per-group price and mileage
// medians, and flags listings priced well below their group. Alerts arrive
// pre-sorted by recency, which doubles as the tiebreaker on equal scores.
func (s *OpportunityScorer) score(alerts []entities.Alert, minGroupSize, limit int) []Opportunity {

	groups := lo.GroupBy(alerts, func(alert entities.Alert) string {
		if alert.Model == nil {
			return unknownModelBucket
		}
		return *alert.Model
	})

	priceMedians := map[string]float64{}
	kmMedians := map[string]float64{}
	for model, group := range groups {
		prices := collectPrices(group)
		if len(prices) >= minGroupSize {
			priceMedians[model] = median(prices)
		}
		mileages := collectMileages(group)
		if len(mileages) >= minGroupSize {
			kmMedians[model] = median(mileages)
		}
	}

	var opportunities []Opportunity
	for _, alert := range alerts {
		model := unknownModelBucket
		if alert.Model != nil {
			model = *alert.Model
		}

		medianPrice, ok := priceMedians[model]
		if !ok {
			continue
		}
		price := parsePrice(alert.Price)
		if price <= 0 {
			continue
		}

		priceRatio := price / medianPrice

		var kmRatio *float64
		if medianKm, hasKmMedian := kmMedians[model]; hasKmMedian &&
			alert.MileageKm != nil && *alert.MileageKm > 0 {
			ratio := float64(*alert.MileageKm) / medianKm
			kmRatio = &ratio
		}

		flagged := priceRatio <= priceRatioThreshold ||
			(priceRatio <= priceWithKmThreshold && kmRatio != nil && *kmRatio <= kmRatioThreshold)
		if !flagged {
			continue
		}

		score := (1 - priceRatio) * 100
		if kmRatio != nil {
			score += (1 - *kmRatio) * 100 / 2
		}

		opportunities = append(opportunities, Opportunity{
			Alert:       alert,
			Price:       price,
			MedianPrice: medianPrice,
			PriceRatio:  priceRatio,
			KmRatio:     kmRatio,
			Score:       score,
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Score > opportunities[j].Score
	})

	if limit > 0 && len(opportunities) > limit {
		opportunities = opportunities[:limit]
	}
	return opportunities
}

func collectPrices(alerts []entities.Alert) []float64 {
	var prices []float64
	for _, alert := range alerts {
		if price := parsePrice(alert.Price); price > 0 {
			prices = append(prices, price)
		}
	}
	return prices
}

func collectMileages(alerts []entities.Alert) []float64 {
	var mileages []float64
	for _, alert := range alerts {
		if alert.MileageKm != nil && *alert.MileageKm > 0 {
			mileages = append(mileages, float64(*alert.MileageKm))
		}
	}
	return mileages
}

// parsePrice extracts the numeric value of a locale-formatted price string
// like "R$ 25.000". Car prices on the source site carry no cents, so joined
// digit runs are the whole value.
func parsePrice(formatted string) float64 {
	digits := priceDigitsPattern.FindAllString(formatted, -1)
	if len(digits) == 0 {
		return 0
	}
	joined := ""
	for _, run := range digits {
		joined += run
	}
	value, err := strconv.ParseFloat(joined, 64)
	if err != nil {
		return 0
	}
	return value
}

// median of values; for even counts the two central values are averaged.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
