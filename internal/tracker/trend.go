package tracker

import (
	"fmt"
	"math"
	"time"
)

// TrendDirection reads rank movement over the last week. Improving means
// the rank number is falling.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
	TrendUnknown   TrendDirection = "unknown"
)

// PricePoint is one historical price observation.
type PricePoint struct {
	Price *float64  `json:"price"`
	Date  time.Time `json:"date"`
}

// Trend summarizes an ASIN's BSR history.
type Trend struct {
	ASIN         string
	CurrentBSR   int
	AvgBSR7d     float64
	AvgBSR30d    float64
	AvgBSR90d    float64
	Variance     float64 // coefficient of variation over 30d, lower is more stable
	Direction    TrendDirection
	IsSeasonal   bool
	DataPoints   int
	PriceHistory []PricePoint
}

// minTrendPoints is the floor below which trend output would be noise.
const minTrendPoints = 3

// Trend analyzes an ASIN's snapshot history. Returns ErrInsufficientData
// when fewer than three ranked snapshots exist.
func (s *Store) Trend(asin string) (*Trend, error) {
	snaps, err := s.Snapshots(asin)
	if err != nil {
		return nil, err
	}
	if len(snaps) < minTrendPoints {
		return nil, fmt.Errorf("%w: %s has %d snapshots, need %d",
			ErrInsufficientData, asin, len(snaps), minTrendPoints)
	}

	now := s.now()
	var (
		bsr7d, bsr30d, bsr90d []float64
		allBSR                []int
		prices                []PricePoint
	)
	for _, snap := range snaps {
		if snap.BSR == nil {
			continue
		}
		bsr := *snap.BSR
		allBSR = append(allBSR, bsr)
		prices = append(prices, PricePoint{Price: snap.Price, Date: snap.Timestamp})

		age := now.Sub(snap.Timestamp)
		if age <= 7*24*time.Hour {
			bsr7d = append(bsr7d, float64(bsr))
		}
		if age <= 30*24*time.Hour {
			bsr30d = append(bsr30d, float64(bsr))
		}
		if age <= 90*24*time.Hour {
			bsr90d = append(bsr90d, float64(bsr))
		}
	}
	if len(allBSR) == 0 {
		return nil, fmt.Errorf("%w: %s has no ranked snapshots", ErrInsufficientData, asin)
	}

	current := allBSR[0] // rows are newest first
	avg7 := meanOr(bsr7d, float64(current))
	avg30 := meanOr(bsr30d, float64(current))
	avg90 := meanOr(bsr90d, float64(current))

	variance := 0.0
	if len(bsr30d) > 1 && avg30 > 0 {
		variance = stdev(bsr30d) / avg30
	}

	direction := TrendUnknown
	if len(bsr7d) >= 2 {
		half := len(bsr7d) / 2
		recent := meanOr(bsr7d[:half], bsr7d[0])
		older := meanOr(bsr7d[half:], bsr7d[0])
		switch {
		case recent < older*0.9:
			direction = TrendImproving
		case recent > older*1.1:
			direction = TrendDeclining
		default:
			direction = TrendStable
		}
	}

	if len(prices) > 30 {
		prices = prices[:30]
	}

	return &Trend{
		ASIN:         asin,
		CurrentBSR:   current,
		AvgBSR7d:     math.Round(avg7),
		AvgBSR30d:    math.Round(avg30),
		AvgBSR90d:    math.Round(avg90),
		Variance:     math.Round(variance*1000) / 1000,
		Direction:    direction,
		IsSeasonal:   variance > 0.5,
		DataPoints:   len(allBSR),
		PriceHistory: prices,
	}, nil
}

// StabilityScore maps variance onto a 0-10 scale where 10 is perfectly
// stable. Variance at or above 1.0 scores 0.
func (s *Store) StabilityScore(asin string) (float64, error) {
	trend, err := s.Trend(asin)
	if err != nil {
		return 0, err
	}
	score := math.Max(0, 10-trend.Variance*10)
	return math.Round(score*10) / 10, nil
}

func meanOr(vals []float64, fallback float64) float64 {
	if len(vals) == 0 {
		return fallback
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stdev is the sample standard deviation.
func stdev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := meanOr(vals, 0)
	sum := 0.0
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}
