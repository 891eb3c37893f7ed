package stats

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
)

// SeriesSummary condenses one population's best-by-generation series.
type SeriesSummary struct {
	RunID       string  `json:"run_id"`
	Population  string  `json:"population"`
	Generations int     `json:"generations"`
	InitialBest float64 `json:"initial_best"`
	FinalBest   float64 `json:"final_best"`
	BestMean    float64 `json:"best_mean"`
	BestStd     float64 `json:"best_std"`
	BestMax     float64 `json:"best_max"`
	BestMin     float64 `json:"best_min"`
	Improvement float64 `json:"improvement"`
}

func SummarizeSeries(runID, population string, series []float64) SeriesSummary {
	summary := SeriesSummary{
		RunID:       runID,
		Population:  population,
		Generations: len(series),
	}
	if len(series) == 0 {
		return summary
	}

	summary.InitialBest = series[0]
	summary.FinalBest = series[len(series)-1]
	summary.Improvement = summary.FinalBest - summary.InitialBest

	mean, std := avgStd(series)
	summary.BestMean = mean
	summary.BestStd = std
	summary.BestMax = maxFloat(series)
	summary.BestMin = minFloat(series)
	return summary
}

func WriteSeriesSummaries(runDir string, summaries []SeriesSummary) error {
	return writeJSON(filepath.Join(runDir, "series_summary.json"), summaries)
}

func ReadSeriesSummaries(baseDir, runID string) ([]SeriesSummary, bool, error) {
	path := filepath.Join(baseDir, sanitizeRunID(runID), "series_summary.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var summaries []SeriesSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, false, err
	}
	return summaries, true, nil
}

func avgStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func maxFloat(values []float64) float64 {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func minFloat(values []float64) float64 {
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
