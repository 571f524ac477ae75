package scheduler

import (
	"math"

	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
)

// FairnessScore returns a percentage (0-100) representing how evenly hours
// are spread across the summary. 100% is perfectly even (Standard Deviation = 0).
func FairnessScore(summary []models.WorkloadEntry) float64 {
	if len(summary) == 0 {
		return 100.0
	}

	var sum float64
	for _, w := range summary {
		sum += w.TotalHours
	}
	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(summary))

	var varianceSum float64
	for _, w := range summary {
		diff := w.TotalHours - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(summary)))

	// 0% once the SD reaches the mean
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
