package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport computes run-over-run deltas and a moving average of the
// finding count over window. Runs must be ordered oldest first.
func BuildTrendReport(runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs recorded")
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{
			RunID:        current.ID,
			Timestamp:    current.Timestamp,
			FileCount:    current.FileCount,
			ModuleCount:  current.ModuleCount,
			FindingCount: current.FindingCount,
			RuleCounts:   current.RuleCounts,
		}

		if i > 0 {
			prev := runs[i-1]
			point.DeltaFiles = current.FileCount - prev.FileCount
			point.DeltaModules = current.ModuleCount - prev.ModuleCount
			point.DeltaFindings = current.FindingCount - prev.FindingCount
			point.RuleDeltas = ruleDeltas(prev.RuleCounts, current.RuleCounts)
		}

		point.AvgFindings = round2(movingAverage(runs, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		ProjectKey:    runs[0].ProjectKey,
		Since:         runs[0].Timestamp,
		Until:         runs[len(runs)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func ruleDeltas(prev, current map[string]int) map[string]int {
	deltas := make(map[string]int)
	for rule, count := range current {
		if d := count - prev[rule]; d != 0 {
			deltas[rule] = d
		}
	}
	for rule, count := range prev {
		if _, ok := current[rule]; !ok && count != 0 {
			deltas[rule] = -count
		}
	}
	if len(deltas) == 0 {
		return nil
	}
	return deltas
}

func movingAverage(runs []Run, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(runs[index].FindingCount)
	}

	cutoff := runs[index].Timestamp.Add(-window)
	total := 0
	count := 0
	for i := index; i >= 0; i-- {
		if runs[i].Timestamp.Before(cutoff) {
			break
		}
		total += runs[i].FindingCount
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
