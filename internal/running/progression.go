package running

import (
	"fmt"
	"math"
	"strconv"

	"abfit/coach-api/internal/domain"
)

const (
	FactorEasy    = 1.10
	FactorOptimal = 1.05
	FactorHard    = 0.95
)

// FactorFor maps a perceived exertion rating to a load factor.
func FactorFor(rpe int) float64 {
	switch {
	case rpe <= 3:
		return FactorEasy
	case rpe >= 8:
		return FactorHard
	default:
		return FactorOptimal
	}
}

// AdjustmentPercent is the signed whole percentage a factor represents,
// e.g. 1.05 -> 5, 0.95 -> -5.
func AdjustmentPercent(factor float64) int {
	return int(math.Round((factor - 1) * 100))
}

// ApplyAdjustment returns a copy of entry with its targets scaled by factor.
// Distance is rounded half up to one decimal, duration is always rounded up.
func ApplyAdjustment(entry domain.RunningWorkoutEntry, factor float64) domain.RunningWorkoutEntry {
	adjusted := entry

	adjusted.TargetDistanceKm = roundHalfUp1(entry.TargetDistanceKm * factor)
	adjusted.TargetDurationMin = math.Ceil(entry.TargetDurationMin*factor - epsilon)
	adjusted.TargetDistanceLabel = DistanceLabel(adjusted.TargetDistanceKm)
	adjusted.TargetDurationLabel = DurationLabel(adjusted.TargetDurationMin)
	adjusted.MainText = entry.MainText + adjustmentNote(factor)

	return adjusted
}

// SelectTarget finds the entry to adjust after completed: a PENDING entry of
// the same type scheduled strictly later. The chronologically earliest one
// wins; entries sharing a date keep their stored order.
func SelectTarget(entries []domain.RunningWorkoutEntry, completed domain.RunningWorkoutEntry) (int, bool) {
	target := -1
	for i, e := range entries {
		if e.ID == completed.ID || !e.IsPending() || e.Type != completed.Type {
			continue
		}
		if !e.ScheduledDate.After(completed.ScheduledDate) {
			continue
		}
		if target == -1 || e.ScheduledDate.Before(entries[target].ScheduledDate) {
			target = i
		}
	}
	return target, target != -1
}

// AdjustNext applies the exertion factor of completed to at most one future
// entry. It never mutates entries; a nil adjusted entry means there was no
// eligible target.
func AdjustNext(entries []domain.RunningWorkoutEntry, completed domain.RunningWorkoutEntry) ([]domain.RunningWorkoutEntry, *domain.RunningWorkoutEntry) {
	out := cloneEntries(entries)
	if completed.Feedback == nil {
		return out, nil
	}

	idx, ok := SelectTarget(out, completed)
	if !ok {
		return out, nil
	}

	adjusted := ApplyAdjustment(out[idx], FactorFor(completed.Feedback.PerceivedExertion))
	out[idx] = adjusted
	return out, &adjusted
}

func DistanceLabel(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64) + "km"
}

func DurationLabel(min float64) string {
	return fmt.Sprintf("%dmin", int(min))
}

func roundHalfUp1(v float64) float64 {
	return math.Floor(v*10+0.5+epsilon) / 10
}

func adjustmentNote(factor float64) string {
	pct := AdjustmentPercent(factor)
	sign := "+"
	if pct < 0 {
		sign = "-"
		pct = -pct
	}
	return fmt.Sprintf(" (Carga ajustada %s%d%% pela IA)", sign, pct)
}
