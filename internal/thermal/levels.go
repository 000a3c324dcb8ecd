package thermal

import (
	"sort"

	"github.com/kasard/thermactl/internal/errors"
)

// ValidateThresholds checks the structural invariants of a per-source
// threshold list: at least one threshold, no duplicate levels, levels
// above NORMAL, trigger temperatures strictly increasing with level
// ordinal, and a positive hysteresis on every entry.
func ValidateThresholds(thresholds []Threshold) error {
	errFactory := errors.New()

	if len(thresholds) == 0 {
		return errFactory.New(ErrNoThresholds)
	}

	sorted := sortedByLevel(thresholds)

	for i, t := range sorted {
		if t.Level <= LevelNormal || t.Level > LevelEmergency {
			return errFactory.WithData(ErrThresholdLevelRange, t.Level.String())
		}
		if t.Hysteresis <= 0 {
			return errFactory.WithData(ErrInvalidHysteresis, t.Level.String())
		}
		if i > 0 {
			prev := sorted[i-1]
			if t.Level == prev.Level {
				return errFactory.WithData(ErrDuplicateThreshold, t.Level.String())
			}
			if t.TempC <= prev.TempC {
				return errFactory.WithData(ErrThresholdOrder, t.Level.String())
			}
		}
	}

	return nil
}

// Classify returns the highest level whose trigger temperature the
// reading meets or exceeds, with no hysteresis. History snapshots use
// this instantaneous grading for reporting.
func Classify(thresholds []Threshold, temp float64) Level {
	level := LevelNormal
	for _, t := range sortedByLevel(thresholds) {
		if temp >= t.TempC {
			level = t.Level
		}
	}

	return level
}

// Next evaluates the governor's per-source level for one tick.
// Escalation is immediate: any higher met threshold wins. De-escalation
// holds the previous level until the reading cools past that level's
// trigger minus its hysteresis, then drops to the highest level whose
// own trigger is still met. A level therefore always needs more cooling
// margin to leave than it took to enter.
func Next(thresholds []Threshold, prev Level, temp float64) Level {
	candidate := Classify(thresholds, temp)
	if candidate >= prev {
		return candidate
	}

	current, ok := thresholdFor(thresholds, prev)
	if !ok {
		return candidate
	}

	if temp >= current.TempC-current.Hysteresis {
		return prev
	}

	return candidate
}

// ThresholdFor returns the threshold configured for the given level.
func ThresholdFor(thresholds []Threshold, level Level) (Threshold, bool) {
	return thresholdFor(thresholds, level)
}

func thresholdFor(thresholds []Threshold, level Level) (Threshold, bool) {
	for _, t := range thresholds {
		if t.Level == level {
			return t, true
		}
	}

	return Threshold{}, false
}

func sortedByLevel(thresholds []Threshold) []Threshold {
	sorted := make([]Threshold, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Level < sorted[j].Level
	})

	return sorted
}
