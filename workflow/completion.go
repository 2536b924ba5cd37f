package workflow

import (
	"math"

	"pipetrak/models"
)

// CompletionFraction returns how complete a single milestone is, in [0, 1].
// Stored values outside the valid range are clamped rather than rejected so
// that a bad import row can never break progress roll-ups.
func CompletionFraction(m models.ComponentMilestone, workflowType string) float64 {
	switch workflowType {
	case models.WorkflowPercentage:
		return clamp01(float64(m.PercentageComplete) / 100)
	case models.WorkflowQuantity:
		if m.QuantityTotal <= 0 {
			return 0
		}
		return clamp01(m.QuantityComplete / m.QuantityTotal)
	default:
		if m.IsCompleted {
			return 1
		}
		return 0
	}
}

// IsMilestoneComplete reports whether the milestone counts as fully complete
// under the component's workflow type.
func IsMilestoneComplete(m models.ComponentMilestone, workflowType string) bool {
	switch workflowType {
	case models.WorkflowPercentage, models.WorkflowQuantity:
		return CompletionFraction(m, workflowType) == 1
	default:
		return m.IsCompleted
	}
}

// CompletionPercent rolls milestone fractions up to a 0-100 component percent.
// Fractions are weighted by each milestone's credit weight; when every weight
// is zero the roll-up falls back to an unweighted average.
func CompletionPercent(milestones []models.ComponentMilestone, workflowType string) int {
	if len(milestones) == 0 {
		return 0
	}

	totalWeight := 0
	for _, m := range milestones {
		totalWeight += m.Weight
	}

	var sum float64
	if totalWeight > 0 {
		for _, m := range milestones {
			sum += CompletionFraction(m, workflowType) * float64(m.Weight)
		}
		sum /= float64(totalWeight)
	} else {
		for _, m := range milestones {
			sum += CompletionFraction(m, workflowType)
		}
		sum /= float64(len(milestones))
	}

	return int(math.Round(clamp01(sum) * 100))
}

// ComponentStatus derives the component roll-up status from its milestones.
func ComponentStatus(milestones []models.ComponentMilestone, workflowType string) string {
	percent := CompletionPercent(milestones, workflowType)
	if percent == 100 {
		return models.StatusCompleted
	}
	if percent == 0 && !anyTouched(milestones, workflowType) {
		return models.StatusNotStarted
	}
	return models.StatusInProgress
}

// anyTouched reports whether any milestone carries progress, even progress
// too small to survive integer rounding of the component percent.
func anyTouched(milestones []models.ComponentMilestone, workflowType string) bool {
	for _, m := range milestones {
		if CompletionFraction(m, workflowType) > 0 {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
