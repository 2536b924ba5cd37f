package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipetrak/models"
)

func TestCompletionFraction_Discrete(t *testing.T) {
	m := models.ComponentMilestone{IsCompleted: false}
	assert.Equal(t, 0.0, CompletionFraction(m, models.WorkflowDiscrete))

	m.IsCompleted = true
	assert.Equal(t, 1.0, CompletionFraction(m, models.WorkflowDiscrete))
}

func TestCompletionFraction_PercentageClamps(t *testing.T) {
	cases := []struct {
		percent int
		want    float64
	}{
		{0, 0},
		{25, 0.25},
		{100, 1},
		{150, 1},
		{-10, 0},
	}
	for _, tc := range cases {
		m := models.ComponentMilestone{PercentageComplete: tc.percent}
		assert.Equal(t, tc.want, CompletionFraction(m, models.WorkflowPercentage), "percent=%d", tc.percent)
	}
}

func TestCompletionFraction_Quantity(t *testing.T) {
	m := models.ComponentMilestone{QuantityComplete: 30, QuantityTotal: 120}
	assert.Equal(t, 0.25, CompletionFraction(m, models.WorkflowQuantity))

	m = models.ComponentMilestone{QuantityComplete: 200, QuantityTotal: 120}
	assert.Equal(t, 1.0, CompletionFraction(m, models.WorkflowQuantity), "over-complete clamps")

	m = models.ComponentMilestone{QuantityComplete: 5, QuantityTotal: 0}
	assert.Equal(t, 0.0, CompletionFraction(m, models.WorkflowQuantity), "zero total is zero progress")
}

func TestIsMilestoneComplete(t *testing.T) {
	assert.True(t, IsMilestoneComplete(models.ComponentMilestone{IsCompleted: true}, models.WorkflowDiscrete))
	assert.False(t, IsMilestoneComplete(models.ComponentMilestone{PercentageComplete: 99}, models.WorkflowPercentage))
	assert.True(t, IsMilestoneComplete(models.ComponentMilestone{PercentageComplete: 100}, models.WorkflowPercentage))
	assert.True(t, IsMilestoneComplete(models.ComponentMilestone{QuantityComplete: 120, QuantityTotal: 120}, models.WorkflowQuantity))
	assert.False(t, IsMilestoneComplete(models.ComponentMilestone{QuantityComplete: 119, QuantityTotal: 120}, models.WorkflowQuantity))
}

func TestCompletionPercent_Weighted(t *testing.T) {
	milestones := []models.ComponentMilestone{
		{Name: "Receive", Weight: 10, IsCompleted: true},
		{Name: "Erect", Weight: 60, IsCompleted: false},
		{Name: "Test", Weight: 30, IsCompleted: true},
	}
	assert.Equal(t, 40, CompletionPercent(milestones, models.WorkflowDiscrete))
}

func TestCompletionPercent_QuantityWeighted(t *testing.T) {
	milestones := []models.ComponentMilestone{
		{Name: "Erect", Weight: 50, QuantityComplete: 30, QuantityTotal: 120},
		{Name: "Test", Weight: 50, QuantityComplete: 0, QuantityTotal: 120},
	}
	// 0.25 * 50 / 100 = 12.5, rounds to 13.
	assert.Equal(t, 13, CompletionPercent(milestones, models.WorkflowQuantity))
}

func TestCompletionPercent_ZeroWeightFallsBackToAverage(t *testing.T) {
	milestones := []models.ComponentMilestone{
		{Name: "Receive", Weight: 0, IsCompleted: true},
		{Name: "Erect", Weight: 0, IsCompleted: false},
	}
	assert.Equal(t, 50, CompletionPercent(milestones, models.WorkflowDiscrete))
}

func TestCompletionPercent_Empty(t *testing.T) {
	assert.Equal(t, 0, CompletionPercent(nil, models.WorkflowDiscrete))
}

func TestComponentStatus(t *testing.T) {
	milestones := []models.ComponentMilestone{
		{Name: "Receive", Weight: 1},
		{Name: "Erect", Weight: 1},
	}
	assert.Equal(t, models.StatusNotStarted, ComponentStatus(milestones, models.WorkflowDiscrete))

	milestones[0].IsCompleted = true
	assert.Equal(t, models.StatusInProgress, ComponentStatus(milestones, models.WorkflowDiscrete))

	milestones[1].IsCompleted = true
	assert.Equal(t, models.StatusCompleted, ComponentStatus(milestones, models.WorkflowDiscrete))
}

func TestComponentStatus_TinyProgressIsInProgress(t *testing.T) {
	// A sliver of quantity progress rounds to 0 percent but the component is
	// no longer untouched.
	milestones := []models.ComponentMilestone{
		{Name: "Erect", Weight: 100, QuantityComplete: 0.1, QuantityTotal: 1000},
		{Name: "Test", Weight: 0, QuantityTotal: 1000},
	}
	assert.Equal(t, 0, CompletionPercent(milestones, models.WorkflowQuantity))
	assert.Equal(t, models.StatusInProgress, ComponentStatus(milestones, models.WorkflowQuantity))
}
