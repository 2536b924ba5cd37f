package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipetrak/models"
)

func discrete(id int64, name string, order int, complete bool) models.ComponentMilestone {
	return models.ComponentMilestone{
		ID:          id,
		Name:        name,
		SortOrder:   order,
		Weight:      1,
		IsCompleted: complete,
	}
}

func TestCanComplete_ReceiveAlwaysEligible(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Receive", 1, false),
		discrete(2, "Erect", 2, false),
	}
	assert.True(t, CanComplete(1, seq, models.WorkflowDiscrete))
}

func TestCanComplete_ErectGatedOnReceive(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Receive", 1, false),
		discrete(2, "Erect", 2, false),
	}
	assert.False(t, CanComplete(2, seq, models.WorkflowDiscrete), "erect before receive")

	seq[0].IsCompleted = true
	assert.True(t, CanComplete(2, seq, models.WorkflowDiscrete), "erect after receive")
}

func TestCanComplete_ErectDoesNotMatchReceiveRow(t *testing.T) {
	// "ERECT" contains "REC"; without a receive milestone in the sequence it
	// must be ineligible, not always-eligible.
	seq := []models.ComponentMilestone{
		discrete(1, "Erect", 1, false),
		discrete(2, "Weld", 2, false),
	}
	assert.False(t, CanComplete(1, seq, models.WorkflowDiscrete))
}

func TestCanComplete_InspectionChain(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Fit", 1, true),
		discrete(2, "Weld", 2, true),
		discrete(3, "VT", 3, false),
		discrete(4, "RT", 4, false),
	}
	assert.True(t, CanComplete(3, seq, models.WorkflowDiscrete), "VT after weld")
	assert.False(t, CanComplete(4, seq, models.WorkflowDiscrete), "RT before VT")

	seq[2].IsCompleted = true
	assert.True(t, CanComplete(4, seq, models.WorkflowDiscrete), "RT after VT")
}

func TestCanComplete_SupportGatedOnReceiveNotVisual(t *testing.T) {
	// "SUPPORT" contains "RT" but must classify on the erect row, which comes
	// first in the table.
	seq := []models.ComponentMilestone{
		discrete(1, "Receive", 1, true),
		discrete(2, "Support", 2, false),
	}
	assert.True(t, CanComplete(2, seq, models.WorkflowDiscrete))
}

func TestCanComplete_PunchRequiresAllPreceding(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Receive", 1, true),
		discrete(2, "Erect", 2, true),
		discrete(3, "Weld", 3, false),
		discrete(4, "Punch", 4, false),
	}
	assert.False(t, CanComplete(4, seq, models.WorkflowDiscrete))

	seq[2].IsCompleted = true
	assert.True(t, CanComplete(4, seq, models.WorkflowDiscrete))
}

func TestCanComplete_TestAndRestoreChain(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Punch", 1, false),
		discrete(2, "Test", 2, false),
		discrete(3, "Restore", 3, false),
	}
	assert.False(t, CanComplete(2, seq, models.WorkflowDiscrete), "test before punch")
	assert.False(t, CanComplete(3, seq, models.WorkflowDiscrete), "restore before test")

	seq[0].IsCompleted = true
	assert.True(t, CanComplete(2, seq, models.WorkflowDiscrete))

	seq[1].IsCompleted = true
	assert.True(t, CanComplete(3, seq, models.WorkflowDiscrete))
}

func TestCanComplete_MissingGateBlocks(t *testing.T) {
	// Scenario: short sequences where a named gate does not exist stay
	// ineligible; receive stays eligible regardless.
	seq := []models.ComponentMilestone{
		discrete(1, "Receive", 1, true),
		discrete(2, "Erect", 2, false),
		discrete(3, "Test", 3, false),
	}
	assert.True(t, CanComplete(2, seq, models.WorkflowDiscrete), "erect is available")
	assert.False(t, CanComplete(3, seq, models.WorkflowDiscrete), "test gated on missing punch")
}

func TestCanComplete_UnmatchedNameFallsBackToPosition(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Insulate", 1, false),
		discrete(2, "Paint", 2, false),
	}
	assert.True(t, CanComplete(1, seq, models.WorkflowDiscrete), "first unmatched is free")
	assert.False(t, CanComplete(2, seq, models.WorkflowDiscrete), "second waits on first")

	seq[0].IsCompleted = true
	assert.True(t, CanComplete(2, seq, models.WorkflowDiscrete))
}

func TestCanUncomplete_BlockedByLaterCompletion(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Receive", 1, true),
		discrete(2, "Erect", 2, true),
		discrete(3, "Test", 3, false),
	}
	assert.False(t, CanUncomplete(1, seq, models.WorkflowDiscrete), "erect still complete")
	assert.True(t, CanUncomplete(2, seq, models.WorkflowDiscrete), "nothing later complete")
	assert.False(t, CanUncomplete(3, seq, models.WorkflowDiscrete), "not complete at all")
}

// Completing a full conventional sequence front to back always finds the
// next step eligible, and the chain tail stays locked until its gate clears.
func TestAvailability_FullChainProgression(t *testing.T) {
	names := []string{"Receive", "Erect", "Fit", "Weld", "VT", "RT", "Punch", "Test", "Restore"}

	seq := make([]models.ComponentMilestone, 0, len(names))
	for i, name := range names {
		seq = append(seq, discrete(int64(i+1), name, i+1, false))
	}

	for step := range seq {
		assert.True(t, CanComplete(seq[step].ID, seq, models.WorkflowDiscrete),
			"step %d: %s should be eligible once everything before it is complete", step, seq[step].Name)
		if step < len(seq)-1 {
			last := seq[len(seq)-1]
			assert.False(t, CanComplete(last.ID, seq, models.WorkflowDiscrete),
				"step %d: %s should stay locked until its gate completes", step, last.Name)
		}
		seq[step].IsCompleted = true
	}
}

func TestStateOf_Priorities(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Receive", 1, true),
		discrete(2, "Erect", 2, false),
		discrete(3, "Weld", 3, false),
	}

	assert.Equal(t, StateLoading, StateOf(2, seq, models.WorkflowDiscrete, true, true), "loading beats error")
	assert.Equal(t, StateError, StateOf(2, seq, models.WorkflowDiscrete, false, true))
	assert.Equal(t, StateComplete, StateOf(1, seq, models.WorkflowDiscrete, false, false))
	assert.Equal(t, StateAvailable, StateOf(2, seq, models.WorkflowDiscrete, false, false))
	// Weld is gated on a fit milestone missing from this sequence: blocked,
	// regardless of what the predecessor looks like.
	assert.Equal(t, StateBlocked, StateOf(3, seq, models.WorkflowDiscrete, false, false))
}

func TestStateOf_DependentOnImmediatePredecessor(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Receive", 1, false),
		discrete(2, "Erect", 2, false),
	}
	// Erect's gate is receive, which is also its immediate predecessor.
	assert.Equal(t, StateDependent, StateOf(2, seq, models.WorkflowDiscrete, false, false))
}

func TestStateOf_ScenarioReceiveErectTest(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "RECEIVE", 1, true),
		discrete(2, "ERECT", 2, false),
		discrete(3, "TEST", 3, false),
	}
	assert.Equal(t, StateAvailable, StateOf(2, seq, models.WorkflowDiscrete, false, false))
	// Test is gated on a punch milestone that does not exist here.
	assert.Equal(t, StateBlocked, StateOf(3, seq, models.WorkflowDiscrete, false, false))
}

func TestGateReason(t *testing.T) {
	seq := []models.ComponentMilestone{
		discrete(1, "Fit-Up", 1, false),
		discrete(2, "Weld", 2, false),
	}
	require.False(t, CanComplete(2, seq, models.WorkflowDiscrete))
	assert.Equal(t, "Fit-Up", GateReason(2, seq, models.WorkflowDiscrete))
	// Fit-Up's receive gate is missing entirely; the reason falls back to
	// the gate label.
	assert.Equal(t, "receive", GateReason(1, seq, models.WorkflowDiscrete))
}

func TestCanonicalSequence_SortsByOrderWithoutMutating(t *testing.T) {
	in := []models.ComponentMilestone{
		discrete(3, "Weld", 3, false),
		discrete(1, "Receive", 1, false),
		discrete(2, "Fit", 2, false),
	}
	seq := CanonicalSequence(in)
	require.Len(t, seq, 3)
	assert.Equal(t, "Receive", seq[0].Name)
	assert.Equal(t, "Weld", seq[2].Name)
	assert.Equal(t, "Weld", in[0].Name, "input order preserved")
}
