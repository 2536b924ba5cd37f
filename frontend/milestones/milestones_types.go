package milestones

import "pipetrak/models"

// Actions accepted by the milestone update endpoint.
const (
	ActionComplete   = "complete"
	ActionUncomplete = "uncomplete"
	ActionSet        = "set"
	ActionToggle     = "toggle"
)

// UpdateInput identifies one milestone mutation. MilestoneID takes
// precedence; MilestoneName is the addressing mode used by bulk updates.
type UpdateInput struct {
	ComponentID   int64
	MilestoneID   int64
	MilestoneName string
	Action        string
	Value         float64
}

// UpdateOutcome carries the post-update component roll-up for rendering.
type UpdateOutcome struct {
	Component models.Component
	Milestone models.ComponentMilestone
}

type updateResponse struct {
	OK                bool   `json:"ok"`
	CompletionPercent int    `json:"completion_percent"`
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
}
