package bulk

import (
	"time"

	"pipetrak/models"
)

const (
	// ModeQuick applies one milestone name to every selected component.
	ModeQuick = "quick"
	// ModeAdvanced applies per-group milestone selections.
	ModeAdvanced = "advanced"
)

// GroupSelection is one advanced-mode choice: the components of a single
// template group and the milestone names picked for them.
type GroupSelection struct {
	TemplateID     int64
	ComponentIDs   []int64
	MilestoneNames []string
}

// Request describes one bulk milestone update. Quick mode uses
// ComponentIDs + MilestoneName; advanced mode uses Selections. An empty
// Mode is treated as quick.
type Request struct {
	Mode          string
	ComponentIDs  []int64
	MilestoneName string
	Selections    []GroupSelection
	Action        string
	Value         float64
}

// Success is one (component, milestone) pair the batch applied.
type Success struct {
	ComponentID   int64
	ComponentCode string
	MilestoneName string
}

// Failure is one (component, milestone) pair the batch could not apply.
// TemplateID records the component's template at the time of the attempt
// so a retry can leave re-templated components alone.
type Failure struct {
	ComponentID   int64
	ComponentCode string
	MilestoneName string
	TemplateID    int64
	Message       string
}

// Result is the outcome of one batch run. Every attempted pair lands in
// exactly one of Successful or Failures.
type Result struct {
	JobID      string
	Request    Request
	Total      int
	Successful []Success
	Failures   []Failure
	StartedAt  time.Time
	FinishedAt time.Time
}

// TemplateGroup is the selection sliced by milestone template for the
// bulk update screen. AvailableMilestones is the union of milestone
// names across members, in the order they were first seen.
type TemplateGroup struct {
	TemplateID          int64
	TemplateName        string
	Components          []models.Component
	AvailableMilestones []string
}

type PageData struct {
	Groups           []TemplateGroup
	CommonMilestones []string
	SelectedIDs      []int64
	ErrorMessage     string
}

type ResultPageData struct {
	Result        Result
	FailureGroups []FailureGroup
	ErrorMessage  string
}

// FailureGroup collects failures sharing the same message category.
type FailureGroup struct {
	Category string
	Failures []Failure
}
