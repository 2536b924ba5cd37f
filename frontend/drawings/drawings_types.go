package drawings

import "pipetrak/workflow"

type DrawingSummary struct {
	ID              int64  `bun:"id"`
	Number          string `bun:"number"`
	Title           string `bun:"title"`
	Revision        string `bun:"revision"`
	ComponentCount  int    `bun:"component_count"`
	CompletedCount  int    `bun:"completed_count"`
	AveragePercent  int    `bun:"average_percent"`
	InProgressCount int    `bun:"in_progress_count"`
}

type ListPageData struct {
	ProjectName  string
	Drawings     []DrawingSummary
	ErrorMessage string
	Message      string
	CanEdit      bool
}

// MilestoneCell is one milestone button on the detail page.
type MilestoneCell struct {
	ID      int64
	Name    string
	State   workflow.State
	Tooltip string
	// Display carries the progress figure for partial workflows, e.g.
	// "40%" or "30/120".
	Display string
}

type ComponentRow struct {
	ID                int64
	Code              string
	ComponentType     string
	WorkflowType      string
	Unit              string
	CompletionPercent int
	Status            string
	Milestones        []MilestoneCell
}

type DetailPageData struct {
	DrawingID     int64
	DrawingNumber string
	DrawingTitle  string
	Revision      string
	Rows          []ComponentRow
	ErrorMessage  string
	CanEdit       bool
}
