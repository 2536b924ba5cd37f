package workflow

import (
	"sort"
	"strings"

	"pipetrak/models"
)

// State classifies a milestone for rendering.
type State string

const (
	StateLoading   State = "loading"
	StateError     State = "error"
	StateComplete  State = "complete"
	StateAvailable State = "available"
	StateDependent State = "dependent"
	StateBlocked   State = "blocked"
)

type gateKind int

const (
	// gateNone: the milestone can always be started.
	gateNone gateKind = iota
	// gateMilestone: gated on the first sibling classified under GatedBy.
	// If no sibling matches, the milestone is not eligible.
	gateMilestone
	// gateAllPreceding: gated on every milestone earlier in canonical order.
	gateAllPreceding
)

// sequenceRule describes one row of the gating table. Milestone names are
// classified by case-insensitive substring match against Patterns, top to
// bottom, first match wins; names matching none of the rows fall through to
// the positional default (first milestone free, otherwise gated on the
// immediately preceding one).
type sequenceRule struct {
	Label    string
	Patterns []string
	Excludes []string
	Gate     gateKind
	GatedBy  string
}

// The order of this table is load-bearing: it decides which rule claims a
// name that matches several patterns, and reordering it changes which
// milestones field users are allowed to mark.
var sequenceRules = []sequenceRule{
	// "ERECT" contains the substring "REC"; the exclude keeps erection
	// milestones on their own row instead of matching the receive row.
	{Label: "receive", Patterns: []string{"RECEIVE", "REC"}, Excludes: []string{"ERECT"}, Gate: gateNone},
	{Label: "erect", Patterns: []string{"ERECT", "CONNECT", "SUPPORT"}, Gate: gateMilestone, GatedBy: "receive"},
	{Label: "fit", Patterns: []string{"FIT"}, Gate: gateMilestone, GatedBy: "receive"},
	{Label: "weld", Patterns: []string{"WELD"}, Gate: gateMilestone, GatedBy: "fit"},
	{Label: "visual", Patterns: []string{"VT", "VISUAL"}, Gate: gateMilestone, GatedBy: "weld"},
	{Label: "ndt", Patterns: []string{"RT", "UT", "RADIO", "ULTRA"}, Gate: gateMilestone, GatedBy: "visual"},
	{Label: "punch", Patterns: []string{"PUNCH"}, Gate: gateAllPreceding},
	{Label: "test", Patterns: []string{"TEST"}, Gate: gateMilestone, GatedBy: "punch"},
	{Label: "restore", Patterns: []string{"RESTORE"}, Gate: gateMilestone, GatedBy: "test"},
}

func (r sequenceRule) matches(upperName string) bool {
	for _, ex := range r.Excludes {
		if strings.Contains(upperName, ex) {
			return false
		}
	}
	for _, p := range r.Patterns {
		if strings.Contains(upperName, p) {
			return true
		}
	}
	return false
}

// classify returns the first matching rule for a milestone name, or nil when
// no row of the gating table claims it.
func classify(name string) *sequenceRule {
	upper := strings.ToUpper(name)
	for i := range sequenceRules {
		if sequenceRules[i].matches(upper) {
			return &sequenceRules[i]
		}
	}
	return nil
}

// CanonicalSequence returns the milestones sorted by their assigned order.
// The input slice is not modified.
func CanonicalSequence(milestones []models.ComponentMilestone) []models.ComponentMilestone {
	seq := make([]models.ComponentMilestone, len(milestones))
	copy(seq, milestones)
	sort.SliceStable(seq, func(i, j int) bool { return seq[i].SortOrder < seq[j].SortOrder })
	return seq
}

// CanComplete decides whether the milestone may currently be marked complete
// given its siblings. The milestone is identified by ID within milestones.
func CanComplete(milestoneID int64, milestones []models.ComponentMilestone, workflowType string) bool {
	seq := CanonicalSequence(milestones)
	idx := indexOf(milestoneID, seq)
	if idx < 0 {
		return false
	}

	rule := classify(seq[idx].Name)
	if rule == nil {
		if idx == 0 {
			return true
		}
		return IsMilestoneComplete(seq[idx-1], workflowType)
	}

	switch rule.Gate {
	case gateNone:
		return true
	case gateAllPreceding:
		for _, earlier := range seq[:idx] {
			if !IsMilestoneComplete(earlier, workflowType) {
				return false
			}
		}
		return true
	default:
		gate, ok := findByLabel(rule.GatedBy, seq)
		if !ok {
			// A missing gate blocks the milestone; this is deliberate and
			// matches how short milestone sets behave in the field.
			return false
		}
		return IsMilestoneComplete(gate, workflowType)
	}
}

// CanUncomplete decides whether the milestone may be reverted. Uncompleting
// under a later completed step would orphan that step's completion, so it is
// only allowed when nothing after it in canonical order is complete.
func CanUncomplete(milestoneID int64, milestones []models.ComponentMilestone, workflowType string) bool {
	seq := CanonicalSequence(milestones)
	idx := indexOf(milestoneID, seq)
	if idx < 0 {
		return false
	}
	if !IsMilestoneComplete(seq[idx], workflowType) {
		return false
	}
	for _, later := range seq[idx+1:] {
		if IsMilestoneComplete(later, workflowType) {
			return false
		}
	}
	return true
}

// StateOf classifies a milestone for rendering, highest priority first:
// loading > error > complete > available > dependent > blocked. A milestone
// is dependent only when the thing blocking it is specifically the
// immediately preceding milestone; a milestone whose named gate is missing
// from a short sequence is blocked, not dependent.
func StateOf(milestoneID int64, milestones []models.ComponentMilestone, workflowType string, pending, failed bool) State {
	if pending {
		return StateLoading
	}
	if failed {
		return StateError
	}

	seq := CanonicalSequence(milestones)
	idx := indexOf(milestoneID, seq)
	if idx < 0 {
		return StateBlocked
	}
	if IsMilestoneComplete(seq[idx], workflowType) {
		return StateComplete
	}
	if CanComplete(milestoneID, milestones, workflowType) {
		return StateAvailable
	}
	if blockingIndex(idx, seq, workflowType) == idx-1 && idx > 0 {
		return StateDependent
	}
	return StateBlocked
}

// blockingIndex returns the sequence index of the milestone whose
// incompleteness blocks seq[idx], or -1 when the blocker is a gate missing
// from the sequence (or idx is unblocked).
func blockingIndex(idx int, seq []models.ComponentMilestone, workflowType string) int {
	rule := classify(seq[idx].Name)
	if rule == nil {
		if idx > 0 && !IsMilestoneComplete(seq[idx-1], workflowType) {
			return idx - 1
		}
		return -1
	}
	switch rule.Gate {
	case gateAllPreceding:
		for i, earlier := range seq[:idx] {
			if !IsMilestoneComplete(earlier, workflowType) {
				return i
			}
		}
		return -1
	case gateMilestone:
		for i, m := range seq {
			if r := classify(m.Name); r != nil && r.Label == rule.GatedBy {
				if !IsMilestoneComplete(m, workflowType) {
					return i
				}
				return -1
			}
		}
		return -1
	default:
		return -1
	}
}

// GateReason names the milestone currently blocking completion, for error
// messages. Empty when the milestone is eligible or unknown.
func GateReason(milestoneID int64, milestones []models.ComponentMilestone, workflowType string) string {
	seq := CanonicalSequence(milestones)
	idx := indexOf(milestoneID, seq)
	if idx < 0 || CanComplete(milestoneID, milestones, workflowType) {
		return ""
	}

	if i := blockingIndex(idx, seq, workflowType); i >= 0 {
		return seq[i].Name
	}
	if rule := classify(seq[idx].Name); rule != nil && rule.Gate == gateMilestone {
		return rule.GatedBy
	}
	return ""
}

func indexOf(milestoneID int64, seq []models.ComponentMilestone) int {
	for i, m := range seq {
		if m.ID == milestoneID {
			return i
		}
	}
	return -1
}

func findByLabel(label string, seq []models.ComponentMilestone) (models.ComponentMilestone, bool) {
	for _, m := range seq {
		if r := classify(m.Name); r != nil && r.Label == label {
			return m, true
		}
	}
	return models.ComponentMilestone{}, false
}
