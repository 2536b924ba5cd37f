package milestones

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"pipetrak/infrastructure/audit"
	"pipetrak/infrastructure/sqlite"
	"pipetrak/models"
	"pipetrak/workflow"
)

// ApplyUpdate runs one milestone mutation in its own write transaction.
// On any validation or gating failure nothing is written; the returned
// error message is stable and starts with a failure category so callers
// can group related failures.
func ApplyUpdate(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, userID int64, in UpdateInput) (UpdateOutcome, error) {
	var out UpdateOutcome
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var applyErr error
		out, applyErr = applyUpdateInTx(ctx, tx, auditSvc, userID, in)
		return applyErr
	})
	return out, err
}

func applyUpdateInTx(ctx context.Context, tx bun.Tx, auditSvc *audit.Service, userID int64, in UpdateInput) (UpdateOutcome, error) {
	var out UpdateOutcome

	var component models.Component
	err := tx.NewSelect().
		Model(&component).
		Relation("Milestones").
		Where("c.id = ?", in.ComponentID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return out, fmt.Errorf("component not found: %d", in.ComponentID)
	}

	idx := findMilestone(component.Milestones, in)
	if idx < 0 {
		if in.MilestoneName != "" {
			return out, fmt.Errorf("milestone not found: %s", in.MilestoneName)
		}
		return out, fmt.Errorf("milestone not found: %d", in.MilestoneID)
	}

	milestone := component.Milestones[idx]
	before := milestone

	action := strings.ToLower(strings.TrimSpace(in.Action))
	if action == ActionToggle {
		if workflow.IsMilestoneComplete(milestone, component.WorkflowType) {
			action = ActionUncomplete
		} else {
			action = ActionComplete
		}
	}

	switch action {
	case ActionComplete:
		if err := requireEligible(milestone.ID, component.Milestones, component.WorkflowType); err != nil {
			return out, err
		}
		setCompleted(&milestone, component.WorkflowType, userID)
	case ActionUncomplete:
		if !workflow.CanUncomplete(milestone.ID, component.Milestones, component.WorkflowType) {
			if !workflow.IsMilestoneComplete(milestone, component.WorkflowType) {
				return out, fmt.Errorf("cannot uncomplete: %s is not complete", milestone.Name)
			}
			return out, fmt.Errorf("cannot uncomplete: a later milestone is already complete")
		}
		setUncompleted(&milestone)
	case ActionSet:
		if err := applySetValue(&milestone, component, in.Value, userID); err != nil {
			return out, err
		}
	default:
		return out, fmt.Errorf("invalid action: %s", in.Action)
	}

	milestone.UpdatedAt = time.Now()
	component.Milestones[idx] = milestone

	if _, err := tx.NewUpdate().
		Model(&milestone).
		Column("is_completed", "percentage_complete", "quantity_complete", "completed_at", "completed_by_user_id", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return out, fmt.Errorf("update failed: %w", err)
	}

	component.CompletionPercent = workflow.CompletionPercent(component.Milestones, component.WorkflowType)
	component.Status = workflow.ComponentStatus(component.Milestones, component.WorkflowType)
	component.UpdatedAt = time.Now()
	if _, err := tx.NewUpdate().
		Model(&component).
		Column("completion_percent", "status", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return out, fmt.Errorf("update failed: %w", err)
	}

	if auditSvc != nil && userID > 0 {
		if err := auditSvc.Write(ctx, tx, userID, "milestone.update", "component_milestones",
			strconv.FormatInt(milestone.ID, 10), before, milestone); err != nil {
			return out, fmt.Errorf("update failed: %w", err)
		}
	}

	out.Component = component
	out.Milestone = milestone
	return out, nil
}

func findMilestone(milestones []models.ComponentMilestone, in UpdateInput) int {
	for i, m := range milestones {
		if in.MilestoneID > 0 && m.ID == in.MilestoneID {
			return i
		}
		if in.MilestoneID == 0 && in.MilestoneName != "" && strings.EqualFold(m.Name, in.MilestoneName) {
			return i
		}
	}
	return -1
}

func requireEligible(milestoneID int64, milestones []models.ComponentMilestone, workflowType string) error {
	if workflow.CanComplete(milestoneID, milestones, workflowType) {
		return nil
	}
	if reason := workflow.GateReason(milestoneID, milestones, workflowType); reason != "" {
		return fmt.Errorf("not eligible: requires %s", reason)
	}
	return fmt.Errorf("not eligible: prerequisite milestones incomplete")
}

func setCompleted(m *models.ComponentMilestone, workflowType string, userID int64) {
	now := time.Now()
	switch workflowType {
	case models.WorkflowPercentage:
		m.PercentageComplete = 100
	case models.WorkflowQuantity:
		m.QuantityComplete = m.QuantityTotal
	default:
		m.IsCompleted = true
	}
	m.CompletedAt = &now
	if userID > 0 {
		m.CompletedByUserID = &userID
	}
}

func setUncompleted(m *models.ComponentMilestone) {
	m.IsCompleted = false
	m.PercentageComplete = 0
	m.QuantityComplete = 0
	m.CompletedAt = nil
	m.CompletedByUserID = nil
}

// applySetValue handles partial progress for percentage and quantity
// workflows. Raising a milestone off zero needs the same eligibility as
// completing it; dropping a completed milestone back needs the same
// safety check as uncompleting it.
func applySetValue(m *models.ComponentMilestone, component models.Component, value float64, userID int64) error {
	switch component.WorkflowType {
	case models.WorkflowPercentage:
		if value < 0 || value > 100 {
			return fmt.Errorf("invalid value: percentage must be between 0 and 100")
		}
	case models.WorkflowQuantity:
		if value < 0 {
			return fmt.Errorf("invalid value: quantity cannot be negative")
		}
		if m.QuantityTotal > 0 && value > m.QuantityTotal {
			return fmt.Errorf("invalid value: quantity exceeds total of %g", m.QuantityTotal)
		}
	default:
		return fmt.Errorf("invalid value: %s milestones toggle complete instead", strings.ToLower(component.WorkflowType))
	}

	current := workflow.CompletionFraction(*m, component.WorkflowType)
	wasComplete := workflow.IsMilestoneComplete(*m, component.WorkflowType)

	var target float64
	if component.WorkflowType == models.WorkflowPercentage {
		target = value / 100
	} else if m.QuantityTotal > 0 {
		target = value / m.QuantityTotal
	}

	if target > current {
		if err := requireEligible(m.ID, component.Milestones, component.WorkflowType); err != nil {
			return err
		}
	}
	if wasComplete && target < 1 {
		if !workflow.CanUncomplete(m.ID, component.Milestones, component.WorkflowType) {
			return fmt.Errorf("cannot uncomplete: a later milestone is already complete")
		}
	}

	switch component.WorkflowType {
	case models.WorkflowPercentage:
		m.PercentageComplete = int(value)
	case models.WorkflowQuantity:
		m.QuantityComplete = value
	}

	if workflow.IsMilestoneComplete(*m, component.WorkflowType) {
		now := time.Now()
		m.CompletedAt = &now
		if userID > 0 {
			m.CompletedByUserID = &userID
		}
	} else {
		m.CompletedAt = nil
		m.CompletedByUserID = nil
	}
	return nil
}

// LoadComponent loads a component with its milestones for rendering.
func LoadComponent(ctx context.Context, db *sqlite.DB, componentID int64) (models.Component, error) {
	var component models.Component
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&component).
			Relation("Milestones").
			Where("c.id = ?", componentID).
			Limit(1).
			Scan(ctx)
	})
	return component, err
}
