package milestones

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"pipetrak/infrastructure/sqlite"
	"pipetrak/models"
)

func openMilestonesTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "milestones-test.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

// seedComponent creates one component with the given milestones and
// returns the milestone IDs keyed by name.
func seedComponent(t *testing.T, db *sqlite.DB, workflowType string, milestones []models.ComponentMilestone) (int64, map[string]int64) {
	t.Helper()
	ids := make(map[string]int64, len(milestones))
	var componentID int64
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, role) VALUES (1, 'tester', 'hash', 'engineer')
ON CONFLICT(username) DO NOTHING`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO projects (id, name, description, project_date, client_name, code, status)
VALUES (1, 'Plant', 'unit 100', DATE('now'), 'Acme', 'plant', 'active')`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO drawings (id, project_id, number) VALUES (1, 1, 'ISO-001')`); err != nil {
			return err
		}

		component := models.Component{
			ProjectID:    1,
			DrawingID:    1,
			TemplateID:   1,
			Code:         "SPOOL-001",
			WorkflowType: workflowType,
			Status:       models.StatusNotStarted,
		}
		if _, err := tx.NewInsert().Model(&component).Exec(ctx); err != nil {
			return err
		}
		componentID = component.ID

		for i := range milestones {
			milestones[i].ComponentID = componentID
			if _, err := tx.NewInsert().Model(&milestones[i]).Exec(ctx); err != nil {
				return err
			}
			ids[milestones[i].Name] = milestones[i].ID
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed component: %v", err)
	}
	return componentID, ids
}

func discreteSeq() []models.ComponentMilestone {
	return []models.ComponentMilestone{
		{Name: "Receive", SortOrder: 1, Weight: 10},
		{Name: "Erect", SortOrder: 2, Weight: 60},
		{Name: "Test", SortOrder: 3, Weight: 30},
	}
}

func TestApplyUpdate_CompleteRecomputesComponent(t *testing.T) {
	db := openMilestonesTestDB(t)
	componentID, ids := seedComponent(t, db, models.WorkflowDiscrete, discreteSeq())

	out, err := ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
		ComponentID: componentID,
		MilestoneID: ids["Receive"],
		Action:      ActionComplete,
	})
	if err != nil {
		t.Fatalf("complete receive: %v", err)
	}
	if !out.Milestone.IsCompleted {
		t.Fatalf("expected receive to be completed")
	}
	if out.Milestone.CompletedAt == nil || out.Milestone.CompletedByUserID == nil {
		t.Fatalf("expected completion stamp, got %+v", out.Milestone)
	}
	if out.Component.CompletionPercent != 10 {
		t.Fatalf("expected 10 percent, got %d", out.Component.CompletionPercent)
	}
	if out.Component.Status != models.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", out.Component.Status)
	}

	// The roll-up must be visible to later reads, not just the outcome.
	stored, err := LoadComponent(context.Background(), db, componentID)
	if err != nil {
		t.Fatalf("load component: %v", err)
	}
	if stored.CompletionPercent != 10 || stored.Status != models.StatusInProgress {
		t.Fatalf("persisted roll-up mismatch: %d %s", stored.CompletionPercent, stored.Status)
	}
}

func TestApplyUpdate_GatedMilestoneLeavesRowUntouched(t *testing.T) {
	db := openMilestonesTestDB(t)
	componentID, ids := seedComponent(t, db, models.WorkflowDiscrete, discreteSeq())

	_, err := ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
		ComponentID: componentID,
		MilestoneID: ids["Erect"],
		Action:      ActionComplete,
	})
	if err == nil {
		t.Fatalf("expected gating error for erect before receive")
	}
	if !strings.HasPrefix(err.Error(), "not eligible:") {
		t.Fatalf("expected not eligible error, got %q", err.Error())
	}

	stored, loadErr := LoadComponent(context.Background(), db, componentID)
	if loadErr != nil {
		t.Fatalf("load component: %v", loadErr)
	}
	for _, m := range stored.Milestones {
		if m.ID == ids["Erect"] && m.IsCompleted {
			t.Fatalf("failed update must not mutate the milestone")
		}
	}
	if stored.CompletionPercent != 0 || stored.Status != models.StatusNotStarted {
		t.Fatalf("failed update must not mutate the roll-up: %d %s", stored.CompletionPercent, stored.Status)
	}
}

func TestApplyUpdate_FullCompletionMarksComponentCompleted(t *testing.T) {
	db := openMilestonesTestDB(t)
	componentID, ids := seedComponent(t, db, models.WorkflowDiscrete, discreteSeq())

	for _, name := range []string{"Receive", "Erect", "Test"} {
		if _, err := ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
			ComponentID: componentID,
			MilestoneID: ids[name],
			Action:      ActionComplete,
		}); err != nil {
			t.Fatalf("complete %s: %v", name, err)
		}
	}

	stored, err := LoadComponent(context.Background(), db, componentID)
	if err != nil {
		t.Fatalf("load component: %v", err)
	}
	if stored.CompletionPercent != 100 || stored.Status != models.StatusCompleted {
		t.Fatalf("expected completed component, got %d %s", stored.CompletionPercent, stored.Status)
	}
}

func TestApplyUpdate_UncompleteBlockedByLaterMilestone(t *testing.T) {
	db := openMilestonesTestDB(t)
	componentID, ids := seedComponent(t, db, models.WorkflowDiscrete, discreteSeq())

	for _, name := range []string{"Receive", "Erect"} {
		if _, err := ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
			ComponentID: componentID,
			MilestoneID: ids[name],
			Action:      ActionComplete,
		}); err != nil {
			t.Fatalf("complete %s: %v", name, err)
		}
	}

	_, err := ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
		ComponentID: componentID,
		MilestoneID: ids["Receive"],
		Action:      ActionUncomplete,
	})
	if err == nil || !strings.HasPrefix(err.Error(), "cannot uncomplete:") {
		t.Fatalf("expected uncomplete rejection, got %v", err)
	}

	out, err := ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
		ComponentID: componentID,
		MilestoneID: ids["Erect"],
		Action:      ActionUncomplete,
	})
	if err != nil {
		t.Fatalf("uncomplete erect: %v", err)
	}
	if out.Milestone.IsCompleted || out.Milestone.CompletedAt != nil {
		t.Fatalf("expected erect cleared, got %+v", out.Milestone)
	}
	if out.Component.CompletionPercent != 10 {
		t.Fatalf("expected roll-up back to 10, got %d", out.Component.CompletionPercent)
	}
}

func TestApplyUpdate_QuantitySetValue(t *testing.T) {
	db := openMilestonesTestDB(t)
	componentID, ids := seedComponent(t, db, models.WorkflowQuantity, []models.ComponentMilestone{
		{Name: "Erect", SortOrder: 1, Weight: 50, QuantityTotal: 120},
		{Name: "Test", SortOrder: 2, Weight: 50, QuantityTotal: 120},
	})

	// Erect classifies on the erect rule but this short set has no receive
	// milestone, so it stays gated; use name addressing like bulk does.
	_, err := ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
		ComponentID:   componentID,
		MilestoneName: "Erect",
		Action:        ActionSet,
		Value:         30,
	})
	if err == nil || !strings.HasPrefix(err.Error(), "not eligible:") {
		t.Fatalf("expected gating on missing receive, got %v", err)
	}

	_, err = ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
		ComponentID: componentID,
		MilestoneID: ids["Erect"],
		Action:      ActionSet,
		Value:       200,
	})
	if err == nil || !strings.HasPrefix(err.Error(), "invalid value:") {
		t.Fatalf("expected range rejection, got %v", err)
	}
}

func TestApplyUpdate_QuantityProgressRollsUp(t *testing.T) {
	db := openMilestonesTestDB(t)
	componentID, ids := seedComponent(t, db, models.WorkflowQuantity, []models.ComponentMilestone{
		{Name: "Insulate", SortOrder: 1, Weight: 50, QuantityTotal: 120},
		{Name: "Paint", SortOrder: 2, Weight: 50, QuantityTotal: 120},
	})

	out, err := ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
		ComponentID: componentID,
		MilestoneID: ids["Insulate"],
		Action:      ActionSet,
		Value:       30,
	})
	if err != nil {
		t.Fatalf("set insulate quantity: %v", err)
	}
	// 30/120 of a 50-weight milestone: 12.5 percent, rounded to 13.
	if out.Component.CompletionPercent != 13 {
		t.Fatalf("expected 13 percent, got %d", out.Component.CompletionPercent)
	}
	if out.Component.Status != models.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", out.Component.Status)
	}
	if out.Milestone.CompletedAt != nil {
		t.Fatalf("partial progress must not stamp completion")
	}
}

func TestApplyUpdate_UnknownComponentAndMilestone(t *testing.T) {
	db := openMilestonesTestDB(t)
	componentID, _ := seedComponent(t, db, models.WorkflowDiscrete, discreteSeq())

	_, err := ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
		ComponentID: 9999,
		MilestoneID: 1,
		Action:      ActionComplete,
	})
	if err == nil || !strings.HasPrefix(err.Error(), "component not found:") {
		t.Fatalf("expected component not found, got %v", err)
	}

	_, err = ApplyUpdate(context.Background(), db, nil, 1, UpdateInput{
		ComponentID:   componentID,
		MilestoneName: "Paint",
		Action:        ActionComplete,
	})
	if err == nil || !strings.HasPrefix(err.Error(), "milestone not found:") {
		t.Fatalf("expected milestone not found, got %v", err)
	}
}
