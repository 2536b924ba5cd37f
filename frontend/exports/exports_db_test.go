package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/uptrace/bun"

	"pipetrak/infrastructure/sqlite"
)

func openExportsTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "exports-test.db")
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

	err = db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO projects (id, name, description, project_date, client_name, code, status)
VALUES (1, 'Plant', 'unit 100', DATE('now'), 'Acme', 'plant', 'active')`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO drawings (id, project_id, number, title, revision) VALUES
  (1, 1, 'ISO-001', 'Cooling water', 'B'),
  (2, 1, 'ISO-002', 'Steam header', 'A')`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO components (id, project_id, drawing_id, template_id, code, component_type, workflow_type, completion_percent, status) VALUES
  (1, 1, 1, 2, 'SPOOL-001', 'Spool', 'MILESTONE_DISCRETE', 100, 'COMPLETED'),
  (2, 1, 1, 2, 'SPOOL-002', 'Spool', 'MILESTONE_DISCRETE', 10, 'IN_PROGRESS'),
  (3, 1, 2, 2, 'VALVE-001', 'Valve', 'MILESTONE_DISCRETE', 0, 'NOT_STARTED')`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO component_milestones (component_id, name, sort_order, weight, is_completed, completed_at) VALUES
  (1, 'Receive', 1, 10, 1, CURRENT_TIMESTAMP),
  (1, 'Erect', 2, 60, 1, CURRENT_TIMESTAMP),
  (1, 'Test', 3, 30, 1, CURRENT_TIMESTAMP),
  (2, 'Receive', 1, 10, 1, CURRENT_TIMESTAMP),
  (2, 'Erect', 2, 60, 0, NULL),
  (2, 'Test', 3, 30, 0, NULL)`)
		return err
	})
	if err != nil {
		t.Fatalf("seed exports fixtures: %v", err)
	}
	return db
}

func TestWriteComponentsCSV(t *testing.T) {
	db := openExportsTestDB(t)

	var buf bytes.Buffer
	if err := writeComponentsCSV(context.Background(), db, &buf, 1, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}
	if records[0][0] != "drawing" || records[0][5] != "completion_percent" {
		t.Fatalf("unexpected header: %v", records[0])
	}

	first := records[1]
	if first[0] != "ISO-001" || first[1] != "SPOOL-001" {
		t.Fatalf("expected drawing/code order, got %v", first)
	}
	if first[4] != "COMPLETED" || first[5] != "100" || first[6] != "3" || first[7] != "3" {
		t.Fatalf("unexpected completed row: %v", first)
	}
	if first[8] == "" {
		t.Fatalf("expected last update timestamp on completed row")
	}

	second := records[2]
	if second[1] != "SPOOL-002" || second[6] != "1" || second[7] != "3" {
		t.Fatalf("unexpected in-progress row: %v", second)
	}

	third := records[3]
	if third[0] != "ISO-002" || third[6] != "0" || third[7] != "0" || third[8] != "" {
		t.Fatalf("unexpected untouched row: %v", third)
	}
}

func TestWriteComponentsCSV_SingleDrawing(t *testing.T) {
	db := openExportsTestDB(t)

	drawingID := int64(1)
	var buf bytes.Buffer
	if err := writeComponentsCSV(context.Background(), db, &buf, 1, &drawingID); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	for _, record := range records[1:] {
		if record[0] != "ISO-001" {
			t.Fatalf("expected only ISO-001 rows, got %v", record)
		}
	}
}

func TestWriteDrawingStatusCSV(t *testing.T) {
	db := openExportsTestDB(t)

	var buf bytes.Buffer
	if err := writeDrawingStatusCSV(context.Background(), db, &buf, 1); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}

	first := records[1]
	if first[0] != "ISO-001" || first[3] != "2" || first[4] != "1" || first[5] != "55" {
		t.Fatalf("unexpected first drawing row: %v", first)
	}
	second := records[2]
	if second[0] != "ISO-002" || second[3] != "1" || second[4] != "0" || second[5] != "0" {
		t.Fatalf("unexpected second drawing row: %v", second)
	}
}

func TestDrawingBelongsToProject(t *testing.T) {
	db := openExportsTestDB(t)

	ok, err := drawingBelongsToProject(context.Background(), db, 1, 1)
	if err != nil {
		t.Fatalf("check drawing: %v", err)
	}
	if !ok {
		t.Fatalf("expected drawing 1 in project 1")
	}

	ok, err = drawingBelongsToProject(context.Background(), db, 2, 1)
	if err != nil {
		t.Fatalf("check drawing: %v", err)
	}
	if ok {
		t.Fatalf("expected drawing 1 outside project 2")
	}
}

func TestRecordExportRun(t *testing.T) {
	db := openExportsTestDB(t)

	projectID := int64(1)
	if err := recordExportRun(context.Background(), db, nil, &projectID, "components_csv"); err != nil {
		t.Fatalf("record export run: %v", err)
	}

	var count int
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(1) FROM export_runs WHERE project_id = ? AND export_type = ?`, projectID, "components_csv").Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count export runs: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 export run, got %d", count)
	}
}
