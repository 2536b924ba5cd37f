package drawings

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"pipetrak/infrastructure/sqlite"
	"pipetrak/models"
)

// ListDrawingSummaries returns the project's drawings with component
// roll-up figures for the list page.
func ListDrawingSummaries(ctx context.Context, db *sqlite.DB, projectID int64) ([]DrawingSummary, error) {
	summaries := make([]DrawingSummary, 0)
	if projectID <= 0 {
		return summaries, nil
	}
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT
  d.id,
  d.number,
  d.title,
  d.revision,
  COUNT(c.id) AS component_count,
  COALESCE(SUM(CASE WHEN c.status = 'COMPLETED' THEN 1 ELSE 0 END), 0) AS completed_count,
  COALESCE(SUM(CASE WHEN c.status = 'IN_PROGRESS' THEN 1 ELSE 0 END), 0) AS in_progress_count,
  COALESCE(CAST(ROUND(AVG(c.completion_percent)) AS INTEGER), 0) AS average_percent
FROM drawings d
LEFT JOIN components c ON c.drawing_id = d.id
WHERE d.project_id = ?
GROUP BY d.id, d.number, d.title, d.revision
ORDER BY d.number ASC`, projectID).Scan(ctx, &summaries)
	})
	return summaries, err
}

// LoadDrawing loads one drawing row.
func LoadDrawing(ctx context.Context, db *sqlite.DB, drawingID int64) (models.Drawing, error) {
	var drawing models.Drawing
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&drawing).Where("id = ?", drawingID).Limit(1).Scan(ctx)
	})
	return drawing, err
}

// LoadComponents loads the drawing's components with milestones, ordered
// by code.
func LoadComponents(ctx context.Context, db *sqlite.DB, drawingID int64) ([]models.Component, error) {
	components := make([]models.Component, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&components).
			Relation("Milestones").
			Where("c.drawing_id = ?", drawingID).
			OrderExpr("c.code ASC").
			Scan(ctx)
	})
	return components, err
}

// CreateDrawing adds a drawing to the project. Numbers are unique within
// a project.
func CreateDrawing(ctx context.Context, db *sqlite.DB, projectID int64, number, title, revision string) (models.Drawing, error) {
	var drawing models.Drawing
	number = strings.TrimSpace(number)
	if number == "" {
		return drawing, fmt.Errorf("drawing number is required")
	}
	if projectID <= 0 {
		return drawing, fmt.Errorf("no active project selected")
	}

	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		count := 0
		if err := tx.NewRaw(`SELECT COUNT(1) FROM drawings WHERE project_id = ? AND number = ?`, projectID, number).Scan(ctx, &count); err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("drawing %s already exists", number)
		}
		drawing = models.Drawing{
			ProjectID: projectID,
			Number:    number,
			Title:     strings.TrimSpace(title),
			Revision:  strings.TrimSpace(revision),
		}
		_, err := tx.NewInsert().Model(&drawing).Exec(ctx)
		return err
	})
	return drawing, err
}
