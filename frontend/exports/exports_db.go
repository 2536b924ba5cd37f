package exports

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/uptrace/bun"

	"pipetrak/infrastructure/sqlite"
)

func writeComponentsCSV(ctx context.Context, db *sqlite.DB, w io.Writer, projectID int64, drawingID *int64) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"drawing", "code", "type", "workflow", "status", "completion_percent", "completed_milestones", "total_milestones", "last_update"}
	if err := writer.Write(header); err != nil {
		return err
	}

	type row struct {
		Drawing             string `bun:"drawing"`
		Code                string `bun:"code"`
		ComponentType       string `bun:"component_type"`
		WorkflowType        string `bun:"workflow_type"`
		Status              string `bun:"status"`
		CompletionPercent   int64  `bun:"completion_percent"`
		CompletedMilestones int64  `bun:"completed_milestones"`
		TotalMilestones     int64  `bun:"total_milestones"`
		LastUpdate          string `bun:"last_update"`
	}

	rows := make([]row, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := `
SELECT d.number AS drawing, c.code, c.component_type, c.workflow_type, c.status, c.completion_percent,
       (SELECT COUNT(*) FROM component_milestones cm WHERE cm.component_id = c.id AND cm.completed_at IS NOT NULL) AS completed_milestones,
       (SELECT COUNT(*) FROM component_milestones cm WHERE cm.component_id = c.id) AS total_milestones,
       COALESCE((SELECT strftime('%d/%m/%Y %H:%M', MAX(cm.completed_at)) FROM component_milestones cm WHERE cm.component_id = c.id), '') AS last_update
FROM components c
JOIN drawings d ON d.id = c.drawing_id`
		args := make([]any, 0)
		q += " WHERE c.project_id = ?"
		args = append(args, projectID)
		if drawingID != nil {
			q += " AND c.drawing_id = ?"
			args = append(args, *drawingID)
		}
		q += " ORDER BY d.number ASC, c.code ASC"
		return tx.NewRaw(q, args...).Scan(ctx, &rows)
	})
	if err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.Drawing,
			r.Code,
			r.ComponentType,
			r.WorkflowType,
			r.Status,
			toString(r.CompletionPercent),
			toString(r.CompletedMilestones),
			toString(r.TotalMilestones),
			r.LastUpdate,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

func writeDrawingStatusCSV(ctx context.Context, db *sqlite.DB, w io.Writer, projectID int64) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"drawing", "title", "revision", "component_count", "completed_count", "average_percent"}); err != nil {
		return err
	}

	type row struct {
		Number         string `bun:"number"`
		Title          string `bun:"title"`
		Revision       string `bun:"revision"`
		ComponentCount int64  `bun:"component_count"`
		CompletedCount int64  `bun:"completed_count"`
		AveragePercent int64  `bun:"average_percent"`
	}

	rows := make([]row, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT d.number, d.title, d.revision,
       COUNT(c.id) AS component_count,
       COALESCE(SUM(CASE WHEN c.status = 'COMPLETED' THEN 1 ELSE 0 END), 0) AS completed_count,
       COALESCE(CAST(ROUND(AVG(c.completion_percent)) AS INTEGER), 0) AS average_percent
FROM drawings d
LEFT JOIN components c ON c.drawing_id = d.id
WHERE d.project_id = ?
GROUP BY d.id
ORDER BY d.number ASC`, projectID).Scan(ctx, &rows)
	})
	if err != nil {
		return err
	}

	for _, r := range rows {
		if err := writer.Write([]string{r.Number, r.Title, r.Revision, toString(r.ComponentCount), toString(r.CompletedCount), toString(r.AveragePercent)}); err != nil {
			return err
		}
	}
	return writer.Error()
}

func recordExportRun(ctx context.Context, db *sqlite.DB, userID *int64, projectID *int64, exportType string) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var uid any = nil
		var pid any = nil
		if userID != nil {
			uid = *userID
		}
		if projectID != nil {
			pid = *projectID
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO export_runs (user_id, project_id, export_type, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`, uid, pid, exportType)
		return err
	})
}

func drawingBelongsToProject(ctx context.Context, db *sqlite.DB, projectID, drawingID int64) (bool, error) {
	var count int
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(1) FROM drawings WHERE id = ? AND project_id = ?`, drawingID, projectID).Scan(ctx, &count)
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func exportTypeDrawing(drawingID int64) string {
	return "drawing_csv:" + strconv.FormatInt(drawingID, 10)
}

func toString(v int64) string {
	return strconv.FormatInt(v, 10)
}
