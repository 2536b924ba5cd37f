package labels

import (
	"context"

	"github.com/uptrace/bun"

	"pipetrak/infrastructure/sqlite"
)

// LoadDrawingLabels collects one label per component on the drawing,
// ordered by code. Returns the owning project ID so handlers can check
// the session's active project.
func LoadDrawingLabels(ctx context.Context, db *sqlite.DB, drawingID int64) (int64, []ComponentLabelData, error) {
	type row struct {
		ComponentID   int64  `bun:"component_id"`
		Code          string `bun:"code"`
		ComponentType string `bun:"component_type"`
		DrawingNumber string `bun:"drawing_number"`
		ProjectID     int64  `bun:"project_id"`
		ProjectName   string `bun:"project_name"`
		ClientName    string `bun:"client_name"`
	}

	rows := make([]row, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT c.id AS component_id, c.code, c.component_type,
       d.number AS drawing_number, p.id AS project_id, p.name AS project_name, p.client_name
FROM components c
JOIN drawings d ON d.id = c.drawing_id
JOIN projects p ON p.id = d.project_id
WHERE c.drawing_id = ?
ORDER BY c.code ASC`, drawingID).Scan(ctx, &rows)
	})
	if err != nil {
		return 0, nil, err
	}

	labels := make([]ComponentLabelData, 0, len(rows))
	var projectID int64
	for _, r := range rows {
		projectID = r.ProjectID
		labels = append(labels, ComponentLabelData{
			ComponentID:   r.ComponentID,
			Code:          r.Code,
			ComponentType: r.ComponentType,
			DrawingNumber: r.DrawingNumber,
			ProjectName:   r.ProjectName,
			ClientName:    r.ClientName,
		})
	}
	return projectID, labels, nil
}
