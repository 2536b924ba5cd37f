package imports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/uptrace/bun"

	"pipetrak/infrastructure/audit"
	"pipetrak/infrastructure/sqlite"
	"pipetrak/models"
)

// csvHeader is the required upload format. Quantity and unit only matter
// for MILESTONE_QUANTITY components.
var csvHeader = []string{"drawing", "code", "type", "workflow", "template", "quantity", "unit"}

// ListTemplates returns the milestone templates for the import form.
func ListTemplates(ctx context.Context, db *sqlite.DB) ([]TemplateOption, error) {
	options := make([]TemplateOption, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT id, name FROM milestone_templates ORDER BY name ASC`).Scan(ctx, &options)
	})
	return options, err
}

// ImportComponentsCSV loads components into the project from a CSV
// upload. Each component gets its milestone rows instantiated from the
// named template. Existing drawing/code pairs are skipped, bad rows are
// counted, and the whole upload commits in one transaction.
func ImportComponentsCSV(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, userID, projectID int64, reader io.Reader) (ImportSummary, error) {
	summary := ImportSummary{}
	if projectID <= 0 {
		return summary, fmt.Errorf("no active project selected")
	}

	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return summary, fmt.Errorf("read header: %w", err)
	}
	if !validHeader(header) {
		return summary, fmt.Errorf("invalid CSV header; expected %s", strings.Join(csvHeader, ","))
	}

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		templates, err := loadTemplatesByName(ctx, tx)
		if err != nil {
			return err
		}
		drawingIDs := make(map[string]int64)

		for {
			record, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				summary.Errors++
				continue
			}
			row, ok := parseRow(record, templates)
			if !ok {
				summary.Errors++
				continue
			}

			drawingID, err := ensureDrawing(ctx, tx, drawingIDs, projectID, row.drawingNumber)
			if err != nil {
				return err
			}

			var exists int
			if err := tx.NewRaw(`SELECT COUNT(1) FROM components WHERE drawing_id = ? AND code = ?`, drawingID, row.code).Scan(ctx, &exists); err != nil {
				return err
			}
			if exists > 0 {
				summary.Skipped++
				continue
			}

			component := models.Component{
				ProjectID:     projectID,
				DrawingID:     drawingID,
				TemplateID:    row.template.ID,
				Code:          row.code,
				ComponentType: row.componentType,
				WorkflowType:  row.workflowType,
				Unit:          row.unit,
				Status:        models.StatusNotStarted,
			}
			if _, err := tx.NewInsert().Model(&component).Exec(ctx); err != nil {
				return err
			}
			for _, tm := range row.template.Milestones {
				milestone := models.ComponentMilestone{
					ComponentID: component.ID,
					Name:        tm.Name,
					SortOrder:   tm.SortOrder,
					Weight:      tm.Weight,
				}
				if row.workflowType == models.WorkflowQuantity {
					milestone.QuantityTotal = row.quantity
				}
				if _, err := tx.NewInsert().Model(&milestone).Exec(ctx); err != nil {
					return err
				}
			}
			summary.Inserted++
		}

		if auditSvc != nil && userID > 0 {
			after := map[string]any{
				"project_id": projectID,
				"inserted":   summary.Inserted,
				"skipped":    summary.Skipped,
				"errors":     summary.Errors,
			}
			if err := auditSvc.Write(ctx, tx, userID, "components.import", "components",
				strconv.FormatInt(projectID, 10), nil, after); err != nil {
				return err
			}
		}
		return nil
	})
	return summary, err
}

type importRow struct {
	drawingNumber string
	code          string
	componentType string
	workflowType  string
	template      templateWithMilestones
	quantity      float64
	unit          string
}

type templateWithMilestones struct {
	ID         int64
	Milestones []models.TemplateMilestone
}

func validHeader(header []string) bool {
	if len(header) < len(csvHeader) {
		return false
	}
	for i, want := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return false
		}
	}
	return true
}

func parseRow(record []string, templates map[string]templateWithMilestones) (importRow, bool) {
	var row importRow
	if len(record) < len(csvHeader) {
		return row, false
	}
	row.drawingNumber = strings.TrimSpace(record[0])
	row.code = strings.TrimSpace(record[1])
	row.componentType = strings.TrimSpace(record[2])
	row.workflowType = normalizeWorkflowType(record[3])
	row.unit = strings.TrimSpace(record[6])
	if row.drawingNumber == "" || row.code == "" || row.workflowType == "" {
		return row, false
	}

	template, ok := templates[strings.ToLower(strings.TrimSpace(record[4]))]
	if !ok {
		return row, false
	}
	row.template = template

	if raw := strings.TrimSpace(record[5]); raw != "" {
		quantity, err := strconv.ParseFloat(raw, 64)
		if err != nil || quantity < 0 {
			return row, false
		}
		row.quantity = quantity
	}
	if row.workflowType == models.WorkflowQuantity && row.quantity <= 0 {
		return row, false
	}
	return row, true
}

func normalizeWorkflowType(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case models.WorkflowDiscrete, "DISCRETE":
		return models.WorkflowDiscrete
	case models.WorkflowPercentage, "PERCENTAGE":
		return models.WorkflowPercentage
	case models.WorkflowQuantity, "QUANTITY":
		return models.WorkflowQuantity
	default:
		return ""
	}
}

func loadTemplatesByName(ctx context.Context, tx bun.Tx) (map[string]templateWithMilestones, error) {
	var templates []models.MilestoneTemplate
	if err := tx.NewSelect().Model(&templates).Scan(ctx); err != nil {
		return nil, err
	}
	var templateMilestones []models.TemplateMilestone
	if err := tx.NewSelect().Model(&templateMilestones).OrderExpr("template_id ASC, sort_order ASC").Scan(ctx); err != nil {
		return nil, err
	}

	byID := make(map[int64]*templateWithMilestones, len(templates))
	result := make(map[string]templateWithMilestones, len(templates))
	for _, t := range templates {
		byID[t.ID] = &templateWithMilestones{ID: t.ID}
	}
	for _, tm := range templateMilestones {
		if t, ok := byID[tm.TemplateID]; ok {
			t.Milestones = append(t.Milestones, tm)
		}
	}
	for _, t := range templates {
		result[strings.ToLower(t.Name)] = *byID[t.ID]
	}
	return result, nil
}

func ensureDrawing(ctx context.Context, tx bun.Tx, cache map[string]int64, projectID int64, number string) (int64, error) {
	key := strings.ToUpper(number)
	if id, ok := cache[key]; ok {
		return id, nil
	}

	var id int64
	err := tx.NewRaw(`SELECT id FROM drawings WHERE project_id = ? AND number = ?`, projectID, number).Scan(ctx, &id)
	if err == nil {
		cache[key] = id
		return id, nil
	}

	drawing := models.Drawing{ProjectID: projectID, Number: number}
	if _, err := tx.NewInsert().Model(&drawing).Exec(ctx); err != nil {
		return 0, err
	}
	cache[key] = drawing.ID
	return drawing.ID, nil
}
