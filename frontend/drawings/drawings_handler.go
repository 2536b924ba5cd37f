package drawings

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pipetrak/frontend/milestones"
	sessioncontext "pipetrak/frontend/shared/context"
	"pipetrak/infrastructure/rbac"
	"pipetrak/infrastructure/sqlite"
	"pipetrak/models"
	"pipetrak/workflow"
)

// DrawingsPageQueryHandler renders the drawing list for the session's
// active project.
func DrawingsPageQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		data := ListPageData{
			ErrorMessage: r.URL.Query().Get("error"),
			Message:      r.URL.Query().Get("status"),
			CanEdit:      canEdit(session),
		}
		if session.ActiveProjectID != nil {
			summaries, err := ListDrawingSummaries(r.Context(), db, *session.ActiveProjectID)
			if err != nil {
				slog.Error("drawings: list failed", slog.Any("err", err))
				http.Error(w, "failed to load drawings", http.StatusInternalServerError)
				return
			}
			data.Drawings = summaries
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := DrawingsListPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render drawings page", http.StatusInternalServerError)
			return
		}
	}
}

// CreateDrawingCommandHandler adds a drawing to the active project.
func CreateDrawingCommandHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/tasker/drawings?error="+url.QueryEscape("invalid form data"), http.StatusSeeOther)
			return
		}

		var projectID int64
		if session.ActiveProjectID != nil {
			projectID = *session.ActiveProjectID
		}
		created, err := CreateDrawing(r.Context(), db, projectID,
			r.FormValue("number"), r.FormValue("title"), r.FormValue("revision"))
		if err != nil {
			http.Redirect(w, r, "/tasker/drawings?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/tasker/drawings?status="+url.QueryEscape("Drawing created: "+created.Number), http.StatusSeeOther)
	}
}

// DrawingDetailPageQueryHandler renders the component table with per
// milestone buttons.
func DrawingDetailPageQueryHandler(db *sqlite.DB, tracker *milestones.UpdateTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		drawingID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || drawingID <= 0 {
			http.Redirect(w, r, "/tasker/drawings?error="+url.QueryEscape("invalid drawing id"), http.StatusSeeOther)
			return
		}

		drawing, err := LoadDrawing(r.Context(), db, drawingID)
		if err != nil {
			http.Redirect(w, r, "/tasker/drawings?error="+url.QueryEscape("drawing not found"), http.StatusSeeOther)
			return
		}
		if session.ActiveProjectID == nil || drawing.ProjectID != *session.ActiveProjectID {
			http.Redirect(w, r, "/tasker/drawings?error="+url.QueryEscape("drawing belongs to another project"), http.StatusSeeOther)
			return
		}

		components, err := LoadComponents(r.Context(), db, drawingID)
		if err != nil {
			slog.Error("drawings: load components failed", slog.Int64("drawing_id", drawingID), slog.Any("err", err))
			http.Error(w, "failed to load components", http.StatusInternalServerError)
			return
		}

		data := DetailPageData{
			DrawingID:     drawing.ID,
			DrawingNumber: drawing.Number,
			DrawingTitle:  drawing.Title,
			Revision:      drawing.Revision,
			ErrorMessage:  r.URL.Query().Get("error"),
			CanEdit:       canEdit(session),
			Rows:          buildComponentRows(components, tracker),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := DrawingDetailPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render drawing page", http.StatusInternalServerError)
			return
		}
	}
}

func buildComponentRows(components []models.Component, tracker *milestones.UpdateTracker) []ComponentRow {
	rows := make([]ComponentRow, 0, len(components))
	for _, c := range components {
		row := ComponentRow{
			ID:                c.ID,
			Code:              c.Code,
			ComponentType:     c.ComponentType,
			WorkflowType:      c.WorkflowType,
			Unit:              c.Unit,
			CompletionPercent: c.CompletionPercent,
			Status:            c.Status,
		}

		seq := workflow.CanonicalSequence(c.Milestones)
		for _, m := range seq {
			pending := tracker.IsPending(m.ID)
			failed := tracker.LastError(m.ID) != ""
			state := workflow.StateOf(m.ID, c.Milestones, c.WorkflowType, pending, failed)

			cell := MilestoneCell{
				ID:      m.ID,
				Name:    m.Name,
				State:   state,
				Display: milestoneDisplay(m, c.WorkflowType),
			}
			switch state {
			case workflow.StateError:
				cell.Tooltip = tracker.LastError(m.ID)
			case workflow.StateDependent, workflow.StateBlocked:
				if reason := workflow.GateReason(m.ID, c.Milestones, c.WorkflowType); reason != "" {
					cell.Tooltip = "requires " + reason
				}
			}
			row.Milestones = append(row.Milestones, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

func milestoneDisplay(m models.ComponentMilestone, workflowType string) string {
	switch workflowType {
	case models.WorkflowPercentage:
		return fmt.Sprintf("%d%%", m.PercentageComplete)
	case models.WorkflowQuantity:
		if m.QuantityTotal > 0 {
			return strings.TrimSuffix(fmt.Sprintf("%g/%g", m.QuantityComplete, m.QuantityTotal), ".0")
		}
		return ""
	default:
		return ""
	}
}

func canEdit(session models.Session) bool {
	role := session.User.Role
	return role == rbac.RoleAdmin || role == rbac.RoleEngineer
}
