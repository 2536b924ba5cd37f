package imports

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	sessioncontext "pipetrak/frontend/shared/context"
	"pipetrak/infrastructure/audit"
	projectinfra "pipetrak/infrastructure/project"
	"pipetrak/infrastructure/sqlite"
)

// ImportPageQueryHandler renders the component import form.
func ImportPageQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		data := PageData{Message: r.URL.Query().Get("status")}
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			data.Message = errMsg
		}

		if session.ActiveProjectID != nil {
			data.ProjectID = *session.ActiveProjectID
			project, err := projectinfra.LoadByID(r.Context(), db, data.ProjectID)
			if err == nil {
				data.ProjectName = project.Name
			}
		}

		templates, err := ListTemplates(r.Context(), db)
		if err != nil {
			slog.Error("imports: list templates failed", slog.Any("err", err))
			http.Error(w, "failed to load templates", http.StatusInternalServerError)
			return
		}
		data.Templates = templates

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ImportPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render import page", http.StatusInternalServerError)
			return
		}
	}
}

// ImportComponentsCommandHandler accepts a CSV upload and loads it into
// the active project.
func ImportComponentsCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if session.ActiveProjectID == nil {
			http.Redirect(w, r, "/tasker/imports?error="+url.QueryEscape("select a project before importing"), http.StatusSeeOther)
			return
		}
		projectID := *session.ActiveProjectID

		active, err := projectinfra.IsActiveByID(r.Context(), db, projectID)
		if err != nil {
			slog.Error("imports: project status check failed", slog.Int64("project_id", projectID), slog.Any("err", err))
			http.Error(w, "failed to check project", http.StatusInternalServerError)
			return
		}
		if !active {
			http.Redirect(w, r, "/tasker/imports?error="+url.QueryEscape("Inactive projects are read-only"), http.StatusSeeOther)
			return
		}

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Redirect(w, r, "/tasker/imports?error="+url.QueryEscape("invalid upload"), http.StatusSeeOther)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Redirect(w, r, "/tasker/imports?error="+url.QueryEscape("choose a CSV file to import"), http.StatusSeeOther)
			return
		}
		defer file.Close()

		summary, err := ImportComponentsCSV(r.Context(), db, auditSvc, session.UserID, projectID, file)
		if err != nil {
			http.Redirect(w, r, "/tasker/imports?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}

		status := fmt.Sprintf("Imported %d components (%d skipped, %d errors)",
			summary.Inserted, summary.Skipped, summary.Errors)
		http.Redirect(w, r, "/tasker/imports?status="+url.QueryEscape(status), http.StatusSeeOther)
	}
}
