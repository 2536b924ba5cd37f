package bulk

import (
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	sessioncontext "pipetrak/frontend/shared/context"
	"pipetrak/infrastructure/audit"
	"pipetrak/infrastructure/sqlite"
)

// BulkUpdatePageQueryHandler renders the bulk update screen for the
// selected components.
func BulkUpdatePageQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		componentIDs := parseComponentIDs(r.URL.Query()["component_ids"])
		if len(componentIDs) == 0 {
			http.Redirect(w, r, "/tasker/drawings?error="+url.QueryEscape("select at least one component"), http.StatusSeeOther)
			return
		}

		components, err := LoadSelection(r.Context(), db, componentIDs)
		if err != nil {
			slog.Error("bulk: load selection failed", slog.Any("err", err))
			http.Error(w, "failed to load components", http.StatusInternalServerError)
			return
		}
		groups, err := GroupByTemplate(r.Context(), db, components)
		if err != nil {
			slog.Error("bulk: group by template failed", slog.Any("err", err))
			http.Error(w, "failed to load templates", http.StatusInternalServerError)
			return
		}

		data := PageData{
			Groups:           groups,
			CommonMilestones: CommonMilestones(groups),
			SelectedIDs:      componentIDs,
			ErrorMessage:     r.URL.Query().Get("error"),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := BulkUpdatePage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render bulk page", http.StatusInternalServerError)
			return
		}
	}
}

// PerformBulkCommandHandler runs the batch and redirects to its result.
func PerformBulkCommandHandler(db *sqlite.DB, auditSvc *audit.Service, store *ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/tasker/drawings?error="+url.QueryEscape("invalid form data"), http.StatusSeeOther)
			return
		}

		req := Request{
			Mode:   strings.TrimSpace(r.FormValue("mode")),
			Action: strings.TrimSpace(r.FormValue("action")),
		}
		if req.Mode == ModeAdvanced {
			req.Selections = parseGroupSelections(r.Form)
		} else {
			req.Mode = ModeQuick
			req.ComponentIDs = parseComponentIDs(r.Form["component_ids"])
			req.MilestoneName = strings.TrimSpace(r.FormValue("milestone_name"))
		}
		if raw := strings.TrimSpace(r.FormValue("value")); raw != "" {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				http.Redirect(w, r, bulkPageURL(RequestComponentIDs(req), "invalid value"), http.StatusSeeOther)
				return
			}
			req.Value = value
		}

		var userID int64
		if session, ok := sessioncontext.GetSessionFromContext(r.Context()); ok {
			userID = session.UserID
		}

		result, err := Perform(r.Context(), db, auditSvc, userID, req)
		if err != nil {
			http.Redirect(w, r, bulkPageURL(RequestComponentIDs(req), err.Error()), http.StatusSeeOther)
			return
		}

		jobID := store.Put(result)
		slog.Info("bulk update finished",
			slog.String("job_id", jobID),
			slog.String("mode", req.Mode),
			slog.Int("total", result.Total),
			slog.Int("successful", len(result.Successful)),
			slog.Int("failed", len(result.Failures)))
		http.Redirect(w, r, "/tasker/bulk/results/"+jobID, http.StatusSeeOther)
	}
}

// BulkResultPageQueryHandler renders the outcome of a finished batch.
func BulkResultPageQueryHandler(store *ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		result, ok := store.Get(jobID)
		if !ok {
			http.Redirect(w, r, "/tasker/drawings?error="+url.QueryEscape("bulk result not found"), http.StatusSeeOther)
			return
		}

		data := ResultPageData{
			Result:        result,
			FailureGroups: GroupFailuresByCategory(result.Failures),
			ErrorMessage:  r.URL.Query().Get("error"),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := BulkResultPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render result page", http.StatusInternalServerError)
			return
		}
	}
}

// RetryBulkCommandHandler re-runs the failures the user ticked on the
// result page.
func RetryBulkCommandHandler(db *sqlite.DB, auditSvc *audit.Service, store *ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		previous, ok := store.Get(jobID)
		if !ok {
			http.Redirect(w, r, "/tasker/drawings?error="+url.QueryEscape("bulk result not found"), http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, resultPageURL(jobID, "invalid form data"), http.StatusSeeOther)
			return
		}

		selectedKeys := r.Form["failure_keys"]
		if len(selectedKeys) == 0 {
			http.Redirect(w, r, resultPageURL(jobID, "select at least one failure to retry"), http.StatusSeeOther)
			return
		}

		var userID int64
		if session, ok := sessioncontext.GetSessionFromContext(r.Context()); ok {
			userID = session.UserID
		}

		result, err := Retry(r.Context(), db, auditSvc, userID, previous, selectedKeys)
		if err != nil {
			slog.Error("bulk retry failed", slog.String("job_id", jobID), slog.Any("err", err))
			http.Redirect(w, r, resultPageURL(jobID, "retry failed: "+err.Error()), http.StatusSeeOther)
			return
		}
		store.Replace(jobID, result)
		slog.Info("bulk retry finished",
			slog.String("job_id", jobID),
			slog.Int("retried", len(selectedKeys)),
			slog.Int("successful", len(result.Successful)),
			slog.Int("failed", len(result.Failures)))
		http.Redirect(w, r, "/tasker/bulk/results/"+jobID, http.StatusSeeOther)
	}
}

func parseComponentIDs(values []string) []int64 {
	seen := make(map[int64]struct{}, len(values))
	ids := make([]int64, 0, len(values))
	for _, raw := range values {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// parseGroupSelections reads the advanced form's per-group fields:
// milestones_<templateID> checkboxes and components_<templateID> hidden
// inputs. Groups with nothing ticked are dropped.
func parseGroupSelections(form url.Values) []GroupSelection {
	byTemplate := make(map[int64]*GroupSelection)
	for key, values := range form {
		templateID, field := parseGroupField(key)
		if templateID <= 0 {
			continue
		}
		sel := byTemplate[templateID]
		if sel == nil {
			sel = &GroupSelection{TemplateID: templateID}
			byTemplate[templateID] = sel
		}
		switch field {
		case "milestones":
			for _, v := range values {
				if name := strings.TrimSpace(v); name != "" {
					sel.MilestoneNames = append(sel.MilestoneNames, name)
				}
			}
		case "components":
			sel.ComponentIDs = parseComponentIDs(values)
		}
	}

	selections := make([]GroupSelection, 0, len(byTemplate))
	for _, sel := range byTemplate {
		if len(sel.MilestoneNames) == 0 || len(sel.ComponentIDs) == 0 {
			continue
		}
		selections = append(selections, *sel)
	}
	sort.Slice(selections, func(i, j int) bool { return selections[i].TemplateID < selections[j].TemplateID })
	return selections
}

func parseGroupField(key string) (int64, string) {
	for _, field := range []string{"milestones", "components"} {
		prefix := field + "_"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		id, err := strconv.ParseInt(key[len(prefix):], 10, 64)
		if err != nil {
			return 0, ""
		}
		return id, field
	}
	return 0, ""
}

func bulkPageURL(componentIDs []int64, errorMessage string) string {
	values := url.Values{}
	for _, id := range componentIDs {
		values.Add("component_ids", strconv.FormatInt(id, 10))
	}
	values.Set("error", errorMessage)
	return "/tasker/bulk?" + values.Encode()
}

func resultPageURL(jobID, errorMessage string) string {
	return "/tasker/bulk/results/" + jobID + "?error=" + url.QueryEscape(errorMessage)
}
