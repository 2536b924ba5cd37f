package milestones

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	sessioncontext "pipetrak/frontend/shared/context"
	"pipetrak/infrastructure/audit"
	"pipetrak/infrastructure/sqlite"
)

// UpdateMilestoneCommandHandler applies one milestone mutation and answers
// JSON for the drawing page script.
func UpdateMilestoneCommandHandler(db *sqlite.DB, auditSvc *audit.Service, tracker *UpdateTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		componentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || componentID <= 0 {
			writeJSON(w, http.StatusBadRequest, updateResponse{Error: "invalid component id"})
			return
		}
		milestoneID, err := strconv.ParseInt(chi.URLParam(r, "milestoneID"), 10, 64)
		if err != nil || milestoneID <= 0 {
			writeJSON(w, http.StatusBadRequest, updateResponse{Error: "invalid milestone id"})
			return
		}

		var body struct {
			Action string  `json:"action"`
			Value  float64 `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, updateResponse{Error: "invalid request body"})
			return
		}

		var userID int64
		if session, ok := sessioncontext.GetSessionFromContext(r.Context()); ok {
			userID = session.UserID
		}

		gen := tracker.Begin(milestoneID)
		outcome, err := ApplyUpdate(r.Context(), db, auditSvc, userID, UpdateInput{
			ComponentID: componentID,
			MilestoneID: milestoneID,
			Action:      body.Action,
			Value:       body.Value,
		})
		if err != nil {
			tracker.Finish(milestoneID, gen, err.Error())
			slog.Warn("milestone update rejected",
				slog.Int64("component_id", componentID),
				slog.Int64("milestone_id", milestoneID),
				slog.String("action", body.Action),
				slog.Any("err", err))
			writeJSON(w, http.StatusUnprocessableEntity, updateResponse{Error: err.Error()})
			return
		}
		tracker.Finish(milestoneID, gen, "")

		writeJSON(w, http.StatusOK, updateResponse{
			OK:                true,
			CompletionPercent: outcome.Component.CompletionPercent,
			Status:            outcome.Component.Status,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
