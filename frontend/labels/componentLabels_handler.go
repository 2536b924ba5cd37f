package labels

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	sessioncontext "pipetrak/frontend/shared/context"
	"pipetrak/infrastructure/sqlite"
)

// DrawingLabelsPDFHandler streams one printable tag page per component
// on the drawing.
func DrawingLabelsPDFHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		drawingID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || drawingID <= 0 {
			http.Error(w, "invalid drawing id", http.StatusBadRequest)
			return
		}

		projectID, labels, err := LoadDrawingLabels(r.Context(), db, drawingID)
		if err != nil {
			slog.Error("labels: load failed", slog.Int64("drawing_id", drawingID), slog.Any("err", err))
			http.Error(w, "failed to load labels", http.StatusInternalServerError)
			return
		}
		if len(labels) == 0 {
			http.Error(w, "no components on this drawing", http.StatusNotFound)
			return
		}
		if session.ActiveProjectID == nil || projectID != *session.ActiveProjectID {
			http.Error(w, "drawing belongs to another project", http.StatusForbidden)
			return
		}

		pdfBytes, err := renderComponentLabelsPDF(labels, time.Now())
		if err != nil {
			slog.Error("labels: render failed", slog.Int64("drawing_id", drawingID), slog.Any("err", err))
			http.Error(w, "failed to render labels", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "inline; filename=drawing-"+strconv.FormatInt(drawingID, 10)+"-tags.pdf")
		_, _ = w.Write(pdfBytes)
	}
}
