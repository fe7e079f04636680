package web

import (
	"bytes"
	"embed"
	"errors"
	"net/http"

	appLog "deskcal/internal/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

// handleCalendar renders the month grid as HTML. The root element carries
// data-ready="true" once rendered, which the snapshot job waits for.
//
// GET /calendar?year=2024&month=3
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	mv, err := s.buildMonth(r)
	if err != nil {
		var bad badRequest
		if errors.As(err, &bad) {
			http.Error(w, bad.Error(), http.StatusBadRequest)
			return
		}
		appLog.Error("calendar page: load failed", err)
		http.Error(w, "failed to load events", statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := s.page.ExecuteTemplate(&buf, "month.html", mv); err != nil {
		appLog.Error("calendar page: render failed", err)
		http.Error(w, "failed to render calendar", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
