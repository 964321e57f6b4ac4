package web

import (
	"net/http"

	"storygraph/internal/storymap"
)

// GET /api/play/map.pdf
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	cur, ok := s.cursor(w, r, s.sessionID(r))
	if !ok {
		return
	}
	pdf, err := storymap.Generate(s.Doc, cur.History(), cur.NodeID(), s.Doc.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="story-map.pdf"`)
	_, _ = w.Write(pdf)
}
