package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"storygraph/internal/game"
	"storygraph/internal/story"
)

const maxBody = 1 << 16

// POST /api/play starts a new playthrough and sets the session cookie.
func (s *Server) handleNewPlay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req NewPlayRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	skills, err := game.AllocateSkills(req.Skills)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cur, err := game.Begin(s.Doc, skills)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	id := s.Store.NewID()
	if err := s.Store.Put(ctx, id, cur.Snapshot()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.Metrics.sessionStarted()
	s.Logger.Info("Playthrough started", zap.String("session", id), zap.String("node", cur.NodeID()))
	writeJSON(w, http.StatusCreated, playResponse(id, cur))
}

// GET /api/play returns the current view of the session.
func (s *Server) handleGetPlay(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	cur, ok := s.cursor(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, playResponse(id, cur))
}

// POST /api/play/choice applies a choice. Skill checks are rolled here.
func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := s.sessionID(r)
	if id == "" {
		writeError(w, http.StatusNotFound, errNoSession)
		return
	}
	var req ChoiceRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		cur   *game.Cursor
		tr    game.Transition
		check *game.CheckResult
	)
	_, err := s.Store.Update(ctx, id, func(st game.State) (game.State, error) {
		var err error
		cur, err = game.Resume(s.Doc, st)
		if err != nil {
			return st, err
		}
		outcome := story.OutcomeNone
		if ch, ok := cur.Current().Choice(req.Choice); ok && ch.Kind() == story.ChoiceCheck && cur.Selectable(ch) {
			res := game.ResolveCheck(s.Roller, s.Doc.Rules, ch.Check, cur.Skills())
			check = &res
			outcome = res.Outcome()
		}
		if tr, err = cur.ApplyChoice(req.Choice, outcome); err != nil {
			return st, err
		}
		return cur.Snapshot(), nil
	})
	if err != nil {
		s.Metrics.choiceRejected(err)
		s.Logger.Warn("Choice rejected",
			zap.String("session", id), zap.String("choice", req.Choice), zap.Error(err))
		writeError(w, choiceStatus(err), err)
		return
	}

	s.Metrics.choiceApplied(tr)
	s.Logger.Debug("Choice applied",
		zap.String("session", id), zap.String("from", tr.From), zap.String("to", tr.To),
		zap.String("choice", tr.ChoiceID), zap.Stringer("outcome", tr.Outcome))
	resp := playResponse(id, cur)
	resp.Transition = &tr
	resp.Check = check
	writeJSON(w, http.StatusOK, resp)
}

var errNoSession = errors.New("no playthrough; POST /api/play first")

// cursor loads the session's cursor or writes an error response.
func (s *Server) cursor(w http.ResponseWriter, r *http.Request, id string) (*game.Cursor, bool) {
	if id == "" {
		writeError(w, http.StatusNotFound, errNoSession)
		return nil, false
	}
	st, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	if !ok {
		writeError(w, http.StatusNotFound, errNoSession)
		return nil, false
	}
	cur, err := game.Resume(s.Doc, st)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return cur, true
}
