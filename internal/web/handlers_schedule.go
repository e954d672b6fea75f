package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/MenuEditor/internal/core"
	"github.com/JonMunkholm/MenuEditor/internal/logging"
)

// Day edit actions.
const (
	actionEnable    = "enable"
	actionDisable   = "disable"
	actionAddRow    = "addRow"
	actionRemoveRow = "removeRow"
	actionSetRow    = "setRow"
)

// dayEdit is the body of a schedule day edit. Row, Start and Stop are used
// by the row actions only.
type dayEdit struct {
	Action string `json:"action"`
	Row    int    `json:"row"`
	Start  string `json:"start"`
	Stop   string `json:"stop"`
}

// apply runs the edit against the given weekday of w.
func (e dayEdit) apply(w *core.WeekSchedule, weekday int) error {
	switch e.Action {
	case actionEnable:
		return w.SetDayEnabled(weekday, true)
	case actionDisable:
		return w.SetDayEnabled(weekday, false)
	case actionAddRow:
		return w.AddRow(weekday)
	case actionRemoveRow:
		return w.RemoveRow(weekday, e.Row)
	case actionSetRow:
		return w.SetRowTimes(weekday, e.Row, e.Start, e.Stop)
	default:
		return fmt.Errorf("%w: schedule action %q", core.ErrInvalidValue, e.Action)
	}
}

// handleOpenSchedules renders drafts for both platforms from their stored
// shifts.
func (s *Server) handleOpenSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, sessionFrom(r.Context()).Store.OpenSchedules())
}

// handleSchedules returns the open drafts.
func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	drafts, err := sessionFrom(r.Context()).Store.Schedules()
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, drafts)
}

// handleCloseSchedules discards the drafts.
func (s *Server) handleCloseSchedules(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).Store.CloseSchedules()
	w.WriteHeader(http.StatusNoContent)
}

// handleConfirmSchedules writes the drafts into the vendor records.
func (s *Server) handleConfirmSchedules(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Store.ConfirmSchedules(); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("schedules confirmed")
	writeJSON(w, r, sess.Store.Status())
}

// handleEditDay applies one edit to a weekday of a platform's draft and
// returns the updated draft.
func (s *Server) handleEditDay(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	weekday, err := strconv.Atoi(chi.URLParam(r, "weekday"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: weekday %q", core.ErrInvalidValue, chi.URLParam(r, "weekday")))
		return
	}

	var edit dayEdit
	if err := decodeJSON(w, r, &edit); err != nil {
		respondError(w, r, err)
		return
	}

	draft, err := sessionFrom(r.Context()).Store.EditSchedule(p, func(ws *core.WeekSchedule) error {
		return edit.apply(ws, weekday)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, draft)
}
