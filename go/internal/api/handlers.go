package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rinkops/rinkd/go/internal/game"
	"github.com/rinkops/rinkd/go/internal/gateway"
)

func (a *API) writeCommandError(w http.ResponseWriter, err error) {
	if errors.Is(err, game.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Error().Err(err).Msg("command failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (a *API) handleGameState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

type setupRequest struct {
	HomeName         string `json:"home_name"`
	AwayName         string `json:"away_name"`
	PeriodDuration   string `json:"period_duration"`
	IntervalDuration string `json:"interval_duration"`
	ColorHome        string `json:"color_home"`
	ColorAway        string `json:"color_away"`
	SirenEveryMinute *bool  `json:"siren_every_minute"`
}

func (a *API) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := a.engine.Setup(game.SetupParams{
		HomeName:         req.HomeName,
		AwayName:         req.AwayName,
		PeriodDuration:   req.PeriodDuration,
		IntervalDuration: req.IntervalDuration,
		ColorHome:        req.ColorHome,
		ColorAway:        req.ColorAway,
		SirenEveryMinute: req.SirenEveryMinute,
	}); err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeOK(w)
}

type configPatchRequest struct {
	HomeName         *string `json:"home_name"`
	AwayName         *string `json:"away_name"`
	ColorHome        *string `json:"color_home"`
	ColorAway        *string `json:"color_away"`
	PeriodDuration   *string `json:"period_duration"`
	IntervalDuration *string `json:"interval_duration"`
	SirenEveryMinute *bool   `json:"siren_every_minute"`
}

func (a *API) handleConfigPatch(w http.ResponseWriter, r *http.Request) {
	var req configPatchRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := a.engine.ApplyConfig(game.ConfigPatch{
		HomeName:         req.HomeName,
		AwayName:         req.AwayName,
		ColorHome:        req.ColorHome,
		ColorAway:        req.ColorAway,
		PeriodDuration:   req.PeriodDuration,
		IntervalDuration: req.IntervalDuration,
		SirenEveryMinute: req.SirenEveryMinute,
	}); err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeOK(w)
}

type deltaRequest struct {
	Team  string `json:"team"`
	Delta int    `json:"delta"`
}

func (a *API) handleScore(w http.ResponseWriter, r *http.Request) {
	var req deltaRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := a.engine.AdjustScore(req.Team, req.Delta); err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeOK(w)
}

func (a *API) handleShots(w http.ResponseWriter, r *http.Request) {
	var req deltaRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := a.engine.AdjustShots(req.Team, req.Delta); err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeOK(w)
}

func (a *API) handleTimerStart(w http.ResponseWriter, _ *http.Request) {
	a.engine.StartTimer()
	writeOK(w)
}

func (a *API) handleTimerStop(w http.ResponseWriter, _ *http.Request) {
	a.engine.StopTimer()
	writeOK(w)
}

func (a *API) handleTimerReset(w http.ResponseWriter, _ *http.Request) {
	a.engine.ResetTimer()
	writeOK(w)
}

type timerSetRequest struct {
	Seconds int   `json:"seconds"`
	Running *bool `json:"running"`
}

func (a *API) handleTimerSet(w http.ResponseWriter, r *http.Request) {
	var req timerSetRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	snap, err := a.engine.SetTimer(req.Seconds, req.Running)
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"timerRemaining": snap.TimerRemaining,
		"timerRunning":   snap.TimerRunning,
	})
}

func (a *API) handlePeriodNext(w http.ResponseWriter, _ *http.Request) {
	a.engine.NextPeriod()
	writeOK(w)
}

func (a *API) handleIntervalStart(w http.ResponseWriter, _ *http.Request) {
	if _, err := a.engine.StartInterval(); err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeOK(w)
}

func (a *API) handleTimeoutStart(w http.ResponseWriter, _ *http.Request) {
	a.engine.StartTimeout()
	writeOK(w)
}

func (a *API) handleTimeoutStop(w http.ResponseWriter, _ *http.Request) {
	a.engine.StopTimeout()
	writeOK(w)
}

type sirenRequest struct {
	On bool `json:"on"`
}

func (a *API) handleSiren(w http.ResponseWriter, r *http.Request) {
	var req sirenRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a.engine.Siren(req.On)
	writeOK(w)
}

type obsRequest struct {
	Visible bool `json:"visible"`
}

func (a *API) handleOBS(w http.ResponseWriter, r *http.Request) {
	var req obsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a.engine.SetOBSVisible(req.Visible)
	writeOK(w)
}

type addPenaltyRequest struct {
	Team         string `json:"team"`
	PlayerNumber string `json:"player_number"`
	Minutes      int    `json:"minutes"`
}

func (a *API) handleAddPenalty(w http.ResponseWriter, r *http.Request) {
	var req addPenaltyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := a.engine.AddPenalty(req.Team, req.PlayerNumber, req.Minutes)
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": p.ID})
}

func (a *API) handleRemovePenalty(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid penalty id")
		return
	}
	a.engine.RemovePenalty(id)
	writeOK(w)
}

type commandRequest struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// handleCommand relays transport commands (showView, setVolume, toggle,
// prevTrack, nextTrack, playJingle, ...) to the display or player room.
func (a *API) handleCommand(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	if target != gateway.RoomDisplay && target != gateway.RoomPlayer {
		writeError(w, http.StatusBadRequest, "invalid command target")
		return
	}
	var req commandRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "command type is required")
		return
	}
	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	a.hub.Publish(target, gateway.Envelope{Type: req.Type, Payload: payload})
	writeOK(w)
}

type notificationRequest struct {
	UserID           *int64         `json:"user_id"`
	NotificationType string         `json:"notification_type"`
	Message          string         `json:"message"`
	Data             map[string]any `json:"data"`
}

func (a *API) handleNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.NotificationType == "" {
		writeError(w, http.StatusBadRequest, "notification_type is required")
		return
	}
	if req.UserID != nil {
		a.notifier.NotifyUser(*req.UserID, req.NotificationType, req.Message, req.Data)
	} else {
		a.notifier.NotifyAll(req.NotificationType, req.Message, req.Data)
	}
	writeOK(w)
}

func (a *API) handleWS(w http.ResponseWriter, r *http.Request) {
	a.ws.Handle(chi.URLParam(r, "room"), w, r)
}
