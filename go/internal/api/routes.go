// Package api exposes the engine over REST and the hub over /ws/{room}.
// REST is the only write path; WebSocket rooms are observe-only.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rinkops/rinkd/go/internal/game"
	"github.com/rinkops/rinkd/go/internal/gateway"
	"github.com/rinkops/rinkd/go/internal/notify"
)

type API struct {
	engine   *game.Engine
	hub      *gateway.Hub
	ws       *gateway.WSHandler
	notifier *notify.Notifier
	token    string
}

func New(engine *game.Engine, hub *gateway.Hub, ws *gateway.WSHandler, notifier *notify.Notifier, operatorToken string) *API {
	return &API{
		engine:   engine,
		hub:      hub,
		ws:       ws,
		notifier: notifier,
		token:    operatorToken,
	}
}

func (a *API) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Resync primitive for (re)connecting clients; public so the
		// scoreboard display needs no credentials.
		r.Get("/game/state", a.handleGameState)
		r.Get("/ws/{room}", a.handleWS)

		r.Group(func(r chi.Router) {
			r.Use(a.requireOperator)

			r.Post("/game/setup", a.handleSetup)
			r.Patch("/game/config", a.handleConfigPatch)
			r.Post("/game/score", a.handleScore)
			r.Post("/game/shots", a.handleShots)
			r.Post("/game/timer/start", a.handleTimerStart)
			r.Post("/game/timer/stop", a.handleTimerStop)
			r.Post("/game/timer/reset", a.handleTimerReset)
			r.Post("/game/timer/set", a.handleTimerSet)
			r.Post("/game/period/next", a.handlePeriodNext)
			r.Post("/game/interval/start", a.handleIntervalStart)
			r.Post("/game/timeout/start", a.handleTimeoutStart)
			r.Post("/game/timeout/stop", a.handleTimeoutStop)
			r.Post("/game/siren", a.handleSiren)
			r.Post("/game/obs", a.handleOBS)
			r.Post("/game/penalties", a.handleAddPenalty)
			r.Delete("/game/penalties/{id}", a.handleRemovePenalty)

			r.Post("/command/{target}", a.handleCommand)
			r.Post("/notifications", a.handleNotification)
		})
	})

	return r
}
