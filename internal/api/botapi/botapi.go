// Package botapi is the JSON command surface consumed by the chat gateway.
// Every operation is addressed to a subscriber, mirroring the bot commands:
// track, untrack, list, clear, one-shot status and scan history.
package botapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/dartwatch/dartwatch/internal/models"
	"github.com/dartwatch/dartwatch/internal/services/subscriptions"
)

type API struct {
	svc *subscriptions.Service
}

func New(svc *subscriptions.Service) *API {
	return &API{svc: svc}
}

// Routes mounts the v1 command surface on a fresh router.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/subscribers/{subscriberID}", func(r chi.Router) {
		r.Post("/waybills", a.subscribe)
		r.Get("/waybills", a.list)
		r.Delete("/waybills", a.clear)
		r.Delete("/waybills/{waybillID}", a.unsubscribe)
	})
	r.Route("/waybills/{waybillID}", func(r chi.Router) {
		r.Get("/", a.track)
		r.Get("/history", a.history)
	})
	return r
}

type subscribeRequest struct {
	WaybillID string `json:"waybill_id"`
}

type recordResponse struct {
	Record    models.ShipmentRecord `json:"record"`
	Delivered bool                  `json:"delivered"`
}

type trackResponse struct {
	Record  models.ShipmentRecord `json:"record"`
	History []models.ScanEntry    `json:"history,omitempty"`
	Evicted bool                  `json:"evicted"`
}

func (a *API) subscribe(w http.ResponseWriter, r *http.Request) {
	subscriber, ok := subscriberID(w, r)
	if !ok {
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WaybillID == "" {
		writeError(w, http.StatusBadRequest, "waybill_id is required")
		return
	}

	res, err := a.svc.Subscribe(r.Context(), subscriber, req.WaybillID)
	switch {
	case errors.Is(err, subscriptions.ErrAlreadyDelivered):
		// Terminal shipments are reported, never admitted into tracking.
		writeJSON(w, http.StatusOK, recordResponse{Record: res.Record, Delivered: true})
	case errors.Is(err, subscriptions.ErrAlreadyTracked):
		writeError(w, http.StatusConflict, "waybill already tracked")
	case errors.Is(err, subscriptions.ErrNotFound):
		writeError(w, http.StatusNotFound, "no tracking record found")
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusCreated, recordResponse{Record: res.Record})
	}
}

func (a *API) unsubscribe(w http.ResponseWriter, r *http.Request) {
	subscriber, ok := subscriberID(w, r)
	if !ok {
		return
	}
	err := a.svc.Unsubscribe(r.Context(), subscriber, chi.URLParam(r, "waybillID"))
	if errors.Is(err, subscriptions.ErrNotTracked) {
		writeError(w, http.StatusNotFound, "waybill not tracked")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	subscriber, ok := subscriberID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"waybills": a.svc.List(subscriber)})
}

func (a *API) clear(w http.ResponseWriter, r *http.Request) {
	subscriber, ok := subscriberID(w, r)
	if !ok {
		return
	}
	n := a.svc.Clear(r.Context(), subscriber)
	writeJSON(w, http.StatusOK, map[string]any{"cleared": n})
}

// track is the one-shot lookup. When the subscriber query param names a
// subscriber currently tracking the waybill and it turns out delivered, the
// entry is evicted and the response says so.
func (a *API) track(w http.ResponseWriter, r *http.Request) {
	waybill := chi.URLParam(r, "waybillID")

	var subscriber int64
	if s := r.URL.Query().Get("subscriber"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad subscriber id")
			return
		}
		subscriber = id
	}

	res, evicted, err := a.svc.Track(r.Context(), subscriber, waybill)
	if errors.Is(err, subscriptions.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no tracking record found")
		return
	}
	writeJSON(w, http.StatusOK, trackResponse{Record: res.Record, History: res.History, Evicted: evicted})
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	entries, err := a.svc.History(r.Context(), chi.URLParam(r, "waybillID"))
	if errors.Is(err, subscriptions.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no tracking record found")
		return
	}
	if entries == nil {
		entries = []models.ScanEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func subscriberID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "subscriberID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad subscriber id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
