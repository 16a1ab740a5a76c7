package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/avvvet/gate-services/internal/cardsvc/service"
	"github.com/avvvet/gate-services/internal/cardsvc/store"
	"github.com/avvvet/gate-services/internal/server"
	"github.com/go-chi/chi"
)

type Handler struct {
	cards *service.CardService
	gate  *service.GateService
}

func NewHandler(cards *service.CardService, gate *service.GateService) *Handler {
	return &Handler{cards: cards, gate: gate}
}

type uidRequest struct {
	UID string `json:"uid"`
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.ListCards(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusOK, cards)
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req uidRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	card, err := h.cards.RegisterCard(r.Context(), req.UID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusCreated, card)
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.GetCard(r.Context(), uidParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusOK, card)
}

func (h *Handler) ListCardScans(w http.ResponseWriter, r *http.Request) {
	scans, err := h.cards.CardScans(r.Context(), uidParam(r), limitParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusOK, scans)
}

func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	scans, err := h.cards.RecentScans(r.Context(), limitParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusOK, scans)
}

// CreateScan presents a card at the gate.
func (h *Handler) CreateScan(w http.ResponseWriter, r *http.Request) {
	var req uidRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	decision, err := h.gate.Scan(r.Context(), req.UID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if decision.Debounced {
		server.JSON(w, http.StatusOK, decision)
		return
	}
	server.JSON(w, http.StatusCreated, decision)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		server.Error(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, server.ErrBadBody):
		server.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		server.Error(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrConflict):
		server.Error(w, http.StatusConflict, "Card already registered")
	default:
		server.Internal(w, r, err)
	}
}

// uidParam returns the decoded uid. chi matches on RawPath when the request
// carries one (an escaped '/' for instance), and the segment is still escaped.
func uidParam(r *http.Request) string {
	uid := chi.URLParam(r, "uid")
	if r.URL.RawPath == "" {
		return uid
	}
	if dec, err := url.PathUnescape(uid); err == nil {
		return dec
	}
	return uid
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}
