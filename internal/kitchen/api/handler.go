package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-pos/internal/auth"
	"ms-pos/internal/kitchen"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
	"ms-pos/internal/utils"
)

type Handler struct {
	Router *kitchen.Router
	Logger *logger.Logger
}

func NewHandler(router *kitchen.Router, log *logger.Logger) *Handler {
	return &Handler{Router: router, Logger: log}
}

// StationQueue returns the active tickets for ?station=kitchen|bar.
func (h *Handler) StationQueue(w http.ResponseWriter, r *http.Request) {
	station := r.URL.Query().Get("station")

	tickets, err := h.Router.TicketsByStation(r.Context(), station)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StationQueue: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("could not load station queue", err.Error()))
		return
	}
	if tickets == nil {
		tickets = []models.KitchenTicket{}
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("station queue", tickets))
}

func (h *Handler) AdvanceTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	actor, err := auth.ActorFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("missing actor", err.Error()))
		return
	}

	var req models.AdvanceTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	ticket, err := h.Router.Advance(r.Context(), ticketID, req.Status, actor.ID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AdvanceTicket: %v", err))
		utils.WriteDomainError(w, "could not advance ticket", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket advanced", ticket))
}

func (h *Handler) OrderTickets(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	tickets, err := h.Router.GetTicketsByOrder(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("OrderTickets: %v", err))
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("could not load tickets", err.Error()))
		return
	}
	if tickets == nil {
		tickets = []models.KitchenTicket{}
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order tickets", tickets))
}
