package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-pos/internal/auth"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
	"ms-pos/internal/session"
	"ms-pos/internal/utils"
)

type Handler struct {
	Sessions *session.SessionService
	Logger   *logger.Logger
}

func NewHandler(sessions *session.SessionService, log *logger.Logger) *Handler {
	return &Handler{Sessions: sessions, Logger: log}
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.ActorFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("missing actor", err.Error()))
		return
	}

	var req models.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if req.TableID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "table_id is required"))
		return
	}

	opened, err := h.Sessions.Open(r.Context(), req.TableID, actor.ID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("OpenSession: %v", err))
		utils.WriteDomainError(w, "could not open session", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("session opened", opened))
}

func (h *Handler) AttachOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	orderID := chi.URLParam(r, "orderId")

	if err := h.Sessions.AttachOrder(r.Context(), sessionID, orderID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AttachOrder: %v", err))
		utils.WriteDomainError(w, "could not attach order", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order attached", nil))
}

func (h *Handler) GetSessionTotal(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	total, err := h.Sessions.ComputeTotal(r.Context(), sessionID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetSessionTotal: %v", err))
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("session not found", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("session total", total))
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	actor, err := auth.ActorFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("missing actor", err.Error()))
		return
	}

	var payment models.PaymentDetails
	if err := json.NewDecoder(r.Body).Decode(&payment); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	closed, err := h.Sessions.Close(r.Context(), sessionID, payment, actor.ID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CloseSession: %v", err))
		utils.WriteDomainError(w, "could not close session", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("session closed", closed))
}
