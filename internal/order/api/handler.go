package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-pos/internal/auth"
	"ms-pos/internal/confirm"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
	"ms-pos/internal/order"
	"ms-pos/internal/utils"
	"ms-pos/internal/void"
)

type Handler struct {
	Orders  *order.OrderService
	Confirm *confirm.Coordinator
	Void    *void.Coordinator
	Logger  *logger.Logger
}

func NewHandler(orders *order.OrderService, confirmCoord *confirm.Coordinator, voidCoord *void.Coordinator, log *logger.Logger) *Handler {
	return &Handler{Orders: orders, Confirm: confirmCoord, Void: voidCoord, Logger: log}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.ActorFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("missing actor", err.Error()))
		return
	}

	var req models.CreateOrderRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	created, err := h.Orders.CreateDraft(r.Context(), actor.ID, req.TabSessionID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: %v", err))
		utils.WriteDomainError(w, "could not create draft", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("draft created", created))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	orderData, err := h.Orders.GetOrderWithItems(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: order not found: %v", err))
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("order not found", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order", orderData))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	if err := h.Orders.DeleteDraft(r.Context(), orderID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteOrder: %v", err))
		utils.WriteDomainError(w, "could not delete draft", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	item, err := h.Orders.AddItem(r.Context(), orderID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddItem: %v", err))
		utils.WriteDomainError(w, "could not add item", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("item added", item))
}

func (h *Handler) ChangeItemQuantity(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	itemID := chi.URLParam(r, "itemId")

	actor, err := auth.ActorFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("missing actor", err.Error()))
		return
	}

	var req models.ChangeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	updated, err := h.Orders.ChangeQuantity(r.Context(), orderID, itemID, req.Quantity, actor.ID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ChangeItemQuantity: %v", err))
		utils.WriteDomainError(w, "could not change quantity", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("quantity changed", updated))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	itemID := chi.URLParam(r, "itemId")

	actor, err := auth.ActorFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("missing actor", err.Error()))
		return
	}

	updated, err := h.Orders.RemoveItem(r.Context(), orderID, itemID, actor.ID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RemoveItem: %v", err))
		utils.WriteDomainError(w, "could not remove item", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("item removed", updated))
}

func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	actor, err := auth.ActorFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("missing actor", err.Error()))
		return
	}

	confirmed, err := h.Confirm.Confirm(r.Context(), orderID, actor.ID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ConfirmOrder: %v", err))
		utils.WriteDomainError(w, "could not confirm order", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order confirmed", confirmed))
}

func (h *Handler) VoidOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	actor, err := auth.ActorFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("missing actor", err.Error()))
		return
	}

	var req models.VoidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	voided, err := h.Void.Void(r.Context(), orderID, actor, req.Reason)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("VoidOrder: %v", err))
		utils.WriteDomainError(w, "could not void order", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order voided", voided))
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	actor, err := auth.ActorFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("missing actor", err.Error()))
		return
	}

	completed, err := h.Orders.Complete(r.Context(), orderID, actor.ID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CompleteOrder: %v", err))
		utils.WriteDomainError(w, "could not complete order", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order completed", completed))
}
