package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"gw-bank-transfer/internal/api/middlew"
	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/service"
	"gw-bank-transfer/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type RestorationHandler struct {
	service service.RestorationLimiter
}

func NewRestorationHandler(service service.RestorationLimiter) *RestorationHandler {
	return &RestorationHandler{
		service: service,
	}
}

func (h *RestorationHandler) customerID(w http.ResponseWriter, r *http.Request, op string) (uuid.UUID, bool) {
	log := middlew.GetLogger(r.Context())

	idStr := chi.URLParam(r, "customerID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Warn("invalid UUID", slog.String("op", op), slog.String("uuid", idStr))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_request", "Invalid customer ID format")
		return uuid.Nil, false
	}
	return id, true
}

// GetRestoration godoc
// @Summary      Состояние ограничения после восстановления доступа
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        customerID path string true "ID клиента"
// @Success      200 {object} models.RestorationInfo
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/v1/admin/restoration/{customerID} [get]
func (h *RestorationHandler) GetRestoration(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetRestoration"
	log := middlew.GetLogger(r.Context())

	id, ok := h.customerID(w, r, op)
	if !ok {
		return
	}

	info, err := h.service.Info(r.Context(), id)
	if err != nil {
		log.Error("failed to get restoration info", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve restoration info")
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, info)
}

// ActivateRestoration godoc
// @Summary      Включение ограничения после восстановления доступа
// @Description  Ограничивает сумму одного перевода на время окна. Без limit_amount используется лимит по умолчанию.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        customerID path string true "ID клиента"
// @Param        request body models.ActivateRestorationRequest false "Лимит"
// @Success      200 {object} models.RestorationInfo
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/v1/admin/restoration/{customerID} [post]
func (h *RestorationHandler) ActivateRestoration(w http.ResponseWriter, r *http.Request) {
	const op = "handler.ActivateRestoration"
	log := middlew.GetLogger(r.Context())

	id, ok := h.customerID(w, r, op)
	if !ok {
		return
	}

	var req models.ActivateRestorationRequest
	if r.ContentLength != 0 {
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeRequestError(w, log, op, err)
			return
		}
	}

	if err := h.service.Activate(r.Context(), id, req.LimitAmount); err != nil {
		switch {
		case errors.Is(err, custom_err.ErrInvalidAmount):
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_amount", "Limit amount must be positive")
		default:
			log.Error("failed to activate restoration limit", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to activate restoration limit")
		}
		return
	}

	info, err := h.service.Info(r.Context(), id)
	if err != nil {
		log.Error("failed to get restoration info", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve restoration info")
		return
	}

	log.Info("restoration limit activated", slog.String("op", op), slog.String("customer_id", id.String()))
	response.WriteJSONSuccess(w, log, http.StatusOK, info)
}

// RemoveRestoration godoc
// @Summary      Снятие ограничения после восстановления доступа
// @Tags         admin
// @Security     BearerAuth
// @Param        customerID path string true "ID клиента"
// @Success      204
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/v1/admin/restoration/{customerID} [delete]
func (h *RestorationHandler) RemoveRestoration(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RemoveRestoration"
	log := middlew.GetLogger(r.Context())

	id, ok := h.customerID(w, r, op)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, custom_err.ErrNotFound):
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "No restoration limit for customer")
		default:
			log.Error("failed to remove restoration limit", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to remove restoration limit")
		}
		return
	}

	log.Info("restoration limit removed", slog.String("op", op), slog.String("customer_id", id.String()))
	response.WriteNoContent(w)
}
