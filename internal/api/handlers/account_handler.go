package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"gw-bank-transfer/internal/api/middlew"
	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/service"
	"gw-bank-transfer/pkg/response"

	"github.com/go-chi/chi/v5"
)

type AccountHandler struct {
	service service.Account
}

func NewAccountHandler(service service.Account) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// GetAccounts godoc
// @Summary      Счета клиента
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.AccountResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/v1/accounts [get]
func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetAccounts"
	log := middlew.GetLogger(r.Context())

	accounts, err := h.service.GetAccounts(r.Context(), middlew.GetCustomerID(r.Context()))
	if err != nil {
		log.Error("failed to get accounts", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve accounts")
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, accounts)
}

// GetAccount godoc
// @Summary      Счет клиента по номеру
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        accountNumber path string true "Номер счета"
// @Success      200 {object} models.AccountResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/v1/accounts/{accountNumber} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetAccount"
	log := middlew.GetLogger(r.Context())

	number := chi.URLParam(r, "accountNumber")
	account, err := h.service.GetAccount(r.Context(), middlew.GetCustomerID(r.Context()), number)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrInvalidInput):
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_request", "Account number is required")
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("account not found", slog.String("op", op), slog.String("account", number))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
		default:
			log.Error("failed to get account", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve account")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, account)
}
