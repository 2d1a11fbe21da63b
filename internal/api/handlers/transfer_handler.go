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
)

type TransferHandler struct {
	transfers service.Transfer
	pins      service.Pin
}

func NewTransferHandler(transfers service.Transfer, pins service.Pin) *TransferHandler {
	return &TransferHandler{
		transfers: transfers,
		pins:      pins,
	}
}

// Create godoc
// @Summary      Перевод между счетами
// @Description  Проверяет ограничения после восстановления доступа, оценивает риск мошенничества и исполняет перевод. Заблокированный перевод возвращается со статусом 200 и blocked=true.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.TransferRequest true "Данные перевода"
// @Success      200 {object} models.TransferResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/v1/transactions/create [post]
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CreateTransfer"
	log := middlew.GetLogger(r.Context())
	customerID := middlew.GetCustomerID(r.Context())

	var req models.TransferRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeRequestError(w, log, op, err)
		return
	}

	resp, err := h.transfers.Transfer(r.Context(), customerID, req)
	if err != nil {
		h.handleTransferError(w, log, op, err)
		return
	}

	if resp.Blocked {
		log.Info("transfer blocked",
			slog.String("op", op),
			slog.String("reason", string(resp.BlockReason)))
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, resp)
}

// TestFraud godoc
// @Summary      Пробная оценка риска
// @Description  Вычисляет признаки и вероятность мошенничества без исполнения перевода
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.TransferRequest true "Данные перевода"
// @Success      200 {object} models.FraudAssessment
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/v1/transactions/test-fraud [post]
func (h *TransferHandler) TestFraud(w http.ResponseWriter, r *http.Request) {
	const op = "handler.TestFraud"
	log := middlew.GetLogger(r.Context())
	customerID := middlew.GetCustomerID(r.Context())

	var req models.TransferRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeRequestError(w, log, op, err)
		return
	}

	assessment, err := h.transfers.Assess(r.Context(), customerID, req)
	if err != nil {
		h.handleTransferError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, assessment)
}

// VerifyPin godoc
// @Summary      Проверка ATM PIN
// @Description  Проверяет PIN перед повторной аутентификацией перевода. После исчерпания попыток PIN блокируется.
// @Tags         pin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.PinVerificationRequest true "PIN"
// @Success      200 {object} models.PinVerificationResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} models.PinVerificationResponse
// @Failure      423 {object} models.PinVerificationResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/v1/transactions/verify-pin [post]
func (h *TransferHandler) VerifyPin(w http.ResponseWriter, r *http.Request) {
	const op = "handler.VerifyPin"
	log := middlew.GetLogger(r.Context())
	customerID := middlew.GetCustomerID(r.Context())

	var req models.PinVerificationRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeRequestError(w, log, op, err)
		return
	}

	resp, err := h.pins.VerifyPin(r.Context(), customerID, req.AccountNumber, req.Pin)
	if err != nil {
		h.handlePinError(w, log, op, err)
		return
	}

	status := http.StatusOK
	switch {
	case resp.Verified:
	case resp.LockedUntil != nil:
		status = http.StatusLocked
	default:
		status = http.StatusUnauthorized
	}
	if !resp.Verified {
		log.Warn("pin verification failed", slog.String("op", op), slog.Int("status", status))
	}

	response.WriteJSONSuccess(w, log, status, resp)
}

// SetPin godoc
// @Summary      Установка ATM PIN
// @Tags         pin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.SetPinRequest true "PIN"
// @Success      204
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/v1/accounts/pin [post]
func (h *TransferHandler) SetPin(w http.ResponseWriter, r *http.Request) {
	const op = "handler.SetPin"
	log := middlew.GetLogger(r.Context())
	customerID := middlew.GetCustomerID(r.Context())

	var req models.SetPinRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeRequestError(w, log, op, err)
		return
	}

	if err := h.pins.SetPin(r.Context(), customerID, req.AccountNumber, req.Pin); err != nil {
		h.handlePinError(w, log, op, err)
		return
	}

	log.Info("pin updated", slog.String("op", op))
	response.WriteNoContent(w)
}

func (h *TransferHandler) handleTransferError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, custom_err.ErrInvalidAmount):
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_amount", "Amount must be positive")
	case errors.Is(err, custom_err.ErrSelfTransfer):
		response.WriteJSONError(w, log, http.StatusBadRequest, "self_transfer", "Cannot transfer to the same account")
	case errors.Is(err, custom_err.ErrInsufficientFunds):
		response.WriteJSONError(w, log, http.StatusBadRequest, "insufficient_funds", "Insufficient funds")
	case errors.Is(err, custom_err.ErrReauthPinNotVerified):
		response.WriteJSONError(w, log, http.StatusBadRequest, "pin_verification_required",
			"PIN verification required for re-authenticated transactions")
	case errors.Is(err, custom_err.ErrReauthPinNotSet):
		response.WriteJSONError(w, log, http.StatusBadRequest, "pin_not_set",
			"ATM PIN not set for this account. Please set up PIN first.")
	case errors.Is(err, custom_err.ErrRecipientNotFound):
		response.WriteJSONError(w, log, http.StatusNotFound, "recipient_not_found", "Recipient account not found")
	case errors.Is(err, custom_err.ErrNotFound):
		response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
	default:
		log.Error("transfer failed", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Transaction failed")
	}
}

func (h *TransferHandler) handlePinError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, custom_err.ErrPinNotSet):
		response.WriteJSONError(w, log, http.StatusBadRequest, "pin_not_set", "PIN not set. Please set up your PIN first.")
	case errors.Is(err, custom_err.ErrNotFound):
		response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
	default:
		log.Error("pin operation failed", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "PIN operation failed")
	}
}

func writeRequestError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		log.Warn("invalid request", slog.String("op", op), slog.String("error", reqErr.message))
		response.WriteJSONError(w, log, http.StatusBadRequest, reqErr.code, reqErr.message)
		return
	}
	response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_request", "Invalid request")
}
