package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/fraud"
	"gw-bank-transfer/internal/metrics"
	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/storage/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	recommendBypass = "BYPASS (RE-AUTH)"
	recommendBlock  = "BLOCK"
	recommendAllow  = "ALLOW"
	recommendError  = "ERROR"

	reviewNoticeProbability = 0.1
)

// AnomalyScorer оценка вектора признаков; реализуется fraud.Scorer
type AnomalyScorer interface {
	Score(fv models.FeatureVector) fraud.Result
	ModelsLoaded() bool
}

type Transfer interface {
	Transfer(ctx context.Context, customerID uuid.UUID, req models.TransferRequest) (*models.TransferResponse, error)
	// Assess оценивает перевод без исполнения и без записи в хранилище
	Assess(ctx context.Context, customerID uuid.UUID, req models.TransferRequest) (*models.FraudAssessment, error)
}

type TransferService struct {
	accounts     postgres.AccountRepository
	transactions postgres.TransactionRepository
	features     FeatureStore
	limiter      RestorationLimiter
	scorer       AnomalyScorer
	policy       fraud.Policy
	txManager    TxManager
	notifier     Notifier
	now          func() time.Time
	log          *slog.Logger
}

func NewTransferService(
	accounts postgres.AccountRepository,
	transactions postgres.TransactionRepository,
	features FeatureStore,
	limiter RestorationLimiter,
	scorer AnomalyScorer,
	policy fraud.Policy,
	txManager TxManager,
	notifier Notifier,
	log *slog.Logger,
) *TransferService {
	return &TransferService{
		accounts:     accounts,
		transactions: transactions,
		features:     features,
		limiter:      limiter,
		scorer:       scorer,
		policy:       policy,
		txManager:    txManager,
		notifier:     notifier,
		now:          time.Now,
		log:          log,
	}
}

// transferContext проверенные участники перевода
type transferContext struct {
	customerID uuid.UUID
	sender     *models.Account
	recipient  *models.Account
	amount     int64
	req        models.TransferRequest
	reauth     fraud.Reauth
	now        time.Time
}

func (s *TransferService) Transfer(ctx context.Context, customerID uuid.UUID, req models.TransferRequest) (*models.TransferResponse, error) {
	const op = "service.Transfer"

	log := s.log.With(
		slog.String("op", op),
		slog.String("customer_id", customerID.String()),
		slog.String("terminal_id", req.TerminalID),
	)

	tc, err := s.validate(ctx, customerID, req)
	if err != nil {
		metrics.TransferOutcomes.WithLabelValues("rejected").Inc()
		return nil, err
	}

	check := s.limiter.Check(ctx, customerID, tc.amount)
	if !check.Allowed {
		log.Warn("перевод заблокирован ограничением после восстановления", slog.String("reason", check.Message))
		metrics.TransferOutcomes.WithLabelValues("blocked_policy").Inc()
		return s.blockByPolicy(ctx, tc, check), nil
	}

	if req.IsReauthTransaction {
		if !req.PinVerified {
			metrics.TransferOutcomes.WithLabelValues("rejected").Inc()
			return nil, custom_err.ErrReauthPinNotVerified
		}
		if !tc.sender.HasPin() {
			metrics.TransferOutcomes.WithLabelValues("rejected").Inc()
			return nil, custom_err.ErrReauthPinNotSet
		}
	}

	var (
		decision fraud.Decision
		bypassed bool
	)
	if s.policy.Bypass(tc.reauth) {
		bypassed = true
		metrics.FraudBypassed.Inc()
		log.Info("антифрод пропущен: повторная аутентификация с PIN",
			slog.Any("original_fraud_alert_id", req.OriginalFraudAlertID))
	} else {
		decision = s.score(ctx, tc)
		if decision.Anomaly {
			log.Warn("перевод заблокирован антифродом",
				slog.Float64("probability", decision.Probability),
				slog.Float64("threshold", decision.Threshold),
				slog.String("risk_level", string(decision.RiskLevel)),
				slog.Bool("manual_override", decision.ManualOverride))
			metrics.TransferOutcomes.WithLabelValues("blocked_fraud").Inc()
			return s.blockByFraud(ctx, tc, decision), nil
		}
	}

	transferID, newBalance, err := s.commit(ctx, tc)
	if err != nil {
		metrics.TransferOutcomes.WithLabelValues("failed").Inc()
		if errors.Is(err, custom_err.ErrInsufficientFunds) || errors.Is(err, custom_err.ErrNotFound) {
			return nil, err
		}
		log.Error("перевод не выполнен, транзакция откатена", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// пересчет признаков только после успешной фиксации
	s.features.ScheduleUpdate(customerID, req.TerminalID)

	authMethod := models.AuthStandard
	if req.IsReauthTransaction && req.PinVerified {
		authMethod = models.AuthPinAndFido
	}

	balance := models.AmountFromMinorUnits(newBalance)
	amount := models.AmountFromMinorUnits(tc.amount)

	var probability *float64
	if !bypassed {
		p := decision.Probability
		probability = &p
	} else {
		zero := 0.0
		probability = &zero
	}

	s.notifier.Notify(models.TransferEvent{
		EventType:        models.EventTransferCommitted,
		TransferID:       transferID,
		CustomerID:       customerID,
		AccountNumber:    tc.sender.AccountNumber,
		Recipient:        tc.recipient.AccountNumber,
		RecipientName:    req.RecipientName,
		Amount:           amount,
		NewBalance:       &balance,
		FraudProbability: probability,
		AuthMethod:       authMethod,
		Timestamp:        tc.now,
	})

	resp := &models.TransferResponse{
		Status:                 models.TransferSuccessful,
		TransactionID:          &transferID,
		NewBalance:             &balance,
		FraudPrediction:        false,
		FraudProbability:       probability,
		FraudDetectionBypassed: bypassed,
		Blocked:                false,
		AuthMethod:             authMethod,
		IsReauthTransaction:    req.IsReauthTransaction,
		PinVerified:            req.PinVerified,
		OriginalFraudAlertID:   req.OriginalFraudAlertID,
		Message:                transferMessage(amount.StringFixed(2), req.RecipientName, tc.recipient.AccountNumber),
	}
	if check.Info != nil && check.Info.IsLimited {
		resp.RestorationInfo = check.Info
	}
	resp.SecurityNotice = securityNotice(req, *probability, resp.RestorationInfo)

	metrics.TransferOutcomes.WithLabelValues("successful").Inc()
	log.Info("перевод выполнен",
		slog.String("transfer_id", transferID.String()),
		slog.Int64("amount", tc.amount),
		slog.Bool("bypassed", bypassed))

	return resp, nil
}

func (s *TransferService) Assess(ctx context.Context, customerID uuid.UUID, req models.TransferRequest) (*models.FraudAssessment, error) {
	const op = "service.Assess"

	amount, err := models.AmountToMinorUnits(req.Amount)
	if err != nil {
		return nil, err
	}

	agg, err := s.features.GetFeatures(ctx, customerID, req.TerminalID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reauth := fraud.Reauth{
		IsReauth:             req.IsReauthTransaction,
		PinVerified:          req.PinVerified,
		OriginalFraudAlertID: req.OriginalFraudAlertID,
	}
	fv := models.NewFeatureVector(agg, models.MinorUnitsToFloat(amount), s.now())
	res := s.scorer.Score(fv)

	assessment := &models.FraudAssessment{
		TestMode:            true,
		TransactionAmount:   models.AmountFromMinorUnits(amount),
		Features:            fv,
		ModelsLoaded:        res.ModelsLoaded,
		MLProbability:       res.MLProbability,
		SuspiciousFeatures:  fraud.SuspiciousFeatures(fv),
		IsReauthTransaction: req.IsReauthTransaction,
		WouldBypassIfReauth: s.policy.ReauthBypass && req.IsReauthTransaction,
	}

	if res.Failed() {
		assessment.Error = res.Err.Error()
		assessment.Recommendation = recommendError
		assessment.WouldBlockAtThreshold = map[string]bool{"0.3": false, "0.5": false}
		return assessment, nil
	}

	decision := fraud.Decide(res, fv, s.policy, reauth)
	assessment.FraudProbability = decision.Probability
	assessment.WouldBlockAtThreshold = map[string]bool{
		"0.3": decision.Probability > 0.3,
		"0.5": decision.Probability > 0.5,
	}

	switch {
	case assessment.WouldBypassIfReauth:
		assessment.Recommendation = recommendBypass
	case decision.Anomaly:
		assessment.Recommendation = recommendBlock
	default:
		assessment.Recommendation = recommendAllow
	}

	return assessment, nil
}

// validate отклоняет запрос до любых побочных эффектов
func (s *TransferService) validate(ctx context.Context, customerID uuid.UUID, req models.TransferRequest) (*transferContext, error) {
	const op = "service.validateTransfer"

	amount, err := models.AmountToMinorUnits(req.Amount)
	if err != nil {
		return nil, err
	}

	sender, err := resolveAccount(ctx, s.accounts, customerID, req.AccountNumber)
	if err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: failed to get sender account: %w", op, err)
	}

	recipient, err := s.accounts.GetByNumber(ctx, req.RecipientAccount)
	if err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return nil, custom_err.ErrRecipientNotFound
		}
		return nil, fmt.Errorf("%s: failed to get recipient account: %w", op, err)
	}

	if sender.ID == recipient.ID {
		return nil, custom_err.ErrSelfTransfer
	}
	if sender.Balance < amount {
		return nil, custom_err.ErrInsufficientFunds
	}

	return &transferContext{
		customerID: customerID,
		sender:     sender,
		recipient:  recipient,
		amount:     amount,
		req:        req,
		reauth: fraud.Reauth{
			IsReauth:             req.IsReauthTransaction,
			PinVerified:          req.PinVerified,
			OriginalFraudAlertID: req.OriginalFraudAlertID,
		},
		now: s.now().UTC(),
	}, nil
}

// score единственное место, где сбой оценки превращается в "не аномалия, вероятность 0"
func (s *TransferService) score(ctx context.Context, tc *transferContext) fraud.Decision {
	start := time.Now()
	defer func() { metrics.FraudScoringDuration.Observe(time.Since(start).Seconds()) }()

	var (
		fv  models.FeatureVector
		res fraud.Result
	)

	agg, err := s.features.GetFeatures(ctx, tc.customerID, tc.req.TerminalID)
	if err != nil {
		res = fraud.Result{
			ModelsLoaded: s.scorer.ModelsLoaded(),
			Err:          &fraud.ScoringError{Stage: "features", Err: err},
		}
	} else {
		fv = models.NewFeatureVector(agg, models.MinorUnitsToFloat(tc.amount), tc.now)
		res = s.scorer.Score(fv)
	}

	if res.Failed() {
		metrics.FraudScoringErrors.WithLabelValues(res.Err.Stage).Inc()
		s.log.Error("оценка антифрода не удалась, перевод пропускается без оценки",
			slog.String("customer_id", tc.customerID.String()),
			slog.String("stage", res.Err.Stage),
			slog.String("error", res.Err.Error()))
		return fraud.Decision{
			Anomaly:     false,
			Probability: 0,
			Threshold:   s.policy.ThresholdFor(tc.reauth),
			RiskLevel:   models.RiskLow,
		}
	}

	if n := fraud.SuspiciousFeatures(fv); n > 0 {
		s.log.Warn("подозрительные значения признаков",
			slog.String("customer_id", tc.customerID.String()),
			slog.Int("suspicious", n))
	}

	decision := fraud.Decide(res, fv, s.policy, tc.reauth)
	metrics.FraudScore.Observe(decision.Probability)

	s.log.Debug("оценка антифрода",
		slog.String("customer_id", tc.customerID.String()),
		slog.Float64("probability", decision.Probability),
		slog.Float64("threshold", decision.Threshold),
		slog.Bool("models_loaded", res.ModelsLoaded),
		slog.Bool("anomaly", decision.Anomaly))

	return decision
}

// commit списывает и зачисляет в одной транзакции. Строки счетов блокируются
// в порядке ID, чтобы встречные переводы не взаимоблокировались.
func (s *TransferService) commit(ctx context.Context, tc *transferContext) (uuid.UUID, int64, error) {
	const op = "service.commitTransfer"

	transferID := uuid.New()
	var newBalance int64

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		ids := []uuid.UUID{tc.sender.ID, tc.recipient.ID}
		if bytes.Compare(ids[0][:], ids[1][:]) > 0 {
			ids[0], ids[1] = ids[1], ids[0]
		}

		balances := make(map[uuid.UUID]int64, 2)
		for _, id := range ids {
			balance, err := s.accounts.GetBalanceForUpdateTx(ctx, tx, id)
			if err != nil {
				if errors.Is(err, custom_err.ErrNotFound) {
					return err
				}
				return fmt.Errorf("%s: failed to lock account: %w", op, err)
			}
			balances[id] = balance
		}

		senderBalance := balances[tc.sender.ID] - tc.amount
		if senderBalance < 0 {
			return custom_err.ErrInsufficientFunds
		}

		if err := s.accounts.UpdateBalanceTx(ctx, tx, tc.sender.ID, senderBalance); err != nil {
			if errors.Is(err, custom_err.ErrInsufficientFunds) {
				return err
			}
			return fmt.Errorf("%s: failed to debit: %w", op, err)
		}
		if err := s.accounts.UpdateBalanceTx(ctx, tx, tc.recipient.ID, balances[tc.recipient.ID]+tc.amount); err != nil {
			return fmt.Errorf("%s: failed to credit: %w", op, err)
		}

		authMethod := models.AuthStandard
		if tc.req.IsReauthTransaction && tc.req.PinVerified {
			authMethod = models.AuthPinAndFido
		}

		debit := &models.Transaction{
			ID:           uuid.New(),
			TransferID:   transferID,
			AccountID:    tc.sender.ID,
			TerminalID:   tc.req.TerminalID,
			Counterparty: tc.recipient.AccountNumber,
			Type:         models.TransactionDebit,
			Amount:       -tc.amount,
			IsReauth:     tc.req.IsReauthTransaction,
			AuthMethod:   authMethod,
			CreatedAt:    tc.now,
		}
		credit := &models.Transaction{
			ID:           uuid.New(),
			TransferID:   transferID,
			AccountID:    tc.recipient.ID,
			TerminalID:   tc.req.TerminalID,
			Counterparty: tc.sender.AccountNumber,
			Type:         models.TransactionCredit,
			Amount:       tc.amount,
			IsReauth:     tc.req.IsReauthTransaction,
			AuthMethod:   authMethod,
			CreatedAt:    tc.now,
		}

		for _, leg := range []*models.Transaction{debit, credit} {
			if err := s.transactions.CreateTx(ctx, tx, leg); err != nil {
				return fmt.Errorf("%s: failed to write %s leg: %w", op, leg.Type, err)
			}
		}

		newBalance = senderBalance
		return nil
	})
	if err != nil {
		return uuid.Nil, 0, err
	}

	return transferID, newBalance, nil
}

func (s *TransferService) blockByPolicy(ctx context.Context, tc *transferContext, check models.RestorationCheck) *models.TransferResponse {
	audit := s.auditRecord(tc, models.BlockReasonRestorationLimit, false, models.AuthStandard)
	s.writeAudit(ctx, audit)

	s.notifier.Notify(models.TransferEvent{
		EventType:     models.EventTransferBlockedPolicy,
		TransferID:    audit.TransferID,
		CustomerID:    tc.customerID,
		AccountNumber: tc.sender.AccountNumber,
		Recipient:     tc.recipient.AccountNumber,
		RecipientName: tc.req.RecipientName,
		Amount:        models.AmountFromMinorUnits(tc.amount),
		AuthMethod:    models.AuthStandard,
		Timestamp:     tc.now,
	})

	return &models.TransferResponse{
		Status:               models.TransferBlocked,
		TransactionID:        &audit.ID,
		FraudPrediction:      false,
		Blocked:              true,
		BlockReason:          models.BlockReasonRestorationLimit,
		RestorationInfo:      check.Info,
		AuthMethod:           models.AuthStandard,
		IsReauthTransaction:  tc.req.IsReauthTransaction,
		PinVerified:          tc.req.PinVerified,
		OriginalFraudAlertID: tc.req.OriginalFraudAlertID,
		Message:              check.Message,
	}
}

func (s *TransferService) blockByFraud(ctx context.Context, tc *transferContext, decision fraud.Decision) *models.TransferResponse {
	audit := s.auditRecord(tc, models.BlockReasonFraud, true, models.AuthPinAndFidoRequired)
	s.writeAudit(ctx, audit)

	probability := decision.Probability

	s.notifier.Notify(models.TransferEvent{
		EventType:        models.EventTransferBlockedFraud,
		TransferID:       audit.TransferID,
		CustomerID:       tc.customerID,
		AccountNumber:    tc.sender.AccountNumber,
		Recipient:        tc.recipient.AccountNumber,
		RecipientName:    tc.req.RecipientName,
		Amount:           models.AmountFromMinorUnits(tc.amount),
		FraudProbability: &probability,
		RiskLevel:        decision.RiskLevel,
		AuthMethod:       models.AuthPinAndFidoRequired,
		Timestamp:        tc.now,
	})

	return &models.TransferResponse{
		Status:               models.TransferBlocked,
		TransactionID:        &audit.ID,
		FraudPrediction:      true,
		FraudProbability:     &probability,
		FraudDetails:         decision.Details,
		Blocked:              true,
		BlockReason:          models.BlockReasonFraud,
		AuthMethod:           models.AuthPinAndFidoRequired,
		IsReauthTransaction:  tc.req.IsReauthTransaction,
		PinVerified:          tc.req.PinVerified,
		OriginalFraudAlertID: tc.req.OriginalFraudAlertID,
		Message: fmt.Sprintf(
			"Transaction blocked due to %s risk fraud detection. PIN and biometric verification required.",
			decision.RiskLevel),
	}
}

func (s *TransferService) auditRecord(tc *transferContext, reason models.BlockReason, isFraud bool, auth models.AuthMethod) *models.Transaction {
	return &models.Transaction{
		ID:           uuid.New(),
		TransferID:   uuid.New(),
		AccountID:    tc.sender.ID,
		TerminalID:   tc.req.TerminalID,
		Counterparty: tc.recipient.AccountNumber,
		Type:         models.TransactionBlocked,
		Amount:       -tc.amount,
		IsFraud:      isFraud,
		BlockReason:  reason,
		IsReauth:     tc.req.IsReauthTransaction,
		AuthMethod:   auth,
		CreatedAt:    tc.now,
	}
}

// writeAudit не меняет решение о блокировке при ошибке записи
func (s *TransferService) writeAudit(ctx context.Context, t *models.Transaction) {
	if err := s.transactions.Create(ctx, t); err != nil {
		s.log.Error("не удалось записать заблокированную операцию",
			slog.String("account_id", t.AccountID.String()),
			slog.String("block_reason", string(t.BlockReason)),
			slog.String("error", err.Error()))
	}
}

func transferMessage(amount, recipientName, recipientAccount string) string {
	to := recipientName
	if to == "" {
		to = recipientAccount
	}
	return fmt.Sprintf("Transaction completed successfully. %s transferred to %s", amount, to)
}

func securityNotice(req models.TransferRequest, probability float64, restoration *models.RestorationInfo) string {
	switch {
	case req.IsReauthTransaction && req.PinVerified:
		return "Transaction completed after successful PIN and biometric re-authentication"
	case probability > reviewNoticeProbability:
		return fmt.Sprintf("Transaction flagged for review (risk score: %.3f)", probability)
	case restoration != nil && restoration.IsLimited:
		return "Account under post-restoration limits: " + restoration.Message
	default:
		return ""
	}
}
