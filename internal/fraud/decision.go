package fraud

import (
	"gw-bank-transfer/internal/models"
)

const (
	DefaultThreshold       = 0.3
	DefaultReauthThreshold = 0.95
	DefaultOverrideRatio   = 15.0

	overrideProbability = 0.95
	anomalyType         = "Transaction Pattern Anomaly"
	authRequired        = "PIN + FIDO2"
)

var blockRecommendations = []string{
	"Transaction blocked due to suspicious pattern",
	"Verify your ATM PIN and biometric authentication to proceed",
	"Both PIN and fingerprint verification are required",
	"Contact support if you continue to experience issues",
}

// Policy пороги принятия решения
type Policy struct {
	Threshold       float64
	ReauthThreshold float64
	// ReauthBypass - не оценивать операции после повторной аутентификации с PIN
	ReauthBypass bool
	// OverrideRatio - отношение суммы к среднему, при котором операция блокируется независимо от оценки
	OverrideRatio float64
}

func DefaultPolicy() Policy {
	return Policy{
		Threshold:       DefaultThreshold,
		ReauthThreshold: DefaultReauthThreshold,
		ReauthBypass:    true,
		OverrideRatio:   DefaultOverrideRatio,
	}
}

// Reauth заявленный клиентом контекст повторной аутентификации
type Reauth struct {
	IsReauth             bool
	PinVerified          bool
	OriginalFraudAlertID *string
}

func (p Policy) ThresholdFor(r Reauth) float64 {
	if r.IsReauth {
		return p.ReauthThreshold
	}
	return p.Threshold
}

// Bypass сообщает, нужно ли пропустить оценку целиком
func (p Policy) Bypass(r Reauth) bool {
	return p.ReauthBypass && r.IsReauth && r.PinVerified
}

type Decision struct {
	Anomaly        bool
	Probability    float64
	Threshold      float64
	RiskLevel      models.RiskLevel
	ManualOverride bool
	Details        *models.FraudDetails
}

// Decide применяет пороги и страховочное правило по отношению суммы к среднему
func Decide(res Result, fv models.FeatureVector, policy Policy, reauth Reauth) Decision {
	d := Decision{
		Probability: res.Probability,
		Threshold:   policy.ThresholdFor(reauth),
	}
	d.Anomaly = d.Probability > d.Threshold

	ratio, hasHistory := fv.AmountRatio()
	if !(reauth.IsReauth && reauth.PinVerified) && hasHistory && ratio > policy.OverrideRatio {
		d.ManualOverride = true
		d.Anomaly = true
		if d.Probability < overrideProbability {
			d.Probability = overrideProbability
		}
	}

	d.RiskLevel = models.RiskLevelFor(d.Probability)

	if d.Anomaly {
		d.Details = buildDetails(d, res, fv, reauth, ratio, hasHistory)
	}
	return d
}

func buildDetails(d Decision, res Result, fv models.FeatureVector, reauth Reauth, ratio float64, hasHistory bool) *models.FraudDetails {
	analysis := models.FraudAnalysis{
		RecentAverage:        fv.RecentAverage(),
		TransactionAmount:    fv.TxAmount,
		ThresholdUsed:        d.Threshold,
		MLProbability:        res.MLProbability,
		ManualProbability:    res.Manual.Probability,
		ManualReason:         res.Manual.Reason,
		ManualOverride:       d.ManualOverride,
		ModelsLoaded:         res.ModelsLoaded,
		IsReauthTransaction:  reauth.IsReauth,
		PinVerified:          reauth.PinVerified,
		OriginalFraudAlertID: reauth.OriginalFraudAlertID,
		AuthRequired:         authRequired,
	}
	if hasHistory {
		r := ratio
		analysis.AmountVsAverageRatio = &r
	}

	recs := make([]string, len(blockRecommendations))
	copy(recs, blockRecommendations)

	return &models.FraudDetails{
		AnomalyType:     anomalyType,
		RiskLevel:       d.RiskLevel,
		Confidence:      d.Probability * 100,
		DecisionScore:   d.Probability,
		Recommendations: recs,
		Analysis:        analysis,
	}
}
