package fraud

import (
	"fmt"
	"log/slog"
	"math"

	"gw-bank-transfer/internal/models"
)

// ScoringError ошибка на любом этапе оценки. Scorer не паникует и не
// возвращает error напрямую: решение о поведении при сбое принимает вызывающий.
type ScoringError struct {
	Stage string
	Err   error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring failed at %s: %v", e.Stage, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// Result итог оценки одного вектора признаков
type Result struct {
	Probability         float64
	MLProbability       *float64
	ReconstructionError *float64
	Manual              Heuristic
	ModelsLoaded        bool
	Err                 *ScoringError
}

func (r Result) Failed() bool { return r.Err != nil }

type Scorer struct {
	model *Model
	log   *slog.Logger
}

// NewScorer создает оценщик. При model == nil работает только ручная эвристика.
func NewScorer(model *Model, log *slog.Logger) *Scorer {
	if model == nil {
		log.Warn("ML модели не загружены, используется только ручная проверка")
	}
	return &Scorer{model: model, log: log}
}

func (s *Scorer) ModelsLoaded() bool { return s.model != nil }

func (s *Scorer) Score(fv models.FeatureVector) (res Result) {
	res.ModelsLoaded = s.ModelsLoaded()

	defer func() {
		if p := recover(); p != nil {
			s.log.Error("panic во время оценки", slog.Any("panic", p))
			res = Result{
				ModelsLoaded: s.ModelsLoaded(),
				Err:          &ScoringError{Stage: "predict", Err: fmt.Errorf("panic: %v", p)},
			}
		}
	}()

	if err := fv.Validate(); err != nil {
		return Result{ModelsLoaded: res.ModelsLoaded, Err: &ScoringError{Stage: "validate", Err: err}}
	}

	res.Manual = ManualCheck(fv)
	res.Probability = res.Manual.Probability

	if s.model == nil {
		return res
	}

	ml, recon := s.model.Predict(fv)
	if math.IsNaN(ml) || math.IsInf(ml, 0) {
		return Result{
			ModelsLoaded: true,
			Manual:       res.Manual,
			Err:          &ScoringError{Stage: "predict", Err: fmt.Errorf("model returned %v", ml)},
		}
	}
	res.MLProbability = &ml
	res.ReconstructionError = &recon

	if ml > res.Probability {
		res.Probability = ml
	} else if res.Manual.Anomaly && res.Manual.Probability > ml {
		s.log.Warn("ручная проверка выше ML оценки",
			slog.Float64("manual", res.Manual.Probability),
			slog.Float64("ml", ml),
			slog.String("reason", res.Manual.Reason))
	}

	return res
}

const maxReasonableTxCount = 1000

// SuspiciousFeatures считает подозрительные значения в векторе:
// отрицательные средние, нулевой риск терминала во всех окнах, аномально большое число операций.
func SuspiciousFeatures(fv models.FeatureVector) int {
	n := 0
	for _, avg := range []float64{fv.CustomerAvgAmount1Day, fv.CustomerAvgAmount7Day, fv.CustomerAvgAmount30Day} {
		if avg < 0 {
			n++
		}
	}
	if fv.TerminalRisk1Day == 0 && fv.TerminalRisk7Day == 0 && fv.TerminalRisk30Day == 0 {
		n++
	}
	for _, c := range []float64{
		fv.CustomerNbTx1Day, fv.CustomerNbTx7Day, fv.CustomerNbTx30Day,
		fv.TerminalNbTx1Day, fv.TerminalNbTx7Day, fv.TerminalNbTx30Day,
	} {
		if c > maxReasonableTxCount {
			n++
		}
	}
	return n
}
