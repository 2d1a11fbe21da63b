package fraud

import (
	"fmt"

	"gw-bank-transfer/internal/models"
)

type ratioRule struct {
	ratio       float64
	probability float64
}

type amountRule struct {
	amount      float64
	probability float64
	label       string
}

var (
	ratioRules = []ratioRule{
		{20, 0.95},
		{10, 0.85},
		{5, 0.70},
	}
	amountRules = []amountRule{
		{50000, 0.90, "Very high transaction amount"},
		{20000, 0.75, "High transaction amount"},
		{10000, 0.60, "Elevated transaction amount"},
	}
)

const (
	offHoursAmountFloor = 5000
	offHoursProbability = 0.65
)

// Heuristic результат ручной проверки
type Heuristic struct {
	Anomaly     bool    `json:"anomaly"`
	Probability float64 `json:"probability"`
	Reason      string  `json:"reason"`
}

// ManualCheck оценивает сумму относительно свежего среднего клиента и абсолютных порогов.
// Сигналы не исключают друг друга, берется максимальный.
func ManualCheck(fv models.FeatureVector) Heuristic {
	h := Heuristic{Reason: "No manual anomalies detected"}

	raise := func(p float64, reason string) {
		if p > h.Probability {
			h.Anomaly = true
			h.Probability = p
			h.Reason = reason
		}
	}

	if ratio, ok := fv.AmountRatio(); ok {
		for _, r := range ratioRules {
			if ratio > r.ratio {
				raise(r.probability, fmt.Sprintf("Amount is %.1fx higher than average", ratio))
				break
			}
		}
	}

	for _, r := range amountRules {
		if fv.TxAmount > r.amount {
			raise(r.probability, fmt.Sprintf("%s: %.2f", r.label, fv.TxAmount))
			break
		}
	}

	weekend := fv.TxDuringWeekend == 1
	night := fv.TxDuringNight == 1
	if (weekend || night) && fv.TxAmount > offHoursAmountFloor {
		when := "night"
		if weekend {
			when = "weekend"
		}
		raise(offHoursProbability, "High amount transaction during "+when)
	}

	return h
}
