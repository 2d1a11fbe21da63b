package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// CustomerAggregate скользящие агрегаты по дебетовым операциям клиента
type CustomerAggregate struct {
	CustomerID     uuid.UUID `json:"customer_id" db:"customer_id"`
	NbTx1Day       float64   `json:"nb_tx_1day" db:"nb_tx_1day"`
	AvgAmount1Day  float64   `json:"avg_amount_1day" db:"avg_amount_1day"`
	NbTx7Day       float64   `json:"nb_tx_7day" db:"nb_tx_7day"`
	AvgAmount7Day  float64   `json:"avg_amount_7day" db:"avg_amount_7day"`
	NbTx30Day      float64   `json:"nb_tx_30day" db:"nb_tx_30day"`
	AvgAmount30Day float64   `json:"avg_amount_30day" db:"avg_amount_30day"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// TerminalAggregate скользящие агрегаты по терминалу.
// Risk - доля мошеннических операций в окне; 0 при пустом окне означает
// "недостаточно данных", а не "терминал безопасен".
type TerminalAggregate struct {
	TerminalID string    `json:"terminal_id" db:"terminal_id"`
	NbTx1Day   float64   `json:"nb_tx_1day" db:"nb_tx_1day"`
	Risk1Day   float64   `json:"risk_1day" db:"risk_1day"`
	NbTx7Day   float64   `json:"nb_tx_7day" db:"nb_tx_7day"`
	Risk7Day   float64   `json:"risk_7day" db:"risk_7day"`
	NbTx30Day  float64   `json:"nb_tx_30day" db:"nb_tx_30day"`
	Risk30Day  float64   `json:"risk_30day" db:"risk_30day"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type Aggregates struct {
	Customer CustomerAggregate
	Terminal TerminalAggregate
}

const FeatureCount = 15

// FeatureNames порядок признаков, в котором обучены скейлер и модели
var FeatureNames = [FeatureCount]string{
	"TX_AMOUNT",
	"TX_DURING_WEEKEND",
	"TX_DURING_NIGHT",
	"CUSTOMER_ID_NB_TX_1DAY_WINDOW",
	"CUSTOMER_ID_AVG_AMOUNT_1DAY_WINDOW",
	"CUSTOMER_ID_NB_TX_7DAY_WINDOW",
	"CUSTOMER_ID_AVG_AMOUNT_7DAY_WINDOW",
	"CUSTOMER_ID_NB_TX_30DAY_WINDOW",
	"CUSTOMER_ID_AVG_AMOUNT_30DAY_WINDOW",
	"TERMINAL_ID_NB_TX_1DAY_WINDOW",
	"TERMINAL_ID_RISK_1DAY_WINDOW",
	"TERMINAL_ID_NB_TX_7DAY_WINDOW",
	"TERMINAL_ID_RISK_7DAY_WINDOW",
	"TERMINAL_ID_NB_TX_30DAY_WINDOW",
	"TERMINAL_ID_RISK_30DAY_WINDOW",
}

// FeatureVector входной вектор модели для одной операции
type FeatureVector struct {
	TxAmount               float64 `json:"TX_AMOUNT"`
	TxDuringWeekend        float64 `json:"TX_DURING_WEEKEND"`
	TxDuringNight          float64 `json:"TX_DURING_NIGHT"`
	CustomerNbTx1Day       float64 `json:"CUSTOMER_ID_NB_TX_1DAY_WINDOW"`
	CustomerAvgAmount1Day  float64 `json:"CUSTOMER_ID_AVG_AMOUNT_1DAY_WINDOW"`
	CustomerNbTx7Day       float64 `json:"CUSTOMER_ID_NB_TX_7DAY_WINDOW"`
	CustomerAvgAmount7Day  float64 `json:"CUSTOMER_ID_AVG_AMOUNT_7DAY_WINDOW"`
	CustomerNbTx30Day      float64 `json:"CUSTOMER_ID_NB_TX_30DAY_WINDOW"`
	CustomerAvgAmount30Day float64 `json:"CUSTOMER_ID_AVG_AMOUNT_30DAY_WINDOW"`
	TerminalNbTx1Day       float64 `json:"TERMINAL_ID_NB_TX_1DAY_WINDOW"`
	TerminalRisk1Day       float64 `json:"TERMINAL_ID_RISK_1DAY_WINDOW"`
	TerminalNbTx7Day       float64 `json:"TERMINAL_ID_NB_TX_7DAY_WINDOW"`
	TerminalRisk7Day       float64 `json:"TERMINAL_ID_RISK_7DAY_WINDOW"`
	TerminalNbTx30Day      float64 `json:"TERMINAL_ID_NB_TX_30DAY_WINDOW"`
	TerminalRisk30Day      float64 `json:"TERMINAL_ID_RISK_30DAY_WINDOW"`
}

// NewFeatureVector собирает вектор из сохраненных агрегатов и признаков момента запроса.
// Ночь - любой час вне [6, 22] UTC, выходные - суббота и воскресенье.
func NewFeatureVector(agg Aggregates, amount float64, at time.Time) FeatureVector {
	at = at.UTC()

	var weekend, night float64
	if wd := at.Weekday(); wd == time.Saturday || wd == time.Sunday {
		weekend = 1
	}
	if h := at.Hour(); h < 6 || h > 22 {
		night = 1
	}

	return FeatureVector{
		TxAmount:               amount,
		TxDuringWeekend:        weekend,
		TxDuringNight:          night,
		CustomerNbTx1Day:       agg.Customer.NbTx1Day,
		CustomerAvgAmount1Day:  agg.Customer.AvgAmount1Day,
		CustomerNbTx7Day:       agg.Customer.NbTx7Day,
		CustomerAvgAmount7Day:  agg.Customer.AvgAmount7Day,
		CustomerNbTx30Day:      agg.Customer.NbTx30Day,
		CustomerAvgAmount30Day: agg.Customer.AvgAmount30Day,
		TerminalNbTx1Day:       agg.Terminal.NbTx1Day,
		TerminalRisk1Day:       agg.Terminal.Risk1Day,
		TerminalNbTx7Day:       agg.Terminal.NbTx7Day,
		TerminalRisk7Day:       agg.Terminal.Risk7Day,
		TerminalNbTx30Day:      agg.Terminal.NbTx30Day,
		TerminalRisk30Day:      agg.Terminal.Risk30Day,
	}
}

// Values возвращает признаки в порядке FeatureNames
func (f FeatureVector) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{
		f.TxAmount,
		f.TxDuringWeekend,
		f.TxDuringNight,
		f.CustomerNbTx1Day,
		f.CustomerAvgAmount1Day,
		f.CustomerNbTx7Day,
		f.CustomerAvgAmount7Day,
		f.CustomerNbTx30Day,
		f.CustomerAvgAmount30Day,
		f.TerminalNbTx1Day,
		f.TerminalRisk1Day,
		f.TerminalNbTx7Day,
		f.TerminalRisk7Day,
		f.TerminalNbTx30Day,
		f.TerminalRisk30Day,
	}
}

// Validate отклоняет вектор с нечисловыми значениями: это нарушение контракта хранилища признаков.
func (f FeatureVector) Validate() error {
	for i, v := range f.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("feature %s has non-finite value %v", FeatureNames[i], v)
		}
	}
	return nil
}

// RecentAverage самое свежее ненулевое среднее клиента: 1 день, затем 7, затем 30.
func (f FeatureVector) RecentAverage() float64 {
	switch {
	case f.CustomerAvgAmount1Day > 0:
		return f.CustomerAvgAmount1Day
	case f.CustomerAvgAmount7Day > 0:
		return f.CustomerAvgAmount7Day
	default:
		return f.CustomerAvgAmount30Day
	}
}

// AmountRatio отношение суммы к свежему среднему; ok=false если истории нет
func (f FeatureVector) AmountRatio() (ratio float64, ok bool) {
	avg := f.RecentAverage()
	if avg <= 0 {
		return 0, false
	}
	return f.TxAmount / avg, true
}
