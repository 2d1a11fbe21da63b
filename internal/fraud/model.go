package fraud

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gw-bank-transfer/internal/models"
)

// Файлы артефактов, выгружаемые из обучающего пайплайна
const (
	FeatureScalerFile = "scaler_features.json"
	ErrorScalerFile   = "scaler_error.json"
	AutoencoderFile   = "autoencoder.json"
	ClassifierFile    = "classifier.json"
)

type Activation string

const (
	ActivationNone    Activation = ""
	ActivationReLU    Activation = "relu"
	ActivationSigmoid Activation = "sigmoid"
)

// Scaler - обученный StandardScaler: (x - mean) / scale
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *Scaler) validate(dim int) error {
	if len(s.Mean) != dim || len(s.Scale) != dim {
		return fmt.Errorf("scaler expects %d dims, got mean=%d scale=%d", dim, len(s.Mean), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("scaler has invalid scale %v at %d", v, i)
		}
	}
	return nil
}

func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = (x[i] - s.Mean[i]) / s.Scale[i]
	}
	return out
}

// Dense полносвязный слой. Weights хранится как [out][in].
type Dense struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation Activation  `json:"activation"`
}

func (d *Dense) In() int {
	if len(d.Weights) == 0 {
		return 0
	}
	return len(d.Weights[0])
}

func (d *Dense) Out() int { return len(d.Weights) }

func (d *Dense) Forward(x []float64) []float64 {
	out := make([]float64, len(d.Weights))
	for o, row := range d.Weights {
		sum := d.Bias[o]
		for i, w := range row {
			sum += w * x[i]
		}
		out[o] = activate(d.Activation, sum)
	}
	return out
}

func activate(a Activation, v float64) float64 {
	switch a {
	case ActivationReLU:
		if v < 0 {
			return 0
		}
		return v
	case ActivationSigmoid:
		return 1 / (1 + math.Exp(-v))
	default:
		return v
	}
}

// Network последовательность полносвязных слоев
type Network struct {
	Layers []Dense `json:"layers"`
}

func (n *Network) validate(in, out int) error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("network has no layers")
	}
	prev := in
	for i := range n.Layers {
		l := &n.Layers[i]
		if l.Out() == 0 || len(l.Bias) != l.Out() {
			return fmt.Errorf("layer %d: bias size %d does not match %d outputs", i, len(l.Bias), l.Out())
		}
		for r, row := range l.Weights {
			if len(row) != prev {
				return fmt.Errorf("layer %d row %d: expected %d inputs, got %d", i, r, prev, len(row))
			}
		}
		switch l.Activation {
		case ActivationNone, ActivationReLU, ActivationSigmoid:
		default:
			return fmt.Errorf("layer %d: unknown activation %q", i, l.Activation)
		}
		prev = l.Out()
	}
	if prev != out {
		return fmt.Errorf("network output is %d, expected %d", prev, out)
	}
	return nil
}

func (n *Network) Forward(x []float64) []float64 {
	for i := range n.Layers {
		x = n.Layers[i].Forward(x)
	}
	return x
}

// Model двухступенчатая модель: автоэнкодер дает ошибку реконструкции,
// классификатор получает признаки вместе с этой ошибкой.
type Model struct {
	FeatureScaler Scaler
	ErrorScaler   Scaler
	Autoencoder   Network
	Classifier    Network
}

// LoadModel читает и проверяет артефакты из dir
func LoadModel(dir string) (*Model, error) {
	const op = "fraud.LoadModel"

	var m Model
	files := []struct {
		name string
		dst  any
	}{
		{FeatureScalerFile, &m.FeatureScaler},
		{ErrorScalerFile, &m.ErrorScaler},
		{AutoencoderFile, &m.Autoencoder},
		{ClassifierFile, &m.Classifier},
	}
	for _, f := range files {
		if err := readJSON(filepath.Join(dir, f.name), f.dst); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Validate проверяет согласованность размерностей всех частей модели
func (m *Model) Validate() error {
	if err := m.FeatureScaler.validate(models.FeatureCount); err != nil {
		return fmt.Errorf("feature scaler: %w", err)
	}
	if err := m.ErrorScaler.validate(1); err != nil {
		return fmt.Errorf("error scaler: %w", err)
	}
	if err := m.Autoencoder.validate(models.FeatureCount, models.FeatureCount); err != nil {
		return fmt.Errorf("autoencoder: %w", err)
	}
	if err := m.Classifier.validate(models.FeatureCount+1, 1); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if last := m.Classifier.Layers[len(m.Classifier.Layers)-1]; last.Activation != ActivationSigmoid {
		return fmt.Errorf("classifier: output layer must be sigmoid, got %q", last.Activation)
	}
	return nil
}

// Predict возвращает вероятность классификатора и ошибку реконструкции
func (m *Model) Predict(fv models.FeatureVector) (probability, reconstructionErr float64) {
	values := fv.Values()
	scaled := m.FeatureScaler.Transform(values[:])

	reconstructed := m.Autoencoder.Forward(scaled)
	var sum float64
	for i := range scaled {
		d := scaled[i] - reconstructed[i]
		sum += d * d
	}
	reconstructionErr = sum / float64(len(scaled))

	scaledErr := m.ErrorScaler.Transform([]float64{reconstructionErr})
	combined := append(scaled, scaledErr...)

	out := m.Classifier.Forward(combined)
	return out[0], reconstructionErr
}
