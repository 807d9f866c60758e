package predictor

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// Milk type and season encodings used as regression features.
const (
	milkCow     = 0.0
	milkBuffalo = 1.0
	milkA2      = 2.0
)

var seasonValues = map[string]float64{
	"summer":  0,
	"winter":  1,
	"monsoon": 2,
	"spring":  3,
}

// Seasonal demand levels mirror the market pattern the training data encodes.
var seasonDemand = map[string]float64{
	"winter": 0.85,
	"summer": 0.75,
}

const defaultDemand = 0.65

// Historic fair-price samples: [milkType, quantity, season, demand] -> ₹/L.
var trainingFeatures = [][4]float64{
	{0, 2, 0, 0.7},
	{0, 5, 1, 0.8},
	{1, 2, 2, 0.6},
	{1, 5, 0, 0.9},
	{2, 3, 1, 0.85},
	{0, 10, 2, 0.5},
	{1, 10, 1, 0.7},
	{2, 5, 0, 0.9},
}

var trainingPrices = []float64{52, 55, 58, 65, 75, 48, 60, 78}

type Request struct {
	Location string  `json:"location"`
	MilkType string  `json:"milk_type"`
	Quantity float64 `json:"quantity"`
	Season   string  `json:"season"`
}

type Prediction struct {
	Price      float64  `json:"price"`
	Confidence float64  `json:"confidence"`
	Factors    []string `json:"factors"`
}

// Model is a ridge regression over the historic samples, solved once at
// construction via the normal equations, so predictions are deterministic.
type Model struct {
	theta      [5]float64
	confidence float64
}

const ridgeLambda = 0.01

func NewModel() *Model {
	n := len(trainingFeatures)

	// X with a leading bias column.
	x := make([][5]float64, n)
	for i, f := range trainingFeatures {
		x[i] = [5]float64{1, f[0], f[1], f[2], f[3]}
	}

	// A = XᵀX + λI (bias unregularized), b = Xᵀy.
	var a [5][6]float64
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			for k := 0; k < n; k++ {
				a[i][j] += x[k][i] * x[k][j]
			}
		}
		if i > 0 {
			a[i][i] += ridgeLambda
		}
		for k := 0; k < n; k++ {
			a[i][5] += x[k][i] * trainingPrices[k]
		}
	}

	theta := solve(a)

	m := &Model{theta: theta}
	m.confidence = m.fitConfidence(x)
	return m
}

// solve runs Gaussian elimination with partial pivoting on the augmented
// 5x6 system.
func solve(a [5][6]float64) [5]float64 {
	for col := 0; col < 5; col++ {
		pivot := col
		for row := col + 1; row < 5; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		a[col], a[pivot] = a[pivot], a[col]

		for row := col + 1; row < 5; row++ {
			factor := a[row][col] / a[col][col]
			for j := col; j < 6; j++ {
				a[row][j] -= factor * a[col][j]
			}
		}
	}

	var theta [5]float64
	for row := 4; row >= 0; row-- {
		sum := a[row][5]
		for j := row + 1; j < 5; j++ {
			sum -= a[row][j] * theta[j]
		}
		theta[row] = sum / a[row][row]
	}
	return theta
}

// fitConfidence maps the model's training error onto the 87-97% band the
// storefront displays.
func (m *Model) fitConfidence(x [][5]float64) float64 {
	var sse, sst, mean float64
	for _, y := range trainingPrices {
		mean += y
	}
	mean /= float64(len(trainingPrices))

	for i, row := range x {
		pred := m.raw(row)
		sse += (pred - trainingPrices[i]) * (pred - trainingPrices[i])
		sst += (trainingPrices[i] - mean) * (trainingPrices[i] - mean)
	}

	r2 := 1 - sse/sst
	if r2 < 0 {
		r2 = 0
	}
	return 87 + 10*r2
}

func (m *Model) raw(x [5]float64) float64 {
	sum := 0.0
	for i := range x {
		sum += m.theta[i] * x[i]
	}
	return sum
}

func milkTypeValue(milkType string) float64 {
	switch milkType {
	case "buffalo":
		return milkBuffalo
	case "a2":
		return milkA2
	default:
		return milkCow
	}
}

func seasonValue(season string) float64 {
	if v, ok := seasonValues[season]; ok {
		return v
	}
	return seasonValues["winter"]
}

// Predict estimates a fair ₹/L price and lists the factors behind it.
func (m *Model) Predict(req Request) (*Prediction, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	demand, ok := seasonDemand[req.Season]
	if !ok {
		demand = defaultDemand
	}

	price := m.raw([5]float64{
		1,
		milkTypeValue(req.MilkType),
		req.Quantity,
		seasonValue(req.Season),
		demand,
	})

	factors := make([]string, 0, 4)

	// Bulk discounts.
	switch {
	case req.Quantity >= 10:
		price *= 0.92
	case req.Quantity >= 5:
		price *= 0.95
	}

	// Milk type premiums.
	switch req.MilkType {
	case "buffalo":
		price *= 1.15
	case "a2":
		price *= 1.35
	}

	if req.Season == "winter" {
		factors = append(factors, "High winter demand (+5%)")
	}
	if req.Quantity >= 5 {
		factors = append(factors, "Bulk discount applied (-5%)")
	}
	if req.MilkType == "a2" {
		factors = append(factors, "Premium A2 quality (+35%)")
	}
	if req.MilkType == "buffalo" {
		factors = append(factors, "Rich buffalo milk (+15%)")
	}
	if len(factors) == 0 {
		factors = append(factors, "Standard market rate")
	}

	return &Prediction{
		Price:      math.Round(price*10) / 10,
		Confidence: m.confidence,
		Factors:    factors,
	}, nil
}

func (m *Model) String() string {
	return fmt.Sprintf("ridge(θ=%v)", m.theta)
}
