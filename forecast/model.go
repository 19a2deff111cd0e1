package forecast

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Observation is one dated value after date coercion.
type Observation struct {
	T time.Time
	Y float64
}

// Model fits a series and projects values at future dates. The engine only
// depends on this interface, so a seasonal or externally-served model can be
// substituted without touching callers.
type Model interface {
	Fit(obs []Observation) error
	Predict(t time.Time) float64
}

// linearModel is a least-squares trend over day offsets from the first
// observation.
type linearModel struct {
	origin time.Time
	alpha  float64
	beta   float64
}

func newLinearModel() *linearModel {
	return &linearModel{}
}

func (m *linearModel) Fit(obs []Observation) error {
	if len(obs) < 2 {
		return fmt.Errorf("need at least 2 observations, got %d", len(obs))
	}

	m.origin = obs[0].T
	xs := make([]float64, len(obs))
	ys := make([]float64, len(obs))
	for i, o := range obs {
		xs[i] = o.T.Sub(m.origin).Hours() / 24
		ys[i] = o.Y
	}

	m.alpha, m.beta = stat.LinearRegression(xs, ys, nil, false)
	return nil
}

func (m *linearModel) Predict(t time.Time) float64 {
	days := t.Sub(m.origin).Hours() / 24
	return m.alpha + m.beta*days
}

var _ Model = (*linearModel)(nil)
