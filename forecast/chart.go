package forecast

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// renderChart draws observed and projected values as two lines and saves the
// figure as a PNG at path.
func renderChart(path, name string, observed, projected []Observation) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Forecast for %s", name)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Value"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	observedLine, err := plotter.NewLine(toXYs(observed))
	if err != nil {
		return fmt.Errorf("build observed line: %w", err)
	}
	observedLine.Color = color.RGBA{B: 196, A: 255}

	projectedLine, err := plotter.NewLine(toXYs(projected))
	if err != nil {
		return fmt.Errorf("build projected line: %w", err)
	}
	projectedLine.Color = color.RGBA{R: 214, G: 106, A: 255}
	projectedLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(observedLine, projectedLine)
	p.Legend.Add("Observed", observedLine)
	p.Legend.Add("Projected", projectedLine)
	p.Legend.Top = true

	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

func toXYs(obs []Observation) plotter.XYs {
	xys := make(plotter.XYs, len(obs))
	for i, o := range obs {
		xys[i].X = float64(o.T.Unix())
		xys[i].Y = o.Y
	}
	return xys
}
