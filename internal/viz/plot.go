// Package viz renders solver output in the terminal: asciigraph plots of
// trajectories and step sizes, plus a live integration view.
package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

const (
	plotWidth  = 80
	plotHeight = 16
)

// PlotComponent plots one state component over the trajectory.
func PlotComponent(states [][]float64, index int, caption string) string {
	series := make([]float64, 0, len(states))
	for _, s := range states {
		if index < len(s) {
			series = append(series, s[index])
		}
	}
	if len(series) < 2 {
		return "(not enough samples to plot)"
	}
	return asciigraph.Plot(series,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
}

// PlotTrajectory stacks one plot per state component.
func PlotTrajectory(states [][]float64) string {
	if len(states) == 0 {
		return "(empty trajectory)"
	}

	out := ""
	for i := range states[0] {
		if i > 0 {
			out += "\n\n"
		}
		out += PlotComponent(states, i, fmt.Sprintf("x%d", i))
	}
	return out
}

// PlotStepSizes plots the accepted step sizes of an adaptive run, computed
// from consecutive trajectory times.
func PlotStepSizes(times []float64) string {
	if len(times) < 3 {
		return "(not enough samples to plot)"
	}
	hs := make([]float64, len(times)-1)
	for i := 1; i < len(times); i++ {
		hs[i-1] = times[i] - times[i-1]
	}
	return asciigraph.Plot(hs,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("step size"),
	)
}
