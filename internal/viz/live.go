package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/problems"
	"github.com/odelab/odeflow/internal/tensor"
)

const historyCapacity = 600

type TickMsg time.Time

// LiveModel steps one integration interactively: each tick attempts one
// solver step, the adaptive controller deciding acceptance and the next h.
type LiveModel struct {
	problem problems.Problem
	stepper *ode.Stepper
	control ode.StepControl
	cfg     ode.Config

	state *tensor.Tensor
	t, h  float64

	running  bool
	done     bool
	failed   error
	steps    int
	rejected int

	history   [][]float64
	stepSizes []float64
	errNorm   float64
	accepted  bool
	speed     int
}

func NewLiveModel(problem problems.Problem, tb *ode.Tableau, control ode.StepControl, cfg ode.Config) LiveModel {
	y0 := problem.InitialState()
	return LiveModel{
		problem:   problem,
		stepper:   ode.NewStepper(tb),
		control:   control,
		cfg:       cfg,
		state:     y0.Clone(),
		t:         cfg.T0,
		h:         cfg.Dt,
		running:   true,
		speed:     1,
		history:   append(make([][]float64, 0, historyCapacity), append([]float64(nil), y0.Data()...)),
		stepSizes: make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd { return tick() }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "+", "=":
			if m.speed < 64 {
				m.speed *= 2
			}
		case "-", "_":
			if m.speed > 1 {
				m.speed /= 2
			}
		}
	case TickMsg:
		if m.running && !m.done && m.failed == nil {
			for i := 0; i < m.speed; i++ {
				m.step()
				if m.done || m.failed != nil {
					break
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// step attempts one solver step, mirroring one iteration of the integrator
// loop.
func (m *LiveModel) step() {
	remaining := m.cfg.T1 - m.t
	if remaining <= 0 {
		m.done = true
		return
	}
	h := m.h
	if h > remaining {
		h = remaining
	}

	out, err := m.stepper.Step(m.problem, m.t, m.state, h)
	if err != nil {
		m.failed = err
		return
	}

	dec, err := m.control.Decide(out.Err, m.state, out.Y, h, m.stepper.Tableau().Order)
	if err != nil {
		m.failed = err
		return
	}

	m.errNorm = dec.ErrorNorm
	m.accepted = dec.Accept
	if dec.Accept {
		m.state = out.Y
		m.t += h
		m.steps++

		m.history = append(m.history, append([]float64(nil), out.Y.Data()...))
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
		m.stepSizes = append(m.stepSizes, h)
		if len(m.stepSizes) > historyCapacity {
			m.stepSizes = m.stepSizes[1:]
		}
	} else {
		m.rejected++
	}
	if m.stepper.Tableau().IsEmbedded() {
		m.h = dec.NextStep
	}

	if m.t >= m.cfg.T1 {
		m.done = true
	}
}

func (m *LiveModel) reset() {
	y0 := m.problem.InitialState()
	m.state = y0.Clone()
	m.t = m.cfg.T0
	m.h = m.cfg.Dt
	m.steps = 0
	m.rejected = 0
	m.done = false
	m.failed = nil
	m.errNorm = 0
	m.history = append(m.history[:0], append([]float64(nil), y0.Data()...))
	m.stepSizes = m.stepSizes[:0]
	m.running = true
}

func (m LiveModel) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.problem.Name())) + "\n")

	status := "RUNNING"
	switch {
	case m.failed != nil:
		status = fmt.Sprintf("FAILED: %v", m.failed)
	case m.done:
		status = "DONE"
	case !m.running:
		status = "PAUSED"
	}
	s.WriteString(status + "\n")

	if len(m.history) > 1 {
		series := make([]float64, len(m.history))
		for i, st := range m.history {
			series[i] = st[0]
		}
		chart := asciigraph.Plot(series, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("x0"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	var stats strings.Builder
	stats.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.4f / %.4f", m.t, m.cfg.T1)) + "\n")
	stats.WriteString(labelStyle.Render("Step size") + valueStyle.Render(fmt.Sprintf("%.3e", m.h)) + "\n")
	stats.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d", m.steps)) + "\n")
	stats.WriteString(labelStyle.Render("Rejected") + valueStyle.Render(fmt.Sprintf("%d", m.rejected)) + "\n")
	if m.stepper.Tableau().IsEmbedded() {
		line := acceptedStyle.Render(fmt.Sprintf("%.3e accepted", m.errNorm))
		if !m.accepted {
			line = rejectedStyle.Render(fmt.Sprintf("%.3e rejected", m.errNorm))
		}
		stats.WriteString(labelStyle.Render("Error norm") + line + "\n")
	}
	stats.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("%dx", m.speed)) + "\n")
	s.WriteString(statsStyle.Render(stats.String()))

	s.WriteString(helpStyle.Render("\nSP:Pause R:Reset +/-:Speed Q:Quit"))
	return s.String()
}
