package metrics

import (
	"math"
	"testing"
)

func TestAcceptanceRate(t *testing.T) {
	m := NewAcceptanceRate()

	if m.Value() != 0 {
		t.Error("empty metric should read 0")
	}

	m.OnStep(0, 0.1, 0.5, true)
	m.OnStep(0, 0.1, 1.5, false)
	m.OnStep(0.1, 0.05, 0.8, true)

	if math.Abs(m.Value()-2.0/3.0) > 1e-12 {
		t.Errorf("expected 2/3, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("Reset should clear counts")
	}
}

func TestMaxErrorNormIgnoresRejected(t *testing.T) {
	m := NewMaxErrorNorm()

	m.OnStep(0, 0.1, 0.4, true)
	m.OnStep(0, 0.1, 7.0, false)
	m.OnStep(0.1, 0.1, 0.9, true)

	if m.Value() != 0.9 {
		t.Errorf("expected 0.9, got %f", m.Value())
	}
}

func TestMeanStepSize(t *testing.T) {
	m := NewMeanStepSize()

	m.OnStep(0, 0.1, 0, true)
	m.OnStep(0.1, 0.3, 0, true)
	m.OnStep(0.4, 99, 0, false)

	if math.Abs(m.Value()-0.2) > 1e-12 {
		t.Errorf("expected 0.2, got %f", m.Value())
	}
}

func TestMinStepSizeSeesRejected(t *testing.T) {
	m := NewMinStepSize()

	m.OnStep(0, 0.1, 0, true)
	m.OnStep(0, 0.001, 0, false)
	m.OnStep(0, 0.05, 0, true)

	if m.Value() != 0.001 {
		t.Errorf("expected 0.001, got %f", m.Value())
	}
}

func TestDefaults(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Defaults() {
		names[m.Name()] = true
	}
	for _, want := range []string{"acceptance_rate", "max_error_norm", "mean_step_size", "min_step_size"} {
		if !names[want] {
			t.Errorf("missing default metric %s", want)
		}
	}
}
