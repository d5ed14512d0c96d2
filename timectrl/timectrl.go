// Package timectrl owns simulation time: it turns a sampling request into
// the ordered, validated list of sample times the driver iterates.
package timectrl

import "fmt"

// Span is a start/stop/step sampling specification in simulation time units
// (days). Stop is inclusive when it lands exactly on a step.
type Span struct {
	Start float64
	Stop  float64
	Step  float64
}

// Samples expands the span into explicit sample times.
func (s Span) Samples() ([]float64, error) {
	if s.Step <= 0 {
		return nil, fmt.Errorf("timectrl: step must be > 0, got %g", s.Step)
	}
	if s.Stop < s.Start {
		return nil, fmt.Errorf("timectrl: stop %g before start %g", s.Stop, s.Start)
	}

	// Computing each sample from the index keeps long spans free of
	// accumulated addition error. The epsilon keeps a stop that lands
	// exactly on a step inclusive when the division rounds just under an
	// integer (0.3/0.1 is 2.9999...).
	n := int((s.Stop-s.Start)/s.Step+1e-9) + 1
	times := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		times = append(times, s.Start+float64(i)*s.Step)
	}
	return times, nil
}

// Validate checks an explicit sample list: non-empty and strictly increasing.
func Validate(times []float64) error {
	if len(times) == 0 {
		return fmt.Errorf("timectrl: no sample times")
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return fmt.Errorf("timectrl: sample times not strictly increasing at index %d (%g after %g)",
				i, times[i], times[i-1])
		}
	}
	return nil
}
