package archive

import "fmt"

// SamplingType describes how sample indices map to time.
type SamplingType uint8

const (
	// SamplingUniform places sample i at start + i*TimePerCycle.
	SamplingUniform SamplingType = iota
	// SamplingCyclic repeats Times every TimePerCycle.
	SamplingCyclic
	// SamplingAcyclic lists every sample time explicitly.
	SamplingAcyclic
)

// String returns a short name for the sampling type.
func (t SamplingType) String() string {
	switch t {
	case SamplingUniform:
		return "uniform"
	case SamplingCyclic:
		return "cyclic"
	case SamplingAcyclic:
		return "acyclic"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// TimeSampling maps sample indices to times. For uniform sampling Times
// holds the single start time.
type TimeSampling struct {
	Type         SamplingType
	TimePerCycle float64
	Times        []float64
}

// IdentitySampling is sampling index 0 of every archive: one unit per sample
// starting at zero.
func IdentitySampling() TimeSampling {
	return TimeSampling{Type: SamplingUniform, TimePerCycle: 1, Times: []float64{0}}
}

// Uniform returns uniform sampling starting at start with the given cycle.
func Uniform(start, cycle float64) TimeSampling {
	return TimeSampling{Type: SamplingUniform, TimePerCycle: cycle, Times: []float64{start}}
}

// Acyclic returns explicit sampling at the given times.
func Acyclic(times []float64) TimeSampling {
	return TimeSampling{Type: SamplingAcyclic, Times: append([]float64{}, times...)}
}

// Start returns the time of sample 0.
func (ts TimeSampling) Start() float64 {
	if len(ts.Times) == 0 {
		return 0
	}
	return ts.Times[0]
}

// SampleTime returns the time of sample i.
func (ts TimeSampling) SampleTime(i int) float64 {
	switch ts.Type {
	case SamplingUniform:
		return ts.Start() + float64(i)*ts.TimePerCycle
	case SamplingCyclic:
		n := len(ts.Times)
		if n == 0 {
			return 0
		}
		return float64(i/n)*ts.TimePerCycle + ts.Times[i%n]
	default:
		if len(ts.Times) == 0 {
			return 0
		}
		if i >= len(ts.Times) {
			i = len(ts.Times) - 1
		}
		if i < 0 {
			i = 0
		}
		return ts.Times[i]
	}
}

// Offset returns a copy of ts with every sample time shifted by d.
func (ts TimeSampling) Offset(d float64) TimeSampling {
	out := TimeSampling{Type: ts.Type, TimePerCycle: ts.TimePerCycle, Times: make([]float64, len(ts.Times))}
	for i, t := range ts.Times {
		out.Times[i] = t + d
	}
	return out
}

// Equal reports whether two samplings describe the same times.
func (ts TimeSampling) Equal(other TimeSampling) bool {
	if ts.Type != other.Type || ts.TimePerCycle != other.TimePerCycle || len(ts.Times) != len(other.Times) {
		return false
	}
	for i := range ts.Times {
		if ts.Times[i] != other.Times[i] {
			return false
		}
	}
	return true
}
