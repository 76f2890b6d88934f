package psk31

import (
	"errors"
	"fmt"
	"math"
)

const twoPi = 2 * math.Pi

// SampleWriter consumes 16bit PCM samples.
type SampleWriter interface {
	WriteSample(int16) error
}

// ErrIncompleteSymbol indicates a QPSK stream that ends in the middle of a dibit.
var ErrIncompleteSymbol = errors.New("psk31: stream ends within a symbol")

// qpskShifts maps a QPSK symbol to its phase shift in quarter turns, upper sideband.
// 0 reverses the phase like a BPSK zero, 2 keeps it like a BPSK one.
var qpskShifts = [4]int{2, 3, 0, 1}

// Modulator synthesizes a phase-continuous carrier, one symbol per bit (BPSK)
// or per dibit (QPSK), with differential phase shifts between the symbols.
type Modulator struct {
	quaternary       bool
	samplesPerSymbol int
	angleDelta       float64
	amplitude        float64

	phase float64 // carrier accumulator in [0, 2π)
	state int     // absolute phase in quarter turns
}

// NewModulator returns a modulator for the given mode. level is the peak amplitude
// relative to full scale and must be in (0, 1].
func NewModulator(mode Mode, sampleRate int, carrier float64, level float64) (*Modulator, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	if sampleRate < mode.SymbolRate() {
		return nil, fmt.Errorf("%w: sample rate %d below symbol rate %d", ErrInvalidParameter, sampleRate, mode.SymbolRate())
	}
	if level <= 0 || level > 1 {
		return nil, fmt.Errorf("%w: level %.2f outside (0, 1]", ErrInvalidParameter, level)
	}
	return &Modulator{
		quaternary:       mode.Quaternary(),
		samplesPerSymbol: sampleRate / mode.SymbolRate(),
		angleDelta:       twoPi * carrier / float64(sampleRate),
		amplitude:        level * math.MaxInt16,
	}, nil
}

// SamplesPerSymbol returns the length of one symbol in samples.
func (m *Modulator) SamplesPerSymbol() int {
	return m.samplesPerSymbol
}

// Phase returns the current value of the carrier accumulator.
func (m *Modulator) Phase() float64 {
	return m.phase
}

// Modulate drains the given stream and writes the resulting symbols to out.
// It returns the number of symbols written.
func (m *Modulator) Modulate(stream *BitStream, out SampleWriter) (int, error) {
	symbols := 0
	for {
		shift, ok, err := m.nextShift(stream)
		if err != nil {
			return symbols, err
		}
		if !ok {
			return symbols, nil
		}
		m.state = (m.state + shift) % 4
		if err := m.addSymbol(out, float64(m.state)*math.Pi/2); err != nil {
			return symbols, err
		}
		symbols++
	}
}

// nextShift reads the next symbol from the stream and returns the phase shift in quarter turns.
func (m *Modulator) nextShift(stream *BitStream) (int, bool, error) {
	bit, ok := stream.NextBit()
	if !ok {
		return 0, false, nil
	}
	if !m.quaternary {
		if bit == 1 {
			return 0, true, nil
		}
		return 2, true, nil
	}

	low, ok := stream.NextBit()
	if !ok {
		return 0, false, ErrIncompleteSymbol
	}
	return qpskShifts[bit<<1|low], true, nil
}

func (m *Modulator) addSymbol(out SampleWriter, shift float64) error {
	for i := 0; i < m.samplesPerSymbol; i++ {
		sample := int16(math.Round(math.Cos(m.phase+shift) * m.amplitude))
		if err := out.WriteSample(sample); err != nil {
			return err
		}
		m.phase += m.angleDelta
		if m.phase >= twoPi {
			m.phase = math.Mod(m.phase, twoPi)
		}
	}
	return nil
}
