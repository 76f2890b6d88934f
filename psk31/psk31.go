/*
Package psk31 generates PSK31-family audio (BPSK and QPSK at 125, 250 and 500 baud) from text.

The text is translated into varicode and packed into a bit stream, framed by a preamble
and a postamble of zeros. The bit stream is modulated onto a phase-continuous carrier
with differential phase shifts and written as a 16bit mono PCM WAV file.

Example:

	enc, err := psk31.New("hello.wav", psk31.BPSK125)
	if err != nil {
		return err
	}
	err = enc.EncodeText("Hello World!")
*/
package psk31

import (
	"errors"
	"fmt"
	"os"

	"github.com/ftl/pskgen/logger"
	"github.com/ftl/pskgen/wav"
)

// Defaults of the generated audio.
const (
	DefaultSampleRate = 44100
	DefaultCarrier    = 1000.0
	DefaultLevel      = 0.8
	DefaultPreamble   = 64
	DefaultPostamble  = 64

	MinCallsignLength = 4
)

// ErrInvalidCallsign indicates a callsign that is too short.
var ErrInvalidCallsign = errors.New("psk31: callsign must have at least four characters")

// ErrIO wraps all failures to create or write the output file.
var ErrIO = errors.New("psk31: i/o error")

// ErrInvalidParameter indicates an option value outside of its valid range.
var ErrInvalidParameter = errors.New("psk31: invalid parameter")

// Stats describes the result of the last successful encoding.
type Stats struct {
	Bits    int
	Symbols int
	Samples int
	Bytes   int
}

// Encoder converts text into a PSK WAV file. It is configured at construction and immutable afterwards.
type Encoder struct {
	path       string
	mode       Mode
	callsign   string
	sampleRate int
	carrier    float64
	level      float64
	preamble   int
	postamble  int
	framer     Framer
	log        *logger.Logger

	stats Stats
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithCallsign sets the station callsign.
func WithCallsign(callsign string) Option {
	return func(e *Encoder) {
		e.callsign = callsign
	}
}

// WithSampleRate sets the sample rate of the audio in Hz.
func WithSampleRate(sampleRate int) Option {
	return func(e *Encoder) {
		e.sampleRate = sampleRate
	}
}

// WithCarrier sets the carrier frequency in Hz.
func WithCarrier(frequency float64) Option {
	return func(e *Encoder) {
		e.carrier = frequency
	}
}

// WithLevel sets the peak amplitude relative to full scale, in (0, 1].
func WithLevel(level float64) Option {
	return func(e *Encoder) {
		e.level = level
	}
}

// WithPreamble sets the number of zero bits sent before the text.
func WithPreamble(bits int) Option {
	return func(e *Encoder) {
		e.preamble = bits
	}
}

// WithPostamble sets the number of zero bits sent after the text.
func WithPostamble(bits int) Option {
	return func(e *Encoder) {
		e.postamble = bits
	}
}

// WithFramer sets the framing that is written around the PSK signal.
func WithFramer(framer Framer) Option {
	return func(e *Encoder) {
		e.framer = framer
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Encoder) {
		e.log = log
	}
}

// New returns an encoder that writes to the file at the given path using the given mode.
func New(path string, mode Mode, opts ...Option) (*Encoder, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	e := &Encoder{
		path:       path,
		mode:       mode,
		sampleRate: DefaultSampleRate,
		carrier:    DefaultCarrier,
		level:      DefaultLevel,
		preamble:   DefaultPreamble,
		postamble:  DefaultPostamble,
		framer:     NoFraming{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Discard()
	}

	if e.callsign != "" && len([]rune(e.callsign)) < MinCallsignLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCallsign, e.callsign)
	}
	if e.sampleRate < mode.SymbolRate() {
		return nil, fmt.Errorf("%w: sample rate %d below symbol rate %d", ErrInvalidParameter, e.sampleRate, mode.SymbolRate())
	}
	if e.carrier <= 0 || e.carrier >= float64(e.sampleRate)/2 {
		return nil, fmt.Errorf("%w: carrier %.1fHz outside (0, %dHz)", ErrInvalidParameter, e.carrier, e.sampleRate/2)
	}
	if e.level <= 0 || e.level > 1 {
		return nil, fmt.Errorf("%w: level %.2f outside (0, 1]", ErrInvalidParameter, e.level)
	}
	if e.preamble < 0 || e.postamble < 0 {
		return nil, fmt.Errorf("%w: negative preamble or postamble", ErrInvalidParameter)
	}
	if e.framer == nil {
		e.framer = NoFraming{}
	}
	return e, nil
}

// Mode returns the mode of the encoder.
func (e *Encoder) Mode() Mode {
	return e.mode
}

// Path returns the output path.
func (e *Encoder) Path() string {
	return e.path
}

// Callsign returns the configured callsign, empty if none was given.
func (e *Encoder) Callsign() string {
	return e.callsign
}

// SamplesPerSymbol returns floor(sample rate / symbol rate).
func (e *Encoder) SamplesPerSymbol() int {
	return e.sampleRate / e.mode.SymbolRate()
}

// Stats returns the statistics of the last successful encoding.
func (e *Encoder) Stats() Stats {
	return e.stats
}

// EncodeText writes the given message as PSK audio into the output file. The message is
// checked completely before the file is created. If the encoding fails after the file was
// created, the file is removed.
func (e *Encoder) EncodeText(message string) (err error) {
	e.stats = Stats{}
	stream, err := e.BitStream(message)
	if err != nil {
		return err
	}
	bits := stream.Len()
	if e.mode.Quaternary() {
		stream = Convolve(stream)
	}

	if e.callsign != "" {
		e.log.Debug("callsign identification is not implemented", logger.String("callsign", e.callsign))
	}

	out, err := wav.Create(e.path, e.sampleRate)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if err != nil {
			if abortErr := out.Abort(); abortErr != nil {
				e.log.Warn("cannot remove incomplete file", logger.String("path", e.path), logger.Error(abortErr))
			}
			return
		}
		if closeErr := out.Close(); closeErr != nil {
			err = fmt.Errorf("%w: %w", ErrIO, closeErr)
			if removeErr := os.Remove(e.path); removeErr != nil {
				e.log.Warn("cannot remove incomplete file", logger.String("path", e.path), logger.Error(removeErr))
			}
		}
	}()

	modulator, err := NewModulator(e.mode, e.sampleRate, e.carrier, e.level)
	if err != nil {
		return err
	}
	if err := e.framer.LeadIn(out); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	symbols, err := modulator.Modulate(stream, out)
	if err != nil {
		if errors.Is(err, ErrIncompleteSymbol) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := e.framer.LeadOut(out); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	e.stats = Stats{
		Bits:    bits,
		Symbols: symbols,
		Samples: out.Samples(),
		Bytes:   wav.HeaderSize + out.Samples()*wav.BitsPerSample/8,
	}
	e.log.Debug("message encoded",
		logger.Stringer("mode", e.mode),
		logger.Int("bits", e.stats.Bits),
		logger.Int("symbols", e.stats.Symbols),
		logger.Int("samples", e.stats.Samples))
	return nil
}

// BitStream returns the flushed, uncoded bit stream of the given message: the preamble,
// the varicode of each character followed by two zeros, and the postamble.
func (e *Encoder) BitStream(message string) (*BitStream, error) {
	var packer Packer
	packer.AppendZeros(e.preamble)
	offset := 0
	for _, r := range message {
		code, err := Encode(r)
		if err != nil {
			var charErr *UnsupportedCharacterError
			if errors.As(err, &charErr) {
				charErr.Offset = offset
			}
			return nil, err
		}
		packer.Append(code.Separated())
		offset++
	}
	packer.AppendZeros(e.postamble)
	return packer.Flush(), nil
}
