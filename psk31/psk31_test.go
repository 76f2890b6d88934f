package psk31

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	gowav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/pskgen/wav"
)

func readHeader(t *testing.T, path string) (wav.Header, int64) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := wav.ReadHeader(f)
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	return header, info.Size()
}

func varicodeBits(t *testing.T, text string) int {
	t.Helper()
	result := 0
	for _, r := range text {
		code, err := Encode(r)
		require.NoError(t, err)
		result += code.Len + 2
	}
	return result
}

func TestEncodeTextHi(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hi.wav")
	enc, err := New(path, BPSK125)
	require.NoError(t, err)

	require.NoError(t, enc.EncodeText("Hi"))

	header, size := readHeader(t, path)
	bits := DefaultPreamble + varicodeBits(t, "Hi") + DefaultPostamble
	assert.Equal(t, 145, bits)
	assert.Equal(t, 352, enc.SamplesPerSymbol())
	assert.Equal(t, uint32(44100), header.SampleRate)
	assert.Equal(t, uint16(16), header.BitsPerSample)
	assert.Equal(t, uint16(1), header.NumChannels)
	assert.Equal(t, uint32(352*bits*2), header.Subchunk2Size)
	assert.Equal(t, uint32(size-8), header.ChunkSize)
	assert.Equal(t, uint32(size-44), header.Subchunk2Size)

	stats := enc.Stats()
	assert.Equal(t, bits, stats.Bits)
	assert.Equal(t, bits, stats.Symbols)
	assert.Equal(t, 352*bits, stats.Samples)
	assert.Equal(t, int(size), stats.Bytes)
}

func TestEncodeEmptyMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	enc, err := New(path, BPSK250)
	require.NoError(t, err)

	require.NoError(t, enc.EncodeText(""))

	header, size := readHeader(t, path)
	assert.Equal(t, uint32(176*(DefaultPreamble+DefaultPostamble)*2), header.Subchunk2Size)
	assert.Equal(t, uint32(size-8), header.ChunkSize)
	assert.Equal(t, uint32(size-44), header.Subchunk2Size)
}

func TestHeaderLengthsForAnyMessageLength(t *testing.T) {
	dir := t.TempDir()
	message := ""
	for i := 0; i < 6; i++ {
		message += "CQ CQ de DL1ABC "
		path := filepath.Join(dir, "msg.wav")
		enc, err := New(path, BPSK500, WithPreamble(i*7), WithPostamble(i*3))
		require.NoError(t, err)
		require.NoError(t, enc.EncodeText(message))

		header, size := readHeader(t, path)
		assert.Equal(t, uint32(size-8), header.ChunkSize)
		assert.Equal(t, uint32(size-44), header.Subchunk2Size)
	}
}

func TestModeChangeScalesLength(t *testing.T) {
	dir := t.TempDir()
	sizes := make(map[Mode]int64)
	samples := make(map[Mode]int)
	for _, mode := range []Mode{BPSK125, BPSK250, BPSK500} {
		path := filepath.Join(dir, mode.String()+".wav")
		enc, err := New(path, mode)
		require.NoError(t, err)
		require.NoError(t, enc.EncodeText("The quick brown fox"))

		header, size := readHeader(t, path)
		sizes[mode] = size
		samples[mode] = header.Samples()
	}

	assert.Greater(t, sizes[BPSK125], sizes[BPSK250])
	assert.Greater(t, sizes[BPSK250], sizes[BPSK500])
	assert.Equal(t, samples[BPSK125], 2*samples[BPSK250])
	assert.Equal(t, samples[BPSK250], 2*samples[BPSK500])
}

func TestBitStreamWithoutFraming(t *testing.T) {
	enc, err := New(filepath.Join(t.TempDir(), "unused.wav"), BPSK125, WithPreamble(0), WithPostamble(0))
	require.NoError(t, err)

	stream, err := enc.BitStream("ee")
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 1, 0, 0, 1, 1, 0, 0}, stream.Bits())

	stream, err = enc.BitStream("Hi!")
	require.NoError(t, err)
	decoded, err := DecodeVaricode(stream.Bits())
	require.NoError(t, err)
	assert.Equal(t, "Hi!", decoded, "the last character is terminated without postamble")
}

func TestEncodeQPSK(t *testing.T) {
	dir := t.TempDir()
	bpskPath := filepath.Join(dir, "bpsk.wav")
	qpskPath := filepath.Join(dir, "qpsk.wav")

	bpsk, err := New(bpskPath, BPSK125)
	require.NoError(t, err)
	require.NoError(t, bpsk.EncodeText("Hi"))
	qpsk, err := New(qpskPath, QPSK125)
	require.NoError(t, err)
	require.NoError(t, qpsk.EncodeText("Hi"))

	assert.Equal(t, bpsk.Stats().Symbols, qpsk.Stats().Symbols, "one QPSK symbol per data bit")
	_, bpskSize := readHeader(t, bpskPath)
	_, qpskSize := readHeader(t, qpskPath)
	assert.Equal(t, bpskSize, qpskSize)
}

func TestUnsupportedCharacterLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.wav")
	require.NoError(t, os.WriteFile(path, []byte("previous content"), 0o644))

	enc, err := New(path, BPSK125)
	require.NoError(t, err)

	err = enc.EncodeText("Grüße")
	require.ErrorIs(t, err, ErrUnsupportedCharacter)
	var charErr *UnsupportedCharacterError
	require.True(t, errors.As(err, &charErr))
	assert.Equal(t, 'ü', charErr.Char)
	assert.Equal(t, 2, charErr.Offset)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous content", string(content))
}

func TestIOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.wav")
	enc, err := New(path, BPSK125)
	require.NoError(t, err)

	err = enc.EncodeText("test")
	assert.ErrorIs(t, err, ErrIO)
}

type silenceFramer struct {
	samples int
	failOut bool
}

var errFramer = errors.New("framer failed")

func (f silenceFramer) LeadIn(out SampleWriter) error {
	for i := 0; i < f.samples; i++ {
		if err := out.WriteSample(0); err != nil {
			return err
		}
	}
	return nil
}

func (f silenceFramer) LeadOut(out SampleWriter) error {
	if f.failOut {
		return errFramer
	}
	return f.LeadIn(out)
}

func TestFramer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framed.wav")
	enc, err := New(path, BPSK500, WithFramer(silenceFramer{samples: 100}))
	require.NoError(t, err)

	require.NoError(t, enc.EncodeText("e"))

	header, _ := readHeader(t, path)
	bits := DefaultPreamble + varicodeBits(t, "e") + DefaultPostamble
	assert.Equal(t, 200+88*bits, header.Samples())
}

func TestFailedEncodingRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	enc, err := New(path, BPSK500, WithFramer(silenceFramer{failOut: true}))
	require.NoError(t, err)

	err = enc.EncodeText("e")
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, errFramer)
	assert.NoFileExists(t, path)
	assert.Equal(t, Stats{}, enc.Stats())
}

func TestNew(t *testing.T) {
	testCases := []struct {
		desc     string
		mode     Mode
		opts     []Option
		expected error
	}{
		{"valid", BPSK125, nil, nil},
		{"zero mode", Mode(0), nil, ErrInvalidMode},
		{"unknown mode", Mode(7), nil, ErrInvalidMode},
		{"valid callsign", QPSK500, []Option{WithCallsign("DL1ABC")}, nil},
		{"short callsign", QPSK500, []Option{WithCallsign("K1A")}, ErrInvalidCallsign},
		{"carrier above nyquist", BPSK125, []Option{WithCarrier(30000)}, ErrInvalidParameter},
		{"zero level", BPSK125, []Option{WithLevel(0)}, ErrInvalidParameter},
		{"level above full scale", BPSK125, []Option{WithLevel(1.5)}, ErrInvalidParameter},
		{"negative preamble", BPSK125, []Option{WithPreamble(-1)}, ErrInvalidParameter},
		{"sample rate below symbol rate", BPSK500, []Option{WithSampleRate(100), WithCarrier(10)}, ErrInvalidParameter},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			enc, err := New("out.wav", tC.mode, tC.opts...)
			if tC.expected != nil {
				assert.ErrorIs(t, err, tC.expected)
				assert.Nil(t, enc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, enc)
			}
		})
	}
}

func TestCallsignIsOnlyAFlag(t *testing.T) {
	dir := t.TempDir()
	plain, err := New(filepath.Join(dir, "plain.wav"), BPSK250)
	require.NoError(t, err)
	withCall, err := New(filepath.Join(dir, "call.wav"), BPSK250, WithCallsign("DL1ABC"))
	require.NoError(t, err)

	require.NoError(t, plain.EncodeText("test"))
	require.NoError(t, withCall.EncodeText("test"))

	assert.Equal(t, "", plain.Callsign())
	assert.Equal(t, "DL1ABC", withCall.Callsign())
	assert.Equal(t, plain.Stats(), withCall.Stats())
}

func decodeSamples(t *testing.T, path string, enc *Encoder) []int16 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	decoder := gowav.NewDecoder(f)
	require.True(t, decoder.IsValidFile())
	buf, err := decoder.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, uint32(DefaultSampleRate), decoder.SampleRate)
	assert.Equal(t, uint16(16), decoder.BitDepth)
	assert.Equal(t, uint16(1), decoder.NumChans)
	require.Equal(t, enc.Stats().Samples, len(buf.Data))

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples
}

func TestThirdPartyDecoderAcceptsOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decode.wav")
	enc, err := New(path, BPSK250)
	require.NoError(t, err)
	message := "Hello World!"
	require.NoError(t, enc.EncodeText(message))

	samples := decodeSamples(t, path, enc)
	states := demodulate(samples, enc.SamplesPerSymbol(), DefaultSampleRate, DefaultCarrier)
	bits := make([]uint8, 0, len(states))
	last := 0
	for _, state := range states {
		if state == last {
			bits = append(bits, 1)
		} else {
			bits = append(bits, 0)
		}
		last = state
	}

	decoded, err := DecodeVaricode(bits)
	require.NoError(t, err)
	assert.Equal(t, message, decoded)
}

func TestQPSKFileCarriesConvolvedStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qpsk.wav")
	enc, err := New(path, QPSK500, WithPreamble(8), WithPostamble(8))
	require.NoError(t, err)
	message := "CQ de DL1ABC"
	require.NoError(t, enc.EncodeText(message))

	stream, err := enc.BitStream(message)
	require.NoError(t, err)
	coded := Convolve(stream).Bits()
	expected := make([]uint8, 0, len(coded)/2)
	for i := 0; i+1 < len(coded); i += 2 {
		expected = append(expected, coded[i]<<1|coded[i+1])
	}

	samples := decodeSamples(t, path, enc)
	states := demodulate(samples, enc.SamplesPerSymbol(), DefaultSampleRate, DefaultCarrier)
	assert.Equal(t, expected, symbolsOf(states))
}
