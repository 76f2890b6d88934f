/*
Package wav writes mono 16bit PCM audio into canonical 44 byte header WAV files.

The header is written with placeholder lengths first. Close patches the RIFF
and data chunk lengths once all samples are known.
*/
package wav

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format constants of the written files.
const (
	HeaderSize    = 44
	FormatPCM     = 1
	Channels      = 1
	BitsPerSample = 16

	riffSizeOffset = 4
	dataSizeOffset = 40
)

// ErrFinalized is returned for writes to a writer that has already been closed.
var ErrFinalized = errors.New("wav: writer already finalized")

// Header is the canonical 44 byte PCM WAV header.
type Header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // file size - 44
}

// NewHeader returns a header for mono 16bit PCM with the given sample rate and data length.
func NewHeader(sampleRate int, dataSize uint32) Header {
	blockAlign := Channels * BitsPerSample / 8
	return Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     dataSize + HeaderSize - 8,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   FormatPCM,
		NumChannels:   Channels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// ReadHeader reads a canonical PCM header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Header{}, fmt.Errorf("wav: failed to read header: %w", err)
	}
	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return Header{}, errors.New("wav: not a RIFF/WAVE file")
	}
	if string(h.Subchunk1ID[:]) != "fmt " || string(h.Subchunk2ID[:]) != "data" || h.AudioFormat != FormatPCM {
		return Header{}, errors.New("wav: not a canonical PCM header")
	}
	return h, nil
}

// Samples returns the number of samples announced by the header.
func (h Header) Samples() int {
	if h.BlockAlign == 0 {
		return 0
	}
	return int(h.Subchunk2Size) / int(h.BlockAlign)
}

// Writer appends 16bit samples to a WAV stream.
type Writer struct {
	out       io.WriteSeeker
	closer    io.Closer
	buf       *bufio.Writer
	samples   int
	finalized bool
}

// Create creates or truncates the file at the given path and writes the header.
func Create(path string, sampleRate int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: failed to create file: %w", err)
	}
	w, err := NewWriter(f, sampleRate)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter writes the header with placeholder lengths to out and returns a writer
// that appends samples to it. If out is an io.Closer, it is not closed by the writer.
func NewWriter(out io.WriteSeeker, sampleRate int) (*Writer, error) {
	w := &Writer{
		out: out,
		buf: bufio.NewWriter(out),
	}
	header := NewHeader(sampleRate, 0)
	if err := binary.Write(w.buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("wav: failed to write header: %w", err)
	}
	return w, nil
}

// WriteSample appends one little endian sample.
func (w *Writer) WriteSample(sample int16) error {
	if w.finalized {
		return ErrFinalized
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(sample))
	if _, err := w.buf.Write(b[:]); err != nil {
		return fmt.Errorf("wav: failed to write sample: %w", err)
	}
	w.samples++
	return nil
}

// Samples returns the number of samples written so far.
func (w *Writer) Samples() int {
	return w.samples
}

// Close patches the two length fields of the header and closes the file.
// Calling Close again has no effect.
func (w *Writer) Close() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	err := w.patchLengths()
	if w.closer != nil {
		if closeErr := w.closer.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("wav: failed to close file: %w", closeErr)
		}
	}
	return err
}

func (w *Writer) patchLengths() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("wav: failed to flush samples: %w", err)
	}
	end, err := w.out.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("wav: failed to get file size: %w", err)
	}
	if end > 0xFFFFFFFF {
		return fmt.Errorf("wav: file too large (%d bytes)", end)
	}

	if err := w.writeUint32At(riffSizeOffset, uint32(end-8)); err != nil {
		return err
	}
	if err := w.writeUint32At(dataSizeOffset, uint32(end-HeaderSize)); err != nil {
		return err
	}
	if _, err := w.out.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("wav: failed to seek to end: %w", err)
	}
	return nil
}

func (w *Writer) writeUint32At(offset int64, value uint32) error {
	if _, err := w.out.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("wav: failed to seek to offset %d: %w", offset, err)
	}
	if err := binary.Write(w.out, binary.LittleEndian, value); err != nil {
		return fmt.Errorf("wav: failed to patch offset %d: %w", offset, err)
	}
	return nil
}

// Abort closes the writer without finalizing the header and removes the file
// if the writer was created with Create.
func (w *Writer) Abort() error {
	if w.finalized {
		return nil
	}
	w.finalized = true
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	if f, ok := w.closer.(*os.File); ok {
		if removeErr := os.Remove(f.Name()); err == nil && removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			err = removeErr
		}
	}
	return err
}
