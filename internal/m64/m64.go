// Package m64 reads and writes Mupen64 input recordings.
//
// A recording is a 0x400 byte header followed by one 4 byte sample per
// frame: big-endian button bits, then the signed X and Y stick values.
package m64

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/frame"
)

const (
	// HeaderSize is the offset of the first input sample.
	HeaderSize = 0x400
	// SampleSize is the size of one input sample.
	SampleSize = 4

	offsetVICount      = 0x0C
	offsetVIPerSecond  = 0x14
	offsetControllers  = 0x15
	offsetSampleCount  = 0x18
	offsetControlFlags = 0x20
)

var signature = []byte{'M', '6', '4', 0x1A}

var (
	// ErrIO is returned when a recording cannot be read or written.
	ErrIO = errors.New("m64: i/o failure")

	// ErrFormat is returned when a file is too short to hold a header.
	ErrFormat = errors.New("m64: malformed recording")
)

// Load reads every sample of the recording at path. Sample i is stored as
// the input of frame i; a trailing partial sample is ignored.
func Load(path string) (*frame.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}
	return Decode(data)
}

// Decode parses a recording held in memory.
func Decode(data []byte) (*frame.Record, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrFormat, len(data), HeaderSize)
	}

	return DecodeSamples(data[HeaderSize:], 0), nil
}

// DecodeSamples parses packed samples into a record whose first sample is
// frame from. A trailing partial sample is ignored.
func DecodeSamples(b []byte, from int64) *frame.Record {
	rec := frame.NewRecord()
	for i := 0; (i+1)*SampleSize <= len(b); i++ {
		rec.Set(from+int64(i), decodeSample(b[i*SampleSize:]))
	}
	return rec
}

// EncodeSamples packs the inputs of rec for frames [from, to), gaps as
// neutral samples.
func EncodeSamples(rec *frame.Record, from, to int64) []byte {
	if to <= from {
		return nil
	}
	buf := make([]byte, (to-from)*SampleSize)
	for f := from; f < to; f++ {
		encodeSample(buf[(f-from)*SampleSize:], rec.At(f))
	}
	return buf
}

func decodeSample(b []byte) core.Input {
	return core.Input{
		Buttons: core.Buttons(binary.BigEndian.Uint16(b)),
		StickX:  int8(b[2]),
		StickY:  int8(b[3]),
	}
}

func encodeSample(b []byte, in core.Input) {
	binary.BigEndian.PutUint16(b, uint16(in.Buttons))
	b[2] = byte(in.StickX)
	b[3] = byte(in.StickY)
}

// Save writes the samples of rec from startFrame through its last recorded
// frame into the recording at path. Gaps are written as neutral samples and
// samples outside that range are left untouched. A missing file is created
// with a blank header. The VI count is set to -1 so players do not stop
// early.
func Save(path string, rec *frame.Record, startFrame int64) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}
	last, ok := rec.Last()
	if !ok || last < startFrame {
		last = startFrame - 1
	}

	if info.Size() < HeaderSize {
		if _, err := f.WriteAt(blankHeader(last+1), 0); err != nil {
			return fmt.Errorf("%w: write header %s: %v", ErrIO, path, err)
		}
	}

	var vi [4]byte
	binary.LittleEndian.PutUint32(vi[:], 0xFFFFFFFF)
	if _, err := f.WriteAt(vi[:], offsetVICount); err != nil {
		return fmt.Errorf("%w: write VI count %s: %v", ErrIO, path, err)
	}

	if last < startFrame {
		return nil
	}
	buf := EncodeSamples(rec, startFrame, last+1)
	if _, err := f.WriteAt(buf, HeaderSize+startFrame*SampleSize); err != nil {
		return fmt.Errorf("%w: write samples %s: %v", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, path, err)
	}
	return nil
}

// Truncate cuts the recording at path after frames samples.
func Truncate(path string, frames int64) error {
	if err := os.Truncate(path, HeaderSize+frames*SampleSize); err != nil {
		return fmt.Errorf("%w: truncate %s: %v", ErrIO, path, err)
	}
	return nil
}

// Copy copies the recording at src to dst, replacing dst.
func Copy(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIO, src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: copy %s to %s: %v", ErrIO, src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, dst, err)
	}
	return nil
}

func blankHeader(samples int64) []byte {
	h := make([]byte, HeaderSize)
	copy(h, signature)
	binary.LittleEndian.PutUint32(h[0x04:], 3)
	h[offsetVIPerSecond] = 60
	h[offsetControllers] = 1
	binary.LittleEndian.PutUint32(h[offsetSampleCount:], uint32(samples))
	binary.LittleEndian.PutUint32(h[offsetControlFlags:], 1)
	return h
}

// IsRecording reports whether data starts with the recording signature.
func IsRecording(data []byte) bool {
	return bytes.HasPrefix(data, signature)
}
