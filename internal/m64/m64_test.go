package m64

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/frame"
	"github.com/vovakirdan/scattershot/internal/scattershot"
)

func TestSaveLoadRoundTripWithGaps(t *testing.T) {
	rec := frame.NewRecord()
	rec.Set(3, core.NewInput(core.ButtonA|core.ButtonStart, 127, -128))
	rec.Set(4, core.NewInput(0, -7, 64))
	rec.Set(7, core.NewInput(core.ButtonB, 0, 1))

	path := filepath.Join(t.TempDir(), "out.m64")
	if err := Save(path, rec, 0); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Len() != 8 {
		t.Fatalf("Load() read %d frames, want 8", got.Len())
	}
	if diff := cmp.Diff(rec.Inputs(0, 8), got.Inputs(0, 8)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.m64")
	rec := frame.NewRecord()
	rec.Set(0, core.NewInput(0x1234, 1, 2))
	if err := Save(path, rec, 0); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !IsRecording(data) {
		t.Error("missing signature")
	}
	if vi := binary.LittleEndian.Uint32(data[0x0C:]); vi != 0xFFFFFFFF {
		t.Errorf("VI count = %#x, want -1", vi)
	}
	if len(data) != HeaderSize+SampleSize {
		t.Errorf("file size = %d, want %d", len(data), HeaderSize+SampleSize)
	}
	if got := data[HeaderSize : HeaderSize+4]; !cmp.Equal(got, []byte{0x12, 0x34, 1, 2}) {
		t.Errorf("sample bytes = % x", got)
	}
}

func TestSaveFromStartFrameKeepsEarlierSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.m64")

	base := frame.NewRecord()
	for f := int64(0); f < 5; f++ {
		base.Set(f, core.NewInput(core.ButtonA, 10, 10))
	}
	if err := Save(path, base, 0); err != nil {
		t.Fatalf("Save(base) failed: %v", err)
	}

	diff := frame.NewRecord()
	diff.Set(3, core.NewInput(core.ButtonZ, -20, 0))
	if err := Save(path, diff, 3); err != nil {
		t.Fatalf("Save(diff) failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.At(2) != core.NewInput(core.ButtonA, 10, 10) {
		t.Errorf("frame 2 = %v, want the base input", got.At(2))
	}
	if got.At(3) != core.NewInput(core.ButtonZ, -20, 0) {
		t.Errorf("frame 3 = %v, want the new input", got.At(3))
	}
	if got.At(4) != core.NewInput(core.ButtonA, 10, 10) {
		t.Errorf("frame 4 = %v, want the base input untouched", got.At(4))
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.m64")); !errors.Is(err, ErrIO) {
		t.Errorf("Load(missing) error = %v, want ErrIO", err)
	}

	short := filepath.Join(dir, "short.m64")
	if err := os.WriteFile(short, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(short); !errors.Is(err, ErrFormat) {
		t.Errorf("Load(short) error = %v, want ErrFormat", err)
	}

	if err := Save(filepath.Join(dir, "no", "such", "dir.m64"), frame.NewRecord(), 0); !errors.Is(err, ErrIO) {
		t.Errorf("Save(bad path) error = %v, want ErrIO", err)
	}
}

func TestWriterKeepsBaseAndTruncates(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.m64")
	base := frame.NewRecord()
	for f := int64(0); f < 20; f++ {
		base.Set(f, core.NewInput(core.ButtonA, 5, 5))
	}
	if err := Save(basePath, base, 0); err != nil {
		t.Fatalf("Save(base) failed: %v", err)
	}

	out := filepath.Join(dir, "best.m64")
	w := NewWriter(out, basePath, 10)

	long := frame.NewRecord()
	for f := int64(10); f < 16; f++ {
		long.Set(f, core.NewInput(core.ButtonB, 1, 1))
	}
	if err := w.WriteBest(context.Background(), scattershot.Node{Record: long, Frame: 16}); err != nil {
		t.Fatalf("WriteBest(long) failed: %v", err)
	}

	short := frame.NewRecord()
	short.Set(10, core.NewInput(core.ButtonZ, 2, 2))
	if err := w.WriteBest(context.Background(), scattershot.Node{Record: short, Frame: 11}); err != nil {
		t.Fatalf("WriteBest(short) failed: %v", err)
	}

	got, err := Load(out)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Len() != 11 {
		t.Errorf("recording has %d frames, want 11", got.Len())
	}
	if got.At(9) != core.NewInput(core.ButtonA, 5, 5) {
		t.Errorf("frame 9 = %v, want the base input", got.At(9))
	}
	if got.At(10) != core.NewInput(core.ButtonZ, 2, 2) {
		t.Errorf("frame 10 = %v, want the latest best", got.At(10))
	}
	if w.Written() != 2 {
		t.Errorf("Written() = %d, want 2", w.Written())
	}

	if _, err := os.Stat(basePath); err != nil {
		t.Errorf("base recording disturbed: %v", err)
	}
}
