package utils

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestTraceRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "trace.txt")
	trace := []Estimate{{1760, 0.95}, {-1, 0}, {3520.5, 0.8}}

	if err := WriteTrace(filename, trace); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ReadTrace(filename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, trace) {
		t.Errorf("got %v, want %v", got, trace)
	}
}

func TestReadTraceOdd(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "trace.txt")
	if err := WriteTxt(filename, []float64{1760, 0.9, 1800}, func(v float64) float64 { return v }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ReadTrace(filename); err == nil {
		t.Errorf("expected an error for a dangling pitch")
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "pcm.raw")
	samples := []int16{0, 32767, -32768, 12}

	if err := WriteBinary(filename, samples); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ReadBinary[int16](filename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, samples) {
		t.Errorf("got %v, want %v", got, samples)
	}
}
