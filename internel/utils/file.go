package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadTxt scans whitespace separated values of type T.
func ReadTxt[T any](filename string) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var data []T
	for {
		var element T
		if _, err := fmt.Fscan(reader, &element); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read %s after %d values: %w", filename, len(data), err)
		}
		data = append(data, element)
	}
	return data, nil
}

// WriteTxt writes f(element) for every element, one per line.
func WriteTxt[V, T any](filename string, data []T, f func(T) V) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, element := range data {
		if _, err := fmt.Fprintln(writer, f(element)); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
	}
	return writer.Flush()
}

// Estimate is one line of a pitch trace.
type Estimate struct {
	Pitch      float64
	Confidence float64
}

// ReadTrace reads a pitch trace of "pitch confidence" pairs.
func ReadTrace(filename string) ([]Estimate, error) {
	values, err := ReadTxt[float64](filename)
	if err != nil {
		return nil, err
	}
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("trace %s: odd number of values %d", filename, len(values))
	}
	trace := make([]Estimate, len(values)/2)
	for i := range trace {
		trace[i] = Estimate{Pitch: values[2*i], Confidence: values[2*i+1]}
	}
	return trace, nil
}

func WriteTrace(filename string, trace []Estimate) error {
	return WriteTxt(filename, trace, func(e Estimate) string {
		return fmt.Sprintf("%.3f %.4f", e.Pitch, e.Confidence)
	})
}
