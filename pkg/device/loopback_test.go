package device

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestLoopback(t *testing.T) {
	lastOutput := alloci32(BufferSize)

	var mu sync.Mutex
	calls := 0
	var dev Device = &Loopback{}

	err := dev.Start(func(in, out []int32) {
		mu.Lock()
		defer mu.Unlock()
		if !reflect.DeepEqual(in, lastOutput) {
			t.Errorf("expected the previous output to come back")
		}
		randi32(out)
		copy(lastOutput, out)
		calls++
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := dev.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls < 2 {
		t.Errorf("expected the loopback to run, got %d calls", calls)
	}
}
