package async

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestPromise(t *testing.T) {
	expected := 42
	resultChan := Promise(func() int {
		time.Sleep(10 * time.Millisecond)
		return expected
	})

	select {
	case result := <-resultChan:
		if result != expected {
			t.Fatalf("expected %d but got %d", expected, result)
		}
	case <-time.After(time.Second):
		t.Fatal("promise timed out")
	}
}

func TestPromiseUnread(t *testing.T) {
	done := make(chan struct{})
	Promise(func() int {
		defer close(done)
		return 1
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("promise blocked without a reader")
	}
}

func TestJob(t *testing.T) {
	done := Job(func() {
		time.Sleep(10 * time.Millisecond)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job timed out")
	}
}

func TestAwaitContext(t *testing.T) {
	r, err := AwaitContext(context.Background(), Promise(func() string { return "ok" }))
	if err != nil || r != "ok" {
		t.Errorf("got (%q, %v), want (ok, nil)", r, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	never := make(chan int)
	if _, err := AwaitContext(ctx, never); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGather(t *testing.T) {
	var order []int
	first := Job(func() {
		time.Sleep(30 * time.Millisecond)
		order = append(order, 1)
	})
	second := Job(func() {
		time.Sleep(10 * time.Millisecond)
	})

	select {
	case <-Gather0(first, second):
	case <-time.After(time.Second):
		t.Fatal("gather timed out")
	}
	if !reflect.DeepEqual(order, []int{1}) {
		t.Errorf("expected the slow job to have finished, got %v", order)
	}

	if r := Await(Promise(func() int { return 3 })); r != 3 {
		t.Errorf("expected 3, got %d", r)
	}
}
