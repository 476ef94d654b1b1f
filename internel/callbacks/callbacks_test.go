package callbacks

import (
	"reflect"
	"testing"
)

func TestPlayerBackToBack(t *testing.T) {
	var p Player
	first := p.Enqueue([]int32{1, 2, 3})
	second := p.Enqueue([]int32{4, 5})

	out := make([]int32, 4)
	p.Update(out)
	if !reflect.DeepEqual(out, []int32{1, 2, 3, 4}) {
		t.Errorf("got %v", out)
	}
	select {
	case <-first:
	default:
		t.Errorf("expected the first track to be done")
	}
	select {
	case <-second:
		t.Errorf("expected the second track to be playing")
	default:
	}

	p.Update(out)
	if !reflect.DeepEqual(out, []int32{5, 0, 0, 0}) {
		t.Errorf("got %v", out)
	}
	<-second
	if p.Playing() {
		t.Errorf("expected the player to be idle")
	}
}

func TestPlayerDoneWhenHandedOver(t *testing.T) {
	var p Player
	done := p.Enqueue([]int32{7, 8})

	// the samples are only in the device buffer, not yet out of the speaker
	out := make([]int32, 4)
	p.Update(out)
	select {
	case <-done:
	default:
		t.Fatalf("expected done once the last sample was copied out")
	}
	if !reflect.DeepEqual(out, []int32{7, 8, 0, 0}) {
		t.Errorf("got %v", out)
	}
}

func TestPlayerCancel(t *testing.T) {
	var p Player
	playing := p.Enqueue([]int32{1, 2, 3, 4})
	queued := p.Enqueue([]int32{5, 6})

	out := make([]int32, 2)
	p.Update(out)

	p.Cancel(queued)
	<-queued
	p.Cancel(playing)
	<-playing

	p.Update(out)
	if !reflect.DeepEqual(out, []int32{0, 0}) {
		t.Errorf("expected silence after cancel, got %v", out)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Update([]int32{1, 2})
	r.Update([]int32{3})
	if !reflect.DeepEqual(r.Track(), []int32{1, 2, 3}) {
		t.Errorf("got %v", r.Track())
	}
	r.Reset()
	if len(r.Track()) != 0 {
		t.Errorf("expected an empty track after reset")
	}
}
