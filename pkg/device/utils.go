package device

import (
	"time"

	"golang.org/x/exp/rand"
)

func cleari32(a []int32) {
	for i := range a {
		a[i] = 0
	}
}

func randi32(a []int32) {
	for i := range a {
		a[i] = rand.Int31()
	}
}

// sumi32 stores the saturated sum of a and b in c.
func sumi32(a, b, c []int32) {
	for i := range a {
		c[i] = saturate(int64(a[i]) + int64(b[i]))
	}
}

func scalei32(a []int32, gain float64) {
	for i := range a {
		a[i] = saturate(int64(float64(a[i]) * gain))
	}
}

// noisei32 adds uniform noise of the given amplitude relative to full scale.
func noisei32(a []int32, amplitude float64, rng *rand.Rand) {
	for i := range a {
		n := (rng.Float64()*2 - 1) * amplitude * 0x7fffffff
		a[i] = saturate(int64(a[i]) + int64(n))
	}
}

func saturate(v int64) int32 {
	if v > 0x7fffffff {
		return 0x7fffffff
	}
	if v < -0x80000000 {
		return -0x80000000
	}
	return int32(v)
}

func alloci32(n int) []int32 {
	return make([]int32, n)
}

// bufferPeriod is how long BufferSize samples last at sampleRate.
func bufferPeriod(sampleRate float64) time.Duration {
	return time.Duration(float64(BufferSize) / sampleRate * float64(time.Second))
}
