package modem

import "encoding/binary"

// Convert []int32 to []float64
func Int32ToFloat64(input []int32) []float64 {
	output := make([]float64, len(input))
	for i, v := range input {
		output[i] = float64(v) / 0x7fffffff
	}
	return output
}

// Convert []float64 to []int32
func Float64ToInt32(input []float64) []int32 {
	output := make([]int32, len(input))
	for i, v := range input {
		output[i] = int32(v * 0x7fffffff)
	}
	return output
}

// PCM16ToInt32 widens little-endian 16-bit PCM to full-scale int32 samples.
func PCM16ToInt32(pcm []byte) []int32 {
	output := make([]int32, len(pcm)/2)
	for i := range output {
		output[i] = int32(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) << 16
	}
	return output
}

// PCM16ToFloat64 decodes little-endian 16-bit PCM to [-1, 1).
func PCM16ToFloat64(pcm []byte) []float64 {
	output := make([]float64, len(pcm)/2)
	for i := range output {
		output[i] = float64(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / 32768
	}
	return output
}
