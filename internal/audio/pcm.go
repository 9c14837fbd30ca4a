package audio

import (
	"encoding/binary"
	"math"
)

// DecodeS16LE converts raw little-endian signed 16-bit PCM bytes into
// samples. A trailing odd byte is dropped.
func DecodeS16LE(raw []byte) []int {
	count := len(raw) / 2
	samples := make([]int, count)
	for i := 0; i < count; i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return samples
}

// EncodeS16LE converts samples back into little-endian signed 16-bit PCM
// bytes, clamping values outside the int16 range.
func EncodeS16LE(samples []int) []byte {
	raw := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(clampS16(sample))))
	}
	return raw
}

// ConvertFloat32 scales normalized float samples in [-1, 1] to signed
// 16-bit integer samples.
func ConvertFloat32(samples []float32) []int {
	out := make([]int, len(samples))
	for i, sample := range samples {
		out[i] = clampS16(int(math.Round(float64(sample) * 32767)))
	}
	return out
}

// RMS computes the root mean square level of the samples, normalized to
// [0, 1] against full scale.
func RMS(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range samples {
		v := float64(sample)
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(samples))) / 32768
}

// Peak returns the normalized absolute peak of the samples.
func Peak(samples []int) float64 {
	var peak int
	for _, sample := range samples {
		if sample < 0 {
			sample = -sample
		}
		if sample > peak {
			peak = sample
		}
	}
	return float64(peak) / 32768
}

func clampS16(v int) int {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return v
}
