package feature

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Vector is a fixed-length acoustic feature vector. Vectors are immutable
// once produced; callers that need to retain one across goroutines should
// use Clone rather than mutating shared storage.
type Vector []float64

// Dim returns the dimensionality of the vector.
func (v Vector) Dim() int { return len(v) }

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Hash returns a deterministic content hash over the vector's bytes,
// used to derive symmetric similarity-cache keys.
func (v Vector) Hash() string {
	h := sha256.New()
	var buf [8]byte
	for _, f := range v {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashAudio returns the content hash of raw audio bytes. Identical bytes
// always map to the same key, so caching on it is idempotent. The hash
// never requires decoding the audio.
func HashAudio(audio []byte) string {
	sum := sha256.Sum256(audio)
	return hex.EncodeToString(sum[:])
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Returns 0 for empty or mismatched-dimension vectors.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ClampUnit clamps x to [0, 1] for reporting similarity scores.
func ClampUnit(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
