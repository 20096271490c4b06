package engine

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/google/logger"
)

// RandomSource yields uniform values in [0, 1). Outcomes determine money
// liability, so the default source reads from crypto/rand; it is never
// derived from client input or request timestamps.
type RandomSource interface {
	Float64() float64
}

type cryptoRNG struct {
	r io.Reader
}

func (c cryptoRNG) Float64() float64 {
	var buf [8]byte
	if _, err := io.ReadFull(c.r, buf[:]); err != nil {
		// Outcomes drawn from the degraded source decide money; the
		// downgrade must never be silent.
		logger.Errorf("crypto/rand read failed, degrading to seeded source: %v", err)
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

func DefaultRNG() RandomSource { return cryptoRNG{r: cryptoRand.Reader} }

// NewSeededRNG returns a replicable source for tests and simulations.
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

type seededRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *seededRNG) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
