// Package random даёт потокобезопасный источник для domain.Random.
package random

import (
	"math/rand"
	"sync"
)

// Source оборачивает *rand.Rand мьютексом: HTTP-обработчики и таймеры рулетки
// обращаются к нему одновременно.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New создаёт источник с заданным зерном.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Intn возвращает число из [0, n).
func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// Float64 возвращает число из [0, 1).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
