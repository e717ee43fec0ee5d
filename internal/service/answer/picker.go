package answer

import (
	"math/rand"
	"sync"
	"time"
)

// Picker selects one canned response from a non-empty pool.
type Picker func(pool []string) string

// NewRandomPicker picks uniformly. A zero seed is replaced by the clock.
func NewRandomPicker(seed int64) Picker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var mu sync.Mutex
	rnd := rand.New(rand.NewSource(seed))

	return func(pool []string) string {
		if len(pool) == 0 {
			return ""
		}
		mu.Lock()
		defer mu.Unlock()
		return pool[rnd.Intn(len(pool))]
	}
}

// FirstPicker always returns the first entry.
func FirstPicker(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[0]
}
