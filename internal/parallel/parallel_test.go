package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	var counter int64
	n := 1000
	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestForRange_CoversEveryIndexOnce(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		n    int
	}{
		{"sequential", Sequential(), 37},
		{"parallel", Config{Enabled: true, NumWorkers: 3, MinChunkSize: 4}, 101},
		{"below threshold", Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}, 10},
		{"empty", DefaultConfig(), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hits := make([]int32, tc.n)
			ForRange(tc.n, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			}, tc.cfg)

			for i, h := range hits {
				assert.Equal(t, int32(1), h, "index %d", i)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.GreaterOrEqual(t, cfg.NumWorkers, 1)
	assert.Equal(t, cfg.NumWorkers > 1, cfg.Enabled)
}
