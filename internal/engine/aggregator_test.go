package engine

import (
	"sync"
	"testing"

	"github.com/Ishaangg/conference-agent/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_ConcurrentAbsorb(t *testing.T) {
	var agg Aggregator
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok := i%5 != 0
			err := agg.Absorb(BatchResult{
				Index:   i,
				OK:      ok,
				Records: []classify.Record{{PersonName: "a"}, {PersonName: "b"}},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records := agg.Freeze()
	assert.Len(t, records, 40*2, "discarded batches contribute nothing")
}

func TestAggregator_FrozenRejectsAbsorb(t *testing.T) {
	var agg Aggregator
	require.NoError(t, agg.Absorb(BatchResult{OK: true, Records: []classify.Record{{PersonName: "a"}}}))

	frozen := agg.Freeze()
	require.Len(t, frozen, 1)

	err := agg.Absorb(BatchResult{OK: true, Records: []classify.Record{{PersonName: "b"}}})
	assert.ErrorIs(t, err, errAggregatorFrozen)

	frozen[0].PersonName = "mutated"
	assert.Equal(t, "a", agg.Freeze()[0].PersonName, "Freeze returns a copy")
}
