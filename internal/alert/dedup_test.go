package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupTable_FirstSeenIsNotDuplicate(t *testing.T) {
	d := newDedupTable()
	now := time.Now()
	assert.False(t, d.CheckAndMark("k1", now))
}

func TestDedupTable_RepeatWithinTTLIsDuplicate(t *testing.T) {
	d := newDedupTable()
	now := time.Now()
	d.CheckAndMark("k1", now)
	assert.True(t, d.CheckAndMark("k1", now.Add(5*time.Second)))
}

func TestDedupTable_RepeatAfterTTLIsNotDuplicate(t *testing.T) {
	d := newDedupTable()
	now := time.Now()
	d.CheckAndMark("k1", now)
	assert.False(t, d.CheckAndMark("k1", now.Add(dedupTTL+time.Second)))
}

func TestDedupTable_EvictsStaleEntries(t *testing.T) {
	d := newDedupTable()
	now := time.Now()
	d.CheckAndMark("k1", now)
	d.CheckAndMark("k2", now.Add(dedupTTL+time.Second))
	assert.Equal(t, 1, d.Len())
}
