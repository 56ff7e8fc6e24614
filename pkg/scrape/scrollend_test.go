package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igdroid/pkg/logger"
)

type fakeProber struct {
	has    bool
	clicks int
}

func (p *fakeProber) HasLoadMore(ctx context.Context) bool { return p.has }

func (p *fakeProber) ClickLoadMore(ctx context.Context) bool {
	if !p.has {
		return false
	}
	p.clicks++
	return true
}

func TestScrollEndExactRepeatThreshold(t *testing.T) {
	d := NewScrollEndDetector(3, nil, logger.NewNopLogger())

	require.True(t, d.NotifyNewPage([]string{"a", "b"}))
	assert.Equal(t, 0, d.repeatCount)
	assert.False(t, d.IsEnd())

	require.False(t, d.NotifyNewPage([]string{"a", "b"}))
	assert.Equal(t, 1, d.repeatCount)
	assert.False(t, d.IsEnd())

	require.False(t, d.NotifyNewPage([]string{"a", "b"}))
	assert.Equal(t, 2, d.repeatCount)
	assert.False(t, d.IsEnd(), "two no-new pages must not end a threshold of three")

	require.False(t, d.NotifyNewPage([]string{"a", "b"}))
	assert.Equal(t, 3, d.repeatCount)
	assert.True(t, d.IsEnd())
}

func TestScrollEndEmptyPages(t *testing.T) {
	d := NewScrollEndDetector(50, nil, logger.NewNopLogger())

	for i := 1; i <= 7; i++ {
		require.False(t, d.NotifyNewPage(nil))
		assert.Equal(t, i, d.emptyPages)
	}
	assert.False(t, d.IsEnd())

	d.NotifyNewPage(nil)
	assert.Equal(t, 8, d.emptyPages)
	assert.True(t, d.IsEnd())
}

func TestScrollEndNewUsersResetCounters(t *testing.T) {
	d := NewScrollEndDetector(5, nil, logger.NewNopLogger())

	d.NotifyNewPage([]string{"a"})
	d.NotifyNewPage([]string{"a"})
	d.NotifyNewPage([]string{"a"})
	require.Equal(t, 2, d.repeatCount)

	require.True(t, d.NotifyNewPage([]string{"b", "c"}))
	assert.Equal(t, 0, d.repeatCount)
	assert.Equal(t, 0, d.pagesWithoutNew)
}

func TestScrollEndEmptyThenContentResets(t *testing.T) {
	d := NewScrollEndDetector(5, nil, logger.NewNopLogger())

	d.NotifyNewPage(nil)
	d.NotifyNewPage(nil)
	require.Equal(t, 2, d.emptyPages)

	d.NotifyNewPage([]string{"a"})
	assert.Equal(t, 0, d.emptyPages)
}

func TestScrollEndDuplicatePageDetection(t *testing.T) {
	d := NewScrollEndDetector(50, nil, logger.NewNopLogger())

	d.NotifyNewPage([]string{"a", "b"})
	before := d.duplicatePages

	// A reordered page renders the same set and must hash the same.
	d.NotifyNewPage([]string{"b", "a"})
	assert.Equal(t, before+1, d.duplicatePages)

	d.NotifyNewPage([]string{"a", "b"})
	assert.Equal(t, before+2, d.duplicatePages)
}

func TestScrollEndDuplicatePagesEnd(t *testing.T) {
	d := NewScrollEndDetector(50, nil, logger.NewNopLogger())

	d.NotifyNewPage([]string{"a"})
	for i := 0; i < 4; i++ {
		d.NotifyNewPage([]string{"a"})
	}
	require.Equal(t, 4, d.duplicatePages)
	assert.False(t, d.IsEnd())

	d.NotifyNewPage([]string{"a"})
	assert.True(t, d.IsEnd())
}

func TestScrollEndFastScrollOnDuplicates(t *testing.T) {
	d := NewScrollEndDetector(5, nil, logger.NewNopLogger())
	require.False(t, d.ShouldFastScroll())

	d.NotifyNewPage([]string{"a"})
	d.NotifyNewPage([]string{"a"})
	assert.False(t, d.ShouldFastScroll())

	d.NotifyNewPage([]string{"a"})
	assert.True(t, d.ShouldFastScroll(), "escalate before declaring the end")
	assert.False(t, d.IsEnd())
}

func TestScrollEndFastScrollOnRepeats(t *testing.T) {
	d := NewScrollEndDetector(5, nil, logger.NewNopLogger())

	// No duplicates: the pages differ but bring nothing new.
	d.NotifyNewPage([]string{"a", "b"})
	d.NotifyNewPage([]string{"a"})
	d.NotifyNewPage([]string{"b"})
	assert.False(t, d.ShouldFastScroll())

	d.NotifyNewPage([]string{"a"})
	assert.Equal(t, 3, d.repeatCount)
	assert.True(t, d.ShouldFastScroll())
	assert.False(t, d.IsEnd())
}

func TestScrollEndLoadMoreResetsRepeatOnly(t *testing.T) {
	prober := &fakeProber{has: true}
	d := NewScrollEndDetector(2, prober, logger.NewNopLogger())

	d.NotifyNewPage([]string{"a"})
	d.NotifyNewPage([]string{"a"})
	d.NotifyNewPage([]string{"a"})
	require.True(t, d.IsEnd())
	stale := d.pagesWithoutNew

	require.True(t, d.HasLoadMoreButton(context.Background()))
	require.True(t, d.ClickLoadMoreIfPresent(context.Background()))
	assert.Equal(t, 1, prober.clicks)
	assert.Equal(t, 0, d.repeatCount)
	assert.Equal(t, stale, d.pagesWithoutNew, "load-more must not reset the stale-page cap")
	assert.False(t, d.IsEnd())
}

func TestScrollEndStalePageCap(t *testing.T) {
	prober := &fakeProber{has: true}
	d := NewScrollEndDetector(100, prober, logger.NewNopLogger())

	d.NotifyNewPage([]string{"a", "b"})

	// Alternating stale pages with a load-more click after each keeps
	// every other counter below threshold; only the stale cap climbs.
	pages := [][]string{{"a"}, {"b"}}
	for i := 1; i <= 15; i++ {
		if i < 15 {
			d.NotifyNewPage(pages[i%2])
			d.ClickLoadMoreIfPresent(context.Background())
			require.False(t, d.IsEnd(), "page %d", i)
			continue
		}
		d.NotifyNewPage(pages[i%2])
	}
	assert.Equal(t, 15, d.pagesWithoutNew)
	assert.True(t, d.IsEnd())
}

func TestScrollEndNilProber(t *testing.T) {
	d := NewScrollEndDetector(3, nil, logger.NewNopLogger())
	assert.False(t, d.HasLoadMoreButton(context.Background()))
	assert.False(t, d.ClickLoadMoreIfPresent(context.Background()))
}

func TestScrollEndReset(t *testing.T) {
	d := NewScrollEndDetector(3, nil, logger.NewNopLogger())
	d.NotifyNewPage([]string{"a", "b"})
	d.NotifyNewPage([]string{"a", "b"})
	d.NotifyNewPage(nil)
	require.NotZero(t, d.Seen())

	d.Reset()
	assert.Zero(t, d.Seen())
	assert.Zero(t, d.repeatCount)
	assert.Zero(t, d.emptyPages)
	assert.Zero(t, d.duplicatePages)
	assert.Zero(t, d.pagesWithoutNew)
	assert.False(t, d.IsEnd())

	// After a reset, previously seen names count as new again.
	assert.True(t, d.NotifyNewPage([]string{"a"}))
}

func TestScrollEndDefaultThreshold(t *testing.T) {
	d := NewScrollEndDetector(0, nil, logger.NewNopLogger())
	assert.Equal(t, defaultRepeatsToEnd, d.repeatsToEnd)
}
