package scrape

import (
	"context"
	"sort"
	"strings"

	"igdroid/pkg/logger"
)

// LoadMoreProber checks for and clicks a trailing "load more" control in
// the open list. Screens satisfies it.
type LoadMoreProber interface {
	HasLoadMore(ctx context.Context) bool
	ClickLoadMore(ctx context.Context) bool
}

const (
	defaultRepeatsToEnd = 5

	// Hard stops independent of the repeat budget. Empty and duplicate
	// pages mean the list stopped responding to scrolls, not just that
	// every visible user was already collected.
	emptyPagesToEnd      = 8
	duplicatePagesToEnd  = 5
	pagesWithoutNewToEnd = 15

	fastScrollMinRepeats    = 3
	fastScrollMinStale      = 5
	fastScrollMinDuplicates = 2
	fastScrollMinEmpty      = 3
)

// ScrollEndDetector decides when scrolling a likers or comments list has
// reached the bottom. Each scrolled "page" of visible usernames is reported
// through NotifyNewPage; the detector tracks how many consecutive pages
// brought nothing new and whether the list content stopped changing at all.
type ScrollEndDetector struct {
	repeatsToEnd int
	prober       LoadMoreProber
	logger       logger.Logger

	seen        map[string]struct{}
	hashHistory []string

	repeatCount     int
	emptyPages      int
	duplicatePages  int
	pagesWithoutNew int
}

// NewScrollEndDetector creates a detector that ends the list after
// repeatsToEnd consecutive pages without a new username. prober may be nil
// when the list has no load-more control.
func NewScrollEndDetector(repeatsToEnd int, prober LoadMoreProber, log logger.Logger) *ScrollEndDetector {
	if repeatsToEnd <= 0 {
		repeatsToEnd = defaultRepeatsToEnd
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &ScrollEndDetector{
		repeatsToEnd: repeatsToEnd,
		prober:       prober,
		logger:       log,
		seen:         make(map[string]struct{}),
	}
}

// NotifyNewPage records one page of visible usernames and reports whether
// the page contained any username not seen before on this list.
func (d *ScrollEndDetector) NotifyNewPage(usernames []string) bool {
	newCount := 0
	for _, u := range usernames {
		if _, ok := d.seen[u]; !ok {
			d.seen[u] = struct{}{}
			newCount++
		}
	}

	// Empty pages stay out of the duplicate tracking: an empty probe is
	// usually a UI glitch, and counting empties as duplicates of each
	// other would trip the duplicate threshold before the empty one.
	if len(usernames) == 0 {
		d.emptyPages++
	} else {
		d.emptyPages = 0
		hash := pageHash(usernames)
		if len(d.hashHistory) > 0 && hash == d.hashHistory[len(d.hashHistory)-1] {
			d.duplicatePages++
		} else {
			d.duplicatePages = 0
		}
		d.hashHistory = append(d.hashHistory, hash)
	}

	if newCount == 0 {
		d.repeatCount++
		d.pagesWithoutNew++
	} else {
		d.repeatCount = 0
		d.pagesWithoutNew = 0
	}

	d.logger.DebugWithFields("Scroll page evaluated", map[string]interface{}{
		"visible":      len(usernames),
		"new":          newCount,
		"repeat_count": d.repeatCount,
		"empty_pages":  d.emptyPages,
		"duplicates":   d.duplicatePages,
	})
	return newCount > 0
}

// IsEnd reports whether the list is exhausted.
func (d *ScrollEndDetector) IsEnd() bool {
	return d.repeatCount >= d.repeatsToEnd ||
		d.emptyPages >= emptyPagesToEnd ||
		d.duplicatePages >= duplicatePagesToEnd ||
		d.pagesWithoutNew >= pagesWithoutNewToEnd
}

// ShouldFastScroll reports whether the next scroll should cover more
// distance because recent pages brought little or nothing new. Softer
// thresholds than IsEnd; an escalation policy, not a stopping policy.
func (d *ScrollEndDetector) ShouldFastScroll() bool {
	return d.repeatCount >= fastScrollMinRepeats ||
		d.pagesWithoutNew >= fastScrollMinStale ||
		d.duplicatePages >= fastScrollMinDuplicates ||
		d.emptyPages >= fastScrollMinEmpty
}

// HasLoadMoreButton reports whether a load-more control is on screen.
func (d *ScrollEndDetector) HasLoadMoreButton(ctx context.Context) bool {
	if d.prober == nil {
		return false
	}
	return d.prober.HasLoadMore(ctx)
}

// ClickLoadMoreIfPresent clicks the load-more control when one is visible.
// A successful click resets the repeat counter so the refreshed list gets a
// fresh repeat budget; the stale-page cap keeps counting so a button that
// never yields new users still ends the list.
func (d *ScrollEndDetector) ClickLoadMoreIfPresent(ctx context.Context) bool {
	if d.prober == nil {
		return false
	}
	if !d.prober.ClickLoadMore(ctx) {
		return false
	}
	d.logger.Debug("Clicked load-more control")
	d.repeatCount = 0
	return true
}

// Reset clears all state so the detector can be reused for another list.
func (d *ScrollEndDetector) Reset() {
	d.seen = make(map[string]struct{})
	d.hashHistory = nil
	d.repeatCount = 0
	d.emptyPages = 0
	d.duplicatePages = 0
	d.pagesWithoutNew = 0
}

// Seen reports how many distinct usernames the detector has observed.
func (d *ScrollEndDetector) Seen() int {
	return len(d.seen)
}

func pageHash(usernames []string) string {
	if len(usernames) == 0 {
		return ""
	}
	sorted := make([]string, len(usernames))
	copy(sorted, usernames)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x1f")
}
