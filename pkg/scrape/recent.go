package scrape

import (
	"igdroid/pkg/logger"
	"igdroid/pkg/models"
)

// RecentSet holds usernames scraped within the configured window. Members
// are still recorded when encountered again, but never re-enriched, so a
// rerun does not spend its budget re-opening known profiles.
type RecentSet struct {
	members map[string]struct{}
}

// LoadRecentSet builds the set from the store. A load failure downgrades to
// an empty set with a warning; skipping the cache only costs time.
func LoadRecentSet(repo Repository, days, limit int, log logger.Logger) *RecentSet {
	if log == nil {
		log = logger.GetLogger()
	}
	set := &RecentSet{members: make(map[string]struct{})}
	if days <= 0 {
		return set
	}
	usernames, err := repo.RecentlyScrapedUsernames(days, limit)
	if err != nil {
		log.WarnWithFields("Could not load recently scraped usernames", map[string]interface{}{
			"error": err.Error(),
		})
		return set
	}
	for _, u := range usernames {
		set.members[models.NormalizeUsername(u)] = struct{}{}
	}
	log.DebugWithFields("Loaded recently scraped usernames", map[string]interface{}{
		"count": len(set.members),
		"days":  days,
	})
	return set
}

// Contains reports whether username was scraped within the window.
func (s *RecentSet) Contains(username string) bool {
	if s == nil {
		return false
	}
	_, ok := s.members[models.NormalizeUsername(username)]
	return ok
}

// Len reports the number of usernames in the set.
func (s *RecentSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}
