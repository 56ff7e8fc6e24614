package scrape

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"igdroid/pkg/bridge"
	"igdroid/pkg/models"
)

// ErrBudgetExpired signals that the wall-clock session budget ran out. The
// crawl stops cleanly: progress has already been persisted, so the next run
// resumes where this one stopped.
var ErrBudgetExpired = errors.New("session budget expired")

// Session is the run-scoped state shared by every source processor: the
// wall-clock budget, the campaign-wide enrichment cap, the per-source post
// signature sets and the output counters reported over the bridge.
type Session struct {
	ID         string
	CampaignID string
	Workflow   string
	Recent     *RecentSet

	start       time.Time
	budget      time.Duration
	enrichLimit int
	enriched    int

	// signatures holds the engagement signatures of posts already
	// processed, keyed per source. A repeat signature means navigation
	// did not actually advance to a new post.
	signatures map[string]map[Signature]struct{}

	ProfilesScraped  int
	SkippedRecent    int
	CommentsSaved    int
	PostsProcessed   int
	SourcesCompleted int
	SourcesTotal     int
}

// NewSession starts the run clock. budget <= 0 means no time limit;
// enrichLimit <= 0 means no enrichment cap.
func NewSession(campaignID, workflow string, budget time.Duration, enrichLimit int, recent *RecentSet) *Session {
	if recent == nil {
		recent = &RecentSet{members: make(map[string]struct{})}
	}
	return &Session{
		ID:          uuid.NewString(),
		CampaignID:  campaignID,
		Workflow:    workflow,
		Recent:      recent,
		start:       time.Now(),
		budget:      budget,
		enrichLimit: enrichLimit,
		signatures:  make(map[string]map[Signature]struct{}),
	}
}

// BudgetExpired reports whether the session has used up its wall-clock
// budget. Checked at step boundaries only, never mid-wait.
func (s *Session) BudgetExpired() bool {
	if s.budget <= 0 {
		return false
	}
	return time.Since(s.start) >= s.budget
}

// ConsumeEnrichment claims one slot of the campaign-wide enrichment cap.
// It returns false once the cap is exhausted. A failed enrichment still
// consumes its slot since the click-through happened.
func (s *Session) ConsumeEnrichment() bool {
	if s.enrichLimit > 0 && s.enriched >= s.enrichLimit {
		return false
	}
	s.enriched++
	return true
}

// SeenSignature reports whether sig was already recorded for the source.
func (s *Session) SeenSignature(st models.SourceType, sv string, sig Signature) bool {
	_, ok := s.signatures[signatureKey(st, sv)][sig]
	return ok
}

// RecordSignature marks sig as processed for the source.
func (s *Session) RecordSignature(st models.SourceType, sv string, sig Signature) {
	key := signatureKey(st, sv)
	if s.signatures[key] == nil {
		s.signatures[key] = make(map[Signature]struct{})
	}
	s.signatures[key][sig] = struct{}{}
}

// Stats snapshots the session counters for a bridge stats event.
func (s *Session) Stats() bridge.Stats {
	return bridge.Stats{
		ProfilesScraped:  s.ProfilesScraped,
		ProfilesEnriched: s.enriched,
		SkippedRecent:    s.SkippedRecent,
		CommentsSaved:    s.CommentsSaved,
		PostsProcessed:   s.PostsProcessed,
		SourcesCompleted: s.SourcesCompleted,
		SourcesTotal:     s.SourcesTotal,
		ElapsedSeconds:   time.Since(s.start).Seconds(),
	}
}

func signatureKey(st models.SourceType, sv string) string {
	return string(st) + "\x00" + sv
}
