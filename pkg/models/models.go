package models

import (
	"strings"
	"time"
)

// SourceType identifies where a discovery source came from.
type SourceType string

const (
	SourceTarget  SourceType = "target"
	SourceHashtag SourceType = "hashtag"
	SourcePostURL SourceType = "post_url"
)

// Phase is the step the crawl is currently performing for a source.
type Phase string

const (
	PhaseProfile  Phase = "profile"
	PhaseLikers   Phase = "likers"
	PhaseComments Phase = "comments"
)

// Progress status values persisted to the database.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// InteractionType records how a scraped profile was discovered.
type InteractionType string

const (
	InteractionTarget    InteractionType = "target"
	InteractionLiker     InteractionType = "liker"
	InteractionCommenter InteractionType = "commenter"
)

// ProgressState is the resumable crawl position for one discovery source.
// It is persisted after every mutation so a process restart picks up at
// the exact (source, post, phase) tuple it left off.
type ProgressState struct {
	SourceType      SourceType     `json:"source_type"`
	SourceValue     string         `json:"source_value"`
	CampaignID      string         `json:"campaign_id"`
	CurrentPhase    Phase          `json:"current_phase"`
	CurrentPost     int            `json:"current_post"`
	TotalPosts      int            `json:"total_posts"`
	LikersScraped   int            `json:"likers_scraped"`
	LikersTotal     int            `json:"likers_total"`
	CommentsScraped int            `json:"comments_scraped"`
	CommentsTotal   int            `json:"comments_total"`
	ScrollPosition  map[string]any `json:"scroll_position,omitempty"`
	Status          string         `json:"status"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewProgressState creates the initial state for a source. Target sources
// start in the profile phase; hashtags and post URLs go straight to likers
// because there is no owner profile to scrape first.
func NewProgressState(campaignID string, sourceType SourceType, sourceValue string) *ProgressState {
	phase := PhaseLikers
	if sourceType == SourceTarget {
		phase = PhaseProfile
	}
	return &ProgressState{
		SourceType:   sourceType,
		SourceValue:  sourceValue,
		CampaignID:   campaignID,
		CurrentPhase: phase,
		CurrentPost:  0,
		Status:       StatusInProgress,
	}
}

// Completed reports whether this source has finished all of its posts.
func (p *ProgressState) Completed() bool {
	return p.Status == StatusCompleted
}

// BeginLikers moves the state into the likers phase of the current post.
func (p *ProgressState) BeginLikers() {
	p.CurrentPhase = PhaseLikers
	p.LikersScraped = 0
	p.LikersTotal = 0
}

// BeginComments moves the state into the comments phase of the current post.
func (p *ProgressState) BeginComments() {
	p.CurrentPhase = PhaseComments
	p.CommentsScraped = 0
	p.CommentsTotal = 0
}

// AdvancePost finishes the current post. When fewer than maxPosts have been
// processed it resets the per-post counters and re-enters the likers phase
// for the next post; otherwise it marks the source completed. Returns true
// once the source is complete.
func (p *ProgressState) AdvancePost(maxPosts int) bool {
	p.CurrentPost++
	if p.CurrentPost >= maxPosts {
		p.Status = StatusCompleted
		return true
	}
	p.BeginLikers()
	p.CommentsScraped = 0
	p.CommentsTotal = 0
	return false
}

// ScrapedProfile is one discovered account, with optional enrichment fields
// filled in when the scraper visited the profile page.
type ScrapedProfile struct {
	ID              int64           `json:"id,omitempty"`
	Username        string          `json:"username"`
	FullName        string          `json:"full_name,omitempty"`
	Biography       string          `json:"biography,omitempty"`
	Website         string          `json:"website,omitempty"`
	Followers       int             `json:"followers"`
	Following       int             `json:"following"`
	Posts           int             `json:"posts"`
	IsPrivate       bool            `json:"is_private"`
	IsVerified      bool            `json:"is_verified"`
	IsBusiness      bool            `json:"is_business"`
	Category        string          `json:"category,omitempty"`
	ThreadsHandle   string          `json:"threads_handle,omitempty"`
	Enriched        bool            `json:"enriched"`
	SourceType      SourceType      `json:"source_type"`
	SourceValue     string          `json:"source_value"`
	InteractionType InteractionType `json:"interaction_type"`
	CampaignID      string          `json:"campaign_id"`
	ScrapedAt       time.Time       `json:"scraped_at,omitempty"`
}

// ApplyEnrichment copies the detail fields read from a full profile view
// onto p and marks it enriched. Attribution fields are left untouched.
func (p *ScrapedProfile) ApplyEnrichment(full *ScrapedProfile) {
	if full == nil {
		return
	}
	p.FullName = full.FullName
	p.Biography = full.Biography
	p.Website = full.Website
	p.Followers = full.Followers
	p.Following = full.Following
	p.Posts = full.Posts
	p.IsPrivate = full.IsPrivate
	p.IsVerified = full.IsVerified
	p.IsBusiness = full.IsBusiness
	p.Category = full.Category
	p.ThreadsHandle = full.ThreadsHandle
	p.Enriched = true
}

// Comment is a single scraped comment row.
type Comment struct {
	Username    string     `json:"username"`
	Text        string     `json:"text,omitempty"`
	IsReply     bool       `json:"is_reply"`
	SourceType  SourceType `json:"source_type"`
	SourceValue string     `json:"source_value"`
	PostIndex   int        `json:"post_index"`
}

// NormalizeUsername lowercases a handle and strips the surrounding noise
// the UI layer tends to include (leading @, whitespace, trailing dots from
// truncated rows).
func NormalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	s = strings.TrimRight(s, ".…")
	return strings.ToLower(s)
}

// ValidUsername reports whether s looks like a plausible Instagram handle
// after normalization. Rows such as section headers or "Follow" buttons
// sometimes leak through hierarchy dumps; this filters them out.
func ValidUsername(s string) bool {
	if s == "" || len(s) > 30 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_':
		default:
			return false
		}
	}
	return true
}
