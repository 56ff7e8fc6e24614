package scrape

import (
	"context"

	"igdroid/pkg/models"
)

// CommentRow is one visible comment as read off the screen.
type CommentRow struct {
	Username string
	Text     string
	IsReply  bool
}

// Signature identifies a post by its engagement counts. Two consecutive
// posts with identical counts are almost certainly the same post rendered
// twice, which is how stuck navigation presents.
type Signature struct {
	Likes    int
	Comments int
}

// Screens is the UI facade the crawl drives. internal/screens implements it
// for the Instagram app; tests substitute fakes. Probe-style methods
// (VisibleUsernames, VisibleComments, PostSignature) swallow UI failures
// and report "nothing found" instead of erroring.
type Screens interface {
	// RestartApp force-stops and relaunches the app, then waits for the
	// home UI so the crawl starts from a known state.
	RestartApp(ctx context.Context) error

	// OpenTarget navigates to a profile page.
	OpenTarget(ctx context.Context, username string) error

	// OpenHashtag navigates to a hashtag's recent grid.
	OpenHashtag(ctx context.Context, tag string) error

	// OpenPostURL deep-links straight into a post.
	OpenPostURL(ctx context.Context, url string) error

	// ReadSourceProfile reads the header fields of the currently open
	// profile page.
	ReadSourceProfile(ctx context.Context, username string) (*models.ScrapedProfile, error)

	// OpenFirstPost opens the first tile of the currently open grid.
	OpenFirstPost(ctx context.Context) error

	// NextPost advances to the following post in the feed view.
	NextPost(ctx context.Context) error

	// PostSignature reads the like and comment counts of the current post.
	PostSignature(ctx context.Context) (Signature, bool)

	// OpenLikers opens the likers popup of the current post.
	OpenLikers(ctx context.Context) error

	// OpenComments opens the comments view of the current post.
	OpenComments(ctx context.Context) error

	// CloseList navigates back from a likers/comments list to the post.
	CloseList(ctx context.Context) error

	// VisibleUsernames lists the usernames currently visible in the open
	// list. Nil means the probe found nothing.
	VisibleUsernames(ctx context.Context) []string

	// VisibleComments lists the comment rows currently visible.
	VisibleComments(ctx context.Context) []CommentRow

	// ScrollList scrolls the open list down one step; fast requests a
	// longer swipe.
	ScrollList(ctx context.Context, fast bool) error

	// EnrichProfile opens a username's full profile from the current
	// list, reads its details and navigates back. On error the
	// implementation has already tried to return to the list.
	EnrichProfile(ctx context.Context, username string) (*models.ScrapedProfile, error)

	// HasLoadMore reports whether a load-more control is on screen.
	HasLoadMore(ctx context.Context) bool

	// ClickLoadMore clicks a load-more control if present.
	ClickLoadMore(ctx context.Context) bool
}

// Repository is the slice of the persistent store the crawl calls. It is
// satisfied by *store.Store; wiring happens in cmd.
type Repository interface {
	CreateCampaign(id, name string) error
	UpdateCampaignStatus(id, status string) error
	UpsertProgress(p *models.ProgressState) error
	GetProgress(sourceType models.SourceType, sourceValue string) (*models.ProgressState, error)
	RecentlyScrapedUsernames(days, limit int) ([]string, error)
	SaveScrapedProfile(p *models.ScrapedProfile) (int64, error)
	CreateScrapingSession(id, campaignID, workflow string) error
	UpdateScrapingSessionCount(id string, profilesScraped int) error
	EndScrapingSession(id, status string) error
	LinkProfileToSession(sessionID string, profileID int64) error
	SaveScrapedComment(sessionID string, c *models.Comment) error
}
