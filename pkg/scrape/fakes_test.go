package scrape

import (
	"bytes"
	"context"
	"fmt"

	"igdroid/pkg/bridge"
	"igdroid/pkg/config"
	"igdroid/pkg/logger"
	"igdroid/pkg/models"
	"igdroid/pkg/pace"
)

// fakeRepo is an in-memory Repository that records every call.
type fakeRepo struct {
	recent    []string
	recentErr error

	progress    map[string]*models.ProgressState
	progressErr error

	upserts   []models.ProgressState
	upsertErr error

	profiles      []models.ScrapedProfile
	nextProfileID int64
	failUsernames map[string]bool

	comments   []models.Comment
	commentErr error

	campaignID     string
	campaignName   string
	campaignErr    error
	campaignStatus string

	sessionID       string
	sessionWorkflow string
	sessionErr      error
	sessionCounts   []int
	sessionStatus   string

	links []int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{progress: make(map[string]*models.ProgressState)}
}

func (r *fakeRepo) CreateCampaign(id, name string) error {
	if r.campaignErr != nil {
		return r.campaignErr
	}
	r.campaignID, r.campaignName = id, name
	return nil
}

func (r *fakeRepo) UpdateCampaignStatus(id, status string) error {
	r.campaignStatus = status
	return nil
}

func (r *fakeRepo) UpsertProgress(p *models.ProgressState) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts = append(r.upserts, *p)
	return nil
}

func (r *fakeRepo) GetProgress(st models.SourceType, sv string) (*models.ProgressState, error) {
	if r.progressErr != nil {
		return nil, r.progressErr
	}
	p, ok := r.progress[progKey(st, sv)]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (r *fakeRepo) RecentlyScrapedUsernames(days, limit int) ([]string, error) {
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	return r.recent, nil
}

func (r *fakeRepo) SaveScrapedProfile(p *models.ScrapedProfile) (int64, error) {
	if r.failUsernames[p.Username] {
		return 0, fmt.Errorf("save failed for %s", p.Username)
	}
	r.nextProfileID++
	p.ID = r.nextProfileID
	r.profiles = append(r.profiles, *p)
	return r.nextProfileID, nil
}

func (r *fakeRepo) CreateScrapingSession(id, campaignID, workflow string) error {
	if r.sessionErr != nil {
		return r.sessionErr
	}
	r.sessionID = id
	r.sessionWorkflow = workflow
	return nil
}

func (r *fakeRepo) UpdateScrapingSessionCount(id string, profilesScraped int) error {
	r.sessionCounts = append(r.sessionCounts, profilesScraped)
	return nil
}

func (r *fakeRepo) EndScrapingSession(id, status string) error {
	r.sessionStatus = status
	return nil
}

func (r *fakeRepo) LinkProfileToSession(sessionID string, profileID int64) error {
	r.links = append(r.links, profileID)
	return nil
}

func (r *fakeRepo) SaveScrapedComment(sessionID string, c *models.Comment) error {
	if r.commentErr != nil {
		return r.commentErr
	}
	r.comments = append(r.comments, *c)
	return nil
}

func (r *fakeRepo) seedProgress(p *models.ProgressState) {
	r.progress[progKey(p.SourceType, p.SourceValue)] = p
}

func (r *fakeRepo) savedUsernames() []string {
	out := make([]string, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Username)
	}
	return out
}

func (r *fakeRepo) lastUpsert() models.ProgressState {
	return r.upserts[len(r.upserts)-1]
}

func progKey(st models.SourceType, sv string) string {
	return string(st) + "|" + sv
}

// fakeScreens scripts the UI facade. Paged reads serve their script one
// page per call and repeat the last page once exhausted, which is how a
// real stalled list presents.
type fakeScreens struct {
	likerPages   [][]string
	commentPages [][]CommentRow
	signatures   []Signature

	enrich           func(username string) (*models.ScrapedProfile, error)
	sourceProfile    *models.ScrapedProfile
	sourceProfileErr error

	restartErr      error
	openTargetErr   error
	openHashtagErr  error
	openPostURLErr  error
	openFirstErr    error
	nextPostErr     error
	openLikersErr   error
	openCommentsErr error
	scrollErr       error
	loadMore        bool
	panicOnOpen     string

	restarts       int
	opens          int
	openLog        []string
	profileReads   int
	firstPosts     int
	nextPosts      int
	sigCalls       int
	likerCalls     int
	commentCalls   int
	scrolls        int
	closes         int
	enrichCalls    int
	loadMoreClicks int
}

func (s *fakeScreens) RestartApp(ctx context.Context) error {
	s.restarts++
	return s.restartErr
}

func (s *fakeScreens) OpenTarget(ctx context.Context, username string) error {
	if s.panicOnOpen != "" && username == s.panicOnOpen {
		panic("selector cache corrupted")
	}
	s.opens++
	s.openLog = append(s.openLog, "target:"+username)
	return s.openTargetErr
}

func (s *fakeScreens) OpenHashtag(ctx context.Context, tag string) error {
	s.opens++
	s.openLog = append(s.openLog, "hashtag:"+tag)
	return s.openHashtagErr
}

func (s *fakeScreens) OpenPostURL(ctx context.Context, url string) error {
	s.opens++
	s.openLog = append(s.openLog, "post_url:"+url)
	return s.openPostURLErr
}

func (s *fakeScreens) ReadSourceProfile(ctx context.Context, username string) (*models.ScrapedProfile, error) {
	s.profileReads++
	if s.sourceProfileErr != nil {
		return nil, s.sourceProfileErr
	}
	if s.sourceProfile != nil {
		clone := *s.sourceProfile
		return &clone, nil
	}
	return &models.ScrapedProfile{
		Username:  username,
		FullName:  "Full " + username,
		Followers: 5000,
		Following: 150,
		Posts:     42,
	}, nil
}

func (s *fakeScreens) OpenFirstPost(ctx context.Context) error {
	s.firstPosts++
	return s.openFirstErr
}

func (s *fakeScreens) NextPost(ctx context.Context) error {
	s.nextPosts++
	return s.nextPostErr
}

func (s *fakeScreens) PostSignature(ctx context.Context) (Signature, bool) {
	s.sigCalls++
	if len(s.signatures) == 0 {
		return Signature{Likes: 100 + s.sigCalls, Comments: s.sigCalls}, true
	}
	idx := s.sigCalls - 1
	if idx >= len(s.signatures) {
		idx = len(s.signatures) - 1
	}
	return s.signatures[idx], true
}

func (s *fakeScreens) OpenLikers(ctx context.Context) error {
	return s.openLikersErr
}

func (s *fakeScreens) OpenComments(ctx context.Context) error {
	return s.openCommentsErr
}

func (s *fakeScreens) CloseList(ctx context.Context) error {
	s.closes++
	return nil
}

func (s *fakeScreens) VisibleUsernames(ctx context.Context) []string {
	page := pageAt(s.likerPages, s.likerCalls)
	s.likerCalls++
	return page
}

func (s *fakeScreens) VisibleComments(ctx context.Context) []CommentRow {
	page := pageAt(s.commentPages, s.commentCalls)
	s.commentCalls++
	return page
}

func (s *fakeScreens) ScrollList(ctx context.Context, fast bool) error {
	s.scrolls++
	return s.scrollErr
}

func (s *fakeScreens) EnrichProfile(ctx context.Context, username string) (*models.ScrapedProfile, error) {
	s.enrichCalls++
	if s.enrich != nil {
		return s.enrich(username)
	}
	return &models.ScrapedProfile{
		Username:  username,
		FullName:  "Full " + username,
		Biography: "bio of " + username,
		Followers: 1234,
		Following: 321,
		Posts:     88,
	}, nil
}

func (s *fakeScreens) HasLoadMore(ctx context.Context) bool {
	return s.loadMore
}

func (s *fakeScreens) ClickLoadMore(ctx context.Context) bool {
	if s.loadMore {
		s.loadMoreClicks++
	}
	return s.loadMore
}

func pageAt[T any](pages []T, call int) T {
	var zero T
	if len(pages) == 0 {
		return zero
	}
	if call >= len(pages) {
		return pages[len(pages)-1]
	}
	return pages[call]
}

func testCampaign() *config.Campaign {
	return &config.Campaign{
		ID:       "camp-1",
		Name:     "test campaign",
		Workflow: "discovery",
		Limits: config.LimitsConfig{
			MaxPostsPerSource:    2,
			MaxLikersPerPost:     10,
			MaxCommentsPerPost:   10,
			MaxProfilesToEnrich:  100,
			MaxNoNewUsers:        2,
			MaxDuplicatePosts:    3,
			RepeatsToEnd:         3,
			RecentlyScrapedDays:  30,
			RecentlyScrapedLimit: 100,
		},
	}
}

func newTestProcessor(campaign *config.Campaign, screens *fakeScreens, repo *fakeRepo, recent *RecentSet) (*Processor, *Session, *bytes.Buffer) {
	session := NewSession(campaign.ID, campaign.Workflow, campaign.Limits.SessionDuration, campaign.Limits.MaxProfilesToEnrich, recent)
	session.SourcesTotal = campaign.Sources.Total()
	out := &bytes.Buffer{}
	emitter := bridge.NewEmitter(out, campaign.ID)
	sleeper := pace.NewSleeper(0, 0)
	proc := NewProcessor(screens, repo, session, emitter, sleeper, campaign, logger.NewNopLogger())
	return proc, session, out
}
