package scrape

import (
	"context"

	"igdroid/pkg/bridge"
	"igdroid/pkg/config"
	errs "igdroid/pkg/errors"
	"igdroid/pkg/logger"
	"igdroid/pkg/models"
	"igdroid/pkg/pace"
)

// Processor drives one source at a time through the crawl state machine:
// open the source, walk its posts, and for each post run the likers and
// comments phases. UI failures skip the affected unit and the crawl keeps
// going; only cancellation and budget expiry propagate as errors.
type Processor struct {
	screens Screens
	repo    Repository
	session *Session
	emitter *bridge.Emitter
	sleeper *pace.Sleeper
	limits  config.LimitsConfig
	opts    config.Options
	logger  logger.Logger
}

// NewProcessor wires a processor for one campaign run.
func NewProcessor(screens Screens, repo Repository, session *Session, emitter *bridge.Emitter, sleeper *pace.Sleeper, campaign *config.Campaign, log logger.Logger) *Processor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Processor{
		screens: screens,
		repo:    repo,
		session: session,
		emitter: emitter,
		sleeper: sleeper,
		limits:  campaign.Limits,
		opts:    campaign.Options,
		logger:  log,
	}
}

// ProcessTarget crawls one target account: its own profile first, then the
// likers and commenters of its recent posts.
func (p *Processor) ProcessTarget(ctx context.Context, username string) error {
	return p.processSource(ctx, models.SourceTarget, username)
}

// ProcessHashtag crawls the recent posts of one hashtag.
func (p *Processor) ProcessHashtag(ctx context.Context, tag string) error {
	return p.processSource(ctx, models.SourceHashtag, tag)
}

// ProcessPostURL crawls the likers and commenters of a single post.
func (p *Processor) ProcessPostURL(ctx context.Context, url string) error {
	return p.processSource(ctx, models.SourcePostURL, url)
}

func (p *Processor) processSource(ctx context.Context, st models.SourceType, sv string) error {
	p.emitter.SourceStarted(string(st), sv)
	log := p.logger.WithFields(map[string]interface{}{
		"source_type":  string(st),
		"source_value": sv,
	})

	prog, err := p.repo.GetProgress(st, sv)
	if err != nil {
		log.ErrorWithFields("Could not load progress", map[string]interface{}{
			"error": err.Error(),
		})
		prog = nil
	}
	if prog == nil {
		prog = models.NewProgressState(p.session.CampaignID, st, sv)
	} else {
		if prog.Completed() {
			log.Info("Source already completed, skipping")
			p.emitter.SourceCompleted(string(st), sv, 0, "already_completed")
			return nil
		}
		prog.CampaignID = p.session.CampaignID
		log.InfoWithFields("Resuming source", map[string]interface{}{
			"post":  prog.CurrentPost,
			"phase": string(prog.CurrentPhase),
		})
	}

	if err := p.openSource(ctx, st, sv); err != nil {
		log.WarnWithFields("Could not open source", map[string]interface{}{
			"error": err.Error(),
		})
		p.emitter.SourceCompleted(string(st), sv, 0, "open_failed")
		return nil
	}
	p.sleeper.Settle()

	profiles := 0
	if prog.CurrentPhase == models.PhaseProfile {
		profiles += p.scrapeSourceProfile(ctx, prog, log)
		prog.BeginLikers()
		p.persistProgress(prog, log)
	}

	// A post URL is the post itself; targets and hashtags open a grid
	// and enter its first tile.
	if st == models.SourcePostURL {
		prog.TotalPosts = 1
	} else {
		prog.TotalPosts = p.limits.MaxPostsPerSource
		if err := p.screens.OpenFirstPost(ctx); err != nil {
			log.WarnWithFields("Could not open first post", map[string]interface{}{
				"error": err.Error(),
			})
			p.emitter.SourceCompleted(string(st), sv, 0, "open_failed")
			return nil
		}
		p.sleeper.Settle()

		// Skip past posts finished in a previous run.
		for i := 0; i < prog.CurrentPost; i++ {
			if err := p.screens.NextPost(ctx); err != nil {
				log.WarnWithFields("Could not skip to resume point", map[string]interface{}{
					"post":  i,
					"error": err.Error(),
				})
				break
			}
			p.sleeper.Pause()
		}
	}

	duplicates := 0
	for {
		if err := ctx.Err(); err != nil {
			p.persistProgress(prog, log)
			return err
		}
		if p.session.BudgetExpired() {
			p.persistProgress(prog, log)
			return ErrBudgetExpired
		}

		sig, ok := p.screens.PostSignature(ctx)
		if ok && p.session.SeenSignature(st, sv, sig) {
			duplicates++
			log.DebugWithFields("Duplicate post signature", map[string]interface{}{
				"likes":      sig.Likes,
				"comments":   sig.Comments,
				"duplicates": duplicates,
			})
			if duplicates >= p.limits.MaxDuplicatePosts {
				log.WarnWithFields("Post navigation stuck, abandoning source", map[string]interface{}{
					"duplicates": duplicates,
					"post":       prog.CurrentPost,
				})
				p.persistProgress(prog, log)
				p.emitter.SourceCompleted(string(st), sv, profiles, "stuck")
				return nil
			}
			if err := p.screens.NextPost(ctx); err != nil {
				log.WarnWithFields("Could not advance past duplicate", map[string]interface{}{
					"error": err.Error(),
				})
			}
			p.sleeper.Pause()
			continue
		}
		duplicates = 0
		if ok {
			p.session.RecordSignature(st, sv, sig)
		}

		n, err := p.runLikersPhase(ctx, prog, log)
		profiles += n
		if err != nil {
			p.persistProgress(prog, log)
			return err
		}

		n, err = p.runCommentsPhase(ctx, prog, log)
		profiles += n
		if err != nil {
			p.persistProgress(prog, log)
			return err
		}
		p.session.PostsProcessed++

		done := prog.AdvancePost(prog.TotalPosts)
		p.persistProgress(prog, log)
		if done {
			break
		}
		if err := p.screens.NextPost(ctx); err != nil {
			log.WarnWithFields("Could not advance to next post", map[string]interface{}{
				"error": err.Error(),
			})
		}
		p.sleeper.Pause()
	}

	p.session.SourcesCompleted++
	p.emitter.SourceCompleted(string(st), sv, profiles, "completed")
	log.InfoWithFields("Source completed", map[string]interface{}{
		"profiles": profiles,
	})
	return nil
}

func (p *Processor) openSource(ctx context.Context, st models.SourceType, sv string) error {
	switch st {
	case models.SourceTarget:
		return p.screens.OpenTarget(ctx, sv)
	case models.SourceHashtag:
		return p.screens.OpenHashtag(ctx, sv)
	case models.SourcePostURL:
		return p.screens.OpenPostURL(ctx, sv)
	default:
		return errs.Newf(errs.ErrorTypeValidation, "scrape.openSource", "unknown source type %q", st)
	}
}

// scrapeSourceProfile records the target account's own profile. Failures
// are non-fatal; the crawl continues to the likers phase either way.
func (p *Processor) scrapeSourceProfile(ctx context.Context, prog *models.ProgressState, log logger.Logger) int {
	profile, err := p.screens.ReadSourceProfile(ctx, prog.SourceValue)
	if err != nil {
		log.WarnWithFields("Could not read source profile", map[string]interface{}{
			"error": err.Error(),
		})
		return 0
	}
	if profile.Username == "" {
		profile.Username = models.NormalizeUsername(prog.SourceValue)
	}
	profile.SourceType = prog.SourceType
	profile.SourceValue = prog.SourceValue
	profile.InteractionType = models.InteractionTarget
	profile.CampaignID = p.session.CampaignID
	profile.Enriched = true
	return p.storeProfiles([]*models.ScrapedProfile{profile}, log)
}

// runLikersPhase scrapes the likers of the current post and moves the
// state into the comments phase. When the likers popup cannot be opened
// the phase is skipped rather than failed.
func (p *Processor) runLikersPhase(ctx context.Context, prog *models.ProgressState, log logger.Logger) (int, error) {
	if prog.CurrentPhase != models.PhaseLikers {
		return 0, nil
	}
	if err := p.screens.OpenLikers(ctx); err != nil {
		log.WarnWithFields("Could not open likers", map[string]interface{}{
			"post":  prog.CurrentPost,
			"error": err.Error(),
		})
		prog.BeginComments()
		p.persistProgress(prog, log)
		return 0, nil
	}
	p.sleeper.Settle()

	found, scrapeErr := p.scrapeLikers(ctx, prog, p.limits.MaxLikersPerPost)
	if err := p.screens.CloseList(ctx); err != nil {
		log.WarnWithFields("Could not close likers list", map[string]interface{}{
			"error": err.Error(),
		})
	}

	stored := p.storeProfiles(found, log)
	prog.LikersScraped += len(found)
	prog.LikersTotal = p.limits.MaxLikersPerPost
	if scrapeErr != nil {
		p.persistProgress(prog, log)
		return stored, scrapeErr
	}

	prog.BeginComments()
	p.persistProgress(prog, log)
	p.emitProgress(prog)
	return stored, nil
}

// runCommentsPhase scrapes the commenters of the current post. Advancing
// to the next post is the caller's job.
func (p *Processor) runCommentsPhase(ctx context.Context, prog *models.ProgressState, log logger.Logger) (int, error) {
	if prog.CurrentPhase != models.PhaseComments {
		return 0, nil
	}
	if err := p.screens.OpenComments(ctx); err != nil {
		log.WarnWithFields("Could not open comments", map[string]interface{}{
			"post":  prog.CurrentPost,
			"error": err.Error(),
		})
		return 0, nil
	}
	p.sleeper.Settle()

	found, comments, scrapeErr := p.scrapeComments(ctx, prog, p.limits.MaxCommentsPerPost)
	if err := p.screens.CloseList(ctx); err != nil {
		log.WarnWithFields("Could not close comments view", map[string]interface{}{
			"error": err.Error(),
		})
	}

	stored := p.storeProfiles(found, log)
	for _, c := range comments {
		if err := p.repo.SaveScrapedComment(p.session.ID, c); err != nil {
			log.ErrorWithFields("Could not save comment", map[string]interface{}{
				"username": c.Username,
				"error":    err.Error(),
			})
			continue
		}
		p.session.CommentsSaved++
	}

	prog.CommentsScraped += len(found)
	prog.CommentsTotal = p.limits.MaxCommentsPerPost
	p.persistProgress(prog, log)
	p.emitProgress(prog)
	return stored, scrapeErr
}

// storeProfiles saves a scrape batch. A failed save drops that one profile
// from the stored count and the run continues.
func (p *Processor) storeProfiles(profiles []*models.ScrapedProfile, log logger.Logger) int {
	stored := 0
	for _, profile := range profiles {
		id, err := p.repo.SaveScrapedProfile(profile)
		if err != nil {
			log.ErrorWithFields("Could not save profile", map[string]interface{}{
				"username": profile.Username,
				"error":    err.Error(),
			})
			continue
		}
		if err := p.repo.LinkProfileToSession(p.session.ID, id); err != nil {
			log.ErrorWithFields("Could not link profile to session", map[string]interface{}{
				"username": profile.Username,
				"error":    err.Error(),
			})
		}
		stored++
		p.session.ProfilesScraped++
		p.emitter.ProfileScraped(profile.Username, string(profile.InteractionType), profile.Enriched)
	}
	if stored > 0 {
		if err := p.repo.UpdateScrapingSessionCount(p.session.ID, p.session.ProfilesScraped); err != nil {
			log.ErrorWithFields("Could not update session count", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return stored
}

func (p *Processor) persistProgress(prog *models.ProgressState, log logger.Logger) {
	if err := p.repo.UpsertProgress(prog); err != nil {
		log.ErrorWithFields("Could not persist progress", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (p *Processor) emitProgress(prog *models.ProgressState) {
	p.emitter.Progress(bridge.ProgressUpdate{
		SourceType:      string(prog.SourceType),
		SourceValue:     prog.SourceValue,
		Phase:           string(prog.CurrentPhase),
		Post:            prog.CurrentPost,
		TotalPosts:      prog.TotalPosts,
		LikersScraped:   prog.LikersScraped,
		CommentsScraped: prog.CommentsScraped,
	})
}
