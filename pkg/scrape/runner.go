package scrape

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"igdroid/pkg/bridge"
	"igdroid/pkg/config"
	errs "igdroid/pkg/errors"
	"igdroid/pkg/license"
	"igdroid/pkg/logger"
	"igdroid/pkg/pace"
)

// LicenseChecker gates a campaign run. The production implementation is
// *license.Manager.
type LicenseChecker interface {
	Validate() *license.Validation
}

// Runner executes a campaign end to end: license gate, persistence setup,
// app restart, then every source in strict order (targets, then hashtags,
// then post URLs). Run returns nil for clean completion and interruption
// alike; partial results are already persisted in both cases.
type Runner struct {
	cfg      *config.Config
	campaign *config.Campaign
	screens  Screens
	repo     Repository
	lic      LicenseChecker
	emitter  *bridge.Emitter
	logger   logger.Logger
}

// NewRunner wires a campaign runner.
func NewRunner(cfg *config.Config, campaign *config.Campaign, screens Screens, repo Repository, lic LicenseChecker, emitter *bridge.Emitter, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		cfg:      cfg,
		campaign: campaign,
		screens:  screens,
		repo:     repo,
		lic:      lic,
		emitter:  emitter,
		logger:   log,
	}
}

// Run executes the campaign. The returned error carries the failure class
// the bridge maps to an exit code; interruption and budget expiry are not
// failures.
func (r *Runner) Run(ctx context.Context) error {
	r.emitter.Status(bridge.StatusStarting, "campaign starting")

	validation := r.lic.Validate()
	if !validation.Valid {
		err := errs.Newf(errs.ErrorTypeLicense, "scrape.Run", "license invalid: %s", validation.Reason)
		r.emitter.Error(bridge.ExitLicense, err.Error())
		return err
	}
	r.logger.InfoWithFields("License validated", map[string]interface{}{
		"plan": validation.Plan,
	})

	// Failing to record the campaign or session is fatal: the desktop app
	// correlates every later event and row against these.
	if err := r.repo.CreateCampaign(r.campaign.ID, r.campaign.Name); err != nil {
		err = errs.Wrap(errs.ErrorTypeWorkflow, "scrape.Run", err)
		r.emitter.Error(bridge.ExitWorkflow, err.Error())
		return err
	}

	recent := LoadRecentSet(r.repo, r.campaign.Limits.RecentlyScrapedDays, r.campaign.Limits.RecentlyScrapedLimit, r.logger)
	session := NewSession(r.campaign.ID, r.campaign.Workflow, r.campaign.Limits.SessionDuration, r.campaign.Limits.MaxProfilesToEnrich, recent)
	session.SourcesTotal = r.campaign.Sources.Total()

	if err := r.repo.CreateScrapingSession(session.ID, r.campaign.ID, r.campaign.Workflow); err != nil {
		err = errs.Wrap(errs.ErrorTypeWorkflow, "scrape.Run", err)
		r.emitter.Error(bridge.ExitWorkflow, err.Error())
		return err
	}

	if r.cfg.App.RestartOnRun {
		if err := r.screens.RestartApp(ctx); err != nil {
			err = errs.Wrap(errs.ErrorTypeLaunch, "scrape.Run", err)
			r.emitter.Error(bridge.ExitLaunch, err.Error())
			r.endSession(session, "failed")
			return err
		}
	}

	sleeper := pace.NewSleeper(r.cfg.Pacing.MinDelay, r.cfg.Pacing.MaxDelay)
	proc := NewProcessor(r.screens, r.repo, session, r.emitter, sleeper, r.campaign, r.logger)

	r.emitter.Status(bridge.StatusRunning, "crawling sources")

	type sourceBatch struct {
		values  []string
		process func(context.Context, string) error
	}
	batches := []sourceBatch{
		{r.campaign.Sources.Targets, proc.ProcessTarget},
		{r.campaign.Sources.Hashtags, proc.ProcessHashtag},
		{r.campaign.Sources.PostURLs, proc.ProcessPostURL},
	}

	interrupted := false
	expired := false
loop:
	for _, batch := range batches {
		for _, value := range batch.values {
			if ctx.Err() != nil {
				interrupted = true
				break loop
			}
			err := r.runSource(ctx, batch.process, value)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				interrupted = true
				break loop
			case errors.Is(err, ErrBudgetExpired):
				r.logger.InfoWithFields("Session budget expired", map[string]interface{}{
					"source": value,
				})
				expired = true
				break loop
			default:
				r.logger.ErrorWithFields("Source failed", map[string]interface{}{
					"source": value,
					"error":  err.Error(),
				})
			}
			r.emitter.StatsSnapshot(session.Stats())
		}
	}

	switch {
	case interrupted:
		r.endSession(session, "interrupted")
		r.updateCampaign("interrupted")
		r.emitter.StatsSnapshot(session.Stats())
		r.emitter.Status(bridge.StatusInterrupted, "shutdown signal received")
		r.logger.Info("Campaign interrupted, progress saved")
	case expired:
		r.endSession(session, "completed")
		r.updateCampaign("completed")
		r.emitter.StatsSnapshot(session.Stats())
		r.emitter.Status(bridge.StatusCompleted, "session budget expired")
	default:
		r.endSession(session, "completed")
		r.updateCampaign("completed")
		r.emitter.StatsSnapshot(session.Stats())
		r.emitter.Status(bridge.StatusCompleted, "all sources processed")
	}
	return nil
}

// runSource isolates one source so a panic in UI handling cannot take down
// the rest of the campaign.
func (r *Runner) runSource(ctx context.Context, process func(context.Context, string) error, value string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorWithFields("Panic while processing source", map[string]interface{}{
				"source": value,
				"panic":  fmt.Sprint(rec),
				"stack":  string(debug.Stack()),
			})
			err = nil
		}
	}()
	return process(ctx, value)
}

func (r *Runner) endSession(session *Session, status string) {
	if err := r.repo.EndScrapingSession(session.ID, status); err != nil {
		r.logger.ErrorWithFields("Could not end session", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (r *Runner) updateCampaign(status string) {
	if err := r.repo.UpdateCampaignStatus(r.campaign.ID, status); err != nil {
		r.logger.ErrorWithFields("Could not update campaign status", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
