package scrape

import (
	"context"

	"igdroid/pkg/models"
)

// scrapeLikers paginates the open likers list and collects up to maxCount
// unique profiles. It returns early when the no-new-users streak hits its
// limit or the scroll-end detector ends the list. Collected profiles are
// returned even alongside an error so the caller can persist partial work.
func (p *Processor) scrapeLikers(ctx context.Context, prog *models.ProgressState, maxCount int) ([]*models.ScrapedProfile, error) {
	detector := NewScrollEndDetector(p.limits.RepeatsToEnd, p.screens, p.logger)
	seen := make(map[string]struct{})
	out := make([]*models.ScrapedProfile, 0, maxCount)
	noNewStreak := 0

	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if p.session.BudgetExpired() {
			return out, ErrBudgetExpired
		}

		page := normalizePage(p.screens.VisibleUsernames(ctx))
		if detector.NotifyNewPage(page) {
			noNewStreak = 0
		} else {
			noNewStreak++
		}

		for _, username := range page {
			if !models.ValidUsername(username) {
				continue
			}
			if _, dup := seen[username]; dup {
				continue
			}
			seen[username] = struct{}{}

			profile := &models.ScrapedProfile{
				Username:        username,
				SourceType:      prog.SourceType,
				SourceValue:     prog.SourceValue,
				InteractionType: models.InteractionLiker,
				CampaignID:      p.session.CampaignID,
			}
			p.maybeEnrich(ctx, profile)
			out = append(out, profile)
			if len(out) >= maxCount {
				return out, nil
			}
		}

		if noNewStreak >= p.limits.MaxNoNewUsers {
			p.logger.DebugWithFields("Likers list stalled", map[string]interface{}{
				"streak":    noNewStreak,
				"collected": len(out),
			})
			return out, nil
		}
		if detector.IsEnd() && !detector.ClickLoadMoreIfPresent(ctx) {
			return out, nil
		}

		if err := p.screens.ScrollList(ctx, detector.ShouldFastScroll()); err != nil {
			p.logger.WarnWithFields("Scroll failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		p.sleeper.Pause()
	}
}

// scrapeComments paginates the open comments view. Commenters are
// deduplicated by username; each new commenter also yields one comment row,
// with text and reply detection honoring the campaign options.
func (p *Processor) scrapeComments(ctx context.Context, prog *models.ProgressState, maxCount int) ([]*models.ScrapedProfile, []*models.Comment, error) {
	detector := NewScrollEndDetector(p.limits.RepeatsToEnd, p.screens, p.logger)
	seen := make(map[string]struct{})
	out := make([]*models.ScrapedProfile, 0, maxCount)
	var comments []*models.Comment
	noNewStreak := 0

	for {
		if err := ctx.Err(); err != nil {
			return out, comments, err
		}
		if p.session.BudgetExpired() {
			return out, comments, ErrBudgetExpired
		}

		rows := p.screens.VisibleComments(ctx)
		page := make([]string, 0, len(rows))
		for _, r := range rows {
			page = append(page, models.NormalizeUsername(r.Username))
		}
		if detector.NotifyNewPage(page) {
			noNewStreak = 0
		} else {
			noNewStreak++
		}

		for _, row := range rows {
			username := models.NormalizeUsername(row.Username)
			if !models.ValidUsername(username) {
				continue
			}
			if _, dup := seen[username]; dup {
				continue
			}
			seen[username] = struct{}{}

			profile := &models.ScrapedProfile{
				Username:        username,
				SourceType:      prog.SourceType,
				SourceValue:     prog.SourceValue,
				InteractionType: models.InteractionCommenter,
				CampaignID:      p.session.CampaignID,
			}
			p.maybeEnrich(ctx, profile)
			out = append(out, profile)

			comment := &models.Comment{
				Username:    username,
				SourceType:  prog.SourceType,
				SourceValue: prog.SourceValue,
				PostIndex:   prog.CurrentPost,
			}
			if p.opts.CaptureCommentText {
				comment.Text = row.Text
			}
			if p.opts.DetectReplies {
				comment.IsReply = row.IsReply
			}
			comments = append(comments, comment)

			if len(out) >= maxCount {
				return out, comments, nil
			}
		}

		if noNewStreak >= p.limits.MaxNoNewUsers {
			p.logger.DebugWithFields("Comments list stalled", map[string]interface{}{
				"streak":    noNewStreak,
				"collected": len(out),
			})
			return out, comments, nil
		}
		if detector.IsEnd() && !detector.ClickLoadMoreIfPresent(ctx) {
			return out, comments, nil
		}

		if err := p.screens.ScrollList(ctx, detector.ShouldFastScroll()); err != nil {
			p.logger.WarnWithFields("Scroll failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		p.sleeper.Pause()
	}
}

// maybeEnrich fills profile with detail fields when the budget and the
// campaign options allow it. Recently scraped usernames keep their entry
// in the output but are never re-enriched. A failed click-through leaves
// the profile bare and the scrape moves on.
func (p *Processor) maybeEnrich(ctx context.Context, profile *models.ScrapedProfile) {
	if p.session.Recent.Contains(profile.Username) {
		p.session.SkippedRecent++
		return
	}
	if p.opts.SkipEnrichment {
		return
	}
	if !p.session.ConsumeEnrichment() {
		return
	}
	full, err := p.screens.EnrichProfile(ctx, profile.Username)
	if err != nil {
		p.logger.WarnWithFields("Profile enrichment failed", map[string]interface{}{
			"username": profile.Username,
			"error":    err.Error(),
		})
		return
	}
	profile.ApplyEnrichment(full)
}

func normalizePage(usernames []string) []string {
	out := make([]string, 0, len(usernames))
	for _, u := range usernames {
		out = append(out, models.NormalizeUsername(u))
	}
	return out
}
