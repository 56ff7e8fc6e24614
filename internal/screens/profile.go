package screens

import (
	"context"
	"strconv"
	"strings"

	"igdroid/pkg/device"
	errs "igdroid/pkg/errors"
	"igdroid/pkg/models"
)

// ReadSourceProfile reads the header of the profile currently on screen.
// Missing fields stay zero; only a header with no count views at all is an
// error.
func (s *Instagram) ReadSourceProfile(ctx context.Context, username string) (*models.ScrapedProfile, error) {
	return s.readProfileHeader(ctx, username)
}

// EnrichProfile clicks the named row in the open engagement list, reads the
// full profile and navigates back to the list. The back press happens even
// when the read fails, so the caller can keep paginating either way.
func (s *Instagram) EnrichProfile(ctx context.Context, username string) (*models.ScrapedProfile, error) {
	row, ok := s.findUserRow(ctx, username)
	if !ok {
		return nil, errs.Newf(errs.ErrorTypeProbe, "screens.EnrichProfile", "row for %s not on screen", username)
	}
	if err := row.Click(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "screens.EnrichProfile", err)
	}
	if _, ok := s.driver.WaitFor(ctx, navTimeout, profileMarkers...); !ok {
		s.back(ctx)
		return nil, errs.Newf(errs.ErrorTypeNavigation, "screens.EnrichProfile", "profile %s did not open", username)
	}

	profile, err := s.readProfileHeader(ctx, username)
	s.back(ctx)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Instagram) findUserRow(ctx context.Context, username string) (device.Element, bool) {
	els, err := s.driver.All(ctx, userRow)
	if err != nil {
		return nil, false
	}
	want := models.NormalizeUsername(username)
	for _, el := range els {
		if models.NormalizeUsername(el.Text()) == want {
			return el, true
		}
	}
	return nil, false
}

func (s *Instagram) back(ctx context.Context) {
	if err := s.driver.Back(ctx); err != nil {
		s.logger.WarnWithFields("Back press failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Instagram) readProfileHeader(ctx context.Context, username string) (*models.ScrapedProfile, error) {
	profile := &models.ScrapedProfile{
		Username: models.NormalizeUsername(username),
		Enriched: true,
	}

	sawCounts := false
	if el, ok := s.driver.FindFirst(ctx, followersField...); ok {
		profile.Followers = parseCount(elementLabel(el))
		sawCounts = true
	}
	if el, ok := s.driver.FindFirst(ctx, followingField...); ok {
		profile.Following = parseCount(elementLabel(el))
		sawCounts = true
	}
	if el, ok := s.driver.FindFirst(ctx, postCountField...); ok {
		profile.Posts = parseCount(elementLabel(el))
		sawCounts = true
	}
	if !sawCounts {
		return nil, errs.Newf(errs.ErrorTypeProbe, "screens.readProfileHeader", "no header counts for %s", username)
	}

	if el, ok := s.driver.FindFirst(ctx, fullNameField...); ok {
		profile.FullName = strings.TrimSpace(el.Text())
	}
	if el, ok := s.driver.FindFirst(ctx, bioField...); ok {
		profile.Biography = strings.TrimSpace(el.Text())
	}
	if el, ok := s.driver.FindFirst(ctx, websiteField...); ok {
		profile.Website = strings.TrimSpace(el.Text())
	}
	if el, ok := s.driver.FindFirst(ctx, categoryField...); ok {
		profile.Category = strings.TrimSpace(el.Text())
		profile.IsBusiness = profile.Category != ""
	}
	if el, ok := s.driver.FindFirst(ctx, threadsBadge...); ok {
		profile.ThreadsHandle = models.NormalizeUsername(el.Text())
	}
	profile.IsVerified = s.driver.Exists(ctx, verifiedBadge...)
	profile.IsPrivate = s.driver.Exists(ctx, privateNotice...)

	return profile, nil
}

// parseCount reads an abbreviated Instagram count such as "1,234", "12.5K"
// or "2M". Abbreviated values lose precision on the screen itself, so the
// rounded expansion is as good as it gets.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	// Counts sometimes arrive with their label, e.g. "1,234 followers".
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, ",", "")

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "B"), strings.HasSuffix(s, "b"):
		multiplier = 1_000_000_000
		s = s[:len(s)-1]
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(value * multiplier)
}

// lastNumber extracts the last integer in a label. Like rows read either
// "123 likes" or "Liked by ana and 122 others"; in both the trailing number
// is the one that varies with the post.
func lastNumber(s string) int {
	last := 0
	current := 0
	inNumber := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			current = current*10 + int(r-'0')
			inNumber = true
		case r == ',' && inNumber:
			// grouping separator inside a number
		default:
			if inNumber {
				last = current
			}
			current = 0
			inNumber = false
		}
	}
	if inNumber {
		last = current
	}
	return last
}
