package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Campaign is the work order the desktop app hands to the engine. It names
// the discovery sources to crawl and the limits that bound the crawl.
type Campaign struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Workflow string       `json:"workflow"`
	Sources  Sources      `json:"sources"`
	Limits   LimitsConfig `json:"limits"`
	Options  Options      `json:"options"`
}

// Sources lists the three kinds of discovery sources a campaign can have.
type Sources struct {
	Targets  []string `json:"targets"`
	Hashtags []string `json:"hashtags"`
	PostURLs []string `json:"post_urls"`
}

// Options toggles optional scraping behavior.
type Options struct {
	SkipEnrichment     bool `json:"skip_enrichment"`
	CaptureCommentText bool `json:"capture_comment_text"`
	DetectReplies      bool `json:"detect_replies"`
	DryRun             bool `json:"dry_run"`
}

// Total returns the number of sources in the campaign.
func (s Sources) Total() int {
	return len(s.Targets) + len(s.Hashtags) + len(s.PostURLs)
}

// LoadCampaign reads a campaign document. The argument may be a file path,
// an inline JSON object, or "-" to read from stdin.
func LoadCampaign(arg string, stdin io.Reader) (*Campaign, error) {
	var data []byte
	var err error

	trimmed := strings.TrimSpace(arg)
	switch {
	case trimmed == "-":
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read campaign from stdin: %w", err)
		}
	case strings.HasPrefix(trimmed, "{"):
		data = []byte(trimmed)
	default:
		data, err = os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read campaign file: %w", err)
		}
	}

	var c Campaign
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse campaign document: %w", err)
	}
	return &c, nil
}

// ApplyDefaults fills in missing campaign fields: a generated ID, the
// discovery workflow, and any limit left at zero inherits from the engine
// limits.
func (c *Campaign) ApplyDefaults(engine LimitsConfig) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Name == "" {
		c.Name = "campaign-" + c.ID[:8]
	}
	if c.Workflow == "" {
		c.Workflow = "discovery"
	}

	l := &c.Limits
	if l.MaxPostsPerSource == 0 {
		l.MaxPostsPerSource = engine.MaxPostsPerSource
	}
	if l.MaxLikersPerPost == 0 {
		l.MaxLikersPerPost = engine.MaxLikersPerPost
	}
	if l.MaxCommentsPerPost == 0 {
		l.MaxCommentsPerPost = engine.MaxCommentsPerPost
	}
	if l.MaxProfilesToEnrich == 0 {
		l.MaxProfilesToEnrich = engine.MaxProfilesToEnrich
	}
	if l.MaxNoNewUsers == 0 {
		l.MaxNoNewUsers = engine.MaxNoNewUsers
	}
	if l.MaxDuplicatePosts == 0 {
		l.MaxDuplicatePosts = engine.MaxDuplicatePosts
	}
	if l.RepeatsToEnd == 0 {
		l.RepeatsToEnd = engine.RepeatsToEnd
	}
	if l.SessionDuration == 0 {
		l.SessionDuration = engine.SessionDuration
	}
	if l.RecentlyScrapedDays == 0 {
		l.RecentlyScrapedDays = engine.RecentlyScrapedDays
	}
	if l.RecentlyScrapedLimit == 0 {
		l.RecentlyScrapedLimit = engine.RecentlyScrapedLimit
	}
}

// Normalize cleans up source values in place: hashtags lose their leading
// '#', targets their leading '@', and both are lowercased. Post URLs are
// left as given.
func (c *Campaign) Normalize() {
	for i, t := range c.Sources.Targets {
		c.Sources.Targets[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "@"))
	}
	for i, h := range c.Sources.Hashtags {
		c.Sources.Hashtags[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "#"))
	}
	for i, u := range c.Sources.PostURLs {
		c.Sources.PostURLs[i] = strings.TrimSpace(u)
	}
}

// Validate checks the campaign document for problems that should stop the
// run before any device work happens.
func (c *Campaign) Validate() error {
	var errs []error

	if c.Workflow != "discovery" {
		errs = append(errs, fmt.Errorf("unsupported workflow %q", c.Workflow))
	}
	if c.Sources.Total() == 0 {
		errs = append(errs, errors.New("campaign has no sources"))
	}

	for _, t := range c.Sources.Targets {
		if t == "" {
			errs = append(errs, errors.New("empty target username"))
		}
	}
	for _, h := range c.Sources.Hashtags {
		if h == "" {
			errs = append(errs, errors.New("empty hashtag"))
		}
		if strings.ContainsAny(h, " \t") {
			errs = append(errs, fmt.Errorf("hashtag %q contains whitespace", h))
		}
	}
	for _, raw := range c.Sources.PostURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("invalid post URL %q", raw))
			continue
		}
		if !strings.Contains(u.Host, "instagram.com") {
			errs = append(errs, fmt.Errorf("post URL %q is not an instagram.com link", raw))
			continue
		}
		if !strings.Contains(u.Path, "/p/") && !strings.Contains(u.Path, "/reel/") {
			errs = append(errs, fmt.Errorf("post URL %q does not point at a post", raw))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
