// Package screens maps the crawl's intents onto the Instagram app UI. It
// owns every selector and every navigation gesture so that the scrape
// package never sees a resource id.
package screens

import (
	"context"
	"net/url"
	"strings"
	"time"

	"igdroid/pkg/device"
	errs "igdroid/pkg/errors"
	"igdroid/pkg/logger"
	"igdroid/pkg/models"
	"igdroid/pkg/scrape"
)

const (
	launchTimeout = 25 * time.Second
	navTimeout    = 12 * time.Second
	listTimeout   = 8 * time.Second
)

// Driver is the slice of the device driver the screens need. *device.Driver
// satisfies it.
type Driver interface {
	FindFirst(ctx context.Context, sels ...device.Selector) (device.Element, bool)
	Exists(ctx context.Context, sels ...device.Selector) bool
	All(ctx context.Context, sel device.Selector) ([]device.Element, error)
	WaitFor(ctx context.Context, timeout time.Duration, sels ...device.Selector) (device.Element, bool)
	Swipe(ctx context.Context, from, to device.Point, steps int) error
	Back(ctx context.Context) error
	OpenURL(ctx context.Context, u string) error
	AppRestart(ctx context.Context, pkg string) error
	ScreenSize() (width, height int)
}

// Instagram drives the official Instagram Android app.
type Instagram struct {
	driver Driver
	appPkg string
	logger logger.Logger
}

var _ scrape.Screens = (*Instagram)(nil)

func New(driver Driver, appPkg string, log logger.Logger) *Instagram {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Instagram{driver: driver, appPkg: appPkg, logger: log}
}

// RestartApp force-stops and relaunches Instagram, then waits for the home
// tab bar. A relaunch that never reaches home is a launch failure, not a
// navigation one.
func (s *Instagram) RestartApp(ctx context.Context) error {
	if err := s.driver.AppRestart(ctx, s.appPkg); err != nil {
		return errs.Wrap(errs.ErrorTypeLaunch, "screens.RestartApp", err)
	}
	if _, ok := s.driver.WaitFor(ctx, launchTimeout, homeMarkers...); !ok {
		return errs.New(errs.ErrorTypeLaunch, "screens.RestartApp", "app did not reach the home screen")
	}
	return nil
}

// OpenTarget deep-links to a profile. Deep links skip the search flow
// entirely, which removes the flakiest typing interactions from the crawl.
func (s *Instagram) OpenTarget(ctx context.Context, username string) error {
	link := "instagram://user?username=" + url.QueryEscape(username)
	if err := s.driver.OpenURL(ctx, link); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "screens.OpenTarget", err)
	}
	if _, ok := s.driver.WaitFor(ctx, navTimeout, profileMarkers...); !ok {
		return errs.Newf(errs.ErrorTypeNavigation, "screens.OpenTarget", "profile %s did not load", username)
	}
	return nil
}

func (s *Instagram) OpenHashtag(ctx context.Context, tag string) error {
	link := "instagram://tag?name=" + url.QueryEscape(tag)
	if err := s.driver.OpenURL(ctx, link); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "screens.OpenHashtag", err)
	}
	if _, ok := s.driver.WaitFor(ctx, navTimeout, hashtagMarkers...); !ok {
		return errs.Newf(errs.ErrorTypeNavigation, "screens.OpenHashtag", "hashtag #%s did not load", tag)
	}
	return nil
}

func (s *Instagram) OpenPostURL(ctx context.Context, postURL string) error {
	if err := s.driver.OpenURL(ctx, postURL); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "screens.OpenPostURL", err)
	}
	if _, ok := s.driver.WaitFor(ctx, navTimeout, postMarkers...); !ok {
		return errs.Newf(errs.ErrorTypeNavigation, "screens.OpenPostURL", "post %s did not load", postURL)
	}
	return nil
}

// OpenFirstPost clicks the first tile of the grid on a profile or hashtag
// page and waits for the post view.
func (s *Instagram) OpenFirstPost(ctx context.Context) error {
	tile, ok := s.driver.FindFirst(ctx, gridTiles...)
	if !ok {
		return errs.New(errs.ErrorTypeNavigation, "screens.OpenFirstPost", "no post tiles visible")
	}
	if err := tile.Click(ctx); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "screens.OpenFirstPost", err)
	}
	if _, ok := s.driver.WaitFor(ctx, navTimeout, postMarkers...); !ok {
		return errs.New(errs.ErrorTypeNavigation, "screens.OpenFirstPost", "post view did not open")
	}
	return nil
}

// NextPost advances the vertical post feed by one swipe. Whether a genuinely
// new post landed is not verified here; the caller compares post signatures.
func (s *Instagram) NextPost(ctx context.Context) error {
	w, h := s.driver.ScreenSize()
	from := device.Point{X: w / 2, Y: h * 7 / 10}
	to := device.Point{X: w / 2, Y: h / 5}
	if err := s.driver.Swipe(ctx, from, to, 12); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "screens.NextPost", err)
	}
	return nil
}

// PostSignature reads the like and comment counts of the post on screen.
// The exact figures matter less than their stability; the caller only needs
// to tell two posts apart.
func (s *Instagram) PostSignature(ctx context.Context) (scrape.Signature, bool) {
	likesEl, likesOK := s.driver.FindFirst(ctx, likesRow...)
	commentsEl, commentsOK := s.driver.FindFirst(ctx, commentCountRow...)
	if !likesOK && !commentsOK {
		return scrape.Signature{}, false
	}
	var sig scrape.Signature
	if likesOK {
		sig.Likes = lastNumber(elementLabel(likesEl))
	}
	if commentsOK {
		sig.Comments = lastNumber(elementLabel(commentsEl))
	}
	return sig, true
}

// OpenLikers taps the likes row under the post and waits for the likers
// list.
func (s *Instagram) OpenLikers(ctx context.Context) error {
	row, ok := s.driver.FindFirst(ctx, likesRow...)
	if !ok {
		return errs.New(errs.ErrorTypeNavigation, "screens.OpenLikers", "likes row not visible")
	}
	if err := row.Click(ctx); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "screens.OpenLikers", err)
	}
	if _, ok := s.driver.WaitFor(ctx, listTimeout, likersListMarkers...); !ok {
		return errs.New(errs.ErrorTypeNavigation, "screens.OpenLikers", "likers list did not open")
	}
	return nil
}

func (s *Instagram) OpenComments(ctx context.Context) error {
	button, ok := s.driver.FindFirst(ctx, commentButton...)
	if !ok {
		button, ok = s.driver.FindFirst(ctx, commentCountRow...)
	}
	if !ok {
		return errs.New(errs.ErrorTypeNavigation, "screens.OpenComments", "comment control not visible")
	}
	if err := button.Click(ctx); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "screens.OpenComments", err)
	}
	if _, ok := s.driver.WaitFor(ctx, listTimeout, commentListMarkers...); !ok {
		return errs.New(errs.ErrorTypeNavigation, "screens.OpenComments", "comment list did not open")
	}
	return nil
}

// CloseList leaves an engagement list and returns to the post.
func (s *Instagram) CloseList(ctx context.Context) error {
	return s.driver.Back(ctx)
}

// VisibleUsernames returns the username rows currently on screen, top to
// bottom. A failed probe returns nil; the scroll-end detector treats that as
// an empty page.
func (s *Instagram) VisibleUsernames(ctx context.Context) []string {
	els, err := s.driver.All(ctx, userRow)
	if err != nil {
		s.logger.DebugWithFields("Username probe failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	var names []string
	for _, el := range els {
		if text := strings.TrimSpace(el.Text()); text != "" {
			names = append(names, text)
		}
	}
	return names
}

// VisibleComments returns the comment rows currently on screen. The first
// whitespace-separated token of a comment row is the author's handle;
// replies render indented, so the row's left edge tells them apart.
func (s *Instagram) VisibleComments(ctx context.Context) []scrape.CommentRow {
	els, err := s.driver.All(ctx, commentRow)
	if err != nil {
		s.logger.DebugWithFields("Comment probe failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	width, _ := s.driver.ScreenSize()
	replyIndent := width / 6
	var rows []scrape.CommentRow
	for _, el := range els {
		username, body, ok := splitCommentText(el.Text())
		if !ok {
			continue
		}
		rows = append(rows, scrape.CommentRow{
			Username: username,
			Text:     body,
			IsReply:  el.Bounds().Left > replyIndent,
		})
	}
	return rows
}

// ScrollList advances an engagement list by one page. Fast mode flings
// further with fewer interpolation steps.
func (s *Instagram) ScrollList(ctx context.Context, fast bool) error {
	w, h := s.driver.ScreenSize()
	from := device.Point{X: w / 2, Y: h * 3 / 4}
	to := device.Point{X: w / 2, Y: h * 2 / 5}
	steps := 15
	if fast {
		to.Y = h / 6
		steps = 6
	}
	if err := s.driver.Swipe(ctx, from, to, steps); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "screens.ScrollList", err)
	}
	return nil
}

// HasLoadMore reports whether a load-more control is on screen. Instagram
// paginates long likers lists behind one instead of loading on scroll.
func (s *Instagram) HasLoadMore(ctx context.Context) bool {
	return s.driver.Exists(ctx, loadMoreControls...)
}

func (s *Instagram) ClickLoadMore(ctx context.Context) bool {
	el, ok := s.driver.FindFirst(ctx, loadMoreControls...)
	if !ok {
		return false
	}
	return el.Click(ctx) == nil
}

// elementLabel prefers the text of an element and falls back to its content
// description. Count views swap between the two across app versions.
func elementLabel(el device.Element) string {
	if text := strings.TrimSpace(el.Text()); text != "" {
		return text
	}
	return strings.TrimSpace(el.Desc())
}

// splitCommentText splits a comment row into the author's handle and the
// body. Rows that do not start with a plausible handle are UI furniture.
func splitCommentText(text string) (username, body string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false
	}
	fields := strings.SplitN(text, " ", 2)
	username = models.NormalizeUsername(fields[0])
	if !models.ValidUsername(username) {
		return "", "", false
	}
	if len(fields) == 2 {
		body = strings.TrimSpace(fields[1])
	}
	return username, body, true
}
