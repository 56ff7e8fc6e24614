// Package bridge implements the stdout protocol between the engine and the
// desktop app that spawns it. Every event is a single line of JSON; logs
// and diagnostics go to stderr so the two streams never mix.
package bridge

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"igdroid/pkg/errors"
)

// ExitCode is the process exit code contract with the desktop app.
type ExitCode int

const (
	ExitOK         ExitCode = 0
	ExitValidation ExitCode = 1
	ExitLicense    ExitCode = 2
	ExitConnect    ExitCode = 3
	ExitLaunch     ExitCode = 4
	ExitWorkflow   ExitCode = 5
)

// ExitCodeFor maps a failure to the exit code the desktop app expects.
// An interrupted run is a clean exit: partial results are already
// persisted and the app treats them as such.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitOK
	}
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return ExitValidation
	case errors.ErrorTypeLicense:
		return ExitLicense
	case errors.ErrorTypeDevice:
		return ExitConnect
	case errors.ErrorTypeLaunch:
		return ExitLaunch
	default:
		return ExitWorkflow
	}
}

// Event types emitted on stdout.
const (
	EventStatus          = "status"
	EventProgress        = "progress"
	EventStats           = "stats"
	EventError           = "error"
	EventLog             = "log"
	EventSourceStarted   = "source_started"
	EventSourceCompleted = "source_completed"
	EventProfileScraped  = "profile_scraped"
)

// Run status values carried by status events.
const (
	StatusStarting    = "starting"
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusInterrupted = "interrupted"
	StatusFailed      = "failed"
)

type envelope struct {
	Type       string `json:"type"`
	TS         string `json:"ts"`
	CampaignID string `json:"campaign_id,omitempty"`
}

// ProgressUpdate is the payload of a progress event.
type ProgressUpdate struct {
	SourceType      string `json:"source_type"`
	SourceValue     string `json:"source_value"`
	Phase           string `json:"phase"`
	Post            int    `json:"post"`
	TotalPosts      int    `json:"total_posts,omitempty"`
	LikersScraped   int    `json:"likers_scraped"`
	CommentsScraped int    `json:"comments_scraped"`
}

// Stats is the cumulative session snapshot carried by stats events.
type Stats struct {
	ProfilesScraped  int     `json:"profiles_scraped"`
	ProfilesEnriched int     `json:"profiles_enriched"`
	SkippedRecent    int     `json:"skipped_recent"`
	CommentsSaved    int     `json:"comments_saved"`
	PostsProcessed   int     `json:"posts_processed"`
	SourcesCompleted int     `json:"sources_completed"`
	SourcesTotal     int     `json:"sources_total"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
}

type statusEvent struct {
	envelope
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type progressEvent struct {
	envelope
	ProgressUpdate
}

type statsEvent struct {
	envelope
	Stats
}

type errorEvent struct {
	envelope
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type logEvent struct {
	envelope
	Level   string `json:"level"`
	Message string `json:"message"`
}

type sourceEvent struct {
	envelope
	SourceType  string `json:"source_type"`
	SourceValue string `json:"source_value"`
	Profiles    int    `json:"profiles,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type profileEvent struct {
	envelope
	Username string `json:"username"`
	Role     string `json:"role"`
	Enriched bool   `json:"enriched"`
}

// Emitter writes newline-delimited JSON events. Safe for concurrent use;
// each event is one write so lines never interleave.
type Emitter struct {
	mu         sync.Mutex
	enc        *json.Encoder
	campaignID string
	now        func() time.Time
}

// NewEmitter creates an emitter writing to w, usually os.Stdout.
func NewEmitter(w io.Writer, campaignID string) *Emitter {
	return &Emitter{
		enc:        json.NewEncoder(w),
		campaignID: campaignID,
		now:        time.Now,
	}
}

func (e *Emitter) env(eventType string) envelope {
	return envelope{
		Type:       eventType,
		TS:         e.now().UTC().Format(time.RFC3339Nano),
		CampaignID: e.campaignID,
	}
}

func (e *Emitter) emit(v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	// An unwritable stdout means the parent is gone; nothing to do about it.
	_ = e.enc.Encode(v)
}

// Status reports a run state change.
func (e *Emitter) Status(status, message string) {
	e.emit(statusEvent{envelope: e.env(EventStatus), Status: status, Message: message})
}

// Progress reports the crawl position of the active source.
func (e *Emitter) Progress(p ProgressUpdate) {
	e.emit(progressEvent{envelope: e.env(EventProgress), ProgressUpdate: p})
}

// StatsSnapshot reports cumulative session counters.
func (e *Emitter) StatsSnapshot(s Stats) {
	e.emit(statsEvent{envelope: e.env(EventStats), Stats: s})
}

// Error reports a failure along with the exit code the process will use.
func (e *Emitter) Error(code ExitCode, message string) {
	e.emit(errorEvent{envelope: e.env(EventError), Code: int(code), Message: message})
}

// Log forwards a log line the desktop app may want to surface.
func (e *Emitter) Log(level, message string) {
	e.emit(logEvent{envelope: e.env(EventLog), Level: level, Message: message})
}

// SourceStarted reports that processing began for a source.
func (e *Emitter) SourceStarted(sourceType, sourceValue string) {
	e.emit(sourceEvent{
		envelope:    e.env(EventSourceStarted),
		SourceType:  sourceType,
		SourceValue: sourceValue,
	})
}

// SourceCompleted reports that a source finished, with the number of
// profiles it produced and why processing stopped.
func (e *Emitter) SourceCompleted(sourceType, sourceValue string, profiles int, reason string) {
	e.emit(sourceEvent{
		envelope:    e.env(EventSourceCompleted),
		SourceType:  sourceType,
		SourceValue: sourceValue,
		Profiles:    profiles,
		Reason:      reason,
	})
}

// ProfileScraped reports a single discovered profile.
func (e *Emitter) ProfileScraped(username, role string, enriched bool) {
	e.emit(profileEvent{
		envelope: e.env(EventProfileScraped),
		Username: username,
		Role:     role,
		Enriched: enriched,
	})
}
