package bridge

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igdroid/pkg/errors"
)

func newTestEmitter(buf *bytes.Buffer) *Emitter {
	e := NewEmitter(buf, "camp-1")
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), "line %q", sc.Text())
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestEmitterOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.Status(StatusStarting, "connecting to device")
	e.SourceStarted("hashtag", "golang")
	e.ProfileScraped("someuser", "liker", true)
	e.SourceCompleted("hashtag", "golang", 12, "completed")
	e.Status(StatusCompleted, "")

	raw := buf.String()
	assert.Equal(t, 5, strings.Count(raw, "\n"), "each event is exactly one line")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 5)
	assert.Equal(t, EventStatus, lines[0]["type"])
	assert.Equal(t, "starting", lines[0]["status"])
	assert.Equal(t, "camp-1", lines[0]["campaign_id"])
	assert.Equal(t, EventSourceStarted, lines[1]["type"])
	assert.Equal(t, "golang", lines[1]["source_value"])
	assert.Equal(t, EventProfileScraped, lines[2]["type"])
	assert.Equal(t, true, lines[2]["enriched"])
	assert.Equal(t, EventSourceCompleted, lines[3]["type"])
	assert.Equal(t, float64(12), lines[3]["profiles"])
	assert.Equal(t, "completed", lines[3]["reason"])
}

func TestEmitterProgressPayload(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.Progress(ProgressUpdate{
		SourceType:      "target",
		SourceValue:     "somecoach",
		Phase:           "likers",
		Post:            1,
		TotalPosts:      3,
		LikersScraped:   17,
		CommentsScraped: 0,
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	m := lines[0]
	assert.Equal(t, EventProgress, m["type"])
	assert.Equal(t, "likers", m["phase"])
	assert.Equal(t, float64(1), m["post"])
	assert.Equal(t, float64(17), m["likers_scraped"])
	assert.NotEmpty(t, m["ts"])
}

func TestEmitterStats(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.StatsSnapshot(Stats{
		ProfilesScraped:  40,
		ProfilesEnriched: 25,
		SkippedRecent:    6,
		SourcesCompleted: 2,
		SourcesTotal:     3,
		ElapsedSeconds:   90.5,
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(40), lines[0]["profiles_scraped"])
	assert.Equal(t, float64(6), lines[0]["skipped_recent"])
	assert.Equal(t, 90.5, lines[0]["elapsed_seconds"])
}

func TestEmitterError(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.Error(ExitConnect, "device agent unreachable")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, EventError, lines[0]["type"])
	assert.Equal(t, float64(3), lines[0]["code"])
	assert.Equal(t, "device agent unreachable", lines[0]["message"])
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ExitCode
	}{
		{"nil", nil, ExitOK},
		{"validation", errors.New(errors.ErrorTypeValidation, "campaign", "no sources"), ExitValidation},
		{"license", errors.New(errors.ErrorTypeLicense, "validate", "invalid key"), ExitLicense},
		{"device", errors.New(errors.ErrorTypeDevice, "connect", "no devices"), ExitConnect},
		{"launch", errors.New(errors.ErrorTypeLaunch, "app_start", "activity did not settle"), ExitLaunch},
		{"workflow", errors.New(errors.ErrorTypeWorkflow, "run", "all sources failed"), ExitWorkflow},
		{"untyped", assertError("boom"), ExitWorkflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

type assertError string

func (e assertError) Error() string { return string(e) }
