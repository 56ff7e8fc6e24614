// Package store persists crawl results and resumable progress in the
// SQLite database shared with the desktop app. The desktop side reads the
// same file while the engine runs, which is why the database runs in WAL
// mode with a busy timeout.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "modernc.org/sqlite"

	"igdroid/pkg/models"
)

const sqliteTimeFormat = "2006-01-02 15:04:05"

// Store manages the discovery database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// An empty path resolves to the platform application-data directory; a zero
// busyTimeout falls back to five seconds.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Single connection: the engine is the only writer and SQLite locks
	// are simpler to reason about this way.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

// DefaultPath returns the platform-specific database location used when no
// explicit path is configured.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			dir = filepath.Join(appData, "igdroid")
		} else {
			dir = filepath.Join(home, "AppData", "Roaming", "igdroid")
		}
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "igdroid")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "igdroid")
		} else {
			dir = filepath.Join(home, ".local", "share", "igdroid")
		}
	}
	return filepath.Join(dir, "discovery.db"), nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS discovery_campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS discovery_progress (
		source_type TEXT NOT NULL,
		source_value TEXT NOT NULL,
		campaign_id TEXT NOT NULL,
		current_phase TEXT NOT NULL,
		current_post INTEGER NOT NULL DEFAULT 0,
		total_posts INTEGER NOT NULL DEFAULT 0,
		likers_scraped INTEGER NOT NULL DEFAULT 0,
		likers_total INTEGER NOT NULL DEFAULT 0,
		comments_scraped INTEGER NOT NULL DEFAULT 0,
		comments_total INTEGER NOT NULL DEFAULT 0,
		scroll_position TEXT,
		status TEXT NOT NULL DEFAULT 'in_progress',
		updated_at TEXT NOT NULL,
		PRIMARY KEY (source_type, source_value)
	);

	CREATE TABLE IF NOT EXISTS scraped_profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		full_name TEXT,
		biography TEXT,
		website TEXT,
		followers INTEGER DEFAULT 0,
		following INTEGER DEFAULT 0,
		posts INTEGER DEFAULT 0,
		is_private INTEGER DEFAULT 0,
		is_verified INTEGER DEFAULT 0,
		is_business INTEGER DEFAULT 0,
		category TEXT,
		threads_handle TEXT,
		enriched INTEGER DEFAULT 0,
		source_type TEXT,
		source_value TEXT,
		interaction_type TEXT,
		campaign_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scraping_sessions (
		id TEXT PRIMARY KEY,
		campaign_id TEXT,
		workflow TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		profiles_scraped INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		ended_at TEXT
	);

	CREATE TABLE IF NOT EXISTS session_profiles (
		session_id TEXT NOT NULL REFERENCES scraping_sessions(id),
		profile_id INTEGER NOT NULL REFERENCES scraped_profiles(id),
		PRIMARY KEY (session_id, profile_id)
	);

	CREATE TABLE IF NOT EXISTS scraped_comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT REFERENCES scraping_sessions(id),
		username TEXT NOT NULL,
		comment_text TEXT,
		is_reply INTEGER DEFAULT 0,
		source_type TEXT,
		source_value TEXT,
		post_index INTEGER DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_updated ON scraped_profiles(updated_at);
	CREATE INDEX IF NOT EXISTS idx_progress_campaign ON discovery_progress(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_comments_session ON scraped_comments(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCampaign records a campaign, reviving it as running when the
// desktop app re-launches one that already exists.
func (s *Store) CreateCampaign(id, name string) error {
	_, err := s.db.Exec(`
		INSERT INTO discovery_campaigns (id, name, status, created_at, updated_at)
		VALUES (?, ?, 'running', datetime('now'), datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			status = 'running',
			updated_at = datetime('now')
	`, id, name)
	return err
}

// UpdateCampaignStatus marks a campaign's run state.
func (s *Store) UpdateCampaignStatus(id, status string) error {
	_, err := s.db.Exec(`
		UPDATE discovery_campaigns SET status = ?, updated_at = datetime('now')
		WHERE id = ?
	`, status, id)
	return err
}

// UpsertProgress writes the crawl position for a source. Called after every
// state mutation so a crash resumes at the exact position.
func (s *Store) UpsertProgress(p *models.ProgressState) error {
	scrollJSON, _ := json.Marshal(p.ScrollPosition)
	_, err := s.db.Exec(`
		INSERT INTO discovery_progress (
			source_type, source_value, campaign_id, current_phase, current_post,
			total_posts, likers_scraped, likers_total, comments_scraped,
			comments_total, scroll_position, status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(source_type, source_value) DO UPDATE SET
			campaign_id = excluded.campaign_id,
			current_phase = excluded.current_phase,
			current_post = excluded.current_post,
			total_posts = excluded.total_posts,
			likers_scraped = excluded.likers_scraped,
			likers_total = excluded.likers_total,
			comments_scraped = excluded.comments_scraped,
			comments_total = excluded.comments_total,
			scroll_position = excluded.scroll_position,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, string(p.SourceType), p.SourceValue, p.CampaignID, string(p.CurrentPhase),
		p.CurrentPost, p.TotalPosts, p.LikersScraped, p.LikersTotal,
		p.CommentsScraped, p.CommentsTotal, string(scrollJSON), p.Status)
	return err
}

// GetProgress returns the saved position for a source, or nil when the
// source has never been visited.
func (s *Store) GetProgress(sourceType models.SourceType, sourceValue string) (*models.ProgressState, error) {
	var p models.ProgressState
	var phase, scrollJSON, updatedAt string
	err := s.db.QueryRow(`
		SELECT source_type, source_value, campaign_id, current_phase, current_post,
			total_posts, likers_scraped, likers_total, comments_scraped,
			comments_total, COALESCE(scroll_position, ''), status, updated_at
		FROM discovery_progress
		WHERE source_type = ? AND source_value = ?
	`, string(sourceType), sourceValue).Scan(
		&p.SourceType, &p.SourceValue, &p.CampaignID, &phase, &p.CurrentPost,
		&p.TotalPosts, &p.LikersScraped, &p.LikersTotal, &p.CommentsScraped,
		&p.CommentsTotal, &scrollJSON, &p.Status, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.CurrentPhase = models.Phase(phase)
	if scrollJSON != "" && scrollJSON != "null" {
		_ = json.Unmarshal([]byte(scrollJSON), &p.ScrollPosition)
	}
	p.UpdatedAt, _ = time.Parse(sqliteTimeFormat, updatedAt)
	return &p, nil
}

// SaveScrapedProfile upserts a profile by username and returns its row id.
// Attribution always follows the latest sighting; enrichment fields are
// only overwritten when the new record actually carries enrichment data,
// so a later bare sighting cannot erase a profile's details.
func (s *Store) SaveScrapedProfile(p *models.ScrapedProfile) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO scraped_profiles (
			username, source_type, source_value, interaction_type, campaign_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, datetime('now'), datetime('now'))
		ON CONFLICT(username) DO UPDATE SET
			source_type = excluded.source_type,
			source_value = excluded.source_value,
			interaction_type = excluded.interaction_type,
			campaign_id = excluded.campaign_id,
			updated_at = excluded.updated_at
	`, p.Username, string(p.SourceType), p.SourceValue, string(p.InteractionType), p.CampaignID)
	if err != nil {
		return 0, err
	}

	if p.Enriched {
		_, err = s.db.Exec(`
			UPDATE scraped_profiles SET
				full_name = ?, biography = ?, website = ?, followers = ?,
				following = ?, posts = ?, is_private = ?, is_verified = ?,
				is_business = ?, category = ?, threads_handle = ?, enriched = 1
			WHERE username = ?
		`, p.FullName, p.Biography, p.Website, p.Followers, p.Following,
			p.Posts, p.IsPrivate, p.IsVerified, p.IsBusiness, p.Category,
			p.ThreadsHandle, p.Username)
		if err != nil {
			return 0, err
		}
	}

	var id int64
	err = s.db.QueryRow(`SELECT id FROM scraped_profiles WHERE username = ?`, p.Username).Scan(&id)
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// RecentlyScrapedUsernames returns usernames whose rows were touched within
// the last `days` days, newest first, capped at limit. The crawl skips
// enrichment for these.
func (s *Store) RecentlyScrapedUsernames(days, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5000
	}
	rows, err := s.db.Query(`
		SELECT username FROM scraped_profiles
		WHERE updated_at >= datetime('now', ?)
		ORDER BY updated_at DESC
		LIMIT ?
	`, fmt.Sprintf("-%d days", days), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		usernames = append(usernames, u)
	}
	return usernames, rows.Err()
}

// CreateScrapingSession records the start of an engine session.
func (s *Store) CreateScrapingSession(id, campaignID, workflow string) error {
	_, err := s.db.Exec(`
		INSERT INTO scraping_sessions (id, campaign_id, workflow, status, started_at)
		VALUES (?, ?, ?, 'running', datetime('now'))
	`, id, campaignID, workflow)
	return err
}

// UpdateScrapingSessionCount updates the running profile count of a session.
func (s *Store) UpdateScrapingSessionCount(id string, profilesScraped int) error {
	_, err := s.db.Exec(`
		UPDATE scraping_sessions SET profiles_scraped = ?
		WHERE id = ?
	`, profilesScraped, id)
	return err
}

// EndScrapingSession marks a session finished with the given status.
func (s *Store) EndScrapingSession(id, status string) error {
	_, err := s.db.Exec(`
		UPDATE scraping_sessions SET status = ?, ended_at = datetime('now')
		WHERE id = ?
	`, status, id)
	return err
}

// LinkProfileToSession associates a profile row with a session.
func (s *Store) LinkProfileToSession(sessionID string, profileID int64) error {
	_, err := s.db.Exec(`
		INSERT INTO session_profiles (session_id, profile_id)
		VALUES (?, ?)
		ON CONFLICT(session_id, profile_id) DO NOTHING
	`, sessionID, profileID)
	return err
}

// SaveScrapedComment records one scraped comment row.
func (s *Store) SaveScrapedComment(sessionID string, c *models.Comment) error {
	_, err := s.db.Exec(`
		INSERT INTO scraped_comments (
			session_id, username, comment_text, is_reply, source_type,
			source_value, post_index, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`, sessionID, c.Username, c.Text, c.IsReply, string(c.SourceType),
		c.SourceValue, c.PostIndex)
	return err
}
