package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/structures"
	_ "github.com/mattn/go-sqlite3"
)

// ErrPlaylistNotFound is returned for unknown playlist ids
var ErrPlaylistNotFound = errors.New("playlist not found")

// SQLiteDatabase represents the SQLite-based music database
type SQLiteDatabase struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

var _ DB = (*SQLiteDatabase)(nil)

// OpenSQLite opens or creates a SQLite database
func OpenSQLite(path string) (*SQLiteDatabase, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// foreign_keys is per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	sqliteDB := &SQLiteDatabase{
		db:   db,
		path: path,
	}

	if err := sqliteDB.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sqliteDB, nil
}

func (db *SQLiteDatabase) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			track_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			thumbnail TEXT,
			album_art TEXT,
			duration TEXT NOT NULL DEFAULT '0:00',
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			url TEXT NOT NULL,
			view_count TEXT,
			published_at TEXT,
			added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			play_count INTEGER NOT NULL DEFAULT 0,
			last_played DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_title ON tracks(title)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_play_count ON tracks(play_count)`,

		`CREATE TABLE IF NOT EXISTS playlists (
			playlist_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (playlist_id, track_id),
			FOREIGN KEY (playlist_id) REFERENCES playlists(playlist_id) ON DELETE CASCADE,
			FOREIGN KEY (track_id) REFERENCES tracks(track_id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS listening_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_id TEXT NOT NULL,
			played_at DATETIME NOT NULL,
			FOREIGN KEY (track_id) REFERENCES tracks(track_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_played_at ON listening_history(played_at)`,

		`CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TRIGGER IF NOT EXISTS update_playlists_timestamp
		AFTER UPDATE ON playlists
		BEGIN
			UPDATE playlists SET updated_at = CURRENT_TIMESTAMP WHERE playlist_id = NEW.playlist_id;
		END`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Close closes the database
func (db *SQLiteDatabase) Close() error {
	return db.db.Close()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertTrack(e execer, t structures.Track) error {
	_, err := e.Exec(`
		INSERT INTO tracks
		(track_id, title, artist, thumbnail, album_art, duration, duration_seconds,
		 url, view_count, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			thumbnail = excluded.thumbnail,
			album_art = excluded.album_art,
			duration = excluded.duration,
			duration_seconds = excluded.duration_seconds,
			url = excluded.url,
			view_count = excluded.view_count,
			published_at = excluded.published_at
	`,
		t.TrackID, t.Title, t.Artist, t.Thumbnail, t.AlbumArt, t.Duration,
		t.DurationSeconds, t.URL, t.ViewCount, t.PublishedAt,
	)
	return err
}

// SaveTrack stores or refreshes a track's metadata
func (db *SQLiteDatabase) SaveTrack(track structures.Track) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return upsertTrack(db.db, track)
}

const entryColumns = `t.track_id, t.title, t.artist, t.thumbnail, t.album_art, t.duration,
	t.duration_seconds, t.url, t.view_count, t.published_at, t.added_at, t.play_count, t.last_played`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (structures.DatabaseEntry, error) {
	var e structures.DatabaseEntry
	var thumbnail, albumArt, viewCount, published sql.NullString
	var lastPlayed sql.NullTime

	err := s.Scan(
		&e.Track.TrackID,
		&e.Track.Title,
		&e.Track.Artist,
		&thumbnail,
		&albumArt,
		&e.Track.Duration,
		&e.Track.DurationSeconds,
		&e.Track.URL,
		&viewCount,
		&published,
		&e.AddedAt,
		&e.PlayCount,
		&lastPlayed,
	)
	if err != nil {
		return e, err
	}

	e.Track.Thumbnail = thumbnail.String
	e.Track.AlbumArt = albumArt.String
	e.Track.ViewCount = viewCount.String
	e.Track.PublishedAt = published.String
	e.LastPlayed = lastPlayed.Time
	return e, nil
}

func (db *SQLiteDatabase) queryEntries(query string, args ...any) []structures.DatabaseEntry {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		logger.Error("database query failed: %v", err)
		return nil
	}
	defer rows.Close()

	var entries []structures.DatabaseEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			logger.Warn("skipping unreadable track row: %v", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// GetTrack retrieves a track by ID
func (db *SQLiteDatabase) GetTrack(trackID string) (*structures.DatabaseEntry, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.db.QueryRow(`SELECT `+entryColumns+` FROM tracks t WHERE t.track_id = ?`, trackID)
	e, err := scanEntry(row)
	if err != nil {
		return nil, false
	}
	return &e, true
}

// RecordPlay stores the track, bumps its play count and appends to history
func (db *SQLiteDatabase) RecordPlay(track structures.Track) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertTrack(tx, track); err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(`
		UPDATE tracks
		SET play_count = play_count + 1,
		    last_played = ?
		WHERE track_id = ?
	`, now, track.TrackID); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO listening_history (track_id, played_at) VALUES (?, ?)`, track.TrackID, now); err != nil {
		return err
	}

	return tx.Commit()
}

// RecentlyPlayed returns distinct tracks ordered by their latest play
func (db *SQLiteDatabase) RecentlyPlayed(limit int) []structures.DatabaseEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.queryEntries(`
		SELECT `+entryColumns+`
		FROM tracks t
		INNER JOIN (
			SELECT track_id, MAX(id) AS last_id
			FROM listening_history
			GROUP BY track_id
		) h ON t.track_id = h.track_id
		ORDER BY h.last_id DESC
		LIMIT ?
	`, limit)
}

// MostPlayed returns the most played tracks
func (db *SQLiteDatabase) MostPlayed(limit int) []structures.DatabaseEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.queryEntries(`
		SELECT `+entryColumns+`
		FROM tracks t
		WHERE t.play_count > 0
		ORDER BY t.play_count DESC, t.last_played DESC
		LIMIT ?
	`, limit)
}

// Search performs a text search on stored tracks
func (db *SQLiteDatabase) Search(query string) []structures.DatabaseEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()

	pattern := "%" + escapeLike(query) + "%"
	return db.queryEntries(`
		SELECT `+entryColumns+`
		FROM tracks t
		WHERE t.title LIKE ? ESCAPE '\' OR t.artist LIKE ? ESCAPE '\'
		ORDER BY
			CASE WHEN t.title LIKE ? ESCAPE '\' THEN 1 ELSE 2 END,
			t.play_count DESC
		LIMIT 50
	`, pattern, pattern, pattern)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CreatePlaylist creates an empty playlist
func (db *SQLiteDatabase) CreatePlaylist(title, description string) (structures.Playlist, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		return structures.Playlist{}, errors.New("playlist title is empty")
	}

	p := structures.Playlist{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	_, err := db.db.Exec(`
		INSERT INTO playlists (playlist_id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Title, p.Description, p.CreatedAt)
	if err != nil {
		return structures.Playlist{}, fmt.Errorf("failed to create playlist: %w", err)
	}
	return p, nil
}

// Playlists lists playlists, newest first
func (db *SQLiteDatabase) Playlists() ([]structures.Playlist, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.db.Query(`
		SELECT p.playlist_id, p.name, p.description, p.created_at, COUNT(pt.track_id)
		FROM playlists p
		LEFT JOIN playlist_tracks pt ON p.playlist_id = pt.playlist_id
		GROUP BY p.playlist_id
		ORDER BY p.created_at DESC, p.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []structures.Playlist
	for rows.Next() {
		var p structures.Playlist
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &desc, &p.CreatedAt, &p.TrackCount); err != nil {
			return nil, err
		}
		p.Description = desc.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePlaylist removes a playlist and its entries
func (db *SQLiteDatabase) DeletePlaylist(playlistID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.db.Exec(`DELETE FROM playlists WHERE playlist_id = ?`, playlistID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// AddToPlaylist appends track to the playlist. Adding a track twice is a no-op.
func (db *SQLiteDatabase) AddToPlaylist(playlistID string, track structures.Track) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM playlists WHERE playlist_id = ?`, playlistID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrPlaylistNotFound
	}

	if err := upsertTrack(tx, track); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT OR IGNORE INTO playlist_tracks (playlist_id, track_id, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM playlist_tracks WHERE playlist_id = ?))
	`, playlistID, track.TrackID, playlistID); err != nil {
		return err
	}

	if _, err := tx.Exec(`UPDATE playlists SET name = name WHERE playlist_id = ?`, playlistID); err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveFromPlaylist drops a track from the playlist
func (db *SQLiteDatabase) RemoveFromPlaylist(playlistID, trackID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.db.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`, playlistID, trackID)
	return err
}

// PlaylistTracks returns the playlist's tracks in insertion order
func (db *SQLiteDatabase) PlaylistTracks(playlistID string) ([]structures.Track, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.db.Query(`
		SELECT `+entryColumns+`
		FROM playlist_tracks pt
		INNER JOIN tracks t ON t.track_id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []structures.Track
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, e.Track)
	}
	return tracks, rows.Err()
}

// SaveAppState saves application state
func (db *SQLiteDatabase) SaveAppState(key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.db.Exec(`
		INSERT OR REPLACE INTO app_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`, key, value)
	return err
}

// GetAppState retrieves application state
func (db *SQLiteDatabase) GetAppState(key string) (string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var value string
	err := db.db.QueryRow("SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Repair checks integrity, removes dangling rows and compacts the file
func (db *SQLiteDatabase) Repair() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result string
	if err := db.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}

	cleanup := []string{
		`DELETE FROM listening_history WHERE track_id NOT IN (SELECT track_id FROM tracks)`,
		`DELETE FROM playlist_tracks WHERE track_id NOT IN (SELECT track_id FROM tracks)
			OR playlist_id NOT IN (SELECT playlist_id FROM playlists)`,
		`VACUUM`,
	}
	for _, q := range cleanup {
		if _, err := db.db.Exec(q); err != nil {
			return fmt.Errorf("repair: %w", err)
		}
	}
	logger.Info("database %s repaired", db.path)
	return nil
}
