package database

import "github.com/haryoiro/tubetone/internal/structures"

// DB is the local store for listening history, playlists and app state
type DB interface {
	SaveTrack(track structures.Track) error
	GetTrack(trackID string) (*structures.DatabaseEntry, bool)
	RecordPlay(track structures.Track) error
	RecentlyPlayed(limit int) []structures.DatabaseEntry
	MostPlayed(limit int) []structures.DatabaseEntry
	Search(query string) []structures.DatabaseEntry

	CreatePlaylist(title, description string) (structures.Playlist, error)
	Playlists() ([]structures.Playlist, error)
	DeletePlaylist(playlistID string) error
	AddToPlaylist(playlistID string, track structures.Track) error
	RemoveFromPlaylist(playlistID, trackID string) error
	PlaylistTracks(playlistID string) ([]structures.Track, error)

	SaveAppState(key, value string) error
	GetAppState(key string) (string, bool)

	Repair() error
	Close() error
}
