package catalog

import (
	"sync"
	"unicode/utf8"
)

// Song is a read-only descriptor sourced from the song service.
type Song struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	ImageURL string `json:"img_url"`
}

// Catalog caches songs seen in search results so request handlers can
// describe a song without another round trip.
type Catalog struct {
	mu    sync.RWMutex
	songs map[string]Song
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{songs: make(map[string]Song)}
}

// Put stores or refreshes songs by ID. Songs without an ID are skipped.
func (c *Catalog) Put(songs ...Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range songs {
		if s.ID == "" {
			continue
		}
		c.songs[s.ID] = s
	}
}

// Get returns the cached song with the given ID.
func (c *Catalog) Get(id string) (Song, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.songs[id]
	return s, ok
}

// Len returns the number of cached songs.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.songs)
}

// Display widths of a search entry.
const (
	TitleWidth  = 32
	ArtistWidth = 24
)

// SearchEntry is a song as listed in search results.
type SearchEntry struct {
	Song
	DisplayTitle  string `json:"display_title"`
	DisplayArtist string `json:"display_artist"`
}

// NewSearchEntry truncates the song title and artist for a search row.
func NewSearchEntry(s Song) SearchEntry {
	return SearchEntry{
		Song:          s,
		DisplayTitle:  Truncate(s.Title, TitleWidth),
		DisplayArtist: Truncate(s.Artist, ArtistWidth),
	}
}

// Truncate shortens s to at most n runes, ending in an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
