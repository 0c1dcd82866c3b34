// Package nowplaying sigue la canción que exporta el reproductor a un archivo JSON.
package nowplaying

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"alertBot/internal/domain"
)

const (
	unknownTitle  = "Unknown Title"
	unknownArtist = "Unknown Artist"
	notRunning    = "not running"
)

type Track struct {
	Playing   bool    `json:"playing"`
	Paused    bool    `json:"paused"`
	Artist    string  `json:"artist"`
	Title     string  `json:"title"`
	Length    float64 `json:"length"`
	Time      float64 `json:"time"`
	Remaining float64 `json:"remaining"`
}

// Tracker guarda la última pista leída. Lo escribe el poller y lo lee el
// comando !playing desde el consumidor de eventos.
type Tracker struct {
	mu      sync.RWMutex
	current Track
	seen    bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Update procesa el contenido del archivo y devuelve los efectos: siempre un
// broadcast "foobar" y, si cambió la pista, un anuncio en chat. Parar el
// reproductor también cuenta como cambio.
func (t *Tracker) Update(raw []byte) (domain.Outcome, error) {
	raw = bytes.TrimSpace(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))
	if len(raw) == 0 {
		return domain.Outcome{}, nil
	}

	var track Track
	if string(raw) != notRunning {
		if err := json.Unmarshal(raw, &track); err != nil {
			return domain.Outcome{}, fmt.Errorf("nowplaying: decode: %w", err)
		}
	}
	if track.Title == "" || track.Title == "?" {
		track.Title = unknownTitle
	}
	if track.Artist == "" || track.Artist == "?" {
		track.Artist = unknownArtist
	}

	t.mu.Lock()
	changed := !t.seen || t.current.Artist != track.Artist || t.current.Title != track.Title
	t.current = track
	t.seen = true
	t.mu.Unlock()

	var out domain.Outcome
	out.Broadcast(domain.OverlayNowPlaying, map[string]any{
		"playing":   track.Playing,
		"paused":    track.Paused,
		"artist":    track.Artist,
		"title":     track.Title,
		"length":    track.Length,
		"time":      track.Time,
		"remaining": track.Remaining,
		"changed":   changed,
	})
	if changed {
		out.Say(fmt.Sprintf("Now Playing '%s' by '%s'", track.Title, track.Artist))
	}
	return out, nil
}

func (t *Tracker) Current() Track {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func (t *Tracker) Name() string {
	return "!playing"
}

// Handle es la etapa de fallback para !playing. Si no suena nada consume el
// comando sin responder.
func (t *Tracker) Handle(inv domain.Invocation) (domain.Outcome, bool) {
	if inv.Key != t.Name() {
		return domain.Outcome{}, false
	}
	track := t.Current()
	var out domain.Outcome
	if track.Playing {
		out.Say(fmt.Sprintf("Currently Playing: %s - %s.", track.Artist, track.Title))
	}
	return out, true
}
