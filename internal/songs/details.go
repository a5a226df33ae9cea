package songs

import (
	"context"

	"github.com/justdancerequests/overlay/internal/catalog"
	"github.com/justdancerequests/overlay/internal/logger"
	"github.com/justdancerequests/overlay/internal/status"
	"github.com/justdancerequests/overlay/internal/store"
)

// Requester issues song requests.
type Requester interface {
	RequestSong(ctx context.Context, songID string) Result[QueueState]
}

// History records request outcomes. It may be nil.
type History interface {
	RecordRequest(ctx context.Context, r store.RequestRecord) (store.RequestRecord, error)
}

// Details is the song details panel: one song and its request action.
type Details struct {
	song      catalog.Song
	requester Requester
	notifier  *status.Notifier
	history   History
	log       logger.Logger
}

// NewDetails binds a song to the services used to request it.
func NewDetails(song catalog.Song, requester Requester, notifier *status.Notifier, history History, log logger.Logger) *Details {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Details{
		song:      song,
		requester: requester,
		notifier:  notifier,
		history:   history,
		log:       log.With("song_id", song.ID),
	}
}

// Song returns the song on display.
func (d *Details) Song() catalog.Song {
	return d.song
}

// Request asks the song service to queue the song and shows the outcome.
// Failures end up in the returned status, never as an error.
func (d *Details) Request(ctx context.Context) status.Status {
	res := d.requester.RequestSong(ctx, d.song.ID)
	st := StatusFor(res)

	switch {
	case res.Type == ResultError || res.Data == nil:
		d.log.Error("song request failed", "error", res.Message)
	case st.Type == status.TypeError:
		d.log.Warn("song request rejected", "code", res.Data.Code, "message", st.Message)
	default:
		d.log.Info("song requested")
	}

	d.notifier.Show(st)

	if d.history != nil {
		if _, err := d.history.RecordRequest(ctx, store.RequestRecord{
			SongID:        d.song.ID,
			Title:         d.song.Title,
			Artist:        d.song.Artist,
			StatusType:    string(st.Type),
			StatusMessage: st.Message,
		}); err != nil {
			d.log.Warn("failed to record song request", "error", err)
		}
	}
	return st
}
