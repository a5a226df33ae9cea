package songs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justdancerequests/overlay/internal/catalog"
	"github.com/justdancerequests/overlay/internal/logger"
	"github.com/justdancerequests/overlay/internal/status"
	"github.com/justdancerequests/overlay/internal/store"
)

type fakeAPI struct {
	result   Result[QueueState]
	songs    []catalog.Song
	song     catalog.Song
	songErr  error
	searchEr error
	calls    []string
	ctxErr   error
}

func (f *fakeAPI) RequestSong(ctx context.Context, id string) Result[QueueState] {
	f.calls = append(f.calls, id)
	f.ctxErr = ctx.Err()
	return f.result
}

func (f *fakeAPI) Search(context.Context, string) ([]catalog.Song, error) {
	return f.songs, f.searchEr
}

func (f *fakeAPI) Song(context.Context, string) (catalog.Song, error) {
	return f.song, f.songErr
}

type fakeHistory struct {
	mu      sync.Mutex
	records []store.RequestRecord
	err     error
}

func (f *fakeHistory) RecordRequest(_ context.Context, r store.RequestRecord) (store.RequestRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return r, f.err
	}
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeHistory) ListRequests(context.Context, int) ([]store.RequestRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, f.err
}

var badHabits = catalog.Song{ID: "1", Title: "Bad Habits", Artist: "Ed Sheeran"}

func TestDetailsRequest(t *testing.T) {
	quiet := logger.NewLogger(logger.TestConfig())

	tests := []struct {
		name   string
		result Result[QueueState]
		want   status.Status
	}{
		{
			name:   "Should show success for code 200",
			result: DataResult(APIResponse[QueueState]{Code: 200}),
			want:   status.Status{Type: status.TypeSuccess, Message: "Song added successfully"},
		},
		{
			name:   "Should show the service message for code 404",
			result: DataResult(APIResponse[QueueState]{Code: 404, Error: &APIError{Message: "Song not found"}}),
			want:   status.Status{Type: status.TypeError, Message: "Song not found"},
		},
		{
			name:   "Should show the internal error text for transport errors",
			result: ErrorResult[QueueState]("timeout"),
			want:   status.Status{Type: status.TypeError, Message: InternalErrorMessage},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := clock.NewMock()
			notifier := status.New(status.WithClock(mock))
			history := &fakeHistory{}
			api := &fakeAPI{result: tt.result}

			got := NewDetails(badHabits, api, notifier, history, quiet).Request(context.Background())

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, notifier.Current())
			assert.Equal(t, []string{"1"}, api.calls)
			require.Len(t, history.records, 1)
			assert.Equal(t, string(tt.want.Type), history.records[0].StatusType)
			assert.Equal(t, "Bad Habits", history.records[0].Title)

			mock.Add(status.DefaultDuration)
			require.Eventually(t, func() bool { return notifier.Current() == status.None() }, time.Second, time.Millisecond)
		})
	}

	t.Run("Should absorb history failures", func(t *testing.T) {
		notifier := status.New(status.WithClock(clock.NewMock()))
		api := &fakeAPI{result: DataResult(APIResponse[QueueState]{Code: 200})}
		d := NewDetails(badHabits, api, notifier, &fakeHistory{err: errors.New("disk full")}, quiet)

		assert.Equal(t, status.Success(SuccessMessage), d.Request(context.Background()))
		assert.Equal(t, badHabits, d.Song())
	})
}

func newTestRouter(api API, history HistoryStore) (*chi.Mux, *status.Notifier) {
	notifier := status.New(status.WithClock(clock.NewMock()))
	h := NewHandlers(api, catalog.New(), notifier, history, logger.NewLogger(logger.TestConfig()))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, notifier
}

func TestRoutes(t *testing.T) {
	t.Run("Should request a song and report the status", func(t *testing.T) {
		api := &fakeAPI{
			result:  DataResult(APIResponse[QueueState]{Code: 404, Error: &APIError{Message: "Song not found"}}),
			songErr: errors.New("not found"),
		}
		history := &fakeHistory{}
		r, notifier := newTestRouter(api, history)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/songs/99/request", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"type":"error","message":"Song not found"}`, rec.Body.String())
		assert.Equal(t, status.Error("Song not found"), notifier.Current())
		require.Len(t, history.records, 1)
		assert.Equal(t, "99", history.records[0].SongID)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		assert.JSONEq(t, `{"type":"error","message":"Song not found"}`, rec.Body.String())
	})

	t.Run("Should finish the request when the caller goes away", func(t *testing.T) {
		api := &fakeAPI{result: DataResult(APIResponse[QueueState]{Code: 200}), songErr: errors.New("not cached")}
		r, notifier := newTestRouter(api, &fakeHistory{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/songs/1/request", nil).WithContext(ctx))

		require.Equal(t, []string{"1"}, api.calls)
		assert.NoError(t, api.ctxErr)
		assert.Equal(t, status.Success(SuccessMessage), notifier.Current())
	})

	t.Run("Should search and cache songs", func(t *testing.T) {
		api := &fakeAPI{songs: []catalog.Song{badHabits}, songErr: errors.New("unused")}
		r, _ := newTestRouter(api, nil)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs/search?q=habits", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"display_title":"Bad Habits"`)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs/1", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"title":"Bad Habits"`)
	})

	t.Run("Should validate search input", func(t *testing.T) {
		r, _ := newTestRouter(&fakeAPI{}, nil)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs/search", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should report upstream search failures", func(t *testing.T) {
		r, _ := newTestRouter(&fakeAPI{searchEr: errors.New("down")}, nil)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs/search?q=x", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("Should return 404 for unknown songs", func(t *testing.T) {
		r, _ := newTestRouter(&fakeAPI{songErr: errors.New("nope")}, nil)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs/404", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Should list the request history", func(t *testing.T) {
		history := &fakeHistory{records: []store.RequestRecord{{ID: "a", SongID: "1", StatusType: "success"}}}
		r, _ := newTestRouter(&fakeAPI{}, history)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/requests/history?limit=5", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"song_id":"1"`)

		r, _ = newTestRouter(&fakeAPI{}, nil)
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/requests/history", nil))
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}
