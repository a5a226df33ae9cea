package songs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/justdancerequests/overlay/internal/catalog"
)

// API is the subset of the song service the overlay uses.
type API interface {
	RequestSong(ctx context.Context, songID string) Result[QueueState]
	Search(ctx context.Context, query string) ([]catalog.Song, error)
	Song(ctx context.Context, songID string) (catalog.Song, error)
}

// ClientConfig configures Client.
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the song service over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient returns a client for the song service at cfg.BaseURL.
func NewClient(cfg ClientConfig) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}
	return &Client{http: c}
}

// RequestSong adds a song to the streamer's queue. Requests are not retried.
func (c *Client) RequestSong(ctx context.Context, songID string) Result[QueueState] {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", songID).
		Post("/queue/songs/{id}")
	if err != nil {
		return ErrorResult[QueueState](err.Error())
	}
	return decodeEnvelope[QueueState](resp.Body(), resp.StatusCode())
}

// Search lists songs matching query.
func (c *Client) Search(ctx context.Context, query string) ([]catalog.Song, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get("/songs/search")
	if err != nil {
		return nil, fmt.Errorf("search songs: %w", err)
	}
	return unwrap(decodeEnvelope[[]catalog.Song](resp.Body(), resp.StatusCode()))
}

// Song fetches a single song descriptor.
func (c *Client) Song(ctx context.Context, songID string) (catalog.Song, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", songID).
		Get("/songs/{id}")
	if err != nil {
		return catalog.Song{}, fmt.Errorf("get song %s: %w", songID, err)
	}
	return unwrap(decodeEnvelope[catalog.Song](resp.Body(), resp.StatusCode()))
}

// decodeEnvelope reads the response envelope. The envelope code wins over the
// HTTP status; bodies that are not a JSON object still yield the HTTP status.
func decodeEnvelope[T any](body []byte, httpStatus int) Result[T] {
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		if httpStatus == http.StatusOK {
			return ErrorResult[T]("malformed response from song service")
		}
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(httpStatus)
		}
		return DataResult(APIResponse[T]{Code: httpStatus, Error: &APIError{Message: msg}})
	}

	out := APIResponse[T]{Code: httpStatus}
	if code := gjson.GetBytes(body, "code"); code.Exists() {
		out.Code = int(code.Int())
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		out.Error = &APIError{Message: msg.String()}
	}
	if out.Code == http.StatusOK {
		if data := gjson.GetBytes(body, "data"); data.Exists() {
			if err := json.Unmarshal([]byte(data.Raw), &out.Data); err != nil {
				return ErrorResult[T](fmt.Sprintf("decode response data: %v", err))
			}
		}
	}
	return DataResult(out)
}

func unwrap[T any](res Result[T]) (T, error) {
	var zero T
	if res.Type == ResultError {
		return zero, fmt.Errorf("song service: %s", res.Message)
	}
	if res.Data.Code != http.StatusOK {
		if res.Data.Error != nil {
			return zero, fmt.Errorf("song service returned %d: %s", res.Data.Code, res.Data.Error.Message)
		}
		return zero, fmt.Errorf("song service returned %d", res.Data.Code)
	}
	return res.Data.Data, nil
}
