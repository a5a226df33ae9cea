package songs

import (
	"fmt"
	"net/http"

	"github.com/justdancerequests/overlay/internal/status"
)

const (
	SuccessMessage = "Song added successfully"
	// InternalErrorMessage is shown for every transport or decoding failure.
	// The underlying error is logged, never displayed.
	InternalErrorMessage = "Internal error, please try again later"
)

// ResultType tells a decoded response from a transport failure.
type ResultType string

const (
	ResultData  ResultType = "data"
	ResultError ResultType = "error"
)

// Result is the outcome of a call to the song service: either a transport
// level error or the response envelope.
type Result[T any] struct {
	Type    ResultType
	Message string
	Data    *APIResponse[T]
}

// APIError is the error object of a response envelope.
type APIError struct {
	Message string `json:"message"`
}

// APIResponse is the envelope every song service response carries.
type APIResponse[T any] struct {
	Code  int       `json:"code"`
	Data  T         `json:"data"`
	Error *APIError `json:"error,omitempty"`
}

// QueuedSong is one entry of the request queue.
type QueuedSong struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// QueueState is the request queue after a successful request.
type QueueState struct {
	Songs []QueuedSong `json:"songs"`
}

// DataResult wraps a decoded envelope.
func DataResult[T any](resp APIResponse[T]) Result[T] {
	return Result[T]{Type: ResultData, Data: &resp}
}

// ErrorResult reports a failure that produced no envelope.
func ErrorResult[T any](message string) Result[T] {
	return Result[T]{Type: ResultError, Message: message}
}

// StatusFor maps a request outcome to the banner shown to the streamer.
func StatusFor[T any](res Result[T]) status.Status {
	if res.Type != ResultData || res.Data == nil {
		return status.Error(InternalErrorMessage)
	}
	if res.Data.Code != http.StatusOK {
		if res.Data.Error != nil && res.Data.Error.Message != "" {
			return status.Error(res.Data.Error.Message)
		}
		return status.Error(fmt.Sprintf("Request failed with status %d", res.Data.Code))
	}
	return status.Success(SuccessMessage)
}
