package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/haryoiro/tubetone/internal/constants"
	"google.golang.org/api/googleapi"
)

// Error classes surfaced to the user. None of them are retried.
var (
	ErrMissingAPIKey   = errors.New("youtube api key is not configured")
	ErrRequestFailed   = errors.New("youtube api request failed")
	ErrInvalidVideoURL = errors.New("invalid youtube url")
	ErrPlayback        = errors.New("playback failed")
)

// RequestError carries the upstream status and error body of a failed call.
// It matches ErrRequestFailed with errors.Is.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Details json.RawMessage
	Err     error
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool { return target == ErrRequestFailed }

// wrapRequestError converts a google api error into a RequestError
func wrapRequestError(op string, err error) error {
	if err == nil {
		return nil
	}
	re := &RequestError{Op: op, Status: http.StatusInternalServerError, Err: err}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		re.Status = gerr.Code
		re.Message = gerr.Message
		if json.Valid([]byte(gerr.Body)) {
			re.Details = json.RawMessage(gerr.Body)
		}
	}
	if re.Details == nil {
		msg := re.Message
		if msg == "" {
			msg = err.Error()
		}
		re.Details, _ = json.Marshal(map[string]string{"message": msg})
	}
	return re
}

// UserMessage converts an error into the string shown in the UI
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return constants.MsgMissingAPIKey
	case errors.Is(err, ErrInvalidVideoURL):
		return constants.MsgInvalidVideoURL
	case errors.Is(err, ErrPlayback):
		return constants.MsgPlaybackFailed
	}

	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return constants.MsgRequestFailed
}
