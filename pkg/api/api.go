// Package api holds the shared HTTP plumbing: the response contract,
// query parameter helpers, and the error-to-status mapping.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rodneyosodo/parfold/pkg/storage"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType = "application/json"

	MaxLimitSize = 100
)

var (
	ErrValidation   = errors.New("validation error")
	ErrMissingID    = errors.New("missing entity id")
	ErrInvalidQuery = errors.New("invalid query parameter")
	ErrLimitSize    = errors.New("invalid limit size")
)

// Response lets endpoint responses control their own status code and
// headers before the body is encoded.
type Response interface {
	Code() int
	Headers() map[string]string
	Empty() bool
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	if ar, ok := response.(Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, storage.ErrEmptyKey),
		errors.Is(err, storage.ErrEntityExists):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if err := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// ReadNumQuery reads an unsigned numeric query parameter, falling back
// to def when the key is absent.
func ReadNumQuery(values url.Values, key string, def uint64) (uint64, error) {
	val := values.Get(key)
	if val == "" {
		return def, nil
	}

	num, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, errors.Join(ErrInvalidQuery, err)
	}

	return num, nil
}
