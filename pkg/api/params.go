package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errors.Join(fmt.Errorf("%w: %s", ErrInvalidParameter, name), err)
	}
	return id, nil
}

// optionalUUID parses s, treating an empty string as uuid.Nil.
func optionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidParameter, err)
	}
	return id, nil
}

func assignmentParams(r *http.Request) (tenantID, userID uuid.UUID, err error) {
	if tenantID, err = pathUUID(r, "tenantID"); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if userID, err = pathUUID(r, "userID"); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return tenantID, userID, nil
}

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// pageParams reads limit and skip from the query string. limit defaults to
// defaultPageSize and must not exceed maxPageSize.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()

	limit = defaultPageSize
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 || limit > maxPageSize {
			return 0, 0, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidParameter, maxPageSize)
		}
	}
	if v := q.Get("skip"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("%w: skip must be a non-negative integer", ErrInvalidParameter)
		}
	}
	return limit, offset, nil
}

// optionalTime parses an RFC 3339 timestamp, treating an empty string as the
// zero time.
func optionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidParameter, err)
	}
	return t, nil
}
