package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/bucketdb/database"
	"github.com/fulldump/bucketdb/filter"
	"github.com/fulldump/bucketdb/modify"
	"github.com/fulldump/bucketdb/service"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("temporary unavailable")
)

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(p)
}

func InterceptorUnavailable(db *database.Database) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := db.GetStatus()
			if status == database.StatusOpening || status == database.StatusClosing {
				box.SetError(ctx, fmt.Errorf("%w: %s", ErrUnavailable, status))
				return
			}
			next(ctx)
		}
	}
}

type errorStatus struct {
	target      error
	status      int
	description string
}

var errorStatuses = []errorStatus{
	{ErrUnauthorized, http.StatusUnauthorized, "user is not authenticated"},
	{ErrUnavailable, http.StatusServiceUnavailable, "database is not operating, retry later"},
	{database.ErrNotOpened, http.StatusServiceUnavailable, "database is not operating, retry later"},
	{database.ErrClosed, http.StatusServiceUnavailable, "database is not operating, retry later"},
	{database.ErrDuplicateID, http.StatusConflict, "a document with the same id already exists"},
	{database.ErrIDMutation, http.StatusBadRequest, "document id can not be modified"},
	{database.ErrUnknownOpcode, http.StatusBadRequest, "invalid modifier"},
	{modify.ErrInvalidParams, http.StatusBadRequest, "invalid modifier"},
	{modify.ErrEmptyPath, http.StatusBadRequest, "invalid modifier"},
	{filter.ErrInvalidFilter, http.StatusBadRequest, "invalid filter"},
	{database.ErrUnknownAction, http.StatusBadRequest, "invalid command"},
	{service.ErrorBadInput, http.StatusBadRequest, "invalid input"},
	{service.ErrorBucketNotFound, http.StatusNotFound, "bucket not found"},
	{service.ErrorDocumentNotFound, http.StatusNotFound, "document not found"},
	{database.ErrSyncFailed, http.StatusBadGateway, "changes applied locally but not replicated"},
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		status, description := http.StatusInternalServerError, "Unexpected error"
		for _, e := range errorStatuses {
			if errors.Is(err, e.target) {
				status, description = e.status, e.description
				break
			}
		}

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			status, description = http.StatusBadRequest, "Malformed JSON"
		}

		w.WriteHeader(status)
		PrettyError{
			Message:     err.Error(),
			Description: description,
		}.MarshalTo(w)
	}
}
