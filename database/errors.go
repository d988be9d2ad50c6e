package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fulldump/bucketdb/modify"
)

var (
	ErrDuplicateID    = errors.New("duplicated id")
	ErrIDMutation     = errors.New("id mutation")
	ErrIndexValueLost = errors.New("index value lost")
	ErrNotOpened      = errors.New("database not opened")
	ErrAlreadyOpened  = errors.New("database already opened")
	ErrClosed         = errors.New("database closed")
	ErrCommitted      = errors.New("transaction already committed")
	ErrRolledBack     = errors.New("transaction rolled back")
	ErrSyncFailed     = errors.New("sync failed")
	ErrUnknownAction  = errors.New("unknown action")
	ErrUnknownOpcode  = modify.ErrUnknownOpcode
)

// Error carries the context of a rejected operation.
type Error struct {
	Op     string
	Bucket string
	ID     string
	Err    error
}

func (e *Error) Error() string {
	s := e.Op
	if e.Bucket != "" {
		s += " " + e.Bucket
	}
	if e.ID != "" {
		s += " id '" + e.ID + "'"
	}
	return s + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SyncError is returned when the acknowledgement threshold can no longer be
// reached. Report holds the outcome of every remote that answered.
type SyncError struct {
	Report map[string]bool
	Errors error
}

func (e *SyncError) Error() string {
	ids := make([]string, 0, len(e.Report))
	for id, ok := range e.Report {
		if !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return fmt.Sprintf("%s: failed remotes [%s]: %v", ErrSyncFailed, strings.Join(ids, ","), e.Errors)
}

func (e *SyncError) Is(target error) bool {
	return target == ErrSyncFailed
}

func (e *SyncError) Unwrap() error {
	return e.Errors
}
