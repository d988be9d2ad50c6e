package database

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const DefaultSuccessLimit = 0.5

// Remote is a sync target receiving the change log.
type Remote interface {
	ID() string
	IsOnline() bool
	Sync(ctx context.Context, commands []Command) error
}

// requiredAcks turns the configured limit into a number of remotes. A
// value in (0, 1) is a fraction of n, anything else an absolute count.
func requiredAcks(limit float64, n int) int {
	if limit <= 0 {
		limit = DefaultSuccessLimit
	}
	if limit < 1 {
		return max(int(math.Ceil(limit*float64(n))), 1)
	}
	return min(int(limit), n)
}

// Prober is implemented by remotes able to check their own reachability,
// which is how an offline remote comes back online.
type Prober interface {
	Probe(ctx context.Context) error
}

func (db *Database) probe(ctx context.Context) {
	for _, r := range db.config.Remotes {
		p, ok := r.(Prober)
		if !ok || r.IsOnline() {
			continue
		}
		if err := p.Probe(ctx); err != nil {
			log.WithError(err).WithField("remote", r.ID()).Debug("remote still offline")
		}
	}
}

func (db *Database) IsOnline() bool {
	for _, r := range db.config.Remotes {
		if r.IsOnline() {
			return true
		}
	}
	return false
}

// sync forwards commands to the remotes. With no remote online the
// commands are kept in the pending log and the call succeeds.
func (db *Database) sync(ctx context.Context, commands []Command) error {

	if len(commands) == 0 {
		return nil
	}

	if !db.IsOnline() {
		db.pendingMutex.Lock()
		db.pending = append(db.pending, commands...)
		pendingCommands.Set(float64(len(db.pending)))
		db.pendingMutex.Unlock()
		syncTotal.WithLabelValues("pending").Inc()
		return nil
	}

	return db.replicate(ctx, commands)
}

type ack struct {
	remote string
	err    error
}

// replicate sends commands to every remote concurrently. It returns as soon
// as enough remotes acknowledged, or as soon as the threshold became
// unreachable.
func (db *Database) replicate(ctx context.Context, commands []Command) error {

	remotes := db.config.Remotes
	required := requiredAcks(db.config.SuccessLimit, len(remotes))

	t0 := time.Now()
	defer func() {
		syncSeconds.Observe(time.Since(t0).Seconds())
	}()

	acks := make(chan ack, len(remotes))
	remoteCtx := context.WithoutCancel(ctx)
	for _, r := range remotes {
		go func(r Remote) {
			acks <- ack{remote: r.ID(), err: r.Sync(remoteCtx, commands)}
		}(r)
	}

	report := map[string]bool{}
	var errs error
	succeeded, outstanding := 0, len(remotes)

	for outstanding > 0 {
		var a ack
		select {
		case a = <-acks:
		case <-ctx.Done():
			return ctx.Err()
		}
		outstanding--

		report[a.remote] = a.err == nil
		if a.err == nil {
			succeeded++
		} else {
			errs = multierr.Append(errs, fmt.Errorf("remote '%s': %w", a.remote, a.err))
		}

		if succeeded >= required {
			syncTotal.WithLabelValues("replicated").Inc()
			return nil
		}
		if succeeded+outstanding < required {
			break
		}
	}

	syncTotal.WithLabelValues("failed").Inc()
	log.WithFields(log.Fields{
		"commands":  len(commands),
		"succeeded": succeeded,
		"required":  required,
		"err":       errs,
	}).Warn("sync failed")

	return &SyncError{Report: report, Errors: errs}
}

// Pending returns a copy of the commands waiting for a remote.
func (db *Database) Pending() []Command {
	db.pendingMutex.Lock()
	defer db.pendingMutex.Unlock()
	return append([]Command{}, db.pending...)
}

// Flush replicates the pending log once a remote is online. On failure the
// commands are kept, ahead of anything buffered meanwhile.
func (db *Database) Flush(ctx context.Context) error {

	if !db.IsOnline() {
		return nil
	}

	db.pendingMutex.Lock()
	commands := db.pending
	db.pending = nil
	pendingCommands.Set(0)
	db.pendingMutex.Unlock()

	if len(commands) == 0 {
		return nil
	}

	err := db.replicate(ctx, commands)
	if err != nil {
		db.pendingMutex.Lock()
		db.pending = append(commands, db.pending...)
		pendingCommands.Set(float64(len(db.pending)))
		db.pendingMutex.Unlock()
		return err
	}

	log.WithField("commands", len(commands)).Info("pending log flushed")
	return nil
}
