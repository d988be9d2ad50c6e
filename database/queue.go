package database

import (
	"context"
)

// acquire takes the single writer slot. Waiters are served in FIFO order
// and fail with ErrClosed when the database is closed while they wait.
func (db *Database) acquire(ctx context.Context) (release func(), err error) {

	db.mutex.Lock()
	opened := db.opened.Load()
	lifetime := db.lifetime
	db.mutex.Unlock()

	if !opened {
		return nil, ErrNotOpened
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(lifetime, cancel)
	defer stop()

	err = db.queue.Acquire(ctx, 1)
	if err != nil {
		if lifetime.Err() != nil {
			return nil, ErrClosed
		}
		return nil, err
	}

	if lifetime.Err() != nil {
		db.queue.Release(1)
		return nil, ErrClosed
	}

	return func() {
		db.queue.Release(1)
	}, nil
}
