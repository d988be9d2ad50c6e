package database

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

type txState int

const (
	txOpen txState = iota
	txCommitted
	txRolledBack
)

// Transaction works on a private copy of the Store taken when it began.
// Its writes are logged privately and only reach the database, and its
// remotes, on Commit.
type Transaction struct {
	db       *Database
	lifetime context.Context
	version  int64

	mutex sync.Mutex
	store *Store
	log   []Command
	state txState
}

// Tx runs fn once every previously queued transaction has settled. A
// transaction that fn leaves unsettled is rolled back.
func (db *Database) Tx(ctx context.Context, fn func(tx *Transaction) error) error {

	release, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := db.begin()
	if err != nil {
		return err
	}
	defer tx.rollbackIfOpen()

	return fn(tx)
}

func (db *Database) begin() (*Transaction, error) {

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if !db.opened.Load() {
		return nil, ErrNotOpened
	}

	return &Transaction{
		db:       db,
		lifetime: db.lifetime,
		version:  db.version,
		store:    db.store.Load(),
	}, nil
}

func (tx *Transaction) Bucket(name string) Bucket {
	return Bucket{exec: tx, name: name}
}

func (tx *Transaction) settled() error {
	switch tx.state {
	case txCommitted:
		return ErrCommitted
	case txRolledBack:
		return ErrRolledBack
	}
	return nil
}

func (tx *Transaction) execute(ctx context.Context, q Query) (*Result, error) {

	tx.mutex.Lock()
	defer tx.mutex.Unlock()

	if err := tx.settled(); err != nil {
		return nil, err
	}

	if !q.action.Mutates() {
		return q.apply(tx.store)
	}

	next := tx.store.fork()
	result, err := q.apply(next)
	if err != nil {
		return nil, err
	}

	command, err := newCommand(q, result)
	if err != nil {
		return nil, err
	}

	tx.store = next
	tx.log = append(tx.log, command)

	return result, nil
}

// Commit publishes the working copy in one swap and forwards the
// transaction log to the remotes.
func (tx *Transaction) Commit(ctx context.Context) error {

	tx.mutex.Lock()

	if err := tx.settled(); err != nil {
		tx.mutex.Unlock()
		return err
	}

	db := tx.db
	db.mutex.Lock()
	if !db.opened.Load() || db.lifetime != tx.lifetime {
		db.mutex.Unlock()
		tx.mutex.Unlock()
		return ErrClosed
	}
	if db.version != tx.version {
		log.WithFields(log.Fields{
			"base":    tx.version,
			"current": db.version,
		}).Warn("database changed during transaction, commit overrides it")
	}
	db.store.Store(tx.store)
	db.version++
	db.mutex.Unlock()

	commands := tx.log
	tx.state = txCommitted
	tx.log = nil
	tx.mutex.Unlock()

	transactionsTotal.WithLabelValues("committed").Inc()

	return db.sync(ctx, commands)
}

// Rollback discards the working copy.
func (tx *Transaction) Rollback() error {

	tx.mutex.Lock()
	defer tx.mutex.Unlock()

	if err := tx.settled(); err != nil {
		return err
	}

	tx.state = txRolledBack
	tx.store = nil
	tx.log = nil
	transactionsTotal.WithLabelValues("rolled_back").Inc()

	return nil
}

func (tx *Transaction) rollbackIfOpen() {
	tx.mutex.Lock()
	open := tx.state == txOpen
	tx.mutex.Unlock()
	if open {
		tx.Rollback()
	}
}
