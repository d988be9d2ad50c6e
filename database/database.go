package database

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

const DefaultSnapshotFile = "db.json"

type Config struct {
	Dir              string
	SnapshotFile     string
	Remotes          []Remote
	SuccessLimit     float64
	AutosaveInterval time.Duration

	// StrictWrites queues direct writes behind transactions.
	StrictWrites bool
}

type Database struct {
	config *Config
	status atomic.Value

	store  atomic.Pointer[Store]
	opened atomic.Bool

	// mutex serializes direct writes, commits, Open and Close.
	mutex    sync.Mutex
	version  int64
	saved    int64
	lifetime context.Context
	cancel   context.CancelFunc

	queue *semaphore.Weighted

	pendingMutex sync.Mutex
	pending      []Command

	fileMutex sync.Mutex
	stopOnce  sync.Once
	exit      chan struct{}
}

// NewDatabase returns a closed database. Use Open, or Load/Start to read
// the snapshot file.
func NewDatabase(config *Config) *Database {
	if config == nil {
		config = &Config{}
	}

	db := &Database{
		config: config,
		queue:  semaphore.NewWeighted(1),
		exit:   make(chan struct{}),
	}
	db.status.Store(StatusOpening)
	db.store.Store(newStore())

	return db
}

func (db *Database) GetStatus() string {
	return db.status.Load().(string)
}

func (db *Database) setStatus(status string) {
	db.status.Store(status)
}

func (db *Database) Config() *Config {
	return db.config
}

// Open installs snapshot as the current state.
func (db *Database) Open(snapshot *Snapshot) error {

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if db.opened.Load() {
		return ErrAlreadyOpened
	}

	if snapshot == nil {
		snapshot = &Snapshot{}
	}
	s, err := load(snapshot.Data)
	if err != nil {
		return err
	}

	db.store.Store(s)
	db.version = snapshot.Version
	db.saved = snapshot.Version
	db.lifetime, db.cancel = context.WithCancel(context.Background())
	db.opened.Store(true)

	return nil
}

// Close returns the final snapshot, fails every transaction still waiting
// in the queue with ErrClosed and resets the database to empty.
func (db *Database) Close() (*Snapshot, error) {

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if !db.opened.Load() {
		return nil, ErrNotOpened
	}

	snapshot := &Snapshot{
		Version: db.version,
		Data:    db.store.Load().dump(),
	}

	db.cancel()
	db.opened.Store(false)
	db.store.Store(newStore())
	db.version = 0
	db.saved = 0

	db.pendingMutex.Lock()
	db.pending = nil
	pendingCommands.Set(0)
	db.pendingMutex.Unlock()

	return snapshot, nil
}

// Current returns the published Store. It stays valid and unchanged no
// matter what is written afterwards.
func (db *Database) Current() (*Store, error) {
	if !db.opened.Load() {
		return nil, ErrNotOpened
	}
	return db.store.Load(), nil
}

func (db *Database) Version() int64 {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	return db.version
}

// Snapshot renders the current state without closing.
func (db *Database) Snapshot() (*Snapshot, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if !db.opened.Load() {
		return nil, ErrNotOpened
	}

	return &Snapshot{
		Version: db.version,
		Data:    db.store.Load().dump(),
	}, nil
}

func (db *Database) Bucket(name string) Bucket {
	return Bucket{exec: db, name: name}
}

func (db *Database) execute(ctx context.Context, q Query) (*Result, error) {

	if !q.action.Mutates() {
		s, err := db.Current()
		if err != nil {
			return nil, err
		}
		return q.apply(s)
	}

	if db.config.StrictWrites {
		release, err := db.acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	result, command, err := db.write(q)
	if err != nil {
		return nil, err
	}

	return result, db.sync(ctx, []Command{command})
}

// write computes q on a fork of the current Store and publishes it.
func (db *Database) write(q Query) (*Result, Command, error) {

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if !db.opened.Load() {
		return nil, Command{}, ErrNotOpened
	}

	next := db.store.Load().fork()
	result, err := q.apply(next)
	if err != nil {
		return nil, Command{}, err
	}

	command, err := newCommand(q, result)
	if err != nil {
		return nil, Command{}, err
	}

	db.store.Store(next)
	db.version++
	mutationsTotal.WithLabelValues(string(q.action)).Inc()

	return result, command, nil
}

func (db *Database) filename() string {
	name := db.config.SnapshotFile
	if name == "" {
		name = DefaultSnapshotFile
	}
	return filepath.Join(db.config.Dir, name)
}

// Load reads the snapshot file and opens the database.
func (db *Database) Load() error {

	filename := db.filename()
	db.setStatus(StatusOpening)
	log.WithField("file", filename).Info("loading database")

	t0 := time.Now()
	snapshot, err := ReadSnapshot(filename)
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	err = db.Open(snapshot)
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	log.WithFields(log.Fields{
		"file":    filename,
		"version": snapshot.Version,
		"buckets": len(snapshot.Data),
		"elapsed": time.Since(t0),
	}).Info("database loaded")
	db.setStatus(StatusOperating)

	return nil
}

// Save writes the snapshot file if something changed since the last save.
func (db *Database) Save() error {

	db.mutex.Lock()
	if !db.opened.Load() {
		db.mutex.Unlock()
		return ErrNotOpened
	}
	if db.version == db.saved {
		db.mutex.Unlock()
		return nil
	}
	snapshot := &Snapshot{
		Version: db.version,
		Data:    db.store.Load().dump(),
	}
	db.mutex.Unlock()

	db.fileMutex.Lock()
	err := WriteSnapshot(db.filename(), snapshot)
	db.fileMutex.Unlock()
	if err != nil {
		return err
	}

	db.mutex.Lock()
	if snapshot.Version > db.saved {
		db.saved = snapshot.Version
	}
	db.mutex.Unlock()

	return nil
}

// Start loads the database and autosaves until Stop is called.
func (db *Database) Start() error {

	err := db.Load()
	if err != nil {
		return err
	}

	var tick <-chan time.Time
	if db.config.AutosaveInterval > 0 {
		ticker := time.NewTicker(db.config.AutosaveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-db.exit:
			return nil
		case <-tick:
			if err := db.Save(); err != nil {
				log.WithError(err).Error("autosave")
			}
			db.probe(context.Background())
			if err := db.Flush(context.Background()); err != nil {
				log.WithError(err).Warn("flush pending log")
			}
		}
	}
}

// Stop persists and closes the database.
func (db *Database) Stop() error {

	var err error
	db.stopOnce.Do(func() {
		defer close(db.exit)

		db.setStatus(StatusClosing)

		var snapshot *Snapshot
		snapshot, err = db.Close()
		if err != nil {
			return
		}

		filename := db.filename()
		log.WithFields(log.Fields{
			"file":    filename,
			"version": snapshot.Version,
		}).Info("saving database")
		db.fileMutex.Lock()
		defer db.fileMutex.Unlock()
		err = WriteSnapshot(filename, snapshot)
	})

	return err
}
