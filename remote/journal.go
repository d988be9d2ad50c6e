package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/multierr"

	"github.com/fulldump/bucketdb/database"
)

// Journal appends the change log to a local file, one JSON command per
// line. Replaying it on an empty database rebuilds the state.
type Journal struct {
	filename string
	mutex    sync.Mutex
	file     *os.File
	w        *bufio.Writer
}

func OpenJournal(filename string) (*Journal, error) {

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open journal for write: %w", err)
	}

	return &Journal{
		filename: filename,
		file:     f,
		w:        bufio.NewWriter(f),
	}, nil
}

func (j *Journal) ID() string {
	return "journal:" + j.filename
}

func (j *Journal) IsOnline() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return j.file != nil
}

// Sync appends commands and flushes them to disk before returning.
func (j *Journal) Sync(ctx context.Context, commands []database.Command) error {

	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.file == nil {
		return os.ErrClosed
	}

	e := json.NewEncoder(j.w)
	for _, c := range commands {
		if err := e.Encode(c); err != nil {
			return fmt.Errorf("json encode command '%s': %w", c.Uuid, err)
		}
	}
	if err := j.w.Flush(); err != nil {
		return err
	}

	return j.file.Sync()
}

// Commands reads every command written so far.
func (j *Journal) Commands() ([]database.Command, error) {

	j.mutex.Lock()
	if j.w != nil {
		j.w.Flush()
	}
	j.mutex.Unlock()

	return ReadJournal(j.filename)
}

// Replay applies the whole journal to db.
func (j *Journal) Replay(ctx context.Context, db *database.Database) error {
	commands, err := j.Commands()
	if err != nil {
		return err
	}
	return db.Apply(ctx, commands)
}

func (j *Journal) Close() error {

	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.file == nil {
		return nil
	}

	err := multierr.Combine(j.w.Flush(), j.file.Close())
	j.file = nil
	return err
}

// ReadJournal decodes a journal file. A missing file is an empty journal.
func ReadJournal(filename string) ([]database.Command, error) {

	f, err := os.Open(filename)
	if os.IsNotExist(err) {
		return []database.Command{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal for read: %w", err)
	}
	defer f.Close()

	commands := []database.Command{}
	d := json.NewDecoder(bufio.NewReader(f))
	for {
		c := database.Command{}
		err := d.Decode(&c)
		if err == io.EOF {
			return commands, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode journal line %d: %w", len(commands)+1, err)
		}
		commands = append(commands, c)
	}
}
