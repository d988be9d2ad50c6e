package database

import (
	"context"
	"fmt"
	"slices"

	"github.com/fulldump/bucketdb/filter"
	"github.com/fulldump/bucketdb/imm"
	"github.com/fulldump/bucketdb/modify"
	"github.com/fulldump/bucketdb/record"
)

type Action string

const (
	ActionFind       Action = "find"
	ActionFindByID   Action = "findById"
	ActionFindOne    Action = "findOne"
	ActionHasMatches Action = "hasMatches"
	ActionCreate     Action = "create"
	ActionCreateOne  Action = "createOne"
	ActionUpdate     Action = "update"
	ActionUpdateByID Action = "updateById"
	ActionUpdateOne  Action = "updateOne"
	ActionRemove     Action = "remove"
	ActionRemoveByID Action = "removeById"
	ActionRemoveOne  Action = "removeOne"
)

func (a Action) Mutates() bool {
	switch a {
	case ActionCreate, ActionCreateOne,
		ActionUpdate, ActionUpdateByID, ActionUpdateOne,
		ActionRemove, ActionRemoveByID, ActionRemoveOne:
		return true
	}
	return false
}

type executor interface {
	execute(ctx context.Context, q Query) (*Result, error)
}

// Query is a configurable request against one bucket. It is a value:
// Skip, Limit and Sort return a modified copy. Nothing runs until Resolve
// or Do.
type Query struct {
	exec     executor
	action   Action
	bucket   string
	query    imm.Value
	id       string
	docs     []*record.Record
	modifier modify.Modifier
	skip     int
	limit    int
	sort     []SortKey
}

func (q Query) Action() Action {
	return q.action
}

func (q Query) Skip(n int) Query {
	q.skip = n
	return q
}

// Limit caps the number of selected records. A negative n removes the cap.
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

func (q Query) Sort(keys ...SortKey) Query {
	q.sort = slices.Clone(keys)
	return q
}

// Resolve starts the query on its own goroutine.
func (q Query) Resolve(ctx context.Context) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.result, t.err = q.exec.execute(ctx, q)
	}()
	return t
}

func (q Query) Do(ctx context.Context) (*Result, error) {
	return q.Resolve(ctx).Wait()
}

// apply runs q against s. Mutating actions change s in place, so s must
// be a private fork.
func (q Query) apply(s *Store) (*Result, error) {

	switch q.action {
	case ActionFind, ActionFindOne:
		f, err := q.compile()
		if err != nil {
			return nil, err
		}
		return &Result{Records: s.match(q.bucket, f, q.skip, q.limit, q.sort)}, nil

	case ActionFindByID:
		return single(s.get(q.bucket, q.id)), nil

	case ActionHasMatches:
		f, err := q.compile()
		if err != nil {
			return nil, err
		}
		matched := s.hasMatches(q.bucket, f)
		return &Result{Records: []*record.Record{}, Matched: matched}, nil

	case ActionCreate, ActionCreateOne:
		created, err := s.create(q.bucket, q.docs)
		if err != nil {
			return nil, err
		}
		return &Result{Records: created, Matched: len(created) > 0}, nil

	case ActionUpdate, ActionUpdateOne:
		f, err := q.compile()
		if err != nil {
			return nil, err
		}
		matches := s.match(q.bucket, f, q.skip, q.limit, q.sort)
		updated, err := s.update(q.bucket, matches, q.modifier)
		if err != nil {
			return nil, err
		}
		return &Result{Records: updated, Matched: len(updated) > 0}, nil

	case ActionUpdateByID:
		doc := s.get(q.bucket, q.id)
		if doc == nil {
			return single(nil), nil
		}
		updated, err := s.update(q.bucket, []*record.Record{doc}, q.modifier)
		if err != nil {
			return nil, err
		}
		return single(updated[0]), nil

	case ActionRemove, ActionRemoveOne:
		f, err := q.compile()
		if err != nil {
			return nil, err
		}
		matches := s.match(q.bucket, f, q.skip, q.limit, q.sort)
		s.remove(q.bucket, matches)
		return &Result{Records: matches, Matched: len(matches) > 0}, nil

	case ActionRemoveByID:
		doc, err := s.removeByID(q.bucket, q.id)
		if err != nil {
			return nil, err
		}
		return single(doc), nil
	}

	return nil, fmt.Errorf("%w '%s'", ErrUnknownAction, q.action)
}

func (q Query) compile() (*filter.Filter, error) {
	f, err := filter.Compile(q.query)
	if err != nil {
		return nil, &Error{Op: string(q.action), Bucket: q.bucket, Err: err}
	}
	return f, nil
}

func single(doc *record.Record) *Result {
	if doc == nil {
		return &Result{Records: []*record.Record{}}
	}
	return &Result{Records: []*record.Record{doc}, Matched: true}
}

// Result of a resolved query. Records is never nil. Matched tells whether
// anything was found, for HasMatches in particular.
type Result struct {
	Records []*record.Record
	Matched bool
}

// One returns the first record or nil.
func (r *Result) One() *record.Record {
	if r == nil || len(r.Records) == 0 {
		return nil
	}
	return r.Records[0]
}

// Task is a query in flight.
type Task struct {
	done   chan struct{}
	result *Result
	err    error
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the query settles. On a sync failure the local result
// is returned along with the error.
func (t *Task) Wait() (*Result, error) {
	<-t.done
	return t.result, t.err
}

// Err is nil while the task is running.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
