package database

import (
	"maps"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/fulldump/bucketdb/filter"
	"github.com/fulldump/bucketdb/imm"
	"github.com/fulldump/bucketdb/modify"
	"github.com/fulldump/bucketdb/record"
)

// Store holds every bucket and its id index. A published Store is never
// modified: writers fork it, replace the slices and index maps of the
// buckets they touch and publish the fork.
type Store struct {
	buckets map[string][]*record.Record
	indexes map[string]map[string]int
}

func newStore() *Store {
	return &Store{
		buckets: map[string][]*record.Record{},
		indexes: map[string]map[string]int{},
	}
}

func indexName(bucket string) string {
	return bucket + "." + record.IDField
}

// fork copies the top level maps only. Bucket slices and records are
// shared until a write replaces them.
func (s *Store) fork() *Store {
	return &Store{
		buckets: maps.Clone(s.buckets),
		indexes: maps.Clone(s.indexes),
	}
}

// Names lists the buckets in lexical order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) Len(bucket string) int {
	return len(s.buckets[bucket])
}

// Records returns the bucket as stored. The slice must not be modified.
func (s *Store) Records(bucket string) []*record.Record {
	return s.buckets[bucket]
}

func (s *Store) get(bucket, id string) *record.Record {
	i, ok := s.indexes[indexName(bucket)][id]
	if !ok {
		return nil
	}
	return s.buckets[bucket][i]
}

// match selects the records accepted by f. When every record matches and
// no window or order was requested the bucket slice itself is returned,
// whether or not f is the match-all filter.
func (s *Store) match(bucket string, f *filter.Filter, skip, limit int, keys []SortKey) []*record.Record {

	col := s.buckets[bucket]
	if len(col) == 0 {
		return []*record.Record{}
	}

	matches := col
	if !f.All() {
		matches = []*record.Record{}
		for _, r := range col {
			if f.Match(r.Data()) {
				matches = append(matches, r)
			}
		}
		if len(matches) == len(col) {
			matches = col
		}
	}

	if len(matches) == 0 {
		return matches
	}

	if len(keys) > 0 {
		return sortWindow(matches, keys, skip, limit)
	}

	if skip > 0 || limit >= 0 {
		return window(matches, skip, limit)
	}

	return matches
}

func (s *Store) hasMatches(bucket string, f *filter.Filter) bool {
	for _, r := range s.buckets[bucket] {
		if f.Match(r.Data()) {
			return true
		}
	}
	return false
}

// create appends docs, generating ids where missing. Nothing is written if
// any id collides with the index or with another doc of the batch.
func (s *Store) create(bucket string, docs []*record.Record) ([]*record.Record, error) {

	if len(docs) == 0 {
		return []*record.Record{}, nil
	}

	index := s.indexes[indexName(bucket)]
	created := make([]*record.Record, len(docs))
	batch := make(map[string]bool, len(docs))

	for i, doc := range docs {
		if !doc.HasID() {
			doc = doc.Extend(map[string]any{record.IDField: uuid.NewString()})
		}
		id := doc.ID()
		if _, exists := index[id]; exists || batch[id] {
			return nil, &Error{Op: string(ActionCreate), Bucket: bucket, ID: id, Err: ErrDuplicateID}
		}
		batch[id] = true
		created[i] = doc
	}

	col := slices.Clone(s.buckets[bucket])
	index = maps.Clone(index)
	if index == nil {
		index = make(map[string]int, len(created))
	}
	for _, doc := range created {
		index[doc.ID()] = len(col)
		col = append(col, doc)
	}

	s.buckets[bucket] = col
	s.indexes[indexName(bucket)] = index

	return created, nil
}

// update applies m to every match and writes the results back at the same
// positions. Nothing is written if any document fails or changes its id.
func (s *Store) update(bucket string, matches []*record.Record, m modify.Modifier) ([]*record.Record, error) {

	updated := make([]*record.Record, len(matches))
	changed := false

	for i, doc := range matches {
		next, err := modify.Apply(doc, m)
		if err != nil {
			return nil, &Error{Op: string(ActionUpdate), Bucket: bucket, ID: doc.ID(), Err: err}
		}
		if !imm.Equal(next.Get(record.IDField), doc.Get(record.IDField)) {
			return nil, &Error{Op: string(ActionUpdate), Bucket: bucket, ID: doc.ID(), Err: ErrIDMutation}
		}
		updated[i] = next
		changed = changed || next != doc
	}

	if !changed {
		return updated, nil
	}

	col := slices.Clone(s.buckets[bucket])
	index := s.indexes[indexName(bucket)]
	for i, doc := range matches {
		col[index[doc.ID()]] = updated[i]
	}
	s.buckets[bucket] = col

	return updated, nil
}

// remove drops matches from the bucket. Removing every record drops the
// bucket and its index, otherwise positions after the first removed record
// are renumbered in one pass.
func (s *Store) remove(bucket string, matches []*record.Record) {

	if len(matches) == 0 {
		return
	}

	col := s.buckets[bucket]
	name := indexName(bucket)

	if len(matches) == len(col) {
		delete(s.buckets, bucket)
		delete(s.indexes, name)
		return
	}

	index := maps.Clone(s.indexes[name])
	removed := make(map[string]bool, len(matches))
	start := len(col)
	for _, doc := range matches {
		id := doc.ID()
		removed[id] = true
		start = min(start, index[id])
	}

	kept := make([]*record.Record, start, len(col)-len(matches))
	copy(kept, col[:start])
	for _, doc := range col[start:] {
		id := doc.ID()
		if removed[id] {
			delete(index, id)
			continue
		}
		index[id] = len(kept)
		kept = append(kept, doc)
	}

	s.buckets[bucket] = kept
	s.indexes[name] = index
}

func (s *Store) removeByID(bucket, id string) (*record.Record, error) {

	if _, exists := s.buckets[bucket]; !exists {
		return nil, nil
	}

	doc := s.get(bucket, id)
	if doc == nil {
		return nil, &Error{Op: string(ActionRemoveByID), Bucket: bucket, ID: id, Err: ErrIndexValueLost}
	}

	s.remove(bucket, []*record.Record{doc})

	return doc, nil
}

// load rebuilds a Store from plain documents.
func load(data map[string][]map[string]any) (*Store, error) {
	s := newStore()
	for bucket, docs := range data {
		col := make([]*record.Record, 0, len(docs))
		index := make(map[string]int, len(docs))
		for _, fields := range docs {
			doc := record.New(fields)
			id := doc.ID()
			if _, exists := index[id]; exists {
				return nil, &Error{Op: "load", Bucket: bucket, ID: id, Err: ErrDuplicateID}
			}
			index[id] = len(col)
			col = append(col, doc)
		}
		if len(col) == 0 {
			continue
		}
		s.buckets[bucket] = col
		s.indexes[indexName(bucket)] = index
	}
	return s, nil
}

// dump renders the Store as plain documents.
func (s *Store) dump() map[string][]map[string]any {
	data := make(map[string][]map[string]any, len(s.buckets))
	for bucket, col := range s.buckets {
		docs := make([]map[string]any, len(col))
		for i, doc := range col {
			docs[i] = doc.Native()
		}
		data[bucket] = docs
	}
	return data
}
