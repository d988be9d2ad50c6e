package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/fulldump/bucketdb/database"
	"github.com/fulldump/bucketdb/modify"
	"github.com/fulldump/bucketdb/record"
)

type Service struct {
	db *database.Database
}

func NewService(db *database.Database) *Service {
	return &Service{
		db: db,
	}
}

type Bucket struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// Query selects documents. A negative Limit means no limit.
type Query struct {
	Filter any                `json:"filter"`
	Skip   int                `json:"skip"`
	Limit  int                `json:"limit"`
	Sort   []database.SortKey `json:"sort"`
}

func (q *Query) apply(dq database.Query) database.Query {
	if q == nil {
		return dq
	}
	return dq.Skip(q.Skip).Limit(q.Limit).Sort(q.Sort...)
}

func (q *Query) filter() any {
	if q == nil {
		return nil
	}
	return q.Filter
}

type Status struct {
	Status  string `json:"status"`
	Version int64  `json:"version"`
	Pending int    `json:"pending"`
	Online  bool   `json:"online"`
}

func (s *Service) ListBuckets() ([]*Bucket, error) {

	store, err := s.db.Current()
	if err != nil {
		return nil, err
	}

	result := []*Bucket{}
	for _, name := range store.Names() {
		result = append(result, &Bucket{
			Name:  name,
			Total: store.Len(name),
		})
	}

	return result, nil
}

func (s *Service) GetBucket(name string) (*Bucket, error) {

	store, err := s.db.Current()
	if err != nil {
		return nil, err
	}

	total := store.Len(name)
	if total == 0 {
		return nil, ErrorBucketNotFound
	}

	return &Bucket{
		Name:  name,
		Total: total,
	}, nil
}

func (s *Service) Insert(ctx context.Context, bucket string, docs []map[string]any) ([]*record.Record, error) {

	items := make([]any, len(docs))
	for i, doc := range docs {
		items[i] = doc
	}

	result, err := s.db.Bucket(bucket).Create(items...).Do(ctx)
	return records(result), err
}

func (s *Service) Find(ctx context.Context, bucket string, q *Query) ([]*record.Record, error) {
	result, err := q.apply(s.db.Bucket(bucket).Find(q.filter())).Do(ctx)
	return records(result), err
}

func (s *Service) Update(ctx context.Context, bucket string, q *Query, m modify.Modifier) ([]*record.Record, error) {
	result, err := q.apply(s.db.Bucket(bucket).Update(q.filter(), m)).Do(ctx)
	return records(result), err
}

func (s *Service) Remove(ctx context.Context, bucket string, q *Query) ([]*record.Record, error) {
	result, err := q.apply(s.db.Bucket(bucket).Remove(q.filter())).Do(ctx)
	return records(result), err
}

// Patch applies a JSON merge patch to every selected document, all of
// them in one transaction.
func (s *Service) Patch(ctx context.Context, bucket string, q *Query, patch json.RawMessage) ([]*record.Record, error) {

	fields := map[string]any{}
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, fmt.Errorf("%w: patch must be a JSON object", ErrorBadInput)
	}

	patched := []*record.Record{}
	err := s.db.Tx(ctx, func(tx *database.Transaction) error {

		b := tx.Bucket(bucket)
		found, err := q.apply(b.Find(q.filter())).Do(ctx)
		if err != nil {
			return err
		}

		for _, doc := range found.Records {
			m, err := mergeModifier(doc, patch)
			if err != nil {
				return err
			}
			if len(m) == 0 {
				patched = append(patched, doc)
				continue
			}
			result, err := b.UpdateByID(doc.ID(), m).Do(ctx)
			if err != nil {
				return err
			}
			patched = append(patched, result.One())
		}

		return tx.Commit(ctx)
	})

	return patched, err
}

// mergeModifier turns the effect of patch on doc into top level sets and
// unsets.
func mergeModifier(doc *record.Record, patch []byte) (modify.Modifier, error) {

	original, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrorBadInput, err)
	}

	diff, err := jsonpatch.CreateMergePatch(original, merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrorBadInput, err)
	}

	changes := map[string]any{}
	if err := json.Unmarshal(diff, &changes); err != nil {
		return nil, err
	}
	result := map[string]any{}
	if err := json.Unmarshal(merged, &result); err != nil {
		return nil, err
	}

	m := modify.Modifier{}
	for key, change := range changes {
		if change == nil {
			m = append(m, modify.At([]string{key}).Unset().Entry())
			continue
		}
		m = append(m, modify.At([]string{key}).Set(result[key]).Entry())
	}

	return m, nil
}

func (s *Service) GetDocument(ctx context.Context, bucket, id string) (*record.Record, error) {

	result, err := s.db.Bucket(bucket).FindByID(id).Do(ctx)
	if err != nil {
		return nil, err
	}

	doc := result.One()
	if doc == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrorDocumentNotFound, id)
	}

	return doc, nil
}

func (s *Service) DeleteDocument(ctx context.Context, bucket, id string) (*record.Record, error) {

	result, err := s.db.Bucket(bucket).RemoveByID(id).Do(ctx)
	if errors.Is(err, database.ErrIndexValueLost) {
		return nil, fmt.Errorf("%w: '%s'", ErrorDocumentNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	doc := result.One()
	if doc == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrorDocumentNotFound, id)
	}

	return doc, nil
}

// Sync replays commands received from another node.
func (s *Service) Sync(ctx context.Context, commands []database.Command) error {
	return s.db.Apply(ctx, commands)
}

func (s *Service) Status() *Status {
	return &Status{
		Status:  s.db.GetStatus(),
		Version: s.db.Version(),
		Pending: len(s.db.Pending()),
		Online:  s.db.IsOnline(),
	}
}

func records(result *database.Result) []*record.Record {
	if result == nil {
		return []*record.Record{}
	}
	return result.Records
}
