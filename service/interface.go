package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fulldump/bucketdb/database"
	"github.com/fulldump/bucketdb/modify"
	"github.com/fulldump/bucketdb/record"
)

var (
	ErrorBucketNotFound   = errors.New("bucket not found")
	ErrorDocumentNotFound = errors.New("document not found")
	ErrorBadInput         = errors.New("bad input")
)

type Servicer interface {
	ListBuckets() ([]*Bucket, error)
	GetBucket(name string) (*Bucket, error)

	Insert(ctx context.Context, bucket string, docs []map[string]any) ([]*record.Record, error)
	Find(ctx context.Context, bucket string, q *Query) ([]*record.Record, error)
	Update(ctx context.Context, bucket string, q *Query, m modify.Modifier) ([]*record.Record, error)
	Patch(ctx context.Context, bucket string, q *Query, patch json.RawMessage) ([]*record.Record, error)
	Remove(ctx context.Context, bucket string, q *Query) ([]*record.Record, error)

	GetDocument(ctx context.Context, bucket, id string) (*record.Record, error)
	DeleteDocument(ctx context.Context, bucket, id string) (*record.Record, error)

	Sync(ctx context.Context, commands []database.Command) error
	Status() *Status
}
