package database

import (
	"github.com/fulldump/bucketdb/imm"
	"github.com/fulldump/bucketdb/modify"
	"github.com/fulldump/bucketdb/record"
)

// Bucket builds queries for one bucket. Queries built from a Database run
// directly against it, those built from a Transaction run against its
// working copy.
type Bucket struct {
	exec executor
	name string
}

func (b Bucket) Name() string {
	return b.name
}

func (b Bucket) query(action Action) Query {
	return Query{
		exec:   b.exec,
		action: action,
		bucket: b.name,
		limit:  -1,
	}
}

func (b Bucket) filtered(action Action, query any) Query {
	q := b.query(action)
	q.query = imm.From(query)
	return q
}

func (b Bucket) byID(action Action, id any) Query {
	q := b.query(action)
	q.id = record.IDString(imm.From(id))
	return q
}

func toRecord(doc any) *record.Record {
	if r, ok := doc.(*record.Record); ok {
		return r
	}
	return record.New(doc)
}

// Find selects every record matching query. A nil query matches all.
func (b Bucket) Find(query any) Query {
	return b.filtered(ActionFind, query)
}

func (b Bucket) FindByID(id any) Query {
	return b.byID(ActionFindByID, id)
}

func (b Bucket) FindOne(query any) Query {
	return b.filtered(ActionFindOne, query).Limit(1)
}

func (b Bucket) HasMatches(query any) Query {
	return b.filtered(ActionHasMatches, query)
}

// Create accepts records or plain field maps.
func (b Bucket) Create(docs ...any) Query {
	q := b.query(ActionCreate)
	q.docs = make([]*record.Record, len(docs))
	for i, doc := range docs {
		q.docs[i] = toRecord(doc)
	}
	return q
}

func (b Bucket) CreateOne(doc any) Query {
	q := b.query(ActionCreateOne)
	q.docs = []*record.Record{toRecord(doc)}
	return q
}

func (b Bucket) Update(query any, m modify.Modifier) Query {
	q := b.filtered(ActionUpdate, query)
	q.modifier = m
	return q
}

func (b Bucket) UpdateByID(id any, m modify.Modifier) Query {
	q := b.byID(ActionUpdateByID, id)
	q.modifier = m
	return q
}

func (b Bucket) UpdateOne(query any, m modify.Modifier) Query {
	q := b.filtered(ActionUpdateOne, query).Limit(1)
	q.modifier = m
	return q
}

func (b Bucket) Remove(query any) Query {
	return b.filtered(ActionRemove, query)
}

func (b Bucket) RemoveByID(id any) Query {
	return b.byID(ActionRemoveByID, id)
}

func (b Bucket) RemoveOne(query any) Query {
	return b.filtered(ActionRemoveOne, query).Limit(1)
}
