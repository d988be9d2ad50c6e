package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fulldump/bucketdb/imm"
	"github.com/fulldump/bucketdb/modify"
	"github.com/fulldump/bucketdb/record"
)

// Command is one log entry: the parameters of an accepted mutating call,
// enough for a replica to replay it. Created documents are logged with
// their assigned ids.
type Command struct {
	Name      string          `json:"name"`
	Uuid      string          `json:"uuid"`
	Timestamp int64           `json:"timestamp"`
	Bucket    string          `json:"bucket"`
	Payload   json.RawMessage `json:"payload"`
}

type commandPayload struct {
	Query    any             `json:"query,omitempty"`
	ID       string          `json:"id,omitempty"`
	Docs     []any           `json:"docs,omitempty"`
	Modifier modify.Modifier `json:"modifier,omitempty"`
	Skip     int             `json:"skip,omitempty"`
	Limit    *int            `json:"limit,omitempty"`
	Sort     []SortKey       `json:"sort,omitempty"`
}

func newCommand(q Query, result *Result) (Command, error) {

	p := commandPayload{
		Query:    imm.ToNative(q.query),
		ID:       q.id,
		Modifier: q.modifier,
		Skip:     q.skip,
		Sort:     q.sort,
	}
	if q.limit >= 0 {
		limit := q.limit
		p.Limit = &limit
	}
	if q.action == ActionCreate || q.action == ActionCreateOne {
		for _, doc := range result.Records {
			p.Docs = append(p.Docs, doc.Native())
		}
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return Command{}, fmt.Errorf("json encode payload: %w", err)
	}

	return Command{
		Name:      string(q.action),
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		Bucket:    q.bucket,
		Payload:   payload,
	}, nil
}

// Query rebuilds the call described by the command on top of b.
func (c Command) Query(b Bucket) (Query, error) {

	action := Action(c.Name)
	if !action.Mutates() {
		return Query{}, fmt.Errorf("%w '%s'", ErrUnknownAction, c.Name)
	}

	p := commandPayload{}
	if len(c.Payload) > 0 {
		if err := json.Unmarshal(c.Payload, &p); err != nil {
			return Query{}, fmt.Errorf("json decode payload: %w", err)
		}
	}

	q := b.query(action)
	q.query = imm.From(p.Query)
	q.id = p.ID
	q.modifier = p.Modifier
	q.skip = p.Skip
	q.sort = p.Sort
	if p.Limit != nil {
		q.limit = *p.Limit
	}
	for _, doc := range p.Docs {
		q.docs = append(q.docs, record.New(doc))
	}

	return q, nil
}
