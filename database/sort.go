package database

import (
	"github.com/google/btree"

	"github.com/fulldump/bucketdb/imm"
	"github.com/fulldump/bucketdb/record"
)

// SortKey orders by the value at a dotted field path.
type SortKey struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

func Asc(field string) SortKey {
	return SortKey{Field: field}
}

func Desc(field string) SortKey {
	return SortKey{Field: field, Desc: true}
}

type sortItem struct {
	record   *record.Record
	keys     []imm.Value
	position int
}

// sortWindow orders records by keys, then by id, then by position, and
// returns the [skip, skip+limit) window of that order. limit < 0 means no
// limit.
func sortWindow(records []*record.Record, keys []SortKey, skip, limit int) []*record.Record {

	paths := make([]imm.Path, len(keys))
	for i, k := range keys {
		paths[i] = imm.ParsePath(k.Field)
	}

	tree := btree.NewG[sortItem](16, func(a, b sortItem) bool {
		for i, k := range keys {
			c := imm.Compare(a.keys[i], b.keys[i])
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		if c := imm.Compare(a.record.Get(record.IDField), b.record.Get(record.IDField)); c != 0 {
			return c < 0
		}
		return a.position < b.position
	})

	for i, r := range records {
		values := make([]imm.Value, len(paths))
		for j, p := range paths {
			values[j] = r.GetIn(p)
		}
		tree.ReplaceOrInsert(sortItem{record: r, keys: values, position: i})
	}

	result := []*record.Record{}
	skipped := 0
	tree.Ascend(func(item sortItem) bool {
		if skipped < skip {
			skipped++
			return true
		}
		if limit >= 0 && len(result) >= limit {
			return false
		}
		result = append(result, item.record)
		return true
	})

	return result
}

// window applies skip and limit keeping the current order.
func window(records []*record.Record, skip, limit int) []*record.Record {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(records) {
		return []*record.Record{}
	}
	end := len(records)
	if limit >= 0 && skip+limit < end {
		end = skip + limit
	}
	return records[skip:end:end]
}
