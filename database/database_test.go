package database

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/bucketdb/modify"
)

func openDatabase(config *Config) *Database {
	db := NewDatabase(config)
	AssertNil(db.Open(nil))
	return db
}

func ids(result *Result) []string {
	list := []string{}
	for _, r := range result.Records {
		list = append(list, r.ID())
	}
	return list
}

func TestCreate(t *testing.T) {

	ctx := context.Background()

	Alternative("Open empty database", func(a *A) {

		db := openDatabase(nil)
		accounts := db.Bucket("accounts")

		a.Alternative("Create without id", func(a *A) {
			result, err := accounts.Create(map[string]any{"username": "a"}).Do(ctx)
			AssertNil(err)
			AssertEqual(len(result.Records), 1)

			created := result.One()
			AssertTrue(created.HasID())
			AssertEqual(created.Get("username"), "a")

			all, err := accounts.Find(nil).Do(ctx)
			AssertNil(err)
			AssertEqual(len(all.Records), 1)

			found, err := accounts.FindByID(created.ID()).Do(ctx)
			AssertNil(err)
			AssertTrue(found.One() == created)
		})

		a.Alternative("Generated ids are unique", func(a *A) {
			docs := []any{}
			for i := 0; i < 100; i++ {
				docs = append(docs, map[string]any{"n": i})
			}
			result, err := accounts.Create(docs...).Do(ctx)
			AssertNil(err)

			unique := map[string]bool{}
			for _, id := range ids(result) {
				unique[id] = true
			}
			AssertEqual(len(unique), 100)
		})

		a.Alternative("Duplicated id", func(a *A) {
			_, err := db.Bucket("t").Create(map[string]any{"id": "1"}).Do(ctx)
			AssertNil(err)

			_, err = db.Bucket("t").Create(map[string]any{"id": "1"}).Do(ctx)
			AssertTrue(errors.Is(err, ErrDuplicateID))

			all, _ := db.Bucket("t").Find(nil).Do(ctx)
			AssertEqual(len(all.Records), 1)
		})

		a.Alternative("No partial insert", func(a *A) {
			_, err := accounts.Create(
				map[string]any{"id": "x"},
				map[string]any{"id": "y"},
				map[string]any{"id": "x"},
			).Do(ctx)
			AssertTrue(errors.Is(err, ErrDuplicateID))

			dbErr := &Error{}
			AssertTrue(errors.As(err, &dbErr))
			AssertEqual(dbErr.ID, "x")
			AssertEqual(dbErr.Bucket, "accounts")

			has, err := accounts.HasMatches(nil).Do(ctx)
			AssertNil(err)
			AssertFalse(has.Matched)
		})

		a.Alternative("Numeric ids", func(a *A) {
			_, err := accounts.CreateOne(map[string]any{"id": 7}).Do(ctx)
			AssertNil(err)

			found, err := accounts.FindByID(7).Do(ctx)
			AssertNil(err)
			AssertEqual(found.One().ID(), "7")
		})
	})
}

func TestFind(t *testing.T) {

	ctx := context.Background()

	Alternative("Bucket with people", func(a *A) {

		db := openDatabase(nil)
		people := db.Bucket("people")
		_, err := people.Create(
			map[string]any{"id": "1", "name": "lucy", "age": 30},
			map[string]any{"id": "2", "name": "bob", "age": 25},
			map[string]any{"id": "3", "name": "ana", "age": 30},
			map[string]any{"id": "4", "name": "tom", "age": 41},
		).Do(ctx)
		AssertNil(err)

		a.Alternative("Whole bucket is not copied", func(a *A) {
			result, err := people.Find(nil).Do(ctx)
			AssertNil(err)
			s, _ := db.Current()
			AssertTrue(&result.Records[0] == &s.Records("people")[0])
		})

		a.Alternative("Filter matching everything is not copied", func(a *A) {
			result, err := people.Find(map[string]any{"age": map[string]any{"$gt": 18}}).Do(ctx)
			AssertNil(err)
			AssertEqual(len(result.Records), 4)
			s, _ := db.Current()
			AssertTrue(&result.Records[0] == &s.Records("people")[0])
		})

		a.Alternative("Filter keeps insertion order", func(a *A) {
			result, err := people.Find(map[string]any{"age": 30}).Do(ctx)
			AssertNil(err)
			AssertEqual(ids(result), []string{"1", "3"})
		})

		a.Alternative("Skip and limit", func(a *A) {
			result, err := people.Find(nil).Skip(1).Limit(2).Do(ctx)
			AssertNil(err)
			AssertEqual(ids(result), []string{"2", "3"})
		})

		a.Alternative("Sort with id as tie breaker", func(a *A) {
			result, err := people.Find(nil).Sort(Desc("age")).Do(ctx)
			AssertNil(err)
			AssertEqual(ids(result), []string{"4", "1", "3", "2"})

			result, err = people.Find(nil).Sort(Asc("name")).Skip(1).Limit(2).Do(ctx)
			AssertNil(err)
			AssertEqual(ids(result), []string{"2", "1"})
		})

		a.Alternative("FindOne", func(a *A) {
			result, err := people.FindOne(map[string]any{"age": map[string]any{"$gte": 30}}).Do(ctx)
			AssertNil(err)
			AssertEqual(result.One().ID(), "1")
		})

		a.Alternative("FindByID missing", func(a *A) {
			result, err := people.FindByID("nope").Do(ctx)
			AssertNil(err)
			AssertNil(result.One())

			result, err = db.Bucket("nothing").FindByID("1").Do(ctx)
			AssertNil(err)
			AssertNil(result.One())
		})

		a.Alternative("HasMatches", func(a *A) {
			result, err := people.HasMatches(map[string]any{"name": "tom"}).Do(ctx)
			AssertNil(err)
			AssertTrue(result.Matched)

			result, err = people.HasMatches(map[string]any{"name": "zoe"}).Do(ctx)
			AssertNil(err)
			AssertFalse(result.Matched)
		})

		a.Alternative("Invalid filter", func(a *A) {
			_, err := people.Find(map[string]any{"$where": "1"}).Do(ctx)
			AssertNotNil(err)
		})

		a.Alternative("Resolve is deferred", func(a *A) {
			task := people.Find(nil).Resolve(ctx)
			<-task.Done()
			AssertNil(task.Err())
			result, err := task.Wait()
			AssertNil(err)
			AssertEqual(len(result.Records), 4)
		})
	})
}

func TestUpdate(t *testing.T) {

	ctx := context.Background()

	Alternative("One account", func(a *A) {

		db := openDatabase(nil)
		accounts := db.Bucket("accounts")
		created, err := accounts.CreateOne(map[string]any{"owner": "lucy"}).Do(ctx)
		AssertNil(err)
		id := created.One().ID()

		a.Alternative("Set then increase", func(a *A) {
			_, err := accounts.UpdateByID(id, modify.At("score").Set(5).Modifier()).Do(ctx)
			AssertNil(err)
			_, err = accounts.UpdateByID(id, modify.At("score").Increase(3).Modifier()).Do(ctx)
			AssertNil(err)

			found, err := accounts.FindByID(id).Do(ctx)
			AssertNil(err)
			AssertEqual(found.One().Get("score"), 8.0)
		})

		a.Alternative("No-op keeps the record", func(a *A) {
			before := created.One()
			result, err := accounts.UpdateByID(id, modify.At("owner").Set("lucy").Modifier()).Do(ctx)
			AssertNil(err)
			AssertTrue(result.One() == before)
		})

		a.Alternative("Id mutation", func(a *A) {
			before, _ := db.Current()

			_, err := accounts.Update(nil, modify.At("id").Set("other").Modifier()).Do(ctx)
			AssertTrue(errors.Is(err, ErrIDMutation))

			after, _ := db.Current()
			AssertTrue(before == after)
		})

		a.Alternative("Id type mutation", func(a *A) {
			_, err := accounts.CreateOne(map[string]any{"id": "1"}).Do(ctx)
			AssertNil(err)
			before, _ := db.Current()

			_, err = accounts.UpdateByID("1", modify.At("id").Set(1).Modifier()).Do(ctx)
			AssertTrue(errors.Is(err, ErrIDMutation))

			after, _ := db.Current()
			AssertTrue(before == after)
			found, _ := accounts.FindByID("1").Do(ctx)
			AssertEqual(found.One().Get("id"), "1")
		})

		a.Alternative("Unknown opcode", func(a *A) {
			m := modify.Modifier{{Path: modify.At("x").Entry().Path, Ops: []modify.Op{{Code: "explode"}}}}
			_, err := accounts.UpdateOne(nil, m).Do(ctx)
			AssertTrue(errors.Is(err, ErrUnknownOpcode))
		})

		a.Alternative("Update missing id", func(a *A) {
			result, err := accounts.UpdateByID("nope", modify.At("x").Set(1).Modifier()).Do(ctx)
			AssertNil(err)
			AssertNil(result.One())
		})
	})
}

func TestRemove(t *testing.T) {

	ctx := context.Background()

	Alternative("Five documents", func(a *A) {

		db := openDatabase(nil)
		docs := db.Bucket("docs")
		_, err := docs.Create(
			map[string]any{"id": "1", "active": true},
			map[string]any{"id": "2", "active": false},
			map[string]any{"id": "3", "active": true},
			map[string]any{"id": "4", "active": false},
			map[string]any{"id": "5", "active": true},
		).Do(ctx)
		AssertNil(err)

		a.Alternative("Remove inactive", func(a *A) {
			removed, err := docs.Remove(map[string]any{"active": false}).Do(ctx)
			AssertNil(err)
			AssertEqual(ids(removed), []string{"2", "4"})

			all, _ := docs.Find(nil).Do(ctx)
			AssertEqual(ids(all), []string{"1", "3", "5"})
			for _, id := range []string{"1", "3", "5"} {
				found, _ := docs.FindByID(id).Do(ctx)
				AssertEqual(found.One().ID(), id)
			}
		})

		a.Alternative("Remove everything drops the bucket", func(a *A) {
			_, err := docs.Remove(nil).Do(ctx)
			AssertNil(err)
			s, _ := db.Current()
			AssertEqual(s.Names(), []string{})
		})

		a.Alternative("RemoveOne", func(a *A) {
			removed, err := docs.RemoveOne(map[string]any{"active": true}).Do(ctx)
			AssertNil(err)
			AssertEqual(removed.One().ID(), "1")
		})

		a.Alternative("RemoveByID missing", func(a *A) {
			_, err := docs.RemoveByID("9").Do(ctx)
			AssertTrue(errors.Is(err, ErrIndexValueLost))

			result, err := db.Bucket("nothing").RemoveByID("9").Do(ctx)
			AssertNil(err)
			AssertNil(result.One())
		})
	})
}

func TestRemoveByIDKeepsIndex(t *testing.T) {

	ctx := context.Background()
	db := openDatabase(nil)
	bucket := db.Bucket("numbers")

	remaining := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := fmt.Sprint(i)
		remaining[id] = true
		_, err := bucket.CreateOne(map[string]any{"id": id, "n": i}).Do(ctx)
		AssertNil(err)
	}

	for _, i := range rand.Perm(50)[:30] {
		id := fmt.Sprint(i)
		_, err := bucket.RemoveByID(id).Do(ctx)
		AssertNil(err)
		delete(remaining, id)

		found, _ := bucket.FindByID(id).Do(ctx)
		AssertNil(found.One())

		for other := range remaining {
			found, _ := bucket.FindByID(other).Do(ctx)
			AssertEqual(found.One().ID(), other)
		}
	}
}

func TestLifecycle(t *testing.T) {

	ctx := context.Background()

	Alternative("Closed database", func(a *A) {

		db := NewDatabase(nil)

		a.Alternative("Operations fail", func(a *A) {
			_, err := db.Bucket("x").Find(nil).Do(ctx)
			AssertTrue(errors.Is(err, ErrNotOpened))
			_, err = db.Bucket("x").CreateOne(map[string]any{}).Do(ctx)
			AssertTrue(errors.Is(err, ErrNotOpened))
			_, err = db.Close()
			AssertTrue(errors.Is(err, ErrNotOpened))
		})

		a.Alternative("Open twice", func(a *A) {
			AssertNil(db.Open(nil))
			AssertTrue(errors.Is(db.Open(nil), ErrAlreadyOpened))
		})

		a.Alternative("Close returns the snapshot", func(a *A) {
			AssertNil(db.Open(&Snapshot{Version: 4, Data: map[string][]map[string]any{
				"a": {{"id": "1"}},
			}}))
			_, err := db.Bucket("a").CreateOne(map[string]any{"id": "2"}).Do(ctx)
			AssertNil(err)

			snapshot, err := db.Close()
			AssertNil(err)
			AssertEqual(snapshot.Version, int64(5))
			AssertEqualJson(snapshot.Data, map[string]any{
				"a": []any{map[string]any{"id": "1"}, map[string]any{"id": "2"}},
			})
			AssertEqual(db.Version(), int64(0))
		})

		a.Alternative("Duplicated ids in snapshot", func(a *A) {
			err := db.Open(&Snapshot{Data: map[string][]map[string]any{
				"a": {{"id": "1"}, {"id": "1"}},
			}})
			AssertTrue(errors.Is(err, ErrDuplicateID))
		})
	})
}
