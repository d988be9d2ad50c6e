package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/fulldump/biff"

	"github.com/fulldump/bucketdb/modify"
)

func TestTransaction(t *testing.T) {

	ctx := context.Background()

	Alternative("Database with one account", func(a *A) {

		db := openDatabase(nil)
		_, err := db.Bucket("accounts").CreateOne(map[string]any{"id": "a", "balance": 10}).Do(ctx)
		AssertNil(err)
		before, _ := db.Current()

		a.Alternative("Rollback", func(a *A) {
			err := db.Tx(ctx, func(tx *Transaction) error {
				_, err := tx.Bucket("accounts").CreateOne(map[string]any{"id": "b"}).Do(ctx)
				AssertNil(err)

				inside, _ := tx.Bucket("accounts").Find(nil).Do(ctx)
				AssertEqual(len(inside.Records), 2)

				return tx.Rollback()
			})
			AssertNil(err)

			all, _ := db.Bucket("accounts").Find(nil).Do(ctx)
			AssertEqual(ids(all), []string{"a"})

			after, _ := db.Current()
			AssertTrue(before == after)
		})

		a.Alternative("Commit", func(a *A) {
			err := db.Tx(ctx, func(tx *Transaction) error {
				accounts := tx.Bucket("accounts")
				_, err := accounts.UpdateByID("a", modify.At("balance").Decrease(4).Modifier()).Do(ctx)
				AssertNil(err)
				_, err = tx.Bucket("transfers").CreateOne(map[string]any{"amount": 4}).Do(ctx)
				AssertNil(err)

				outside, _ := db.Bucket("transfers").Find(nil).Do(ctx)
				AssertEqual(len(outside.Records), 0)

				return tx.Commit(ctx)
			})
			AssertNil(err)

			account, _ := db.Bucket("accounts").FindByID("a").Do(ctx)
			AssertEqual(account.One().Get("balance"), 6.0)
			transfers, _ := db.Bucket("transfers").Find(nil).Do(ctx)
			AssertEqual(len(transfers.Records), 1)
			AssertEqual(db.Version(), int64(2))
			AssertEqual(len(db.Pending()), 3)
		})

		a.Alternative("Unsettled transaction is rolled back", func(a *A) {
			var leaked *Transaction
			err := db.Tx(ctx, func(tx *Transaction) error {
				leaked = tx
				_, err := tx.Bucket("accounts").RemoveByID("a").Do(ctx)
				return err
			})
			AssertNil(err)

			all, _ := db.Bucket("accounts").Find(nil).Do(ctx)
			AssertEqual(len(all.Records), 1)
			AssertTrue(errors.Is(leaked.Commit(ctx), ErrRolledBack))
		})

		a.Alternative("Settle twice", func(a *A) {
			db.Tx(ctx, func(tx *Transaction) error {
				AssertNil(tx.Commit(ctx))
				AssertTrue(errors.Is(tx.Commit(ctx), ErrCommitted))
				AssertTrue(errors.Is(tx.Rollback(), ErrCommitted))

				_, err := tx.Bucket("accounts").Find(nil).Do(ctx)
				AssertTrue(errors.Is(err, ErrCommitted))
				return nil
			})
			db.Tx(ctx, func(tx *Transaction) error {
				AssertNil(tx.Rollback())
				AssertTrue(errors.Is(tx.Rollback(), ErrRolledBack))
				AssertTrue(errors.Is(tx.Commit(ctx), ErrRolledBack))
				return nil
			})
		})

		a.Alternative("Error inside fn", func(a *A) {
			boom := errors.New("boom")
			err := db.Tx(ctx, func(tx *Transaction) error {
				tx.Bucket("accounts").CreateOne(map[string]any{"id": "c"}).Do(ctx)
				return boom
			})
			AssertTrue(err == boom)

			found, _ := db.Bucket("accounts").FindByID("c").Do(ctx)
			AssertNil(found.One())
		})

		a.Alternative("Transactions run in order", func(a *A) {
			mutex := sync.Mutex{}
			order := []int{}
			wg := sync.WaitGroup{}

			started := make(chan struct{})
			wg.Add(1)
			go func() {
				defer wg.Done()
				db.Tx(ctx, func(tx *Transaction) error {
					close(started)
					time.Sleep(50 * time.Millisecond)
					mutex.Lock()
					order = append(order, 0)
					mutex.Unlock()
					return tx.Commit(ctx)
				})
			}()
			<-started

			for i := 1; i <= 3; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					db.Tx(ctx, func(tx *Transaction) error {
						mutex.Lock()
						order = append(order, i)
						mutex.Unlock()
						return tx.Commit(ctx)
					})
				}(i)
				time.Sleep(10 * time.Millisecond)
			}

			wg.Wait()
			AssertEqual(order, []int{0, 1, 2, 3})
		})

		a.Alternative("Close rejects queued transactions", func(a *A) {
			running := make(chan struct{})
			proceed := make(chan struct{})
			go db.Tx(ctx, func(tx *Transaction) error {
				close(running)
				<-proceed
				return nil
			})
			<-running

			queued := make(chan error)
			go func() {
				queued <- db.Tx(ctx, func(tx *Transaction) error {
					return nil
				})
			}()
			time.Sleep(20 * time.Millisecond)

			_, err := db.Close()
			AssertNil(err)
			AssertTrue(errors.Is(<-queued, ErrClosed))
			close(proceed)
		})

		a.Alternative("Commit is all or nothing for readers", func(a *A) {
			stop := make(chan struct{})
			mixed := make(chan bool, 1)
			go func() {
				for {
					select {
					case <-stop:
						mixed <- false
						return
					default:
					}
					s, _ := db.Current()
					if (s.Len("left") == 0) != (s.Len("right") == 0) {
						mixed <- true
						return
					}
				}
			}()

			err := db.Tx(ctx, func(tx *Transaction) error {
				tx.Bucket("left").CreateOne(map[string]any{}).Do(ctx)
				tx.Bucket("right").CreateOne(map[string]any{}).Do(ctx)
				return tx.Commit(ctx)
			})
			AssertNil(err)
			close(stop)
			AssertFalse(<-mixed)
		})
	})
}

func TestStrictWrites(t *testing.T) {

	ctx := context.Background()
	db := openDatabase(&Config{StrictWrites: true})

	holding := make(chan struct{})
	release := make(chan struct{})
	go db.Tx(ctx, func(tx *Transaction) error {
		close(holding)
		<-release
		return tx.Commit(ctx)
	})
	<-holding

	task := db.Bucket("queued").CreateOne(map[string]any{"id": "1"}).Resolve(ctx)
	time.Sleep(20 * time.Millisecond)
	AssertNil(task.Err())
	select {
	case <-task.Done():
		t.Fatal("write did not wait for the transaction")
	default:
	}

	close(release)
	_, err := task.Wait()
	AssertNil(err)
}
