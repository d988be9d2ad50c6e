package database

import (
	"context"
)

// Apply replays commands logged by another node inside one transaction.
// Either all of them are applied or none.
func (db *Database) Apply(ctx context.Context, commands []Command) error {
	return db.Tx(ctx, func(tx *Transaction) error {
		for _, c := range commands {
			q, err := c.Query(tx.Bucket(c.Bucket))
			if err != nil {
				return err
			}
			if _, err := q.Do(ctx); err != nil {
				return err
			}
		}
		return tx.Commit(ctx)
	})
}
