package api

import (
	"context"

	"github.com/fulldump/bucketdb/database"
	"github.com/fulldump/bucketdb/service"
)

func status(s service.Servicer) interface{} {
	return func(ctx context.Context) (*service.Status, error) {
		return s.Status(), nil
	}
}

type replayOutput struct {
	Applied int `json:"applied"`
}

// replay receives the change log of another node.
func replay(s service.Servicer) interface{} {
	return func(ctx context.Context, commands []database.Command) (*replayOutput, error) {

		err := s.Sync(ctx, commands)
		if err != nil {
			return nil, err
		}

		return &replayOutput{
			Applied: len(commands),
		}, nil
	}
}
