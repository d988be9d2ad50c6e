package apibucketv1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/bucketdb/service"
)

func remove(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	input := &service.Query{
		Limit: -1,
	}
	err := readBody(r, input)
	if err != nil {
		return err
	}

	s := GetServicer(ctx)
	bucketName := box.GetUrlParameter(ctx, "bucketName")
	removed, err := s.Remove(ctx, bucketName, input)
	if err != nil {
		return err
	}

	writeRecords(w, http.StatusOK, removed)
	return nil
}
