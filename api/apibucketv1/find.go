package apibucketv1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/bucketdb/service"
)

func find(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	input := &service.Query{
		Limit: -1,
	}
	err := readBody(r, input)
	if err != nil {
		return err
	}

	s := GetServicer(ctx)
	bucketName := box.GetUrlParameter(ctx, "bucketName")
	found, err := s.Find(ctx, bucketName, input)
	if err != nil {
		return err
	}

	writeRecords(w, http.StatusOK, found)
	return nil
}
