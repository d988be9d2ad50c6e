package apibucketv1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
)

// insert creates every document of the body in one batch: either all of
// them are stored or none.
func insert(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	docs, err := readDocuments(r.Body)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	s := GetServicer(ctx)
	bucketName := box.GetUrlParameter(ctx, "bucketName")
	created, err := s.Insert(ctx, bucketName, docs)
	if err != nil {
		return err
	}

	writeRecords(w, http.StatusCreated, created)
	return nil
}
