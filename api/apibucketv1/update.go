package apibucketv1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/bucketdb/modify"
	"github.com/fulldump/bucketdb/service"
)

type updateInput struct {
	service.Query
	Modifier json.RawMessage `json:"modifier"`
}

// update applies a modifier, a single entry or a list of them, to the
// selected documents and returns them as modified.
func update(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	input := &updateInput{
		Query: service.Query{Limit: -1},
	}
	err := readBody(r, input)
	if err != nil {
		return err
	}

	if len(input.Modifier) == 0 {
		return fmt.Errorf("%w: modifier is required", service.ErrorBadInput)
	}
	m, err := modify.Parse(input.Modifier)
	if err != nil {
		return err
	}

	s := GetServicer(ctx)
	bucketName := box.GetUrlParameter(ctx, "bucketName")
	updated, err := s.Update(ctx, bucketName, &input.Query, m)
	if err != nil {
		return err
	}

	writeRecords(w, http.StatusOK, updated)
	return nil
}
