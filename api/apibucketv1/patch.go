package apibucketv1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/bucketdb/service"
)

type patchInput struct {
	service.Query
	Patch json.RawMessage `json:"patch"`
}

// patch merges a JSON merge patch (RFC 7396) into the selected documents.
func patch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	input := &patchInput{
		Query: service.Query{Limit: -1},
	}
	err := readBody(r, input)
	if err != nil {
		return err
	}

	if len(input.Patch) == 0 {
		return fmt.Errorf("%w: patch is required", service.ErrorBadInput)
	}

	s := GetServicer(ctx)
	bucketName := box.GetUrlParameter(ctx, "bucketName")
	patched, err := s.Patch(ctx, bucketName, &input.Query, input.Patch)
	if err != nil {
		return err
	}

	writeRecords(w, http.StatusOK, patched)
	return nil
}
