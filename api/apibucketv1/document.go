package apibucketv1

import (
	"context"
	"fmt"
	"strings"

	"github.com/fulldump/box"

	"github.com/fulldump/bucketdb/record"
	"github.com/fulldump/bucketdb/service"
)

func documentParams(ctx context.Context) (bucketName, documentID string, err error) {
	bucketName = box.GetUrlParameter(ctx, "bucketName")
	documentID = strings.TrimSpace(box.GetUrlParameter(ctx, "documentId"))
	if documentID == "" {
		err = fmt.Errorf("%w: document id is required", service.ErrorBadInput)
	}
	return
}

func getDocument(ctx context.Context) (*record.Record, error) {

	bucketName, documentID, err := documentParams(ctx)
	if err != nil {
		return nil, err
	}

	return GetServicer(ctx).GetDocument(ctx, bucketName, documentID)
}

func deleteDocument(ctx context.Context) (*record.Record, error) {

	bucketName, documentID, err := documentParams(ctx)
	if err != nil {
		return nil, err
	}

	return GetServicer(ctx).DeleteDocument(ctx, bucketName, documentID)
}
