package apibucketv1

import (
	"context"

	"github.com/fulldump/box"

	"github.com/fulldump/bucketdb/service"
)

func listBuckets(ctx context.Context) ([]*service.Bucket, error) {
	return GetServicer(ctx).ListBuckets()
}

func getBucket(ctx context.Context) (*service.Bucket, error) {
	bucketName := box.GetUrlParameter(ctx, "bucketName")
	return GetServicer(ctx).GetBucket(bucketName)
}
