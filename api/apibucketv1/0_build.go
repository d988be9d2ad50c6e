package apibucketv1

import (
	"github.com/fulldump/box"

	"github.com/fulldump/bucketdb/service"
)

func BuildV1Bucket(v1 *box.R, s service.Servicer) *box.R {

	buckets := v1.Resource("/buckets").
		WithActions(
			box.Get(listBuckets).WithName("listBuckets"),
		)

	v1.Resource("/buckets/{bucketName}").
		WithActions(
			box.Get(getBucket).WithName("getBucket"),
			box.ActionPost(insert).WithName("insert"),
			box.ActionPost(find).WithName("find"),
			box.ActionPost(update).WithName("update"),
			box.ActionPost(patch).WithName("patch"),
			box.ActionPost(remove).WithName("remove"),
		)

	v1.Resource("/buckets/{bucketName}/documents/{documentId}").
		WithActions(
			box.Get(getDocument).WithName("getDocument"),
			box.Delete(deleteDocument).WithName("deleteDocument"),
		)

	return buckets
}
