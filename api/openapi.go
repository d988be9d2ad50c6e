package api

import (
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"
)

// withOpenAPI describes every route registered so far and serves the
// document at /openapi.json.
func withOpenAPI(b *box.B, version string) {

	spec := boxopenapi.Spec(b)
	spec.Info.Title = "BucketDB"
	spec.Info.Description = "Embedded bucket document store with quorum replication."
	spec.Info.Version = version

	b.Resource("/openapi.json").
		WithActions(
			box.Get(func(r *http.Request) boxopenapi.OpenAPI {
				s := spec
				s.Servers = []boxopenapi.Server{
					{Url: "https://" + r.Host},
					{Url: "http://" + r.Host},
				}
				return s
			}).WithName("openapi"),
		)
}
