package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fulldump/bucketdb/api/apibucketv1"
	"github.com/fulldump/bucketdb/service"
)

func Build(s service.Servicer, version, apiKey, apiSecret string) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		Authenticate(apiKey, apiSecret),
	)

	apibucketv1.BuildV1Bucket(v1, s).
		WithInterceptors(
			injectServicer(s),
		)

	v1.Resource("/status").
		WithActions(
			box.Get(status(s)).WithName("status"),
		)

	v1.Resource("/sync").
		WithActions(
			box.Post(replay(s)).WithName("sync"),
		)

	b.Resource("/metrics").
		WithActions(
			box.Get(metrics).WithName("metrics"),
		)

	b.Resource("/release").
		WithActions(
			box.Get(func() string {
				return version
			}).WithName("release"),
		)

	withOpenAPI(b, version)

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apibucketv1.SetServicer(ctx, s))
		}
	}
}

var metricsHandler = promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
	// responses are already gzipped by the Compression interceptor
	DisableCompression: true,
})

func metrics(w http.ResponseWriter, r *http.Request) {
	metricsHandler.ServeHTTP(w, r)
}
