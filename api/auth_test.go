package api

import (
	"net/http"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/bucketdb/database"
	"github.com/fulldump/bucketdb/service"
)

func TestAuthentication(t *testing.T) {

	const key, secret = "node-key", "node-secret"

	db := database.NewDatabase(nil)
	biff.AssertNil(db.Open(nil))

	b := Build(service.NewService(db), "test", key, secret)
	b.WithInterceptors(PrettyErrorInterceptor)
	api := apitest.NewWithHandler(b)

	cases := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		status  int
	}{
		{"no credentials", "GET", "/v1/buckets", nil, http.StatusUnauthorized},
		{"key only", "GET", "/v1/buckets", map[string]string{"X-Api-Key": key}, http.StatusUnauthorized},
		{"wrong key", "GET", "/v1/status", map[string]string{"X-Api-Key": "other", "X-Api-Secret": secret}, http.StatusUnauthorized},
		{"wrong secret", "GET", "/v1/status", map[string]string{"X-Api-Key": key, "X-Api-Secret": "other"}, http.StatusUnauthorized},
		{"sync without credentials", "POST", "/v1/sync", nil, http.StatusUnauthorized},
		{"valid", "GET", "/v1/buckets", map[string]string{"X-Api-Key": key, "X-Api-Secret": secret}, http.StatusOK},
		{"metrics are public", "GET", "/metrics", nil, http.StatusOK},
		{"release is public", "GET", "/release", nil, http.StatusOK},
		{"openapi is public", "GET", "/openapi.json", nil, http.StatusOK},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := api.Request(c.method, c.path)
			for k, v := range c.headers {
				req = req.WithHeader(k, v)
			}
			resp := req.Do()
			biff.AssertEqual(resp.StatusCode, c.status)
			if c.status == http.StatusUnauthorized {
				biff.AssertEqualJson(resp.BodyJson(), map[string]any{
					"error": map[string]any{
						"message":     "unauthorized",
						"description": "user is not authenticated",
					},
				})
			}
		})
	}
}
