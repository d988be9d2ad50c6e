package api

import (
	"net/http"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/bucketdb/database"
	"github.com/fulldump/bucketdb/service"
)

func newTestApi(db *database.Database) *apitest.Apitest {

	b := Build(service.NewService(db), "test", "", "")
	b.WithInterceptors(
		RecoverFromPanic,
		PrettyErrorInterceptor,
		InterceptorUnavailable(db),
	)

	return apitest.NewWithHandler(b)
}

func TestAcceptance(t *testing.T) {

	biff.Alternative("Setup", func(a *biff.A) {

		db := database.NewDatabase(&database.Config{
			Dir: t.TempDir(),
		})
		biff.AssertNil(db.Load())
		biff.AssertEqual(db.GetStatus(), database.StatusOperating)

		api := newTestApi(db)

		service.Acceptance(a, func(method, path string) *apitest.Request {
			return api.Request(method, "/v1"+path)
		})
	})
}

func TestPersistence(t *testing.T) {

	dir := t.TempDir()

	db := database.NewDatabase(&database.Config{Dir: dir})
	biff.AssertNil(db.Load())
	api := newTestApi(db)

	resp := api.Request("POST", "/v1/buckets/people:insert").
		WithBodyString(`{"id":"lucy","age":31}`).Do()
	biff.AssertEqual(resp.StatusCode, http.StatusCreated)

	resp = api.Request("GET", "/release").Do()
	biff.AssertEqual(resp.BodyJson(), "test")

	biff.AssertNil(db.Save())
	_, err := db.Close()
	biff.AssertNil(err)

	reloaded := database.NewDatabase(&database.Config{Dir: dir})
	biff.AssertNil(reloaded.Load())
	api = newTestApi(reloaded)

	resp = api.Request("GET", "/v1/buckets/people/documents/lucy").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
	biff.AssertEqualJson(resp.BodyJson(), map[string]any{"id": "lucy", "age": 31})

	resp = api.Request("GET", "/v1/status").Do()
	biff.AssertEqualJson(resp.BodyJson(), map[string]any{
		"status":  "operating",
		"version": 1,
		"pending": 0,
		"online":  false,
	})
}
