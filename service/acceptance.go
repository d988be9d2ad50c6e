package service

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

// lines decodes a JSON lines response body.
func lines(resp *apitest.Response) []interface{} {
	result := []interface{}{}
	d := json.NewDecoder(bytes.NewReader(resp.BodyBytes()))
	for {
		var item interface{}
		err := d.Decode(&item)
		if err == io.EOF {
			return result
		}
		biff.AssertNil(err)
		result = append(result, item)
	}
}

func ids(resp *apitest.Response) []interface{} {
	result := []interface{}{}
	for _, item := range lines(resp) {
		result = append(result, item.(JSON)["id"])
	}
	return result
}

func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Insert one", func(a *biff.A) {
		myDocument := JSON{
			"id":   "lucy",
			"name": "Lucy",
			"age":  30,
		}
		resp := apiRequest("POST", "/buckets/people:insert").
			WithBodyJson(myDocument).Do()
		Save(resp, "Insert one", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		biff.AssertEqualJson(lines(resp), []JSON{myDocument})

		a.Alternative("Retrieve bucket", func(a *biff.A) {
			resp := apiRequest("GET", "/buckets/people").Do()
			Save(resp, "Retrieve bucket", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"name":  "people",
				"total": 1,
			})
		})

		a.Alternative("List buckets", func(a *biff.A) {
			resp := apiRequest("GET", "/buckets").Do()
			Save(resp, "List buckets", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []JSON{
				{"name": "people", "total": 1},
			})
		})

		a.Alternative("Get document", func(a *biff.A) {
			resp := apiRequest("GET", "/buckets/people/documents/lucy").Do()
			Save(resp, "Get document", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), myDocument)
		})

		a.Alternative("Get document - not found", func(a *biff.A) {
			resp := apiRequest("GET", "/buckets/people/documents/bob").Do()
			Save(resp, "Get document - not found", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"error": JSON{
					"message":     "document not found: 'bob'",
					"description": "document not found",
				},
			})
		})

		a.Alternative("Delete document", func(a *biff.A) {
			resp := apiRequest("DELETE", "/buckets/people/documents/lucy").Do()
			Save(resp, "Delete document", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), myDocument)

			a.Alternative("Get dropped bucket", func(a *biff.A) {
				resp := apiRequest("GET", "/buckets/people").Do()
				Save(resp, "Retrieve bucket - not found", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})

			a.Alternative("Delete again", func(a *biff.A) {
				resp := apiRequest("DELETE", "/buckets/people/documents/lucy").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})

		a.Alternative("Insert duplicated id", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:insert").
				WithBodyJson(JSON{"id": "lucy"}).Do()
			Save(resp, "Insert - duplicated id", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"error": JSON{
					"message":     "create people id 'lucy': duplicated id",
					"description": "a document with the same id already exists",
				},
			})
		})
	})

	a.Alternative("Insert many", func(a *biff.A) {

		myDocuments := []JSON{
			{"id": "1", "name": "bob", "age": 25},
			{"id": "2", "name": "ana", "age": 41},
			{"id": "3", "name": "carl", "age": 30},
		}

		body := ""
		for _, myDocument := range myDocuments {
			myDocument, _ := json.Marshal(myDocument)
			body += string(myDocument) + "\n"
		}
		resp := apiRequest("POST", "/buckets/people:insert").
			WithBodyString(body).Do()
		Save(resp, "Insert many", `
			The body is a stream of JSON documents. All of them are created
			or none.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		biff.AssertEqualJson(lines(resp), myDocuments)

		a.Alternative("Find all", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:find").Do()
			Save(resp, "Find - all", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(lines(resp), myDocuments)
		})

		a.Alternative("Find with filter", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:find").
				WithBodyJson(JSON{
					"filter": JSON{"age": JSON{"$gt": 26}},
				}).Do()
			Save(resp, "Find - filter", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(ids(resp), []interface{}{"2", "3"})
		})

		a.Alternative("Find sorted", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:find").
				WithBodyJson(JSON{
					"sort":  []JSON{{"field": "age", "desc": true}},
					"limit": 2,
				}).Do()
			Save(resp, "Find - sort", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(ids(resp), []interface{}{"2", "3"})
		})

		a.Alternative("Find with skip and limit", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:find").
				WithBodyJson(JSON{
					"skip":  1,
					"limit": 1,
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(ids(resp), []interface{}{"2"})
		})

		a.Alternative("Find with invalid filter", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:find").
				WithBodyJson(JSON{
					"filter": JSON{"age": JSON{"$nope": 1}},
				}).Do()
			Save(resp, "Find - invalid filter", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Find with malformed body", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:find").
				WithBodyString(`{"filter": `).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Update", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:update").
				WithBodyJson(JSON{
					"filter": JSON{"name": "bob"},
					"modifier": JSON{
						"path": []string{"age"},
						"ops":  []interface{}{[]interface{}{"increase", JSON{"value": 1}}},
					},
				}).Do()
			Save(resp, "Update", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(lines(resp), []JSON{
				{"id": "1", "name": "bob", "age": 26},
			})
		})

		a.Alternative("Update id", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:update").
				WithBodyJson(JSON{
					"filter": JSON{"name": "bob"},
					"modifier": JSON{
						"path": []string{"id"},
						"ops":  []interface{}{[]interface{}{"set", JSON{"value": "7"}}},
					},
				}).Do()
			Save(resp, "Update - id mutation", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)

			resp = apiRequest("POST", "/buckets/people:find").Do()
			biff.AssertEqualJson(lines(resp), myDocuments)
		})

		a.Alternative("Update with unknown opcode", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:update").
				WithBodyJson(JSON{
					"modifier": JSON{
						"path": []string{"age"},
						"ops":  []interface{}{[]interface{}{"explode"}},
					},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Patch", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:patch").
				WithBodyJson(JSON{
					"filter": JSON{"age": JSON{"$lt": 35}},
					"patch": JSON{
						"country": "es",
						"age":     nil,
					},
				}).Do()
			Save(resp, "Patch", `
				Applies a JSON merge patch to the selected documents. Null
				values remove fields.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			expected := []JSON{
				{"id": "1", "name": "bob", "country": "es"},
				myDocuments[1],
				{"id": "3", "name": "carl", "country": "es"},
			}
			biff.AssertEqualJson(lines(resp), []JSON{expected[0], expected[2]})

			resp = apiRequest("POST", "/buckets/people:find").Do()
			biff.AssertEqualJson(lines(resp), expected)
		})

		a.Alternative("Remove", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:remove").
				WithBodyJson(JSON{
					"filter": JSON{"age": JSON{"$lt": 35}},
				}).Do()
			Save(resp, "Remove", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(ids(resp), []interface{}{"1", "3"})

			resp = apiRequest("POST", "/buckets/people:find").Do()
			biff.AssertEqualJson(lines(resp), []JSON{myDocuments[1]})
		})

		a.Alternative("Remove everything", func(a *biff.A) {
			resp := apiRequest("POST", "/buckets/people:remove").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(len(lines(resp)), 3)

			resp = apiRequest("GET", "/buckets").Do()
			biff.AssertEqualJson(resp.BodyJson(), []JSON{})
		})
	})

	a.Alternative("Insert without id", func(a *biff.A) {
		resp := apiRequest("POST", "/buckets/notes:insert").
			WithBodyJson([]JSON{{"text": "one"}, {"text": "two"}}).Do()
		Save(resp, "Insert - generated ids", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		generated := ids(resp)
		biff.AssertEqual(len(generated), 2)
		biff.AssertTrue(generated[0].(string) != "")
		biff.AssertTrue(generated[0] != generated[1])
	})

	a.Alternative("Insert nothing", func(a *biff.A) {
		resp := apiRequest("POST", "/buckets/notes:insert").Do()
		biff.AssertEqual(resp.StatusCode, http.StatusNoContent)
	})

	a.Alternative("Find on missing bucket", func(a *biff.A) {
		resp := apiRequest("POST", "/buckets/nothing:find").Do()

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqual(resp.BodyString(), "")
	})

	a.Alternative("Status", func(a *biff.A) {
		resp := apiRequest("GET", "/status").Do()
		Save(resp, "Status", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJson(), JSON{
			"status":  "operating",
			"version": 0,
			"pending": 0,
			"online":  false,
		})
	})

	a.Alternative("Sync", func(a *biff.A) {
		resp := apiRequest("POST", "/sync").
			WithBodyJson([]JSON{
				{
					"name":      "create",
					"uuid":      "3d1f8c2e-0b7a-4c55-9d0e-6a0f1d1b2c3d",
					"timestamp": 1700000000000,
					"bucket":    "people",
					"payload":   JSON{"docs": []JSON{{"id": "x", "name": "xavi"}}},
				},
			}).Do()
		Save(resp, "Sync", `
			Replays the change log of another node. Either every command is
			applied or none.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJson(), JSON{"applied": 1})

		resp = apiRequest("GET", "/buckets/people/documents/x").Do()
		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJson(), JSON{"id": "x", "name": "xavi"})
	})

	a.Alternative("Sync unknown command", func(a *biff.A) {
		resp := apiRequest("POST", "/sync").
			WithBodyJson([]JSON{{"name": "explode", "bucket": "people"}}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})
}
