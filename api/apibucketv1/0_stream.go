package apibucketv1

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fulldump/bucketdb/record"
	"github.com/fulldump/bucketdb/service"
)

// readBody decodes the request body into v. An empty body leaves v as is.
func readBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

// readDocuments accepts a stream of JSON objects, arrays of objects
// included.
func readDocuments(r io.Reader) ([]map[string]any, error) {

	docs := []map[string]any{}
	d := json.NewDecoder(r)
	for {
		var item any
		err := d.Decode(&item)
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}

		items, isList := item.([]any)
		if !isList {
			items = []any{item}
		}
		for _, item := range items {
			doc, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: documents must be JSON objects", service.ErrorBadInput)
			}
			docs = append(docs, doc)
		}
	}
}

// writeRecords streams records as JSON lines. The status line is already
// sent when the first record is written, so a broken connection is only
// logged.
func writeRecords(w http.ResponseWriter, status int, records []*record.Record) {
	w.WriteHeader(status)
	e := json.NewEncoder(w)
	for _, r := range records {
		if err := e.Encode(r); err != nil {
			log.WithError(err).Warn("write response")
			return
		}
	}
}
