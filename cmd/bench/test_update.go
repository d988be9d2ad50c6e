package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestUpdate(c Config) {

	_, stop := CreateServer(&c)
	defer stop()

	client := NewClient()
	bucket := BucketName()

	log.Info("preload documents")
	Preload(client, c.Base, bucket, c.N, c.Workers)

	updateURL := fmt.Sprintf("%s/v1/buckets/%s:update", c.Base, bucket)

	t0 := time.Now()
	Parallel(c.Workers, func(worker int) {

		body := fmt.Sprintf(`{"filter":{"worker":%d},"modifier":{"path":["value"],"ops":[["increase",{"value":1}]]}}`, worker)
		resp, err := client.Post(updateURL, "application/json", strings.NewReader(body))
		if err != nil {
			log.WithError(err).Error("update")
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.WithField("status", resp.Status).Error("update")
		}
	})

	Report("updated", c.N, time.Since(t0))
}
