package main

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fulldump/bucketdb/database"
)

func TestRemove(c Config) {

	local := c.Base == ""
	dir, stop := CreateServer(&c)

	client := NewClient()
	bucket := BucketName()

	log.Info("preload documents")
	Preload(client, c.Base, bucket, c.N, c.Workers)

	removeURL := fmt.Sprintf("%s/v1/buckets/%s:remove", c.Base, bucket)

	t0 := time.Now()
	Parallel(c.Workers, func(worker int) {

		// Remove all documents belonging to this worker
		body := fmt.Sprintf(`{"filter":{"worker":%d}}`, worker)
		resp, err := client.Post(removeURL, "application/json", strings.NewReader(body))
		if err != nil {
			log.WithError(err).Error("remove")
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.WithField("status", resp.Status).Error("remove")
		}
	})

	Report("removed", c.N, time.Since(t0))

	stop()
	if !local {
		return
	}

	t1 := time.Now()
	snapshot, err := database.ReadSnapshot(filepath.Join(dir, database.DefaultSnapshotFile))
	if err != nil {
		log.WithError(err).Fatal("read snapshot")
	}
	db := database.NewDatabase(nil)
	if err := db.Open(snapshot); err != nil {
		log.WithError(err).Fatal("open snapshot")
	}
	fmt.Println("open took:", time.Since(t1))
}
