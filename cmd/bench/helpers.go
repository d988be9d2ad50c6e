package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fulldump/bucketdb/bootstrap"
	"github.com/fulldump/bucketdb/configuration"
)

type JSON = map[string]any

func Parallel(workers int, f func(worker int)) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			f(worker)
		}(i)
	}
	wg.Wait()
}

func TempDir() (string, func()) {
	dir, err := os.MkdirTemp("", "bucketdb_bench_*")
	if err != nil {
		panic("could not create temp directory: " + err.Error())
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

func BucketName() string {
	return "bench-" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

// CreateServer starts a local node when no base URL is configured. The
// returned stop is a no-op for remote nodes.
func CreateServer(c *Config) (dir string, stop func()) {

	if c.Base != "" {
		return "", func() {}
	}

	dir, cleanup := TempDir()
	cleanups = append(cleanups, cleanup)

	conf := configuration.Default()
	conf.Dir = dir
	conf.ShowBanner = false
	conf.LogLevel = "warn"
	c.Base = "http://localhost" + conf.HttpAddr

	start, stop := bootstrap.Bootstrap(&conf)
	go start()

	waitOperating(c.Base)

	return dir, stop
}

func waitOperating(base string) {
	for i := 0; i < 100; i++ {
		resp, err := http.Get(base + "/v1/status")
		if err == nil {
			status := JSON{}
			json.NewDecoder(resp.Body).Decode(&status)
			resp.Body.Close()
			if status["status"] == "operating" {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	log.Fatal("server did not start")
}

func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     1024,
			MaxIdleConnsPerHost: 1024,
			MaxIdleConns:        1024,
		},
		Timeout: 60 * time.Second,
	}
}

// Preload inserts n documents spread over the workers with a single
// request per worker.
func Preload(client *http.Client, base, bucket string, n int64, workers int) {

	Parallel(workers, func(worker int) {

		r, w := io.Pipe()
		go func() {
			e := json.NewEncoder(w)
			for i := int64(worker); i < n; i += int64(workers) {
				e.Encode(JSON{
					"id":     strconv.FormatInt(i, 10),
					"value":  0,
					"worker": worker,
				})
			}
			w.Close()
		}()

		resp, err := client.Post(base+"/v1/buckets/"+bucket+":insert", "application/json", r)
		if err != nil {
			log.WithError(err).Fatal("insert")
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
			log.WithField("status", resp.Status).Fatal("insert")
		}
	})
}

func Report(operation string, n int64, took time.Duration) {
	fmt.Printf("%s: %d documents\n", operation, n)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f rows/sec\n", float64(n)/took.Seconds())
}
