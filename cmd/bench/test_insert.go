package main

import (
	"time"
)

func TestInsert(c Config) {

	_, stop := CreateServer(&c)
	defer stop()

	client := NewClient()
	bucket := BucketName()

	t0 := time.Now()
	Preload(client, c.Base, bucket, c.N, c.Workers)
	Report("inserted", c.N, time.Since(t0))
}
