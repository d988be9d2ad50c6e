package main

import (
	"sort"
	"strings"

	"github.com/fulldump/goconfig"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Test    string `usage:"comma separated tests to run (insert, update, remove) or all"`
	Base    string `usage:"base URL, empty starts a local server"`
	N       int64  `usage:"number of documents"`
	Workers int    `usage:"number of workers"`
}

var tests = map[string]func(Config){
	"insert": TestInsert,
	"update": TestUpdate,
	"remove": TestRemove,
}

var cleanups []func()

func main() {

	defer func() {
		log.Info("cleaning up")
		for _, cleanup := range cleanups {
			cleanup()
		}
	}()

	c := Config{
		Test:    "insert",
		N:       100_000,
		Workers: 16,
	}
	goconfig.Read(&c)

	names := strings.Split(strings.ToLower(c.Test), ",")
	if len(names) == 1 && names[0] == "all" {
		names = names[:0]
		for name := range tests {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	for _, name := range names {
		run, exists := tests[strings.TrimSpace(name)]
		if !exists {
			log.Fatalf("unknown test '%s'", name)
		}
		log.WithField("test", name).Info("running")
		run(c)
	}
}
