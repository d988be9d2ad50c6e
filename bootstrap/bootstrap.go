package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fulldump/box"
	log "github.com/sirupsen/logrus"

	"github.com/fulldump/bucketdb/api"
	"github.com/fulldump/bucketdb/configuration"
	"github.com/fulldump/bucketdb/database"
	"github.com/fulldump/bucketdb/remote"
	"github.com/fulldump/bucketdb/service"
)

var VERSION = "dev"

// Remotes builds the sync targets: one HTTP remote per URL in c.Remotes,
// then the SQLite archive and the journal when configured.
func Remotes(c *configuration.Configuration) ([]database.Remote, func(), error) {

	remotes := []database.Remote{}
	for _, base := range strings.Split(c.Remotes, ",") {
		base = strings.TrimSpace(base)
		if base == "" {
			continue
		}
		remotes = append(remotes, remote.NewHTTP(base, c.RemoteApiKey, c.RemoteApiSecret))
	}

	closers := []func() error{}
	closer := func() {
		for _, close := range closers {
			if err := close(); err != nil {
				log.WithError(err).Error("close remote")
			}
		}
	}

	if c.SqliteArchive != "" {
		archive, err := remote.OpenSQLite(c.SqliteArchive)
		if err != nil {
			closer()
			return nil, nil, err
		}
		remotes = append(remotes, archive)
		closers = append(closers, archive.Close)
	}

	if c.Journal != "" {
		journal, err := remote.OpenJournal(c.Journal)
		if err != nil {
			closer()
			return nil, nil, err
		}
		remotes = append(remotes, journal)
		closers = append(closers, journal.Close)
	}

	return remotes, closer, nil
}

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("bad log level")
	}
	log.SetLevel(level)

	autosave, err := time.ParseDuration(c.AutosaveInterval)
	if err != nil {
		log.WithError(err).Fatal("bad autosave interval")
	}

	remotes, closeRemotes, err := Remotes(c)
	if err != nil {
		log.WithError(err).Fatal("build remotes")
	}

	db := database.NewDatabase(&database.Config{
		Dir:              c.Dir,
		SnapshotFile:     c.SnapshotFile,
		Remotes:          remotes,
		SuccessLimit:     c.SuccessLimit,
		AutosaveInterval: autosave,
		StrictWrites:     c.StrictWrites,
	})

	b := api.Build(service.NewService(db), VERSION, c.ApiKey, c.ApiSecret)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(log.StandardLogger()),
		api.RecoverFromPanic,
		api.PrettyErrorInterceptor,
		api.InterceptorUnavailable(db),
	)

	s := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		log.WithError(err).Fatal("create data directory")
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}
	log.WithField("addr", c.HttpAddr).Info("listening")

	stopOnce := &sync.Once{}
	stop = func() {
		stopOnce.Do(func() {
			if err := db.Stop(); err != nil {
				log.WithError(err).Error("stop database")
			}
			s.Shutdown(context.Background())
			closeRemotes()
		})
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			log.WithField("signal", sig.String()).Info("signal received")
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				log.WithError(err).Error("database")
				stop()
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server")
			}
		}()

		wg.Wait()
	}

	return
}
