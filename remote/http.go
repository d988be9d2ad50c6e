// Package remote implements sync targets for the database change log.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fulldump/bucketdb/database"
)

// HTTP forwards commands to the sync endpoint of another bucketdb node.
type HTTP struct {
	base      string
	apiKey    string
	apiSecret string
	client    *http.Client
	online    atomic.Bool
}

// NewHTTP targets the node listening at base, e.g. "http://replica:8080".
// It starts online; a failed request marks it offline until a request or a
// Probe succeeds again.
func NewHTTP(base, apiKey, apiSecret string) *HTTP {
	h := &HTTP{
		base:      strings.TrimRight(base, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	h.online.Store(true)
	return h
}

func (h *HTTP) ID() string {
	return h.base
}

func (h *HTTP) IsOnline() bool {
	return h.online.Load()
}

func (h *HTTP) setOnline(online bool) {
	if h.online.Swap(online) != online {
		log.WithFields(log.Fields{
			"remote": h.base,
			"online": online,
		}).Info("remote status changed")
	}
}

func (h *HTTP) do(ctx context.Context, method, path string, body io.Reader) error {

	req, err := http.NewRequestWithContext(ctx, method, h.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("X-Api-Key", h.apiKey)
		req.Header.Set("X-Api-Secret", h.apiSecret)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.setOnline(false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		h.setOnline(resp.StatusCode < 500)
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(message))
	}

	h.setOnline(true)
	return nil
}

func (h *HTTP) Sync(ctx context.Context, commands []database.Command) error {
	payload, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("json encode commands: %w", err)
	}
	return h.do(ctx, http.MethodPost, "/v1/sync", bytes.NewReader(payload))
}

// Probe checks the status endpoint of the node.
func (h *HTTP) Probe(ctx context.Context) error {
	return h.do(ctx, http.MethodGet, "/v1/status", nil)
}
