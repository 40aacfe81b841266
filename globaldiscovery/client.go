// Package globaldiscovery implements the HTTPS-based rendezvous
// client used to publish and look up a device's reachable addresses
// when it is not on the same LAN segment: announce is a JSON POST,
// lookup is a JSON GET. The client shape mirrors the teacher's
// directory.fetchConsensusFrom — an explicit-timeout *http.Client, a
// status-code branch, and an io.LimitReader cap on the response body —
// generalized from a single GET to the announce/lookup pair this
// protocol needs.
package globaldiscovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/basiliscos/syncspirit-go/errs"
	"github.com/basiliscos/syncspirit-go/uri"
	"github.com/rs/zerolog"
)

const maxResponseBody = 1 << 20 // 1 MiB, well above any real discovery payload

// Client talks to one rendezvous URL.
type Client struct {
	log     zerolog.Logger
	http    *http.Client
	baseURL string
}

// NewClient builds a Client against baseURL with the given request
// timeout.
func NewClient(log zerolog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		log: log.With().Str("component", "globaldiscovery").Logger(),
		http: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// AnnounceResult reports the outcome of a successful announce.
type AnnounceResult struct {
	ReannounceAfter time.Duration
}

// Announce publishes addresses to the rendezvous service. A 204 or
// 429 response is success; the reannounce interval is taken from the
// Reannounce-After header, falling back to Retry-After.
func (c *Client) Announce(ctx context.Context, addresses []string) (AnnounceResult, error) {
	const op = "globaldiscovery.Announce"

	body, err := json.Marshal(struct {
		Addresses []string `json:"addresses"`
	}{Addresses: addresses})
	if err != nil {
		return AnnounceResult{}, errs.New(op, errs.KindIncorrectJson, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2", bytes.NewReader(body))
	if err != nil {
		return AnnounceResult{}, errs.New(op, errs.KindMalformedUrl, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return AnnounceResult{}, errs.New(op, errs.KindUnexpectedResponseCode, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusTooManyRequests {
		return AnnounceResult{}, errs.New(op, errs.KindUnexpectedResponseCode, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	seconds, err := reannounceSeconds(resp.Header)
	if err != nil {
		return AnnounceResult{}, errs.New(op, errs.KindNegativeReannounceInterval, err)
	}
	return AnnounceResult{ReannounceAfter: time.Duration(seconds) * time.Second}, nil
}

func reannounceSeconds(h http.Header) (int, error) {
	raw := h.Get("Reannounce-After")
	if raw == "" {
		raw = h.Get("Retry-After")
	}
	if raw == "" {
		return 0, fmt.Errorf("missing Reannounce-After and Retry-After headers")
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse reannounce interval %q: %w", raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("non-positive reannounce interval %d", n)
	}
	return n, nil
}

// LookupResult is the rendezvous service's answer to a lookup.
type LookupResult struct {
	Addresses []uri.URI
	Seen      time.Time
}

// Lookup resolves a device's display id to its currently announced
// addresses. A 404 is treated as a valid empty result, not an error.
func (c *Client) Lookup(ctx context.Context, deviceDisplayID string) (LookupResult, error) {
	const op = "globaldiscovery.Lookup"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?device="+deviceDisplayID, nil)
	if err != nil {
		return LookupResult{}, errs.New(op, errs.KindMalformedUrl, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return LookupResult{}, errs.New(op, errs.KindUnexpectedResponseCode, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return LookupResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return LookupResult{}, errs.New(op, errs.KindUnexpectedResponseCode, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return LookupResult{}, errs.New(op, errs.KindMalformedJson, err)
	}

	var payload struct {
		Addresses []string `json:"addresses"`
		Seen      string   `json:"seen"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return LookupResult{}, errs.New(op, errs.KindMalformedJson, err)
	}
	if payload.Addresses == nil {
		return LookupResult{}, errs.New(op, errs.KindIncorrectJson, fmt.Errorf("missing addresses field"))
	}

	addrs := make([]uri.URI, 0, len(payload.Addresses))
	for _, a := range payload.Addresses {
		u, err := uri.Parse(a)
		if err != nil {
			return LookupResult{}, errs.New(op, errs.KindMalformedUrl, err)
		}
		addrs = append(addrs, u)
	}

	seen, err := parseSeen(payload.Seen)
	if err != nil {
		return LookupResult{}, errs.New(op, errs.KindMalformedDate, err)
	}

	return LookupResult{Addresses: addrs, Seen: seen}, nil
}

// parseSeen parses an ISO-8601 extended timestamp, silently trimming
// any trailing non-digit characters before parsing (matching the
// original implementation's tolerance for a trailing zone marker).
func parseSeen(s string) (time.Time, error) {
	trimmed := strings.TrimRightFunc(s, func(r rune) bool {
		return r < '0' || r > '9'
	})
	for _, layout := range []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05.000000",
	} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
