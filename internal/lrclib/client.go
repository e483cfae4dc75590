package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the public lrclib.net API root.
	DefaultBaseURL = "https://lrclib.net/api"

	userAgent      = "slowverb/1.0 (https://github.com/slowverb/slowverb)"
	requestTimeout = 10 * time.Second
)

// ErrUnavailable marks transport-level failures: timeouts, connection
// errors, 5xx responses. Callers must not confuse it with "no candidates",
// which is a successful empty search.
var ErrUnavailable = errors.New("lyrics service unavailable")

// Candidate is one search result: a reference recording with its duration
// and, when available, line-synced lyrics.
type Candidate struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// Lines parses the candidate's synced lyrics into timed lines. Candidates
// without synced lyrics yield nil.
func (c *Candidate) Lines() []Line {
	return ParseLRC(c.SyncedLyrics)
}

// Query is one search request. Empty fields are omitted from the request.
type Query struct {
	Title  string
	Artist string
	Album  string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 2 * time.Second,
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
	}
}

// Search runs one lookup against /api/search. A successful search with no
// matches returns an empty slice and nil error.
func (c *Client) Search(ctx context.Context, q Query) ([]Candidate, error) {
	if q.Title == "" {
		return nil, errors.New("empty track title")
	}

	reqURL, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url %q: %w", c.baseURL, err)
	}

	params := reqURL.Query()
	params.Set("track_name", q.Title)
	if q.Artist != "" {
		params.Set("artist_name", q.Artist)
	}
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var candidates []Candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("%w: bad response: %v", ErrUnavailable, err)
	}

	log.Debug().
		Str("title", q.Title).
		Str("artist", q.Artist).
		Int("candidates", len(candidates)).
		Msg("lrclib search")

	return candidates, nil
}
