package services

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"roles-server/models"
	"roles-server/utils/errors"
)

// CacheBustParam is appended to every feed request so published sheets
// are never served stale.
const CacheBustParam = "cache_bust"

var lineBreak = regexp.MustCompile(`\r?\n`)

// Fetcher retrieves the raw feed text.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches over plain HTTP. Timeouts are left to the client.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Client: client}
}

func (f *HTTPFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &errors.FetchError{URL: rawURL, Err: err}
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", &errors.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &errors.FetchError{URL: rawURL, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &errors.FetchError{URL: rawURL, Err: err}
	}
	return string(body), nil
}

// SheetService turns the published TSV sheet into places.
type SheetService struct {
	feedURL string
	fetcher Fetcher
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewSheetService(feedURL string, fetcher Fetcher, log *zap.SugaredLogger) *SheetService {
	return &SheetService{
		feedURL: feedURL,
		fetcher: fetcher,
		log:     log,
		now:     time.Now,
	}
}

// Ingest fetches the feed and parses every data line. Any failure is a
// *errors.FetchError; malformed rows are dropped silently.
func (s *SheetService) Ingest(ctx context.Context) ([]models.Place, error) {
	now := s.now()

	u, err := url.Parse(s.feedURL)
	if err != nil {
		return nil, &errors.FetchError{URL: s.feedURL, Err: err}
	}
	q := u.Query()
	q.Add(CacheBustParam, strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()

	text, err := s.fetcher.FetchText(ctx, u.String())
	if err != nil {
		if errors.IsFetchError(err) {
			return nil, err
		}
		return nil, &errors.FetchError{URL: u.String(), Err: err}
	}

	places := ParseFeed(text, now)
	s.log.Infof("Ingested %d places from feed", len(places))
	return places, nil
}

// ParseFeed parses the full TSV text. The first line is the header and is
// skipped. Blank lines do not consume an ordinal; rows with an empty name
// do, before being dropped.
func ParseFeed(text string, now time.Time) []models.Place {
	lines := lineBreak.Split(text, -1)
	if len(lines) <= 1 {
		return []models.Place{}
	}

	places := make([]models.Place, 0, len(lines)-1)
	ordinal := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ordinal++
		place, ok := ParseRow(strings.Split(line, "\t"), ordinal, now)
		if !ok {
			continue
		}
		places = append(places, place)
	}
	return places
}
