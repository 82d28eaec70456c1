package ingestion

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/guttosm/spimexpulse/internal/logger"
)

const userAgent = "spimexpulse/1.0"

// Source describes where report links are listed.
type Source struct {
	BaseURL string // paginated listing page
	Origin  string // prepended to the relative links found on listing pages
	MinYear int    // inclusive year range accepted by the link pattern
	MaxYear int
}

// LinkPattern matches report paths of the given inclusive year range, e.g.
// "/upload/reports/oil_xls/oil_xls_20240501162000".
func LinkPattern(minYear, maxYear int) *regexp.Regexp {
	if maxYear < minYear {
		maxYear = minYear
	}
	years := make([]string, 0, maxYear-minYear+1)
	for y := minYear; y <= maxYear; y++ {
		years = append(years, strconv.Itoa(y))
	}
	return regexp.MustCompile(`/upload/reports/oil_xls/oil_xls_(?:` + strings.Join(years, "|") + `)\d*`)
}

// Discovery walks the publisher's listing pages and yields report links.
type Discovery struct {
	client  *http.Client
	limiter *rate.Limiter
	src     Source
	pattern *regexp.Regexp
}

// NewDiscovery builds a Discovery. limiter may be nil.
func NewDiscovery(client *http.Client, limiter *rate.Limiter, src Source) *Discovery {
	return &Discovery{
		client:  client,
		limiter: limiter,
		src:     src,
		pattern: LinkPattern(src.MinYear, src.MaxYear),
	}
}

// Links lazily yields absolute report links in page order.
//
// Pagination stops at the first page answering with a non-2xx status or
// containing no matching link. A transport error is yielded once and ends
// the sequence.
func (d *Discovery) Links(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		origin := strings.TrimRight(d.src.Origin, "/")
		for page := 1; ; page++ {
			paths, err := d.page(ctx, page)
			if err != nil {
				yield("", err)
				return
			}
			if len(paths) == 0 {
				logger.L().Info().Int("page", page).Msg("listing exhausted")
				return
			}
			logger.L().Debug().Int("page", page).Int("links", len(paths)).Msg("listing page parsed")
			for _, p := range paths {
				if !yield(origin+p, nil) {
					return
				}
			}
		}
	}
}

// Discover collects every link yielded by Links.
func (d *Discovery) Discover(ctx context.Context) ([]string, error) {
	var links []string
	for link, err := range d.Links(ctx) {
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	logger.L().Info().Int("links", len(links)).Msg("discovery done")
	return links, nil
}

// page returns the report paths found on one listing page; nil means "stop".
func (d *Discovery) page(ctx context.Context, n int) ([]string, error) {
	if err := wait(ctx, d.limiter); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s?page=page-%d", d.src.BaseURL, n)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing page %d: %w", n, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L().Info().Int("page", n).Int("status", resp.StatusCode).Msg("listing page not available")
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read listing page %d: %w", n, err)
	}
	return d.pattern.FindAllString(string(body), -1), nil
}

// wait blocks until the limiter allows one more request.
func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// NewLimiter returns a limiter allowing rps requests per second, or nil for rps <= 0.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
