package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/changecast/internal/fetch"
	"github.com/ariel-frischer/changecast/internal/logging"
)

// DefaultConcurrency bounds parallel changelog fetches in FetchAllActive.
const DefaultConcurrency = 4

// Client talks to a sources registry. Calls are single attempts.
type Client struct {
	baseURL     string
	fetcher     *fetch.Client
	logger      *slog.Logger
	concurrency int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithFetcher sets the HTTP fetch client.
func WithFetcher(f *fetch.Client) ClientOption {
	return func(c *Client) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConcurrency bounds parallel fetches.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient returns a client for the registry at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		fetcher:     fetch.NewClient(),
		logger:      logging.NewNop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	body, err := c.fetcher.Get(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// List returns all sources in registry order.
func (c *Client) List(ctx context.Context) ([]Source, error) {
	var list []Source
	if err := c.getJSON(ctx, "/api/sources", &list); err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	if list == nil {
		list = []Source{}
	}
	return list, nil
}

// FetchChangelog returns the markdown and record for source id.
func (c *Client) FetchChangelog(ctx context.Context, id string) (*ChangelogResponse, error) {
	var resp ChangelogResponse
	if err := c.getJSON(ctx, "/api/sources/"+url.PathEscape(id)+"/changelog", &resp); err != nil {
		return nil, fmt.Errorf("fetching changelog for source %s: %w", id, err)
	}
	return &resp, nil
}

// FetchAllActive fetches the changelog of every active source. Sources that
// fail are logged and skipped; the result follows registry order. Only a
// failure to list sources is returned.
func (c *Client) FetchAllActive(ctx context.Context) ([]SourceChangelog, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	active := Active(list)

	results := make([]*SourceChangelog, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, src := range active {
		g.Go(func() error {
			resp, err := c.FetchChangelog(gctx, src.ID)
			if err != nil {
				c.logger.Warn("failed to fetch changelog",
					logging.String("source", src.Name),
					logging.Error(err),
				)
				return nil
			}
			results[i] = &SourceChangelog{
				SourceID:   src.ID,
				SourceName: src.Name,
				Markdown:   resp.Markdown,
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]SourceChangelog, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}
