// Copyright (c) 2025 BVK Chaitanya

// Package zenmarket fetches marketplace search results from the
// ZenMarket proxy-buying site by scraping its search pages.
package zenmarket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bvk/zenwatch/watch"
)

type Options struct {
	// BaseURL is the site root. Item and image links on search pages are
	// resolved against it.
	BaseURL string

	UserAgent string

	FetchTimeout time.Duration
}

func (v *Options) setDefaults() {
	if len(v.BaseURL) == 0 {
		v.BaseURL = "https://zenmarket.jp/"
	}
	if len(v.UserAgent) == 0 {
		v.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	if v.FetchTimeout == 0 {
		v.FetchTimeout = 30 * time.Second
	}
}

func (v *Options) Check() error {
	if _, err := url.Parse(v.BaseURL); err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	return nil
}

type Client struct {
	opts Options

	baseURL *url.URL

	client *http.Client
}

func New(opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		opts:    *opts,
		baseURL: base,
		client: &http.Client{
			Timeout: opts.FetchTimeout,
		},
	}
	return c, nil
}

// SearchURL returns the search page address for a query. Sort orders
// are passed through as raw query parameters; the bare mercari value
// "LaunchDate" is accepted for compatibility with older watches.
func (c *Client) SearchURL(platform, query, sortOrder string) (string, error) {
	if !watch.IsSupportedPlatform(platform) {
		return "", fmt.Errorf("platform %q is not supported", platform)
	}
	addr := fmt.Sprintf("%sen/%s.aspx?q=%s", c.baseURL.String(), platform, url.QueryEscape(query))
	if sort := strings.TrimSpace(sortOrder); len(sort) != 0 {
		if platform == watch.Mercari && sort == "LaunchDate" {
			sort = "sort=LaunchDate"
		}
		addr = addr + "&" + sort
	}
	return addr, nil
}

// Fetch implements the source.Source interface. A page that renders no
// listings is an empty result, not an error; so is HTTP 404, which the
// site returns for some malformed queries.
func (c *Client) Fetch(ctx context.Context, platform, query, sortOrder string) ([]*watch.Item, error) {
	addr, err := c.SearchURL(platform, query, sortOrder)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch %q: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []*watch.Item{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not fetch %q: http status %d", addr, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not parse html from %q: %w", addr, err)
	}
	return c.parseSearchPage(platform, doc), nil
}
