package craw

import (
	"context"
	"strconv"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// PageSource is the part of a paginated resource that knows the site:
// where page N lives and how to read a fetched page.
type PageSource[T any] interface {
	URL(page int) string

	// Parse returns nil when the page has nothing to extract.
	Parse(doc *goquery.Document, pageURL string) (*T, error)
}

// Paginated caches the pages of a PageSource and keeps the navigation state.
// Every page is fetched at most once for the lifetime of a Paginated.
//
// Navigation (Advance, Retreat) is meant for a single caller. Get and
// Prefetch may run concurrently.
type Paginated[T any] struct {
	source  PageSource[T]
	fetcher baha.Fetcher

	page int
	max  int

	mu sync.Mutex
	// a nil value means the page was fetched but had no content
	cache  map[int]*T
	flight singleflight.Group
}

func NewPaginated[T any](source PageSource[T], fetcher baha.Fetcher) *Paginated[T] {
	return &Paginated[T]{
		source:  source,
		fetcher: fetcher,
		page:    1,
		cache:   make(map[int]*T),
	}
}

func (p *Paginated[T]) URL(page int) string {
	return p.source.URL(page)
}

func (p *Paginated[T]) Page() int {
	return p.page
}

// Max is 0 until the resource is initialized.
func (p *Paginated[T]) Max() int {
	return p.max
}

// Advance does no bounds checking, compare Page with Max first.
func (p *Paginated[T]) Advance() {
	p.page++
}

// Retreat does no bounds checking, callers must stay on page 1 or above.
func (p *Paginated[T]) Retreat() {
	p.page--
}

// Cached reports whether page was already fetched, without fetching it.
func (p *Paginated[T]) Cached(page int) (*T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	value, ok := p.cache[page]
	return value, ok
}

// Get returns page from the cache, fetching and parsing it on the first call.
// A fetch error is returned and nothing is cached; a parse error caches the
// page as empty.
func (p *Paginated[T]) Get(ctx context.Context, page int) (*T, error) {
	if value, ok := p.Cached(page); ok {
		return value, nil
	}

	result, err, _ := p.flight.Do(strconv.Itoa(page), func() (interface{}, error) {
		if value, ok := p.Cached(page); ok {
			return value, nil
		}

		pageURL := p.URL(page)
		doc, err := p.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			logrus.WithError(err).WithField("url", pageURL).Error("fetcher.Fetch failed")
			return nil, err
		}
		return p.fill(page, doc, pageURL), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*T), nil
}

// fill parses doc into the cache entry of page unless the entry exists.
func (p *Paginated[T]) fill(page int, doc *goquery.Document, pageURL string) *T {
	if value, ok := p.Cached(page); ok {
		return value
	}

	value, err := p.source.Parse(doc, pageURL)
	if err != nil {
		logrus.WithError(err).WithField("url", pageURL).Warn("page has no extractable content")
		value = nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.cache[page]; ok {
		return existing
	}
	p.cache[page] = value
	return value
}

// Prefetch fetches pages 2..Max with at most workers requests in flight.
func (p *Paginated[T]) Prefetch(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for page := 2; page <= p.max; page++ {
		page := page
		g.Go(func() error {
			_, err := p.Get(ctx, page)
			return err
		})
	}
	return g.Wait()
}
