package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/davidleitw/bahathread/internal/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDomain = "https://forum.test"

// threadFetcher serves a thread whose replies can grow between polls.
type threadFetcher struct {
	mu      sync.Mutex
	floors  int
	perPage int
	calls   int
}

func (f *threadFetcher) grow(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.floors += n
}

func (f *threadFetcher) Fetch(_ context.Context, url string) (*goquery.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	page := 1
	if i := strings.Index(url, "&page="); i >= 0 {
		fmt.Sscanf(url[i:], "&page=%d", &page)
	}
	pages := (f.floors + f.perPage - 1) / f.perPage

	var b strings.Builder
	b.WriteString(`<html><body><p class="BH-pagebtnA">`)
	for i := 1; i <= pages; i++ {
		fmt.Fprintf(&b, `<a>%d</a>`, i)
	}
	b.WriteString(`</p>`)
	for n := (page-1)*f.perPage + 1; n <= page*f.perPage && n <= f.floors; n++ {
		fmt.Fprintf(&b, `<section class="c-section" id="post_%d">`+
			`<h1 class="c-post__header__title">T</h1>`+
			`<div class="c-post__header__author"><a class="floor" data-floor="%d"></a><a class="userid">u%d</a></div>`+
			`<a class="edittime">2024-01-01</a>`+
			`<div class="c-article__content">floor %d</div></section>`, n, n, n, n)
	}
	b.WriteString(`</body></html>`)
	return goquery.NewDocumentFromReader(strings.NewReader(b.String()))
}

func TestMonitor_Poll(t *testing.T) {
	t.Parallel()

	fetcher := &threadFetcher{floors: 3, perPage: 2}
	var seen []int
	r, err := rule.NewTrackingRule(rule.Bsn(60076), rule.Sna(1), rule.NewPostCallback(func(c baha.PostContent) {
		seen = append(seen, c.Floor)
	}))
	require.NoError(t, err)

	m, err := NewMonitor(testDomain, fetcher, r)
	require.NoError(t, err)
	mon := m.(*monitor)
	ctx := context.Background()

	require.NoError(t, mon.poll(ctx, r))
	assert.Empty(t, seen)
	assert.Equal(t, 3, r.LastFloorIndex)

	fetcher.grow(2)
	require.NoError(t, mon.poll(ctx, r))
	assert.Equal(t, []int{4, 5}, seen)

	require.NoError(t, mon.poll(ctx, r))
	assert.Equal(t, []int{4, 5}, seen)
}

func TestMonitor_PollEmptyThread(t *testing.T) {
	t.Parallel()

	r, err := rule.NewTrackingRule(rule.Bsn(60076), rule.Sna(1))
	require.NoError(t, err)

	m, err := NewMonitor(testDomain, &threadFetcher{perPage: 20}, r)
	require.NoError(t, err)

	assert.ErrorIs(t, m.(*monitor).poll(context.Background(), r), errEmptyLastPage)
}

func TestMonitor_Run(t *testing.T) {
	t.Parallel()

	fetcher := &threadFetcher{floors: 1, perPage: 20}
	r, err := rule.NewTrackingRule(rule.Bsn(60076), rule.Sna(1), rule.PokeInterval(time.Second))
	require.NoError(t, err)

	m, err := NewMonitor(testDomain, fetcher, r)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	require.NoError(t, m.Run(ctx))

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.GreaterOrEqual(t, fetcher.calls, 1)
}

func TestNewMonitor_NoRule(t *testing.T) {
	t.Parallel()

	_, err := NewMonitor(testDomain, &threadFetcher{perPage: 20})

	assert.Error(t, err)
}
