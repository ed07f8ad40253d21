package craw_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

const testDomain = "https://forum.test"

// fakeFetcher serves fixed html by url and counts requests.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	calls  map[string]int
	before func(url string)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*goquery.Document, error) {
	if f.before != nil {
		f.before(url)
	}

	f.mu.Lock()
	f.calls[url]++
	html, ok := f.pages[url]
	err := f.errs[url]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeFetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

type replyFixture struct {
	id      string
	floor   string
	userID  string
	name    string
	date    string
	title   string
	content string
}

func (r replyFixture) html() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<section class="c-section" id="%s"><div class="c-section__main c-post"><div class="c-post__header">`, r.id)
	if r.title != "" {
		fmt.Fprintf(&b, `<h1 class="c-post__header__title">%s</h1>`, r.title)
	}
	b.WriteString(`<div class="c-post__header__author">`)
	if r.floor != "" {
		fmt.Fprintf(&b, `<a class="floor" data-floor="%s">#</a>`, r.floor)
	}
	if r.userID != "" {
		fmt.Fprintf(&b, `<a class="username" href="https://home.gamer.com.tw/%s">%s</a><a class="userid">%s</a>`, r.userID, r.name, r.userID)
	}
	b.WriteString(`</div>`)
	if r.date != "" {
		fmt.Fprintf(&b, `<div class="c-post__header__info"><a class="edittime">%s</a></div>`, r.date)
	}
	b.WriteString(`</div>`)
	fmt.Fprintf(&b, `<div class="c-post__body"><article class="c-article"><div class="c-article__content">%s</div></article></div>`, r.content)
	b.WriteString(`</div></section>`)
	return b.String()
}

func pageButtons(max int) string {
	var b strings.Builder
	b.WriteString(`<p class="BH-pagebtnA">`)
	for i := 1; i <= max; i++ {
		fmt.Fprintf(&b, `<a href="?page=%d">%d</a>`, i, i)
	}
	b.WriteString(`</p>`)
	return b.String()
}

func threadHTML(max int, replies ...replyFixture) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body>`)
	if max > 0 {
		b.WriteString(pageButtons(max))
	}
	for _, r := range replies {
		b.WriteString(r.html())
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func reply(floor int, userID, content string) replyFixture {
	return replyFixture{
		id:      fmt.Sprintf("post_%d", floor),
		floor:   fmt.Sprint(floor),
		userID:  userID,
		name:    strings.ToUpper(userID),
		date:    "2024-01-02 03:04:05",
		content: content,
	}
}

func titled(r replyFixture, title string) replyFixture {
	r.title = title
	return r
}

func mustDocument(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(err)
	}
	return doc
}
