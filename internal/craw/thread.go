package craw

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDomain = "https://forum.gamer.com.tw"

	pageButtonSelector = ".BH-pagebtnA a"
)

// ThreadPage is the paginated view of one thread.
type ThreadPage struct {
	*Paginated[baha.Post]

	param     baha.ThreadParam
	domain    string
	extractor *Extractor
	fetcher   baha.Fetcher

	initialized bool
}

var _ PageSource[baha.Post] = (*ThreadPage)(nil)

func NewThreadPage(domain string, param baha.ThreadParam, fetcher baha.Fetcher, extractor *Extractor) *ThreadPage {
	if domain == "" {
		domain = DefaultDomain
	}

	page := &ThreadPage{
		param:     param,
		domain:    strings.TrimRight(domain, "/"),
		extractor: extractor,
		fetcher:   fetcher,
	}
	page.Paginated = NewPaginated[baha.Post](page, fetcher)
	return page
}

// NewThreadPageFromUrl opens the thread the url points at, keeping its floor.
func NewThreadPageFromUrl(domain, rawURL string, fetcher baha.Fetcher, extractor *Extractor) (*ThreadPage, error) {
	param, err := ParseThreadParam(rawURL)
	if err != nil {
		logrus.WithError(err).Error("ParseThreadParam failed")
		return nil, err
	}
	return NewThreadPage(domain, param, fetcher, extractor), nil
}

func (thread *ThreadPage) Param() baha.ThreadParam {
	return thread.param
}

// SetFloor only moves the anchor of generated urls.
func (thread *ThreadPage) SetFloor(floor int) {
	thread.param.Floor = floor
}

func (thread *ThreadPage) URL(page int) string {
	return fmt.Sprintf("%s/C.php?%s=%s&%s=%s&%s=%d&%s=%d",
		thread.domain,
		boardKey, thread.param.BoardID,
		threadKey, thread.param.ID,
		pageKey, page,
		floorKey, thread.param.Floor,
	)
}

func (thread *ThreadPage) Parse(doc *goquery.Document, pageURL string) (*baha.Post, error) {
	return thread.extractor.Extract(doc, pageURL)
}

// Init fetches page 1 and reads the page count from its pagination buttons.
// Max stays 0 when the thread has no pagination control.
func (thread *ThreadPage) Init(ctx context.Context) error {
	if thread.initialized {
		return nil
	}

	pageURL := thread.URL(1)
	doc, err := thread.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		logrus.WithError(err).WithField("url", pageURL).Error("fetcher.Fetch failed")
		return err
	}

	thread.max = maxPageFromDocument(doc)
	thread.initialized = true
	thread.fill(1, doc, pageURL)

	logrus.WithFields(logrus.Fields{
		"bsn": thread.param.BoardID,
		"snA": thread.param.ID,
		"max": thread.max,
	}).Debug("thread page initialized")
	return nil
}

// Pages returns the posts of every page in order, skipping pages without content.
func (thread *ThreadPage) Pages(ctx context.Context) ([]*baha.Post, error) {
	last := thread.Max()
	if last < 1 {
		last = 1
	}

	posts := make([]*baha.Post, 0, last)
	for page := 1; page <= last; page++ {
		post, err := thread.Get(ctx, page)
		if err != nil {
			logrus.WithError(err).WithField("page", page).Error("thread.Get failed")
			return nil, err
		}
		if post == nil {
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func maxPageFromDocument(doc *goquery.Document) int {
	text := strings.TrimSpace(doc.Find(pageButtonSelector).Last().Text())
	if text == "" {
		return 0
	}

	max, err := strconv.Atoi(text)
	if err != nil || max < 0 {
		logrus.WithField("text", text).Warn("pagination text is not a number")
		return 0
	}
	return max
}
