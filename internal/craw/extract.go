package craw

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/sirupsen/logrus"
)

const (
	replySelector   = ".c-section[id]"
	titleSelector   = ".c-post__header__title"
	contentSelector = ".c-article__content"
	floorSelector   = ".floor"
	dateSelector    = ".edittime"

	videoSelector = ".video-youtube"
	imageSelector = "a img"
)

// Extractor turns a fetched thread page into a baha.Post.
type Extractor struct {
	users baha.UserExtractor
}

func NewExtractor(users baha.UserExtractor) *Extractor {
	if users == nil {
		users = HeaderUserExtractor{}
	}
	return &Extractor{users: users}
}

// Extract fails when the thread id, the last floor or the title cannot be
// read. Replies missing an author or a date are left out.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) (*baha.Post, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", baha.ErrInvalidURL, err)
	}

	params := parsedURL.Query()
	if !params.Has(threadKey) {
		return nil, baha.ErrPostID
	}

	if !params.Has(floorKey) {
		return nil, baha.ErrLastFloor
	}
	floor, err := strconv.Atoi(params.Get(floorKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", baha.ErrLastFloor, err)
	}

	blocks := doc.Find(replySelector)
	titleSelection := blocks.First().Find(titleSelector)
	if titleSelection.Length() == 0 {
		return nil, baha.ErrPostTitle
	}

	return &baha.Post{
		ID:    params.Get(threadKey),
		Title: titleSelection.First().Text(),
		Posts: e.replies(blocks),
		Floor: floor,
	}, nil
}

func (e *Extractor) replies(blocks *goquery.Selection) []baha.PostContent {
	contents := make([]baha.PostContent, 0, blocks.Length())
	blocks.Each(func(i int, s *goquery.Selection) {
		content, err := e.reply(s)
		if err != nil {
			logrus.WithError(err).WithField("block", i).Debug("drop reply block")
			return
		}
		contents = append(contents, content)
	})
	return contents
}

func (e *Extractor) reply(s *goquery.Selection) (baha.PostContent, error) {
	user, err := e.users.Extract(s)
	if err != nil {
		return baha.PostContent{}, err
	}

	date, ok := dateFromBlock(s)
	if !ok {
		return baha.PostContent{}, fmt.Errorf("edit time not found")
	}

	return baha.PostContent{
		Description: Describe(s),
		User:        user,
		Floor:       floorFromBlock(s),
		Date:        date,
	}, nil
}

// floorFromBlock is lenient, a missing or malformed data-floor is 0.
func floorFromBlock(s *goquery.Selection) int {
	value, exist := s.Find(floorSelector).First().Attr("data-floor")
	if !exist {
		return 0
	}
	return lenientInt(value)
}

func dateFromBlock(s *goquery.Selection) (string, bool) {
	node := s.Find(dateSelector).First()
	if node.Length() == 0 {
		return "", false
	}

	date := node.Text()
	return date, strings.TrimSpace(date) != ""
}

// Describe flattens every body of a reply block into text and media tokens,
// keeping document order.
func Describe(s *goquery.Selection) baha.Description {
	desc := baha.Description{}
	s.Find(contentSelector).Each(func(_ int, wrapper *goquery.Selection) {
		desc = append(desc, describeWrapper(wrapper)...)
	})
	return desc
}

func describeWrapper(wrapper *goquery.Selection) []baha.Token {
	if wrapper.Find("div").Length() == 0 {
		return []baha.Token{baha.Text(wrapper.Text())}
	}

	children := outermostDivs(wrapper)
	tokens := make([]baha.Token, 0, children.Length())
	children.Each(func(_ int, child *goquery.Selection) {
		tokens = append(tokens, tokensOf(classify(child), child)...)
	})
	return tokens
}

// outermostDivs returns the divs of wrapper that have no div ancestor below
// wrapper, so nested divs are classified once through their outer div.
func outermostDivs(wrapper *goquery.Selection) *goquery.Selection {
	return wrapper.Find("div").FilterFunction(func(_ int, div *goquery.Selection) bool {
		return div.ParentsUntilSelection(wrapper).Filter("div").Length() == 0
	})
}

type paragraphKind int

const (
	paragraphText paragraphKind = iota
	paragraphVideo
	paragraphImage
)

// classify decides what a paragraph holds. A video wins over images, images
// win over text.
func classify(child *goquery.Selection) paragraphKind {
	if videoFrames(child).Length() > 0 {
		return paragraphVideo
	}
	if child.Find(imageSelector).Length() > 0 {
		return paragraphImage
	}
	return paragraphText
}

func tokensOf(kind paragraphKind, child *goquery.Selection) []baha.Token {
	switch kind {
	case paragraphVideo:
		src, ok := sourceOf(videoFrames(child).First())
		if !ok {
			return nil
		}
		return []baha.Token{baha.Video(src)}
	case paragraphImage:
		tokens := make([]baha.Token, 0)
		child.Find(imageSelector).Each(func(_ int, img *goquery.Selection) {
			if src, ok := sourceOf(img); ok {
				tokens = append(tokens, baha.Image(src))
			}
		})
		return tokens
	default:
		return []baha.Token{baha.Text(child.Text())}
	}
}

func videoFrames(child *goquery.Selection) *goquery.Selection {
	if child.Is(videoSelector) {
		return child.Find("iframe")
	}
	return child.Find(videoSelector + " iframe")
}

// sourceOf prefers the lazy-load data-src over src.
func sourceOf(s *goquery.Selection) (string, bool) {
	if src, exist := s.Attr("data-src"); exist && src != "" {
		return src, true
	}
	if src, exist := s.Attr("src"); exist && src != "" {
		return src, true
	}
	return "", false
}
