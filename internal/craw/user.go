package craw

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/davidleitw/bahathread/internal/baha"
)

const authorSelector = ".c-post__header__author"

// HeaderUserExtractor reads the author from the header of a reply block.
type HeaderUserExtractor struct{}

var _ baha.UserExtractor = HeaderUserExtractor{}

func (HeaderUserExtractor) Extract(selection *goquery.Selection) (baha.User, error) {
	author := selection.Find(authorSelector).First()
	if author.Length() == 0 {
		return baha.User{}, baha.ErrUserNotFound
	}

	user := baha.User{
		ID:   strings.TrimSpace(author.Find("a.userid").First().Text()),
		Name: strings.TrimSpace(author.Find("a.username").First().Text()),
	}

	if user.ID == "" {
		if href, exist := author.Find("a.username").First().Attr("href"); exist {
			user.ID = getAuthorIdFromHref(href)
		}
	}

	if user.ID == "" {
		return baha.User{}, baha.ErrUserNotFound
	}
	return user, nil
}

// getAuthorIdFromHref takes the last path segment of a home page link.
func getAuthorIdFromHref(href string) string {
	parts := strings.Split(strings.TrimRight(href, "/"), "/")
	return parts[len(parts)-1]
}
