package baha

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// ThreadParam identifies a thread and the floor it was opened at.
type ThreadParam struct {
	BoardID string `json:"bsn" yaml:"bsn"`
	ID      string `json:"sna" yaml:"sna"`
	Floor   int    `json:"floor" yaml:"floor"`
}

type User struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type PostComment struct {
	Name    string `json:"name" yaml:"name"`
	Comment string `json:"comment" yaml:"comment"`
	ID      string `json:"id" yaml:"id"`
}

// PostContent is one reply (floor) of a thread page.
type PostContent struct {
	Description Description `json:"desc" yaml:"desc"`
	User        User        `json:"user" yaml:"user"`
	Floor       int         `json:"floor" yaml:"floor"`
	Date        string      `json:"date" yaml:"date"`
}

// Comment returns the comments under the reply.
// Comment markup is not parsed yet, so the result is always empty.
func (content PostContent) Comment() []PostComment {
	return []PostComment{}
}

// Post is the content of a single thread page.
type Post struct {
	ID    string        `json:"id" yaml:"id"`
	Title string        `json:"title" yaml:"title"`
	Posts []PostContent `json:"posts" yaml:"posts"`
	Floor int           `json:"floor" yaml:"floor"`
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// UserExtractor reads the author of a reply block.
type UserExtractor interface {
	Extract(selection *goquery.Selection) (User, error)
}
