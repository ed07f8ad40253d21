package craw

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/sirupsen/logrus"
)

const (
	boardKey  = "bsn"
	threadKey = "snA"
	floorKey  = "tnum"
	pageKey   = "page"
)

// ParseThreadParam reads the board id, thread id and floor out of a thread url.
// Missing ids are left empty and a missing or malformed floor is 0.
func ParseThreadParam(rawURL string) (baha.ThreadParam, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		logrus.WithError(err).Error("url.Parse failed")
		return baha.ThreadParam{}, fmt.Errorf("%w: %v", baha.ErrInvalidURL, err)
	}

	if parsedURL.Scheme == "" {
		logrus.WithField("url", rawURL).Error("url has no scheme")
		return baha.ThreadParam{}, fmt.Errorf("%w: %q has no scheme", baha.ErrInvalidURL, rawURL)
	}
	return ThreadParamFromURL(parsedURL), nil
}

func ThreadParamFromURL(parsedURL *url.URL) baha.ThreadParam {
	params := parsedURL.Query()
	return baha.ThreadParam{
		BoardID: params.Get(boardKey),
		ID:      params.Get(threadKey),
		Floor:   lenientInt(params.Get(floorKey)),
	}
}

func lenientInt(value string) int {
	if value == "" {
		return 0
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		logrus.WithField("value", value).Debug("not a floor number, use 0")
		return 0
	}
	return n
}
