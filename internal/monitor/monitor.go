package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/davidleitw/bahathread/internal/craw"
	"github.com/davidleitw/bahathread/internal/rule"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var errEmptyLastPage = errors.New("last page has no content")

type Monitor interface {
	Run(ctx context.Context) error
}

type monitor struct {
	domain    string
	fetcher   baha.Fetcher
	extractor *craw.Extractor

	rules []*rule.TrackingRule
	cron  *cron.Cron
}

var _ Monitor = &monitor{}

func NewMonitor(domain string, fetcher baha.Fetcher, rules ...*rule.TrackingRule) (Monitor, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no tracking rule")
	}

	return &monitor{
		domain:    domain,
		fetcher:   fetcher,
		extractor: craw.NewExtractor(nil),
		rules:     rules,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
	}, nil
}

// poll reads the newest replies of the thread. Each poll opens a new ThreadPage
// so the page cache never hides new replies.
func (m *monitor) poll(ctx context.Context, r *rule.TrackingRule) error {
	thread := craw.NewThreadPage(m.domain, r.Param(), m.fetcher, m.extractor)
	if err := thread.Init(ctx); err != nil {
		logrus.WithError(err).Error("thread.Init failed")
		return err
	}

	last := thread.Max()
	if last < 1 {
		last = 1
	}

	post, err := thread.Get(ctx, last)
	if err != nil {
		logrus.WithError(err).Error("thread.Get failed")
		return err
	}
	if post == nil {
		return errEmptyLastPage
	}

	contents := post.Posts
	for page := last - 1; page >= 1 && r.Observed() && startsAfter(contents, r.LastFloorIndex+1); page-- {
		prev, err := thread.Get(ctx, page)
		if err != nil {
			logrus.WithError(err).Error("thread.Get failed")
			return err
		}
		if prev == nil {
			break
		}
		contents = append(append([]baha.PostContent{}, prev.Posts...), contents...)
	}

	r.Observe(contents)
	return nil
}

// startsAfter reports whether contents miss floor, so the previous page
// still holds unseen replies.
func startsAfter(contents []baha.PostContent, floor int) bool {
	return len(contents) > 0 && contents[0].Floor > floor
}

func (m *monitor) track(ctx context.Context, r *rule.TrackingRule, id *cron.EntryID) {
	if err := m.poll(ctx, r); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"bsn": r.Bsn,
			"sna": r.Sna,
		}).Error("poll failed")

		if r.Fail() {
			logrus.Error("Max failure reached")
			m.cron.Remove(*id)
		}
	}
}

func (m *monitor) Run(ctx context.Context) error {
	for _, r := range m.rules {
		r := r
		id := new(cron.EntryID)
		entry, err := m.cron.AddFunc(fmt.Sprintf("@every %s", r.GetInterval()), func() {
			m.track(ctx, r, id)
		})
		if err != nil {
			logrus.WithError(err).Error("cron.AddFunc failed")
			return err
		}
		*id = entry
	}

	m.cron.Start()
	<-ctx.Done()

	logrus.Info("Shutting down monitor ...")
	<-m.cron.Stop().Done()
	return nil
}
