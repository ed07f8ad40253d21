package rule

import (
	"errors"
	"strconv"
	"time"

	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAsylumBsn  = 60076 // 場外
	DefaultInterval   = 30 * time.Second
	DefaultMaxFailure = 20
)

var ErrInvalidRule = errors.New("bsn or sna is not set")

type RuleOption func(*TrackingRule)

func PokeInterval(interval time.Duration) RuleOption {
	return func(o *TrackingRule) {
		o.PokeInterval = interval
	}
}

func DefaultBsn() RuleOption {
	return func(o *TrackingRule) {
		o.Bsn = DefaultAsylumBsn
	}
}

func Bsn(bsn int) RuleOption {
	return func(o *TrackingRule) {
		o.Bsn = bsn
	}
}

func Sna(sna int) RuleOption {
	return func(o *TrackingRule) {
		o.Sna = sna
	}
}

// Id only reports replies written by the given user id.
func Id(id string) RuleOption {
	return func(o *TrackingRule) {
		o.AimId = id
	}
}

func NewPostCallback(callback func(baha.PostContent)) RuleOption {
	return func(o *TrackingRule) {
		o.NewPostCallback = callback
	}
}

func DefaultNewPostCallback() RuleOption {
	return func(o *TrackingRule) {
		o.NewPostCallback = func(content baha.PostContent) {
			logrus.WithFields(logrus.Fields{
				"floor":  content.Floor,
				"author": content.User.ID,
			}).Infof("New Post: %v", content.Description.Strings())
		}
	}
}

func UpdateLastCallback(callback func(baha.PostContent)) RuleOption {
	return func(o *TrackingRule) {
		o.UpdateLastCallback = callback
	}
}

func DefaultUpdateLastCallback() RuleOption {
	return func(o *TrackingRule) {
		o.UpdateLastCallback = func(content baha.PostContent) {
			logrus.WithField("floor", content.Floor).Infof("Update Last: %v", content.Description.Strings())
		}
	}
}

func MaxFailure(failure int) RuleOption {
	return func(o *TrackingRule) {
		o.MaxFailure = failure
	}
}

type TrackingRule struct {
	Bsn   int
	Sna   int
	AimId string

	LastFloorIndex  int
	LastFloorRecord *baha.PostContent

	PokeInterval time.Duration
	MaxFailure   int

	NewPostCallback    func(baha.PostContent)
	UpdateLastCallback func(baha.PostContent)

	observed bool
	failures int
}

func NewTrackingRule(opts ...RuleOption) (*TrackingRule, error) {
	rule := &TrackingRule{}
	for _, opt := range opts {
		opt(rule)
	}

	if rule.NewPostCallback == nil {
		DefaultNewPostCallback()(rule)
	}

	if rule.UpdateLastCallback == nil {
		DefaultUpdateLastCallback()(rule)
	}

	if rule.Bsn == 0 || rule.Sna == 0 {
		logrus.Errorf("Bsn or Sna is not set")
		return nil, ErrInvalidRule
	}
	return rule, nil
}

func (rule *TrackingRule) Param() baha.ThreadParam {
	return baha.ThreadParam{
		BoardID: strconv.Itoa(rule.Bsn),
		ID:      strconv.Itoa(rule.Sna),
	}
}

func (rule *TrackingRule) GetInterval() time.Duration {
	if rule.PokeInterval == 0 {
		return DefaultInterval
	}
	return rule.PokeInterval
}

func (rule *TrackingRule) GetMaxFailure() int {
	if rule.MaxFailure == 0 {
		return DefaultMaxFailure
	}
	return rule.MaxFailure
}

// Observe compares the replies of the newest page with what the rule has
// seen so far. The first call only records the baseline.
func (rule *TrackingRule) Observe(contents []baha.PostContent) {
	rule.failures = 0
	if len(contents) == 0 {
		return
	}

	if rule.observed {
		for _, content := range contents {
			if content.Floor == rule.LastFloorIndex && rule.LastFloorRecord != nil &&
				content.Date != rule.LastFloorRecord.Date && rule.matches(content) {
				rule.UpdateLastCallback(content)
			}
			if content.Floor > rule.LastFloorIndex && rule.matches(content) {
				rule.NewPostCallback(content)
			}
		}
	}

	for i := range contents {
		if contents[i].Floor >= rule.LastFloorIndex {
			rule.LastFloorIndex = contents[i].Floor
			last := contents[i]
			rule.LastFloorRecord = &last
		}
	}
	rule.observed = true
}

func (rule *TrackingRule) Observed() bool {
	return rule.observed
}

// Fail records a failed poll and reports whether the rule gave up.
func (rule *TrackingRule) Fail() bool {
	rule.failures++
	return rule.failures >= rule.GetMaxFailure()
}

func (rule *TrackingRule) matches(content baha.PostContent) bool {
	return rule.AimId == "" || rule.AimId == content.User.ID
}
