package craw

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// LoginURLPhase1 is the first URL to login
	// This URL is used to get the alternativeCaptcha value
	LoginURLPhase1 = "https://user.gamer.com.tw/login.php"

	// LoginURLPhase2 is the second URL to login
	// This URL is used to login with the alternativeCaptcha value and set the cookies
	LoginURLPhase2 = "https://user.gamer.com.tw/ajax/do_login.php"

	DefaultUserAgent = "Mozilla/5.0"

	scrapingInterval = 1 * time.Second
)

var alternativeCaptchaPattern = regexp.MustCompile(`<input type="hidden" name="alternativeCaptcha" value="(\w+)"`)

// HTTPError is returned by Fetch for a non-2xx response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

type Client struct {
	client  *resty.Client
	limiter *rate.Limiter

	loginURL   string
	doLoginURL string
	userAgent  string
	interval   time.Duration

	isSessionActive bool
}

var _ baha.Fetcher = (*Client)(nil)

type ClientOption func(*Client)

// Interval spaces requests at least d apart, 0 disables the limit.
func Interval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.interval = d
	}
}

func UserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func LoginURLs(phase1, phase2 string) ClientOption {
	return func(c *Client) {
		c.loginURL = phase1
		c.doLoginURL = phase2
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		client:     resty.New(),
		loginURL:   LoginURLPhase1,
		doLoginURL: LoginURLPhase2,
		userAgent:  DefaultUserAgent,
		interval:   scrapingInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.limiter = rate.NewLimiter(rate.Inf, 1)
	if c.interval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(c.interval), 1)
	}

	// Set User-agent and Cookie to pass the login check
	c.client.SetHeader("User-agent", c.userAgent)
	c.client.SetCookie(&http.Cookie{Name: "_ga", Value: "c8763"})
	return c
}

func (c *Client) IsSessionActive() bool {
	return c.isSessionActive
}

func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		logrus.WithError(err).Errorf("GET %s failed", url)
		return nil, err
	}

	if res.IsError() {
		return nil, &HTTPError{StatusCode: res.StatusCode(), URL: url}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		logrus.WithError(err).Errorf("goquery.NewDocumentFromReader failed")
		return nil, err
	}
	return doc, nil
}

func getAlternativeCaptcha(body string) string {
	match := alternativeCaptchaPattern.FindStringSubmatch(body)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// Login signs in and keeps the session cookies for later fetches.
func (c *Client) Login(ctx context.Context, account, password string) error {
	res, err := c.client.R().SetContext(ctx).Get(c.loginURL)
	if err != nil {
		logrus.WithError(err).Errorf("GET %s failed", c.loginURL)
		return err
	}

	alternativeCaptcha := getAlternativeCaptcha(res.String())
	if alternativeCaptcha == "" {
		logrus.Errorf("alternativeCaptcha value not found")
		return fmt.Errorf("alternativeCaptcha value not found")
	}
	logrus.Infof("get alternativeCaptcha success")

	loginData := map[string]string{
		"userid":             account,
		"password":           password,
		"alternativeCaptcha": alternativeCaptcha,
	}
	res, err = c.client.R().SetContext(ctx).SetFormData(loginData).Post(c.doLoginURL)
	if err != nil {
		logrus.WithError(err).Errorf("POST %s failed", c.doLoginURL)
		return err
	}
	if res.IsError() {
		return &HTTPError{StatusCode: res.StatusCode(), URL: c.doLoginURL}
	}

	logrus.Infof("Login success")
	c.isSessionActive = true
	return nil
}
