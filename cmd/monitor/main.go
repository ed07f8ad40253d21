package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidleitw/bahathread/internal/config"
	"github.com/davidleitw/bahathread/internal/craw"
	"github.com/davidleitw/bahathread/internal/monitor"
	"github.com/davidleitw/bahathread/internal/rule"
	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetReportCaller(true)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}
	cfg.ApplyLogLevel()

	rules := make([]*rule.TrackingRule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		r, err := rule.NewTrackingRule(
			rule.Bsn(rc.Bsn),
			rule.Sna(rc.Sna),
			rule.Id(rc.Author),
			rule.PokeInterval(rc.Interval),
			rule.MaxFailure(rc.MaxFailure),
		)
		if err != nil {
			logrus.WithError(err).Error("rule.NewTrackingRule failed")
			return
		}
		rules = append(rules, r)
	}

	client := craw.NewClient(
		craw.Interval(cfg.RequestInterval),
		craw.UserAgent(cfg.UserAgent),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Account != "" {
		if err := client.Login(ctx, cfg.Account, cfg.Password); err != nil {
			logrus.WithError(err).Error("client.Login failed")
			return
		}
	}

	m, err := monitor.NewMonitor(cfg.Domain, client, rules...)
	if err != nil {
		logrus.WithError(err).Error("monitor.NewMonitor failed")
		return
	}

	if err := m.Run(ctx); err != nil {
		logrus.WithError(err).Error("monitor.Run failed")
	}
}
