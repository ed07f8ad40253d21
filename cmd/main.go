package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/davidleitw/bahathread/internal/config"
	"github.com/davidleitw/bahathread/internal/craw"
	"github.com/davidleitw/bahathread/internal/db"
	"github.com/davidleitw/bahathread/internal/export"
	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetReportCaller(true)
	logrus.SetOutput(os.Stderr)
}

type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Config *config.Config
}

type CLI struct {
	Extract ExtractCmd `cmd:"" help:"Extract the posts of a thread page."`
	URL     URLCmd     `cmd:"" name:"url" help:"Print the canonical url of a thread page."`
}

type ExtractCmd struct {
	URL    string `arg:"" help:"Thread url, e.g. https://forum.gamer.com.tw/C.php?bsn=60076&snA=8294384&tnum=4"`
	Page   int    `default:"1" help:"Page to extract."`
	All    bool   `help:"Extract every page of the thread."`
	Format string `default:"json" enum:"json,yaml,yml" help:"Output format (json, yaml)."`
	Save   bool   `help:"Archive the result in the local database."`
	Login  bool   `help:"Sign in with ACCOUNT and PASSWORD first."`
}

func (cmd *ExtractCmd) Run(deps *Dependencies) error {
	cfg := deps.Config

	format, err := export.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}

	client := craw.NewClient(
		craw.Interval(cfg.RequestInterval),
		craw.UserAgent(cfg.UserAgent),
	)
	if cmd.Login {
		if err := client.Login(deps.Ctx, cfg.Account, cfg.Password); err != nil {
			logrus.WithError(err).Error("client.Login failed")
			return err
		}
	}

	thread, err := craw.NewThreadPageFromUrl(cfg.Domain, cmd.URL, client, craw.NewExtractor(nil))
	if err != nil {
		return err
	}
	if err := thread.Init(deps.Ctx); err != nil {
		return err
	}

	var posts []*baha.Post
	if cmd.All {
		if err := thread.Prefetch(deps.Ctx, cfg.PrefetchWorkers); err != nil {
			logrus.WithError(err).Error("thread.Prefetch failed")
			return err
		}
		if posts, err = thread.Pages(deps.Ctx); err != nil {
			return err
		}
	} else {
		post, err := thread.Get(deps.Ctx, cmd.Page)
		if err != nil {
			return err
		}
		if post == nil {
			return fmt.Errorf("page %d has no posts", cmd.Page)
		}
		posts = append(posts, post)
	}

	if cmd.Save {
		if err := save(deps.Ctx, cfg.DBPath, thread.Param().BoardID, posts); err != nil {
			return err
		}
	}

	if cmd.All {
		return export.Encode(deps.Stdout, posts, format)
	}
	return export.Encode(deps.Stdout, posts[0], format)
}

func save(ctx context.Context, path, bsn string, posts []*baha.Post) error {
	postDb := db.NewPostDb(path)
	if err := postDb.Open(ctx); err != nil {
		logrus.WithError(err).Error("postDb.Open failed")
		return err
	}
	defer postDb.Close()

	for _, post := range posts {
		if err := postDb.SavePost(ctx, bsn, post); err != nil {
			logrus.WithError(err).Error("postDb.SavePost failed")
			return err
		}
	}
	logrus.WithField("pages", len(posts)).Info("saved")
	return nil
}

type URLCmd struct {
	URL  string `arg:"" help:"Thread url."`
	Page int    `default:"1" help:"Page number."`
}

func (cmd *URLCmd) Run(deps *Dependencies) error {
	thread, err := craw.NewThreadPageFromUrl(deps.Config.Domain, cmd.URL, nil, nil)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(deps.Stdout, thread.URL(cmd.Page))
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}
	cfg.ApplyLogLevel()

	cli := &CLI{}
	kongCtx := kong.Parse(cli,
		kong.Name("baha"),
		kong.Description("Extract posts from Bahamut forum threads."),
		kong.UsageOnError(),
	)
	if err := kongCtx.Run(&Dependencies{Ctx: ctx, Stdout: os.Stdout, Config: cfg}); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
