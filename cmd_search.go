package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_douyin/internal/engine"
	"github.com/anatolykoptev/go_douyin/internal/engine/cookies"
	"github.com/anatolykoptev/go_douyin/internal/engine/download"
)

// errNoResults makes the process exit 1 after the "no videos" message.
var errNoResults = errors.New("no videos found")

type searchOptions struct {
	count          int
	dir            string
	cookie         string
	cookieFile     string
	autoCookie     bool
	saveOnly       bool
	yes            bool
	noServer       bool
	debug          bool
	retries        int
	signer         string
	signURL        string
	transport      string
	requestTimeout time.Duration
	webshareKey    string
	downloader     string
	downloaderDir  string
	historyDB      string
	databaseURL    string
}

func defaultSearchOptions() searchOptions {
	return searchOptions{
		count:          10,
		cookie:         env.Str("DOUYIN_COOKIE", ""),
		cookieFile:     env.Str("DOUYIN_COOKIE_FILE", cookies.DefaultFile),
		retries:        env.Int("MAX_RETRIES", 3),
		signer:         env.Str("SIGNER", engine.SignerRemote),
		signURL:        env.Str("SIGN_SERVER_URL", "http://localhost:8889"),
		transport:      env.Str("TRANSPORT", engine.TransportHTTP),
		requestTimeout: env.Duration("REQUEST_TIMEOUT", 10*time.Second),
		webshareKey:    env.Str("WEBSHARE_API_KEY", ""),
		downloader:     env.Str("DOWNLOADER_CMD", strings.Join(download.DefaultCommand, " ")),
		downloaderDir:  env.Str("DOWNLOADER_DIR", ""),
		historyDB:      env.Str("HISTORY_DB", ""),
		databaseURL:    env.Str("DATABASE_URL", ""),
	}
}

func bindSearchFlags(cmd *cobra.Command, o *searchOptions) {
	f := cmd.Flags()
	f.IntVarP(&o.count, "count", "c", o.count, "max videos to collect")
	f.StringVarP(&o.dir, "dir", "d", o.dir, "download directory; also where the report is written")
	f.StringVar(&o.cookie, "cookie", o.cookie, "Cookie header sent with search requests")
	f.StringVar(&o.cookieFile, "cookie-file", o.cookieFile, "file holding the Cookie header")
	f.BoolVar(&o.autoCookie, "auto-cookie", o.autoCookie, "read the cookie from a local Chrome or Edge profile")
	f.BoolVar(&o.saveOnly, "save-only", o.saveOnly, "only write the report, do not download")
	f.BoolVarP(&o.yes, "yes", "y", o.yes, "download without asking")
	f.BoolVar(&o.noServer, "no-server", o.noServer, "do not use the signing service")
	f.IntVar(&o.retries, "retries", o.retries, "failed requests tolerated per search")
	f.StringVar(&o.signer, "signer", o.signer, "request signer: none or remote")
	f.StringVar(&o.signURL, "sign-url", o.signURL, "signing service base URL")
	f.StringVar(&o.transport, "transport", o.transport, "HTTP transport: http or browser")
	f.StringVar(&o.downloader, "downloader", o.downloader, "downloader command; --dir and --vid are appended")
	f.StringVar(&o.downloaderDir, "downloader-workdir", o.downloaderDir, "working directory of the downloader")
	f.StringVar(&o.historyDB, "history-db", o.historyDB, "SQLite download history (default ~/.go_douyin/history.db)")
}

func newSearchCmd(debug *bool) *cobra.Command {
	opts := defaultSearchOptions()
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search videos by keyword and optionally download them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.debug = *debug
			return runSearch(cmd.Context(), strings.Join(args, " "), opts, defaultSearchDeps(cmd.InOrStdin(), cmd.OutOrStdout()))
		},
	}
	bindSearchFlags(cmd, &opts)
	return cmd
}

// videoSearcher is the part of engine.Searcher the command uses.
type videoSearcher interface {
	Search(ctx context.Context, keyword string, maxCount, maxRetries int) ([]engine.VideoItem, error)
}

// searchDeps are the collaborators of runSearch, replaced in tests.
type searchDeps struct {
	in            io.Reader
	out           io.Writer
	newSearcher   func(engine.Config) (videoSearcher, error)
	newDownloader func(o searchOptions) download.Downloader
	openHistory   func(ctx context.Context, o searchOptions) download.History
	probe         func(ctx context.Context) error
	pingSigner    func(ctx context.Context, baseURL string) error
	sleeper       engine.Sleeper
}

func defaultSearchDeps(in io.Reader, out io.Writer) searchDeps {
	return searchDeps{
		in:  in,
		out: out,
		newSearcher: func(c engine.Config) (videoSearcher, error) {
			s, err := engine.NewSearcherFromConfig(c)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		newDownloader: func(o searchOptions) download.Downloader {
			return download.NewExecDownloader(strings.Fields(o.downloader), o.downloaderDir, o.dir)
		},
		openHistory: func(ctx context.Context, o searchOptions) download.History {
			return download.OpenHistoryOrNop(ctx, o.databaseURL, o.historyDB)
		},
		probe: func(ctx context.Context) error {
			return engine.CheckConnectivity(ctx, nil, engine.HomeURL, engine.ProbeHeaders())
		},
		pingSigner: func(ctx context.Context, baseURL string) error {
			return engine.NewRemoteSigner(baseURL, nil, 0).Ping(ctx)
		},
		sleeper: engine.WallSleeper,
	}
}

func runSearch(ctx context.Context, keyword string, o searchOptions, d searchDeps) error {
	in := bufio.NewReader(d.in)

	cookie, src := cookies.Resolve(ctx, cookies.ResolveOptions{
		Explicit:    o.cookie,
		File:        o.cookieFile,
		AutoBrowser: o.autoCookie,
	})
	slog.Debug("cookie resolved", slog.String("source", string(src)))

	signer := strings.ToLower(o.signer)
	if o.noServer {
		signer = engine.SignerNone
	}
	if signer == engine.SignerRemote {
		switch err := d.pingSigner(ctx, o.signURL); {
		case errors.Is(err, engine.ErrSignUnreachable):
			slog.Warn("sign service unreachable, requests may be rejected",
				slog.String("url", o.signURL), slog.Any("error", err))
			if !o.yes && !o.debug &&
				!confirm(ctx, in, d.out, "Sign service is not running. Continue anyway? (y/n) ") {
				fmt.Fprintln(d.out, "Search cancelled.")
				return nil
			}
		case err != nil:
			slog.Warn("sign service answered with an error",
				slog.String("url", o.signURL), slog.Any("error", err))
		}
	}

	cfg := engine.Config{
		SignerMode:     signer,
		SignServerURL:  o.signURL,
		TransportMode:  strings.ToLower(o.transport),
		Cookie:         cookie,
		RequestTimeout: o.requestTimeout,
	}
	if cfg.TransportMode == engine.TransportBrowser {
		bc, err := engine.NewBrowserClient(int(o.requestTimeout/time.Second)+5, o.webshareKey)
		if err != nil {
			return err
		}
		cfg.BrowserClient = bc
	}
	s, err := d.newSearcher(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(d.out, "Searching %q (up to %d videos)...\n", keyword, o.count)
	videos, err := s.Search(ctx, keyword, o.count, o.retries)
	interrupted := err != nil && ctx.Err() != nil
	if err != nil && !interrupted {
		return err
	}

	if len(videos) == 0 {
		fmt.Fprintln(d.out, "No videos found.")
		if interrupted {
			return nil
		}
		return errNoResults
	}

	fmt.Fprintf(d.out, "Found %d videos:\n", len(videos))
	if err := engine.WriteListing(d.out, videos); err != nil {
		return err
	}

	reportPath := filepath.Join(o.dir, download.ReportFile)
	if o.dir == "" {
		reportPath = download.ReportFile
	}
	saveReport := func() error {
		if err := download.SaveReport(reportPath, videos); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "Video list saved to %s\n", reportPath)
		return nil
	}

	if interrupted {
		fmt.Fprintln(d.out, "Interrupted, keeping the partial result.")
		return saveReport()
	}
	if o.saveOnly {
		if err := saveReport(); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "Download manually with: %s --vid <ID>\n", o.downloader)
		return nil
	}
	if !o.yes && !confirm(ctx, in, d.out, "Download these videos? (y/n) ") {
		return saveReport()
	}
	if err := saveReport(); err != nil {
		return err
	}

	history := d.openHistory(ctx, o)
	defer history.Close()

	b := download.NewBatch(d.newDownloader(o), history, keyword)
	b.Probe = d.probe
	b.Sleeper = d.sleeper
	b.OnOutcome = func(n, total int, oc download.Outcome) {
		status := "ok"
		if !oc.Success {
			status = "failed"
		}
		fmt.Fprintf(d.out, "[%d/%d] %s %s: %s\n", n, total, oc.VideoID, status, oc.Message)
	}
	outcomes, err := b.Run(ctx, videos)
	fmt.Fprintf(d.out, "downloaded %d/%d\n", download.Succeeded(outcomes), len(videos))
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

type promptAnswer struct {
	line string
	err  error
}

// confirm asks a yes/no question; anything but y/yes (including EOF) is no.
// A cancelled ctx answers no without waiting for input.
func confirm(ctx context.Context, in *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answers := make(chan promptAnswer, 1)
	go func() {
		line, err := in.ReadString('\n')
		answers <- promptAnswer{line, err}
	}()

	var a promptAnswer
	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return false
	case a = <-answers:
	}
	if a.err != nil && a.line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(a.line)) {
	case "y", "yes":
		return true
	}
	return false
}
