// Command ikctl requests upload credentials, uploads files and builds
// transformation URLs from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/KSD554/imagekit/internal/config"
	"github.com/KSD554/imagekit/internal/transform"
	"github.com/KSD554/imagekit/internal/upload"
)

const defaultServer = "http://localhost:8080"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "ikctl:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		usage(stderr)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "auth":
		return runAuth(ctx, args[1:], stdout, stderr)
	case "upload":
		return runUpload(ctx, cfg, args[1:], stdout, stderr)
	case "url":
		return runURL(cfg, args[1:], stdout, stderr)
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "ikctl")
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  ikctl auth [-server URL]")
	fmt.Fprintln(w, "  ikctl upload [-server URL] [-folder /dir] [-tags a,b] [-preset id]... FILE")
	fmt.Fprintln(w, "  ikctl url [-preset id]... [-tr directive]... URL")
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// parseInterspersed parses fs allowing positional arguments between flags.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func credentialsURL(server string) string {
	return strings.TrimRight(server, "/") + "/api/upload-auth"
}

func runAuth(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("auth", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", defaultServer, "credential server base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cred, err := upload.NewRemoteCredentials(credentialsURL(*server), nil).Issue(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cred)
}

func runUpload(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", defaultServer, "credential server base URL")
	endpoint := fs.String("endpoint", cfg.UploadEndpoint, "CDN upload endpoint")
	folder := fs.String("folder", cfg.UploadFolder, "destination folder")
	tags := fs.String("tags", "", "comma separated tags")
	backoff := fs.Duration("backoff", cfg.RetryBackoff, "wait before retrying a rejected token")
	verbose := fs.Bool("v", false, "log retries")
	var presets listFlag
	fs.Var(&presets, "preset", "transformation preset id (repeatable)")

	files, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(files) != 1 {
		return errors.New("upload needs exactly one FILE")
	}

	directives, err := transform.Resolve(presets)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	uploader := upload.NewUploader(
		upload.NewRemoteCredentials(credentialsURL(*server), nil),
		upload.NewClient(upload.ClientConfig{
			Endpoint: *endpoint,
			MaxBytes: cfg.MaxUploadBytes(),
			Timeout:  5 * time.Minute,
		}),
		upload.WithBackoff(*backoff),
		upload.WithLogger(logger),
	)

	var tagList []string
	for _, t := range strings.Split(*tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tagList = append(tagList, t)
		}
	}

	last := -1
	res, err := uploader.Upload(ctx, upload.File{
		Name:   files[0],
		Data:   data,
		Folder: *folder,
		Tags:   tagList,
	}, func(f float64) {
		if pct := int(f * 100); pct != last {
			last = pct
			fmt.Fprintf(stderr, "\ruploading %3d%%", pct)
		}
	})
	if last >= 0 {
		fmt.Fprintln(stderr)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, res.URL)
	if len(directives) > 0 {
		fmt.Fprintln(stdout, newBuilder(cfg).Build(res.URL, directives))
	}
	return nil
}

func runURL(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("url", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var presets, raw listFlag
	fs.Var(&presets, "preset", "transformation preset id (repeatable)")
	fs.Var(&raw, "tr", "raw transformation directive (repeatable)")

	urls, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(urls) != 1 {
		return errors.New("url needs exactly one URL")
	}

	directives, err := transform.Resolve(presets)
	if err != nil {
		return err
	}
	directives = append(directives, raw...)

	fmt.Fprintln(stdout, newBuilder(cfg).Build(urls[0], directives))
	return nil
}

func newBuilder(cfg *config.Config) *transform.Builder {
	return transform.NewBuilder(transform.Config{
		DemoEndpoint:   cfg.DemoEndpoint,
		TenantEndpoint: cfg.TenantEndpoint,
		TenantID:       cfg.TenantID,
	})
}
