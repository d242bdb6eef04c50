// Command s3b browses S3-compatible object storage from the terminal using
// the same connection profiles, keychain storage, and settings as the
// desktop shells built on the browser package.
//
// Usage:
//
//	s3b [-profile NAME] [-verbose] COMMAND [args]
//
// Commands:
//
//	profiles                     list configured connection profiles
//	ls BUCKET [PREFIX]           list objects and prefixes
//	stat BUCKET KEY              show object metadata and checksums
//	get BUCKET KEY [DEST]        download an object
//	put BUCKET KEY SOURCE        upload a file
//	rm BUCKET KEY                delete an object
//	presign METHOD BUCKET KEY    generate a presigned URL (get, put, or post)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/lflfm/pys3b/browser"
	"github.com/lflfm/pys3b/profile"
	"github.com/lflfm/pys3b/s3"
	"github.com/lflfm/pys3b/s3/s3types"
	"github.com/lflfm/pys3b/settings"
)

func main() {
	profileName := flag.String("profile", "", "connection profile to use")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	limit := flag.Int("limit", 0, "maximum keys to list (defaults to the configured fetch limit)")
	expiry := flag.Duration("expiry", time.Hour, "presigned URL lifetime")
	contentType := flag.String("content-type", "", "content type constraint for presigned URLs")
	postPrefix := flag.Bool("post-prefix", false, "treat the presign key as a prefix (POST only)")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cliOptions{
		profileName: *profileName,
		limit:       *limit,
		expiry:      *expiry,
		contentType: *contentType,
		postPrefix:  *postPrefix,
	}, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "s3b:", err)
		os.Exit(1)
	}
}

type cliOptions struct {
	profileName string
	limit       int
	expiry      time.Duration
	contentType string
	postPrefix  bool
}

func run(ctx context.Context, opts cliOptions, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command (try: profiles, ls, stat, get, put, rm, presign)")
	}

	store, err := profile.DefaultStore()
	if err != nil {
		return err
	}
	session, err := browser.NewSession(store)
	if err != nil {
		return err
	}
	settingsStore, err := settings.DefaultStore()
	if err != nil {
		return err
	}
	current := settingsStore.Load()

	command, rest := args[0], args[1:]

	if command == "profiles" {
		return printProfiles(session)
	}

	// Everything else needs a connection.
	name := opts.profileName
	if name == "" && current.RememberLastBucket {
		name = current.LastConnection
	}
	if name == "" {
		return fmt.Errorf("no profile selected; pass -profile or configure one")
	}
	if _, err := session.ConnectProfile(ctx, name); err != nil {
		return fmt.Errorf("connecting with profile %q: %w", name, err)
	}

	limit := opts.limit
	if limit <= 0 {
		limit = current.FetchLimit
	}

	switch command {
	case "ls":
		return listObjects(ctx, session, rest, limit)
	case "stat":
		return statObject(ctx, session, rest)
	case "get":
		return getObject(ctx, session, rest)
	case "put":
		return putObject(ctx, session, rest, current)
	case "rm":
		return removeObject(ctx, session, rest)
	case "presign":
		return presignObject(ctx, session, rest, opts, current)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func printProfiles(session *browser.Session) error {
	profiles := session.Profiles()
	if len(profiles) == 0 {
		fmt.Println("no profiles configured")
		return nil
	}
	for _, p := range profiles {
		fmt.Printf("%s\t%s\t%s\n", p.Name, p.EndpointURL, p.AccessKey)
	}
	return nil
}

func listObjects(ctx context.Context, session *browser.Session, args []string, limit int) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ls BUCKET [PREFIX]")
	}
	req := browser.ListRequest{
		Bucket:    args[0],
		MaxKeys:   limit,
		Delimiter: "/",
	}
	if len(args) > 1 {
		req.Prefix = args[1]
	}

	listing, err := session.ListObjects(ctx, req)
	if err != nil {
		return err
	}
	if listing.Err != nil {
		return listing.Err
	}

	for _, prefix := range listing.Prefixes() {
		fmt.Printf("%-12s %s\n", "PRE", prefix)
	}
	for _, key := range listing.Keys() {
		fmt.Println(key)
	}
	if listing.HasMore {
		fmt.Printf("... more results (continuation token: %s)\n", listing.ContinuationToken)
	}
	return nil
}

func statObject(ctx context.Context, session *browser.Session, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: stat BUCKET KEY")
	}

	details, err := session.ObjectDetails(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("Key:           %s\n", details.Key)
	fmt.Printf("Size:          %s (%d bytes)\n", browser.FormatSize(details.Size), details.Size)
	fmt.Printf("Last modified: %s\n", browser.FormatLastModified(details.LastModified))
	fmt.Printf("ETag:          %s\n", details.ETag)
	fmt.Printf("Content type:  %s\n", details.ContentType)
	if details.StorageClass != "" {
		fmt.Printf("Storage class: %s\n", details.StorageClass)
	}
	if len(details.Checksums) > 0 {
		algos := make([]string, 0, len(details.Checksums))
		for algo := range details.Checksums {
			algos = append(algos, algo)
		}
		sort.Strings(algos)
		for _, algo := range algos {
			fmt.Printf("Checksum %-6s %s\n", algo+":", details.Checksums[algo])
		}
	}
	for k, v := range details.Metadata {
		fmt.Printf("Meta %s: %s\n", k, v)
	}
	return nil
}

func getObject(ctx context.Context, session *browser.Session, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: get BUCKET KEY [DEST]")
	}
	dest := browser.SuggestFilename(args[1])
	if len(args) == 3 {
		dest = args[2]
	}

	result, err := session.Download(ctx, args[0], args[1], dest)
	if err != nil {
		return err
	}
	fmt.Printf("downloaded %s (%s) in %v\n", dest, browser.FormatSize(result.Size), result.Duration.Round(time.Millisecond))
	return nil
}

func putObject(ctx context.Context, session *browser.Session, args []string, current settings.Settings) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: put BUCKET KEY SOURCE")
	}

	result, err := session.Upload(ctx, args[0], args[1], args[2],
		s3.WithUploadMultipartThreshold(current.UploadMultipartThreshold),
		s3.WithUploadPartSize(current.UploadChunkSize),
		s3.WithUploadConcurrency(current.UploadMaxConcurrency),
	)
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %s (%s) in %v\n", result.Key, browser.FormatSize(result.Size), result.Duration.Round(time.Millisecond))
	return nil
}

func removeObject(ctx context.Context, session *browser.Session, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: rm BUCKET KEY")
	}
	if err := session.DeleteObject(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[1])
	return nil
}

func presignObject(
	ctx context.Context,
	session *browser.Session,
	args []string,
	opts cliOptions,
	current settings.Settings,
) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: presign METHOD BUCKET KEY")
	}
	method := s3types.PresignMethod(args[0])

	presignOpts := []s3types.PresignOption{s3.WithExpiry(opts.expiry)}
	if opts.contentType != "" {
		presignOpts = append(presignOpts, s3.WithPresignContentType(opts.contentType))
	}
	if method == s3types.PresignPost {
		presignOpts = append(presignOpts, s3.WithPostMaxSize(current.DefaultPostMaxSize))
		if opts.postPrefix {
			presignOpts = append(presignOpts, s3.WithPostKeyMode(s3types.PostKeyPrefix))
		}
	}

	result, err := session.PresignURL(ctx, method, args[1], args[2], presignOpts...)
	if err != nil {
		return err
	}

	fmt.Println(result.URL)
	commands := browser.CommandsForPresign(method, result, browser.SuggestFilename(args[2]), opts.contentType, "")
	if commands.Wget != "" {
		fmt.Println(commands.Wget)
	}
	if commands.Curl != "" {
		fmt.Println(commands.Curl)
	}
	return nil
}
