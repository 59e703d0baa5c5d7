package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"igpublisher/pkg/auth"
	"igpublisher/pkg/batch"
	"igpublisher/pkg/config"
	"igpublisher/pkg/graph"
	"igpublisher/pkg/logger"
	"igpublisher/pkg/publisher"
	"igpublisher/pkg/ratelimit"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	accessToken = flag.String("access-token", "", "Graph API access token")
	accountID   = flag.String("account-id", "", "Instagram business account ID")
	apiVersion  = flag.String("api-version", "", "Graph API version")
	caption     = flag.String("caption", "", "Caption text for the post")
	simulate    = flag.Bool("simulate", false, "Rehearse the pipeline without network calls")
	cooldown    = flag.Duration("cooldown", time.Minute, "Pause between posts in a batch run")
	rateLimit   = flag.Int("rate-limit", 60, "Graph API requests per minute")
	logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: igpublisher [flags] <command> [args]

Commands:
  publish <url> [url...]   Publish a single post from the given image URLs
  batch <posts.yaml>       Publish every post in a YAML batch file
  validate                 Probe the stored access token
  account                  Resolve the business account id for the token
  login [username]         Store an access token securely
  logout [username]        Remove a stored access token

Flags:`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	command := args[0]
	switch command {
	case "login":
		runLogin(args[1:])
		return
	case "logout":
		runLogout(args[1:])
		return
	}

	cfg := loadConfig()

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	limiter := ratelimit.NewTokenBucket(cfg.Pacing.RequestsPerMinute, time.Minute)
	client := graph.NewClient(cfg.Graph.AccessToken, cfg.Graph.Timeout, logger.GetLogger(),
		graph.WithBaseURL(cfg.Graph.BaseURL),
		graph.WithAPIVersion(cfg.Graph.APIVersion),
		graph.WithLimiter(limiter),
	)
	pub := publisher.New(client, &cfg.Pacing, logger.GetLogger())

	switch command {
	case "publish":
		runPublish(pub, cfg, args[1:])
	case "batch":
		runBatch(pub, cfg, args[1:])
	case "validate":
		runValidate(pub)
	case "account":
		runAccount(pub)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

// loadConfig merges flags, environment, and config file, falling back to
// the token store for a missing access token.
func loadConfig() *config.Config {
	flags := make(map[string]interface{})
	if *accessToken != "" {
		flags["access-token"] = *accessToken
	}
	if *accountID != "" {
		flags["account-id"] = *accountID
	}
	if *apiVersion != "" {
		flags["api-version"] = *apiVersion
	}
	if *rateLimit != 60 {
		flags["rate-limit"] = *rateLimit
	}
	if *cooldown != time.Minute {
		flags["cooldown"] = *cooldown
	}
	if *logLevel != "" {
		flags["log-level"] = *logLevel
	}

	cfg, err := config.Load(*configFile, flags)
	if err == nil {
		return cfg
	}

	// No token from flags/env/file: try the token store before giving up.
	if manager, mErr := auth.NewManager(); mErr == nil {
		if account, aErr := manager.RetrieveDefault(); aErr == nil {
			flags["access-token"] = account.AccessToken
			if account.AccountID != "" {
				if _, set := flags["account-id"]; !set {
					flags["account-id"] = account.AccountID
				}
			}
			if cfg, err = config.Load(*configFile, flags); err == nil {
				return cfg
			}
		}
	}

	fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
	os.Exit(1)
	return nil
}

func resolveAccount(pub *publisher.Publisher, cfg *config.Config) string {
	if cfg.Graph.AccountID != "" {
		return cfg.Graph.AccountID
	}

	id, err := pub.ResolveAccountID()
	if err != nil {
		logger.WithError(err).Error("failed to resolve business account id")
		os.Exit(1)
	}
	return id
}

func runPublish(pub *publisher.Publisher, cfg *config.Config, urls []string) {
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "publish requires at least one image URL")
		os.Exit(1)
	}

	acct := ""
	if !*simulate {
		acct = resolveAccount(pub, cfg)
	}

	result, err := pub.Publish(publisher.Request{
		AccountID: acct,
		ImageURLs: urls,
		Caption:   *caption,
		Simulate:  *simulate,
	})
	if err != nil {
		logger.WithError(err).Error("publish failed")
		os.Exit(1)
	}

	if result.Simulated {
		fmt.Printf("simulated publish ok (%d images)\n", len(urls))
		return
	}
	fmt.Printf("published post %s\n", result.PostID)
}

// batchFile is the YAML layout consumed by the batch command.
type batchFile struct {
	Posts []struct {
		ImageURLs []string `yaml:"image_urls"`
		Caption   string   `yaml:"caption"`
	} `yaml:"posts"`
}

func runBatch(pub *publisher.Publisher, cfg *config.Config, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "batch requires exactly one posts file")
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read posts file: %v\n", err)
		os.Exit(1)
	}

	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse posts file: %v\n", err)
		os.Exit(1)
	}
	if len(file.Posts) == 0 {
		fmt.Fprintln(os.Stderr, "posts file contains no posts")
		os.Exit(1)
	}

	posts := make([]batch.Post, 0, len(file.Posts))
	for _, p := range file.Posts {
		posts = append(posts, batch.Post{ImageURLs: p.ImageURLs, Caption: p.Caption})
	}

	acct := ""
	if !*simulate {
		acct = resolveAccount(pub, cfg)
	}

	runner := batch.NewRunner(pub, acct, cfg.Pacing.PostCooldown, *simulate, logger.GetLogger())
	outcomes := runner.Run(posts)

	succeeded, failed := batch.Summarize(outcomes)
	fmt.Printf("batch finished: %d published, %d failed\n", succeeded, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func runValidate(pub *publisher.Publisher) {
	status := pub.ValidateCredential()
	if !status.Valid {
		fmt.Printf("credential invalid: %s\n", status.Reason)
		os.Exit(1)
	}
	fmt.Printf("credential valid for @%s\n", status.Username)
}

func runAccount(pub *publisher.Publisher) {
	id, err := pub.ResolveAccountID()
	if err != nil {
		logger.WithError(err).Error("failed to resolve business account id")
		os.Exit(1)
	}
	fmt.Printf("business account id: %s\n", id)
}

func runLogin(args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open token store: %v\n", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	username := ""
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Instagram username: ")
		line, _ := reader.ReadString('\n')
		username = strings.TrimSpace(line)
	}
	if username == "" {
		fmt.Fprintln(os.Stderr, "username is required")
		os.Exit(1)
	}

	fmt.Print("Access token (hidden): ")
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read token: %v\n", err)
		os.Exit(1)
	}
	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		fmt.Fprintln(os.Stderr, "access token is required")
		os.Exit(1)
	}

	fmt.Print("Business account id (optional): ")
	line, _ := reader.ReadString('\n')
	acctID := strings.TrimSpace(line)

	err = manager.Store(&auth.Account{
		Username:    username,
		AccessToken: token,
		AccountID:   acctID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to store token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("token stored for @%s\n", username)
}

func runLogout(args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open token store: %v\n", err)
		os.Exit(1)
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "logout requires a username")
		os.Exit(1)
	}

	if err := manager.Delete(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "failed to remove token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("token removed for @%s\n", args[0])
}
