package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/framez/framez/app"
	"github.com/framez/framez/infra/auth"
	"github.com/framez/framez/infra/config"
	"github.com/framez/framez/infra/postgrest"
)

var (
	version = "dev"
	commit  = "none"
)

type cliMode int

const (
	cliRun cliMode = iota
	cliVersion
	cliHelp
	cliInvalid
)

func parseCLIArgs(args []string) (cliMode, string) {
	if len(args) == 0 {
		return cliRun, ""
	}

	switch args[0] {
	case "--version", "-version", "-v":
		return cliVersion, ""
	case "--help", "-h", "help":
		return cliHelp, ""
	default:
		return cliInvalid, fmt.Sprintf("unexpected argument: %s", strings.Join(args, " "))
	}
}

func usage() string {
	return "Usage: framez [--version|-version|-v] [--help|-h]"
}

func main() {
	mode, msg := parseCLIArgs(os.Args[1:])
	switch mode {
	case cliVersion:
		fmt.Printf("Framez %s\ncommit: %s\n", version, commit)
		return
	case cliHelp:
		fmt.Println(usage())
		return
	case cliInvalid:
		fmt.Fprintf(os.Stderr, "%s\n%s\n", msg, usage())
		os.Exit(1)
	}

	ctx := context.Background()

	// 1. Load config from environment.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// 2. Build infrastructure.
	tokens := auth.NewFileTokenProvider(cfg.TokenPath)
	session := auth.NewSession(tokens)
	viewerID, err := session.AccountID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "session: %v\n", err)
		os.Exit(1)
	}

	client := postgrest.NewClient(cfg.ProjectURL, cfg.AnonKey, tokens, cfg.RequestsPerSecond)
	ds := postgrest.NewDataService(client, cfg.RealtimeURL)

	// 3. Build the core services.
	engagement := app.NewEngagementService(ds)
	feed := app.NewFeedService(ds, engagement, nil)

	// 4. Assemble and print the global feed.
	entries, err := feed.Assemble(ctx, app.Global(), viewerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "framez: %v\n", err)
		os.Exit(1)
	}

	printFeed(entries)
}

func printFeed(entries []app.FeedEntry) {
	username := color.New(color.FgCyan, color.Bold)
	meta := color.New(color.FgRed)
	faint := color.New(color.Faint)

	if len(entries) == 0 {
		fmt.Println("No posts yet. Create the first one!")
		return
	}

	for _, e := range entries {
		username.Printf("@%s", e.Author.Username)
		faint.Printf("  %s\n", e.Post.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Println(e.Post.Content)
		if e.Post.ImageURL != "" {
			faint.Printf("[image] %s\n", e.Post.ImageURL)
		}

		likeMark := " "
		if e.Engagement.ViewerHasLiked {
			likeMark = "♥"
		}
		saveMark := ""
		if e.Engagement.ViewerHasSaved {
			saveMark = "  saved"
		}
		meta.Printf("%s %d likes", likeMark, e.Engagement.LikeCount)
		faint.Printf("  %d comments%s\n\n", e.Engagement.CommentCount, saveMark)
	}
}
