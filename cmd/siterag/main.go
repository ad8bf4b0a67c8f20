package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sha1n/siterag/internal/app"
	"github.com/sha1n/siterag/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "siterag"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	// Variables already set in the environment take precedence
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Execute(ctx, Version, Build, ProgramName, args[1:]); err != nil {
		stop()
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(ctx context.Context, version, build, programName string, args []string) error {
	params := app.DefaultRunParams()

	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Website RAG toolkit",
		Long: "Scrapes a website into pages, sections and paragraphs, ingests it into the " +
			"GroundX RAG platform and answers questions about it from the terminal or over MCP.",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Version}} (%s)\n", build))

	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl the website and store its content hierarchy locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunScrape(cmd.Context(), params, cmd.Flags())
		},
	}
	app.RegisterScrapeFlags(scrapeCmd.Flags())

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Submit the website to the GroundX platform for ingestion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunIngest(cmd.Context(), params, cmd.Flags())
		},
	}
	app.RegisterIngestFlags(ingestCmd.Flags())

	statusCmd := &cobra.Command{
		Use:   "status <process-id>",
		Short: "Show the state of an ingestion process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunStatus(cmd.Context(), params, cmd.Flags(), args[0])
		},
	}
	app.RegisterStatusFlags(statusCmd.Flags())

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions about the ingested website",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunChat(cmd.Context(), params, cmd.Flags())
		},
	}
	app.RegisterChatFlags(chatCmd.Flags())

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scraped content to MCP clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunServe(cmd.Context(), params, cmd.Flags(), version)
		},
	}
	app.RegisterServeFlags(serveCmd.Flags())

	for _, cmd := range []*cobra.Command{scrapeCmd, ingestCmd, statusCmd, chatCmd, serveCmd} {
		app.RegisterCommonFlags(cmd.Flags())
		rootCmd.AddCommand(cmd)
	}

	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
