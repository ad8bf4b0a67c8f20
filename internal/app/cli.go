package app

import "github.com/spf13/pflag"

// RegisterCommonFlags registers the flags shared by every command
func RegisterCommonFlags(flags *pflag.FlagSet) {
	flags.StringP("output-dir", "o", "", "Directory of the scraped content (default scraped_data)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("metrics-file", "", "Write run metrics to this file in the Prometheus text format")
}

// RegisterScrapeFlags registers the flags of the scrape command
func RegisterScrapeFlags(flags *pflag.FlagSet) {
	flags.StringP("base-url", "b", "", "Seed URL of the crawl")
	flags.IntP("max-pages", "n", 0, "Maximum number of distinct URLs to visit")
	flags.IntP("max-depth", "d", 0, "Maximum link distance from the seed URL")
	flags.Float64("rps", 0, "Maximum requests per second, 0 disables throttling")
	flags.Duration("fetch-timeout", 0, "Timeout of a single page request")
}

// RegisterIngestFlags registers the flags of the ingest command
func RegisterIngestFlags(flags *pflag.FlagSet) {
	flags.Int("bucket-id", 0, "GroundX bucket to ingest into")
	flags.String("source-url", "", "Website the platform should crawl")
	flags.Int("cap", 0, "Maximum number of pages the platform crawls")
	flags.Int("depth", 0, "Maximum crawl depth of the platform")
}

// RegisterStatusFlags registers the flags of the status command
func RegisterStatusFlags(flags *pflag.FlagSet) {
	flags.BoolP("continuous", "c", false, "Poll until the ingestion completes")
	flags.Duration("poll-interval", 0, "Delay between status checks")
	flags.Int("max-attempts", 0, "Maximum number of status checks")
}

// RegisterChatFlags registers the flags of the chat command
func RegisterChatFlags(flags *pflag.FlagSet) {
	flags.Int("bucket-id", 0, "GroundX bucket to search")
	flags.String("model", "", "LLM model used to synthesize answers")
	flags.Float64("min-score", 0, "Lowest relevance score that yields an answer")
}

// RegisterServeFlags registers the flags of the serve command
func RegisterServeFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
	flags.Int("max-results", 0, "Maximum number of search hits per tool call")
}
