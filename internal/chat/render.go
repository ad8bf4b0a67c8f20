package chat

import (
	"github.com/sha1n/siterag/internal/console"
	"github.com/sha1n/siterag/internal/rag"
)

// Render prints one answer in the result layout of the chat loop.
func Render(out *console.Console, ans *rag.Answer) {
	switch ans.Outcome {
	case rag.OutcomeNotFound:
		out.Printf("\nNo information found for this query.\n\n")
		return
	case rag.OutcomeLowRelevance:
		out.Printf("\nLow relevance (score %.2f). No reliable answer found for this query.\n\n", ans.Score)
		return
	}

	out.Banner("SEARCH RESULTS")
	out.Printf("\nResults Found: %d\n", ans.Count)
	out.Printf("Relevance Score: %.2f\n", ans.Score)

	out.Heading("ANSWER")
	switch {
	case ans.Text == "":
		out.Println("(No results)")
	default:
		out.Println(ans.Text)
	}
	if ans.LLMErr != nil {
		out.Muted("(LLM unavailable, showing retrieved context)")
	}

	if ans.Top != nil {
		out.Heading("TOP RESULT")
		out.Printf("Score: %.2f\n", ans.Top.Score)
		if ans.Top.SourceURL != "" {
			out.Printf("Source: %s\n", ans.Top.SourceURL)
		}
	}
	out.Println()
	out.Rule()
	out.Println()
}
