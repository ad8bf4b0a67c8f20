// Package chat runs the interactive question and answer loop.
package chat

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/sha1n/siterag/internal/console"
	"github.com/sha1n/siterag/internal/rag"
)

// DefaultName is the knowledge base name shown in the banner.
const DefaultName = "ITNB Knowledge Base"

// Prompt is printed before each question.
const Prompt = "Enter your question: "

// EndReason tells why a session ended.
type EndReason string

const (
	EndExit      EndReason = "exit"
	EndEOF       EndReason = "eof"
	EndInterrupt EndReason = "interrupt"
)

// Answerer answers one question.
type Answerer interface {
	Answer(ctx context.Context, query string) (*rag.Answer, error)
}

// Summary describes a finished session.
type Summary struct {
	Queries int
	Reason  EndReason
}

// Session is one interactive loop over a line-oriented input.
type Session struct {
	answerer Answerer
	in       io.Reader
	out      *console.Console
	name     string
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithName sets the knowledge base name.
func WithName(name string) Option {
	return func(s *Session) {
		s.name = name
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession creates a session reading questions from in.
func NewSession(answerer Answerer, in io.Reader, out *console.Console, opts ...Option) *Session {
	s := &Session{
		answerer: answerer,
		in:       in,
		out:      out,
		name:     DefaultName,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run prints the banner and answers questions until an exit command, end of
// input or cancellation of ctx. Failed queries are reported and the loop goes on.
func (s *Session) Run(ctx context.Context) Summary {
	s.printHeader()
	s.logger.Info("Chat session started")

	done := make(chan struct{})
	defer close(done)
	lines := readLines(s.in, done)
	queries := 0

	for {
		s.out.Printf("%s", Prompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return s.end(EndInterrupt, queries)
		case line, ok = <-lines:
		}
		if !ok {
			return s.end(EndEOF, queries)
		}

		question := strings.TrimSpace(line)
		if question == "" {
			s.out.Printf("Please enter a valid question.\n\n")
			continue
		}
		if isExit(question) {
			return s.end(EndExit, queries)
		}

		queries++
		s.out.Printf("\nProcessing query %d...\n\n", queries)

		ans, err := s.answerer.Answer(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return s.end(EndInterrupt, queries)
			}
			s.logger.Error("Search error", "error", err)
			s.out.Printf("\nError: Search error: %v\n\n", err)
			continue
		}
		Render(s.out, ans)
	}
}

func (s *Session) end(reason EndReason, queries int) Summary {
	switch reason {
	case EndExit:
		s.out.Printf("\nSession ended. Thank you for using %s.\n\n", s.name)
	case EndInterrupt:
		s.out.Printf("\n\nSession interrupted by user. Goodbye.\n\n")
	case EndEOF:
		s.out.Printf("\nEnd of input reached. Goodbye.\n\n")
	}
	s.logger.Info("Chat session ended", "reason", reason, "queries", queries)
	return Summary{Queries: queries, Reason: reason}
}

func (s *Session) printHeader() {
	s.out.Banner(strings.ToUpper(s.name) + " - QUESTION & ANSWER INTERFACE")
	s.out.Printf("\nThis interface allows you to query the ingested website content.\n")
	s.out.Printf("Powered by GroundX RAG (Retrieval-Augmented Generation).\n\n")
	s.out.Printf("Commands:\n")
	s.out.Printf("  - Type your question and press Enter to search\n")
	s.out.Printf("  - Type 'exit', 'quit', or 'q' to exit\n")
	s.out.Printf("  - Press Ctrl+C to interrupt at any time\n\n")
	s.out.Rule()
	s.out.Println()
}

func isExit(question string) bool {
	switch strings.ToLower(question) {
	case "exit", "quit", "q":
		return true
	default:
		return false
	}
}

// readLines feeds the lines of r into the returned channel, which is closed
// at end of input. Closing done stops delivery; a read that is already
// blocked on a terminal only returns once the terminal delivers a line.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadString('\n')
			if line != "" || err == nil {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-done:
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Debug("Input read failed", "error", err)
				}
				return
			}
		}
	}()
	return lines
}
