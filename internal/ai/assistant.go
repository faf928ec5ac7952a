// internal/ai/assistant.go
package ai

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ashkett/quill/internal/logger"
	"github.com/ashkett/quill/internal/patch"
)

const systemPrompt = "You are a code editing assistant. Apply the requested change " +
	"and reply with the complete revised file content inside a single fenced code block. " +
	"Do not add commentary."

// Generator is the completion surface the assistant needs from a client.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Request captures everything a proposal is computed against: the snapshot
// and fingerprint are taken at submit time, so the resulting patch can be
// checked for staleness however long the user keeps typing.
type Request struct {
	TargetPath  string
	Snapshot    string
	Fingerprint string
	Instruction string
}

// Token identifies an in-flight request.
type Token string

// Outcome is delivered exactly once per submitted request.
type Outcome struct {
	Patch *patch.ProposedPatch
	Err   error
}

// Assistant runs proposal generation off the buffer-mutation path. Submit
// returns immediately with a token; the eventual ProposedPatch (or error)
// arrives on the channel Result exposes. Cancelling means discarding the
// result: call Discard and never receive.
type Assistant struct {
	client Generator

	mu      sync.Mutex
	pending map[Token]chan Outcome
}

// NewAssistant creates an assistant on top of a completion client.
func NewAssistant(client Generator) *Assistant {
	return &Assistant{
		client:  client,
		pending: make(map[Token]chan Outcome),
	}
}

// Submit starts proposal generation and returns its token.
func (a *Assistant) Submit(ctx context.Context, req Request) (Token, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		return "", ErrEmptyPrompt
	}

	token := Token(uuid.NewString())
	ch := make(chan Outcome, 1)
	a.mu.Lock()
	a.pending[token] = ch
	a.mu.Unlock()

	go a.run(ctx, token, req, ch)
	return token, nil
}

// Result returns the outcome channel for a token. The channel is buffered;
// the outcome stays available until received or discarded.
func (a *Assistant) Result(token Token) (<-chan Outcome, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.pending[token]
	return ch, ok
}

// Discard drops an in-flight or completed request. The generation goroutine
// still finishes; its result simply goes nowhere.
func (a *Assistant) Discard(token Token) {
	a.mu.Lock()
	delete(a.pending, token)
	a.mu.Unlock()
}

func (a *Assistant) run(ctx context.Context, token Token, req Request, ch chan Outcome) {
	text, err := a.client.Generate(ctx, systemPrompt, buildPrompt(req))
	if err != nil {
		logger.Warnf("AI: request %s failed: %v", token, err)
		ch <- Outcome{Err: err}
		return
	}

	revised := ExtractCode(text)
	edits := patch.DeriveEdits(req.Snapshot, revised)
	logger.Infof("AI: request %s produced %d proposed edit(s)", token, len(edits))
	ch <- Outcome{Patch: &patch.ProposedPatch{
		TargetPath:      req.TargetPath,
		BaseFingerprint: req.Fingerprint,
		Edits:           edits,
	}}
}

func buildPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(req.Instruction)
	sb.WriteString("\n\nCurrent content of ")
	if req.TargetPath != "" {
		sb.WriteString(req.TargetPath)
	} else {
		sb.WriteString("the file")
	}
	sb.WriteString(":\n```\n")
	sb.WriteString(req.Snapshot)
	if !strings.HasSuffix(req.Snapshot, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString("```\n")
	return sb.String()
}

// ExtractCode pulls the revised content out of a model response. The first
// fenced code block wins; a fenceless response is returned as-is.
func ExtractCode(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	rest := text[start+3:]
	// Drop the info string ("go", "python", ...) on the opening fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return text
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return rest
	}
	return rest[:end]
}
