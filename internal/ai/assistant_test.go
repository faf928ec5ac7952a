package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashkett/quill/internal/buffer"
	"github.com/ashkett/quill/internal/config"
)

// fakeGenerator returns a canned response, or an error.
type fakeGenerator struct {
	response string
	err      error

	system string
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.system = system
	f.prompt = prompt
	return f.response, f.err
}

func awaitOutcome(t *testing.T, a *Assistant, token Token) Outcome {
	t.Helper()
	ch, ok := a.Result(token)
	require.True(t, ok)
	select {
	case out := <-ch:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}

func TestSubmitProducesPatch(t *testing.T) {
	const snapshot = "one\ntwo\nthree\n"
	const revised = "one\n2\nthree\n"
	gen := &fakeGenerator{response: "```\n" + revised + "```"}
	a := NewAssistant(gen)

	token, err := a.Submit(context.Background(), Request{
		TargetPath:  "notes.txt",
		Snapshot:    snapshot,
		Fingerprint: "base-fp",
		Instruction: "replace two with 2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	out := awaitOutcome(t, a, token)
	require.NoError(t, out.Err)
	require.NotNil(t, out.Patch)
	assert.Equal(t, "notes.txt", out.Patch.TargetPath)
	assert.Equal(t, "base-fp", out.Patch.BaseFingerprint,
		"the patch is pinned to the fingerprint captured at submit time")

	// Applying the derived edits to the snapshot reproduces the revision.
	buf := buffer.NewFromString(snapshot)
	for i := len(out.Patch.Edits) - 1; i >= 0; i-- {
		_, err := buf.ApplyEdit(out.Patch.Edits[i])
		require.NoError(t, err)
	}
	assert.Equal(t, revised, buf.Text())

	assert.Contains(t, gen.prompt, "replace two with 2")
	assert.Contains(t, gen.prompt, snapshot)
}

func TestSubmitRejectsEmptyInstruction(t *testing.T) {
	a := NewAssistant(&fakeGenerator{})
	_, err := a.Submit(context.Background(), Request{Instruction: "   "})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestSubmitPropagatesGeneratorError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	a := NewAssistant(&fakeGenerator{err: wantErr})

	token, err := a.Submit(context.Background(), Request{Instruction: "do it"})
	require.NoError(t, err)

	out := awaitOutcome(t, a, token)
	assert.ErrorIs(t, out.Err, wantErr)
	assert.Nil(t, out.Patch)
}

func TestDiscard(t *testing.T) {
	a := NewAssistant(&fakeGenerator{response: "```\nx\n```"})

	token, err := a.Submit(context.Background(), Request{Instruction: "do it"})
	require.NoError(t, err)

	a.Discard(token)
	_, ok := a.Result(token)
	assert.False(t, ok, "discarded token no longer resolves")
}

func TestExtractCode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain fence", "```\ncontent\n```", "content\n"},
		{"info string", "```go\npackage main\n```", "package main\n"},
		{"surrounding prose", "Here you go:\n```\nbody\n```\nDone.", "body\n"},
		{"no fence", "raw text", "raw text"},
		{"unterminated fence", "```\ntrailing\n", "trailing\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractCode(tc.in))
		})
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient(config.AIConfig{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewClientResolvesConfiguredEnvVar(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QUILL_TEST_KEY", "sk-test")

	c, err := NewClient(config.AIConfig{APIKeyEnv: "QUILL_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAIModel, c.model)
}
