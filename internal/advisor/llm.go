package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/ado-testgen/internal/llm"
	"github.com/jonathan/ado-testgen/internal/logging"
	"github.com/jonathan/ado-testgen/internal/prompts"
	"github.com/jonathan/ado-testgen/internal/schemas"
	"github.com/jonathan/ado-testgen/internal/types"
)

// Defaults for LLMAdvisor.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultAttempts = 2

	maxDescriptionChars = 500
	maxBaselineTitles   = 10
)

// Options configures an LLMAdvisor.
type Options struct {
	Timeout  time.Duration
	Attempts int
	Tier     llm.ModelTier
	Logger   *zap.Logger
}

// LLMAdvisor asks a language model for scenarios and steps.
type LLMAdvisor struct {
	client   llm.Client
	validate *validator.Validate
	opts     Options
}

type suggestionsResponse struct {
	Suggestions []types.Suggestion `json:"suggestions"`
}

type stepsResponse struct {
	Steps []types.DraftStep `json:"steps"`
}

// NewLLMAdvisor wraps client.
func NewLLMAdvisor(client llm.Client, opts Options) *LLMAdvisor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierLite
	}
	opts.Logger = logging.OrNop(opts.Logger)
	return &LLMAdvisor{client: client, validate: validator.New(), opts: opts}
}

// Suggest implements Advisor.
func (a *LLMAdvisor) Suggest(ctx context.Context, req Request) []types.Suggestion {
	prompt, err := a.prompt(prompts.PlannerSystem, prompts.PlannerUser, map[string]string{
		"StoryTitle":     req.StoryTitle,
		"Description":    truncate(req.Description, maxDescriptionChars),
		"Criterion":      req.Criterion,
		"BaselineTitles": bulletList(limit(req.BaselineTitles, maxBaselineTitles)),
	})
	if err != nil {
		a.opts.Logger.Warn("advisor prompt unavailable", zap.Error(err))
		return nil
	}

	var resp suggestionsResponse
	if !a.call(ctx, "suggest", prompt, schemas.Suggestions, &resp) {
		return nil
	}

	out := make([]types.Suggestion, 0, MaxSuggestions)
	for _, s := range resp.Suggestions {
		if err := a.validate.Struct(s); err != nil {
			a.opts.Logger.Debug("advisor suggestion dropped", zap.String("descriptor", s.ShortDescriptor), zap.Error(err))
			continue
		}
		out = append(out, s)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

// WriteSteps implements Advisor.
func (a *LLMAdvisor) WriteSteps(ctx context.Context, req Request, s types.Suggestion) []types.DraftStep {
	prompt, err := a.prompt(prompts.StepWriterSystem, prompts.StepWriterUser, map[string]string{
		"StoryTitle":    req.StoryTitle,
		"Description":   truncate(req.Description, maxDescriptionChars),
		"Criterion":     req.Criterion,
		"Category":      s.Category,
		"Subcategory":   s.Subcategory,
		"Descriptor":    s.ShortDescriptor,
		"Preconditions": bulletList(s.Preconditions),
		"Hints":         bulletList(s.StepsHint),
	})
	if err != nil {
		a.opts.Logger.Warn("advisor prompt unavailable", zap.Error(err))
		return nil
	}

	var resp stepsResponse
	if !a.call(ctx, "write_steps", prompt, schemas.Steps, &resp) {
		return nil
	}
	return limit(resp.Steps, MaxSteps)
}

func (a *LLMAdvisor) prompt(systemKey, userKey string, data map[string]string) (string, error) {
	system, err := prompts.Get(prompts.AdvisorFile, systemKey)
	if err != nil {
		return "", err
	}
	user, err := prompts.Render(prompts.AdvisorFile, userKey, data)
	if err != nil {
		return "", err
	}
	return system + "\n\n" + user, nil
}

// call runs up to Attempts model calls, each under its own timeout, and
// decodes the first response that passes schema validation into out.
func (a *LLMAdvisor) call(ctx context.Context, op, prompt, schema string, out any) bool {
	for attempt := 1; attempt <= a.opts.Attempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		err := a.attempt(ctx, prompt, schema, out)
		if err == nil {
			return true
		}
		a.opts.Logger.Warn("advisor call failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return false
}

func (a *LLMAdvisor) attempt(ctx context.Context, prompt, schema string, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	raw, err := a.client.GenerateJSON(callCtx, prompt, a.opts.Tier)
	if err != nil {
		return fmt.Errorf("LLM generation failed: %w", err)
	}
	raw = llm.CleanJSONBlock(raw)

	if err := schemas.Validate(schema, raw); err != nil {
		return fmt.Errorf("response failed schema validation: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it)
	}
	return strings.Join(lines, "\n")
}
