// Package generative provides a reference generative-tier handler: a
// single-shot wrapper around core.AIClient that renders a prompt template
// from the invocation input and the previous tier's failure, then returns
// the model's raw text as the tier's output.
package generative

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/cascade-run/cascade/cascade"
	"github.com/cascade-run/cascade/core"
)

// PromptContext is the data made available to the prompt template.
type PromptContext struct {
	Input         interface{}
	PreviousTier  cascade.Tier
	PreviousError string
	HasPrevious   bool
}

// Handler wraps a core.AIClient behind the cascade.Handler contract.
type Handler struct {
	client   core.AIClient
	template *template.Template
	options  *core.AIOptions
}

// Config configures a Handler.
type Config struct {
	Client core.AIClient

	// PromptTemplate is a text/template source rendered against
	// PromptContext to produce the model prompt. Defaults to a minimal
	// template that embeds the input and, if present, the prior failure.
	PromptTemplate string

	// Options carries the model/temperature/token/system-prompt settings
	// passed through to AIClient.GenerateResponse on every call.
	Options *core.AIOptions
}

const defaultPromptTemplate = `Task input: {{.Input}}
{{if .HasPrevious}}The {{.PreviousTier}} tier failed with: {{.PreviousError}}
Produce a corrected result.{{end}}`

// NewHandler builds a Handler. Client is required.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("generative.NewHandler: an AIClient is required: %w", core.ErrInvalidConfiguration)
	}
	src := cfg.PromptTemplate
	if src == "" {
		src = defaultPromptTemplate
	}
	tmpl, err := template.New("generative-prompt").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("generative.NewHandler: parsing prompt template: %w", err)
	}
	return &Handler{client: cfg.Client, template: tmpl, options: cfg.Options}, nil
}

// Execute implements cascade.Handler.
func (h *Handler) Execute(ctx context.Context, input interface{}, tierCtx *cascade.TierContext) (interface{}, error) {
	promptCtx := PromptContext{Input: input}
	if tierCtx != nil {
		promptCtx.PreviousTier = tierCtx.PreviousTier
		promptCtx.HasPrevious = tierCtx.HasPreviousFailure()
		if tierCtx.PreviousError != nil {
			promptCtx.PreviousError = tierCtx.PreviousError.Error()
		}
	}

	var buf bytes.Buffer
	if err := h.template.Execute(&buf, promptCtx); err != nil {
		return nil, fmt.Errorf("generative: rendering prompt: %w", err)
	}

	resp, err := h.client.GenerateResponse(ctx, buf.String(), h.options)
	if err != nil {
		return nil, fmt.Errorf("generative: model call failed: %w", err)
	}
	return resp.Content, nil
}
