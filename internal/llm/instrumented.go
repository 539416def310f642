package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/tradeezy-assistant/internal/observability/metrics"
)

var llmTracer = otel.Tracer("tradeezy.internal.llm")

// Instrumented records latency and tracing around another client.
type Instrumented struct {
	next    Client
	metrics *metrics.AssistantMetrics
}

func NewInstrumented(next Client, m *metrics.AssistantMetrics) *Instrumented {
	if next == nil {
		panic("llm: instrumented client requires a delegate")
	}
	return &Instrumented{next: next, metrics: m}
}

func (c *Instrumented) Provider() string { return ProviderName(c.next) }

func (c *Instrumented) Complete(ctx context.Context, req Request) (Response, error) {
	provider := ProviderName(c.next)
	ctx, span := llmTracer.Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", provider),
		attribute.Int("llm.messages", len(req.Messages)),
		attribute.Int("llm.tools", len(req.Tools)),
	)

	start := time.Now()
	resp, err := c.next.Complete(ctx, req)
	outcome := "text"
	switch {
	case err != nil:
		outcome = "error"
		span.RecordError(err)
	case resp.HasToolCall():
		outcome = "tool_call"
	}
	c.metrics.ObserveLLM(provider, outcome, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("llm.outcome", outcome),
		attribute.Int("llm.input_tokens", int(resp.Usage.InputTokens)),
		attribute.Int("llm.output_tokens", int(resp.Usage.OutputTokens)),
	)
	return resp, err
}
