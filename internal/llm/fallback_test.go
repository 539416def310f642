package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/tradeezy-assistant/internal/observability/metrics"
)

type stubClient struct {
	name  string
	resp  Response
	err   error
	calls int
}

func (s *stubClient) Provider() string { return s.name }

func (s *stubClient) Complete(context.Context, Request) (Response, error) {
	s.calls++
	return s.resp, s.err
}

func TestFallbackClientUsesFallbackOnError(t *testing.T) {
	primary := &stubClient{name: "openai", err: errors.New("down")}
	fallback := &stubClient{name: "bedrock", resp: Response{Text: "from fallback"}}
	client := NewFallbackClient(primary, fallback, nil)

	resp, err := client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "from fallback" || fallback.calls != 1 {
		t.Fatalf("fallback not used: %+v calls=%d", resp, fallback.calls)
	}
}

func TestFallbackClientSkipsFallbackOnSuccess(t *testing.T) {
	primary := &stubClient{name: "openai", resp: Response{Text: "ok"}}
	fallback := &stubClient{name: "bedrock"}
	client := NewFallbackClient(primary, fallback, nil)
	if _, err := client.Complete(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback called %d times", fallback.calls)
	}
}

func TestFallbackClientReturnsFallbackError(t *testing.T) {
	last := errors.New("fallback down")
	client := NewFallbackClient(&stubClient{err: errors.New("primary down")}, &stubClient{err: last}, nil)
	if _, err := client.Complete(context.Background(), Request{}); !errors.Is(err, last) {
		t.Fatalf("expected fallback error, got %v", err)
	}
}

func TestNewFallbackClientWithoutFallback(t *testing.T) {
	primary := &stubClient{name: "openai"}
	if got := NewFallbackClient(primary, nil, nil); got != Client(primary) {
		t.Fatalf("expected primary returned unchanged")
	}
}

func TestInstrumentedRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	client := NewInstrumented(&stubClient{name: "openai", resp: Response{ToolCalls: []ToolCall{{Name: "checkSlot"}}}}, metrics.NewAssistantMetrics(reg))
	if client.Provider() != "openai" {
		t.Fatalf("provider = %s", client.Provider())
	}
	if _, err := client.Complete(context.Background(), Request{}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "tradeezy_assistant_llm_latency_seconds" {
			continue
		}
		for _, label := range f.GetMetric()[0].GetLabel() {
			if label.GetName() == "outcome" && label.GetValue() != "tool_call" {
				t.Fatalf("outcome = %s", label.GetValue())
			}
		}
		return
	}
	t.Fatal("latency histogram not gathered")
}
