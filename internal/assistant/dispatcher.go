// Package assistant runs the chat loop: load the transcript, ask the model,
// execute the tools it requests and persist every turn.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/tradeezy-assistant/internal/bookings"
	"github.com/wolfman30/tradeezy-assistant/internal/business"
	"github.com/wolfman30/tradeezy-assistant/internal/catalog"
	"github.com/wolfman30/tradeezy-assistant/internal/chathistory"
	"github.com/wolfman30/tradeezy-assistant/internal/llm"
	"github.com/wolfman30/tradeezy-assistant/internal/observability/metrics"
	"github.com/wolfman30/tradeezy-assistant/internal/tools"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

var assistantTracer = otel.Tracer("tradeezy.internal.assistant")

const (
	DefaultMaxToolRounds = 3
	DefaultHistoryLimit  = 20
	DefaultTimeout       = 30 * time.Second
)

// Reply outcomes, also used as metric labels.
const (
	OutcomeDirect    = "direct"
	OutcomeTool      = "tool"
	OutcomeFormatted = "formatted"
	OutcomeClarify   = "clarify"
	OutcomeContact   = "contact"
	OutcomeApology   = "apology"
	OutcomeFallback  = "fallback"
)

// Request is one inbound chat message.
type Request struct {
	Query      string `json:"query"`
	SenderID   string `json:"sender_id"`
	BusinessID string `json:"business_id"`
}

// Validate reports the first missing field.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.Query) == "":
		return ErrMissingQuery
	case strings.TrimSpace(r.SenderID) == "":
		return ErrMissingSender
	case strings.TrimSpace(r.BusinessID) == "":
		return ErrMissingBusiness
	}
	return nil
}

// Reply is the assistant's answer to one message.
type Reply struct {
	Text       string
	Outcome    string
	ToolRounds int
}

// BusinessLookup resolves the business a conversation belongs to.
type BusinessLookup interface {
	Lookup(ctx context.Context, businessID string) (business.Business, error)
}

// Options tunes the model request and the loop.
type Options struct {
	Model         string
	Temperature   float32
	TopP          float32
	MaxTokens     int32
	MaxToolRounds int
	HistoryLimit  int
	// Timeout bounds every outbound model and tool call.
	Timeout time.Duration
}

// Deps are the collaborators of a Dispatcher.
type Deps struct {
	LLM        llm.Client
	Tools      tools.Executor
	History    chathistory.Store
	Businesses BusinessLookup
	Metrics    *metrics.AssistantMetrics
	Logger     *logging.Logger
	Now        func() time.Time
}

// Dispatcher handles chat messages.
type Dispatcher struct {
	llm        llm.Client
	tools      tools.Executor
	history    chathistory.Store
	businesses BusinessLookup
	metrics    *metrics.AssistantMetrics
	logger     *logging.Logger
	now        func() time.Time
	opts       Options
}

func NewDispatcher(deps Deps, opts Options) *Dispatcher {
	if deps.LLM == nil || deps.Tools == nil || deps.History == nil {
		panic("assistant: llm, tools and history are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultMaxToolRounds
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Dispatcher{
		llm:        deps.LLM,
		tools:      deps.Tools,
		history:    deps.History,
		businesses: deps.Businesses,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Now,
		opts:       opts,
	}
}

// Handle answers one message. The returned error is always an *Error.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (Reply, error) {
	req = Request{
		Query:      strings.TrimSpace(req.Query),
		SenderID:   strings.TrimSpace(req.SenderID),
		BusinessID: strings.TrimSpace(req.BusinessID),
	}
	if err := req.Validate(); err != nil {
		return Reply{}, &Error{Kind: KindValidation, Op: "ingest", Err: err}
	}

	ctx, span := assistantTracer.Start(ctx, "assistant.handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("tradeezy.business_id", req.BusinessID),
		attribute.String("tradeezy.sender_id", req.SenderID),
	)
	logger := d.logger.With("business_id", req.BusinessID, "sender_id", req.SenderID)

	history, err := d.history.Recent(ctx, req.BusinessID, req.SenderID, d.opts.HistoryLimit)
	if err != nil {
		logger.Error("chat history load failed", "kind", KindPersistence, "error", err)
		history = nil
	}
	d.persist(ctx, logger, chathistory.Turn{
		BusinessID: req.BusinessID,
		SenderID:   req.SenderID,
		Role:       chathistory.RoleUser,
		Content:    req.Query,
	})

	biz := d.lookupBusiness(ctx, logger, req.BusinessID)
	t := &turn{
		d:       d,
		req:     req,
		logger:  logger,
		trusted: tools.Trusted{BusinessID: req.BusinessID, SenderID: req.SenderID},
		flow:    newFlow(),
		system:  systemPrompt(biz, d.now()),
	}
	t.messages = append(historyMessages(history, logger), llm.Message{Role: llm.RoleUser, Content: req.Query})

	reply, err := t.run(ctx)
	if err != nil {
		span.RecordError(err)
		d.metrics.ObserveReply("error")
		if e, ok := AsError(err); ok {
			logger.Error("chat turn failed", "kind", e.Kind, "op", e.Op, "tool", e.Tool, "error", e.Err)
			d.persist(ctx, logger, chathistory.Turn{
				BusinessID: req.BusinessID,
				SenderID:   req.SenderID,
				Role:       chathistory.RoleAssistant,
				Content:    e.Message(),
				Kind:       chathistory.KindFormatted,
			})
		}
		return Reply{}, err
	}
	d.persist(ctx, logger, chathistory.Turn{
		BusinessID: req.BusinessID,
		SenderID:   req.SenderID,
		Role:       chathistory.RoleAssistant,
		Content:    reply.Text,
		Kind:       chathistory.KindFormatted,
	})
	d.metrics.ObserveReply(reply.Outcome)
	d.metrics.ObserveToolRounds(reply.ToolRounds)
	span.SetAttributes(attribute.String("assistant.outcome", reply.Outcome), attribute.Int("assistant.tool_rounds", reply.ToolRounds))
	logger.Info("chat turn answered", "outcome", reply.Outcome, "tool_rounds", reply.ToolRounds)
	return reply, nil
}

func (d *Dispatcher) lookupBusiness(ctx context.Context, logger *logging.Logger, businessID string) business.Business {
	if d.businesses == nil {
		return business.Business{ID: businessID}
	}
	b, err := d.businesses.Lookup(ctx, businessID)
	if err != nil {
		logger.Warn("business lookup failed, using id only", "error", err)
		return business.Business{ID: businessID}
	}
	return b
}

// persist writes a turn. Failures lose the turn but never the reply.
func (d *Dispatcher) persist(ctx context.Context, logger *logging.Logger, t chathistory.Turn) {
	if _, err := d.history.Append(ctx, t); err != nil {
		logger.Error("chat history write failed", "kind", KindPersistence, "role", t.Role, "name", t.Name, "error", err)
	}
}

func (d *Dispatcher) outbound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.opts.Timeout)
}

// historyMessages maps stored turns to model messages. Tool results without a
// tool name cannot satisfy the tool-response contract and are dropped.
func historyMessages(turns []chathistory.Turn, logger *logging.Logger) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns)+1)
	for _, t := range turns {
		switch t.Role {
		case chathistory.RoleUser:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: t.Content})
		case chathistory.RoleAssistant:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: t.Content})
		case chathistory.RoleToolResult:
			if err := t.Validate(); err != nil {
				logger.Warn("dropping invalid tool result turn", "turn_id", t.ID, "error", err)
				continue
			}
			msgs = append(msgs, llm.Message{Role: llm.RoleTool, ToolName: t.Name, Content: t.Content})
		}
	}
	return msgs
}

// turn is the state of one Handle call.
type turn struct {
	d        *Dispatcher
	req      Request
	logger   *logging.Logger
	trusted  tools.Trusted
	flow     *flow
	system   string
	messages []llm.Message
}

// step is the outcome of one tool call: either content fed back to the model
// or a final reply.
type step struct {
	result  string
	final   bool
	text    string
	outcome string
}

func resultStep(content string) step { return step{result: content} }

func finalStep(text, outcome string) step { return step{final: true, text: text, outcome: outcome} }

func (t *turn) reply(text, outcome string) Reply {
	return Reply{Text: text, Outcome: outcome, ToolRounds: t.flow.rounds}
}

func (t *turn) run(ctx context.Context) (Reply, error) {
	for {
		resp, err := t.complete(ctx)
		if err != nil {
			return Reply{}, &Error{Kind: KindUpstream, Op: "infer", Err: err}
		}
		if !resp.HasToolCall() {
			text := strings.TrimSpace(resp.Text)
			if text == "" {
				text = emptyReply
			}
			outcome := OutcomeDirect
			if t.flow.rounds > 0 {
				outcome = OutcomeTool
			}
			return t.reply(text, outcome), nil
		}

		for _, tc := range resp.ToolCalls {
			if !tools.Known(tc.Name) {
				t.logger.Error("model requested unknown tool", "tool", tc.Name, "arguments", string(tc.Arguments))
				t.d.metrics.ObserveToolCall("unknown", "rejected")
				return Reply{}, &Error{Kind: KindToolDispatch, Op: "dispatch", Tool: tc.Name, Err: tools.ErrUnknownTool}
			}
		}
		if t.flow.rounds+len(resp.ToolCalls) > t.d.opts.MaxToolRounds {
			t.logger.Warn("tool round limit reached", "rounds", t.flow.rounds, "requested", len(resp.ToolCalls))
			return t.reply(fallbackReply, OutcomeFallback), nil
		}

		t.messages = append(t.messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls})
		for _, tc := range resp.ToolCalls {
			t.flow.rounds++
			st := t.dispatch(ctx, tc)
			if st.final {
				return t.reply(st.text, st.outcome), nil
			}
			t.messages = append(t.messages, llm.Message{Role: llm.RoleTool, ToolCallID: tc.ID, ToolName: tc.Name, Content: st.result})
		}
	}
}

func (t *turn) complete(ctx context.Context) (llm.Response, error) {
	ctx, cancel := t.d.outbound(ctx)
	defer cancel()
	return t.d.llm.Complete(ctx, llm.Request{
		Model:       t.d.opts.Model,
		System:      []string{t.system},
		Messages:    t.messages,
		Tools:       tools.Definitions(),
		MaxTokens:   t.d.opts.MaxTokens,
		Temperature: t.d.opts.Temperature,
		TopP:        t.d.opts.TopP,
	})
}

func (t *turn) dispatch(ctx context.Context, tc llm.ToolCall) step {
	call, err := tools.Parse(tc, t.trusted)
	if err != nil {
		t.logger.Warn("tool arguments rejected", "kind", KindToolDispatch, "tool", tc.Name, "arguments", string(tc.Arguments), "error", err)
		t.d.metrics.ObserveToolCall(tc.Name, "invalid_arguments")
		return finalStep(apology(tc.Name), OutcomeApology)
	}
	switch call.Name {
	case tools.GetBusinessServices:
		return t.listServices(ctx, call)
	case tools.CheckSlot:
		return t.checkSlot(ctx, call)
	case tools.BookSlot:
		return t.bookSlot(ctx, call)
	default:
		return t.updateUser(ctx, call)
	}
}

func (t *turn) listServices(ctx context.Context, call tools.Call) step {
	req := tools.ServicesRequestFor(call)
	cctx, cancel := t.d.outbound(ctx)
	listing, err := t.d.tools.GetBusinessServices(cctx, req)
	cancel()
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) && req.ServiceName == "" {
			t.d.metrics.ObserveToolCall(call.Name, "not_found")
			return finalStep(noServicesReply, OutcomeClarify)
		}
		return t.toolError(ctx, call, req.ServiceName, err)
	}
	t.d.metrics.ObserveToolCall(call.Name, "ok")
	t.persistResult(ctx, call.Name, listing)
	return finalStep(formatListing(listing), OutcomeFormatted)
}

func (t *turn) checkSlot(ctx context.Context, call tools.Call) step {
	resp, st, ok := t.runCheck(ctx, call, *call.Slot)
	if !ok {
		return st
	}
	return resultStep(mustJSON(resp))
}

// runCheck performs an availability check for call and records a positive
// answer in the flow.
func (t *turn) runCheck(ctx context.Context, call tools.Call, args tools.SlotArgs) (tools.CheckSlotResponse, step, bool) {
	cctx, cancel := t.d.outbound(ctx)
	resp, err := t.d.tools.CheckSlot(cctx, tools.CheckSlotRequestFor(t.trusted, args))
	cancel()
	if err != nil {
		return resp, t.toolError(ctx, call, args.ServiceName, err), false
	}
	t.d.metrics.ObserveToolCall(tools.CheckSlot, "ok")
	if resp.IsAvailable {
		t.flow.markChecked(args.SlotKey())
	}
	t.persistResult(ctx, tools.CheckSlot, resp)
	return resp, step{}, true
}

func (t *turn) bookSlot(ctx context.Context, call tools.Call) step {
	args := *call.Book
	key := args.SlotKey()
	if t.flow.wasBooked(key) {
		return resultStep(errorJSON(alreadyBookedMsg))
	}

	cctx, cancel := t.d.outbound(ctx)
	merged, err := t.d.tools.CreateOrUpdateUser(cctx, tools.ContactRequestFor(t.trusted, args))
	cancel()
	if err != nil {
		return t.toolError(ctx, call, args.ServiceName, err)
	}
	if missing := merged.User.Missing(); len(missing) > 0 {
		t.logger.Info("booking deferred until contact details are complete", "missing", strings.Join(missing, ","))
		t.d.metrics.ObserveBooking("missing_contact")
		return finalStep(contactQuestion(missing), OutcomeContact)
	}

	if !t.flow.wasChecked(key) {
		t.logger.Info("checking availability before booking", "slot", key)
		resp, st, ok := t.runCheck(ctx, call, args.SlotArgs)
		if !ok {
			return st
		}
		if !resp.IsAvailable {
			t.d.metrics.ObserveBooking("unavailable")
			return resultStep(mustJSON(map[string]any{
				"booked":      false,
				"isAvailable": false,
				"reason":      "the requested time is not available",
			}))
		}
	}

	cctx, cancel = t.d.outbound(ctx)
	conf, err := t.d.tools.BookSlot(cctx, tools.BookSlotRequestFor(t.trusted, args, merged.User))
	cancel()
	if err != nil {
		return t.toolError(ctx, call, args.ServiceName, err)
	}
	t.flow.markBooked(key)
	t.d.metrics.ObserveToolCall(call.Name, "ok")
	t.d.metrics.ObserveBooking("confirmed")
	t.persistResult(ctx, call.Name, conf)
	return resultStep(mustJSON(conf))
}

func (t *turn) updateUser(ctx context.Context, call tools.Call) step {
	cctx, cancel := t.d.outbound(ctx)
	resp, err := t.d.tools.CreateOrUpdateUser(cctx, tools.UserRequestFor(call))
	cancel()
	if err != nil {
		return t.toolError(ctx, call, "", err)
	}
	t.d.metrics.ObserveToolCall(call.Name, "ok")
	t.persistResult(ctx, call.Name, resp)
	return resultStep(mustJSON(resp))
}

// toolError converts an executor failure into the next step. Unknown or
// ambiguous services ask for clarification, rejected arguments and lost slots
// go back to the model, anything else ends the turn with an apology.
func (t *turn) toolError(ctx context.Context, call tools.Call, serviceName string, err error) step {
	var amb *catalog.AmbiguousError
	switch {
	case errors.As(err, &amb):
		t.d.metrics.ObserveToolCall(call.Name, "ambiguous")
		return finalStep(ambiguousReply(serviceName, amb.Candidates), OutcomeClarify)
	case errors.Is(err, catalog.ErrServiceNotFound):
		t.d.metrics.ObserveToolCall(call.Name, "not_found")
		return finalStep(t.clarify(ctx, serviceName), OutcomeClarify)
	case errors.Is(err, tools.ErrInvalidArguments):
		t.logger.Warn("tool rejected arguments", "tool", call.Name, "arguments", string(call.Raw), "error", err)
		t.d.metrics.ObserveToolCall(call.Name, "invalid_arguments")
		return resultStep(errorJSON(err.Error()))
	case errors.Is(err, bookings.ErrSlotUnavailable):
		t.d.metrics.ObserveToolCall(call.Name, "conflict")
		t.d.metrics.ObserveBooking("conflict")
		return resultStep(mustJSON(map[string]any{
			"booked": false,
			"reason": "that time was taken moments ago",
		}))
	}
	t.logger.Error("tool call failed", "kind", KindToolDispatch, "tool", call.Name, "arguments", string(call.Raw), "error", err)
	t.d.metrics.ObserveToolCall(call.Name, "error")
	return finalStep(apology(call.Name), OutcomeApology)
}

// clarify lists the offered services so the user can pick one.
func (t *turn) clarify(ctx context.Context, requested string) string {
	cctx, cancel := t.d.outbound(ctx)
	defer cancel()
	listing, err := t.d.tools.GetBusinessServices(cctx, tools.ServicesRequest{
		BusinessID: t.trusted.BusinessID,
		Fields:     []string{catalog.FieldName},
	})
	if err != nil {
		if !errors.Is(err, catalog.ErrServiceNotFound) {
			t.logger.Warn("service names unavailable for clarification", "error", err)
		}
		return clarifyReply(requested, nil)
	}
	names := make([]string, 0, len(listing.Services))
	for _, svc := range listing.Services {
		names = append(names, svc.Name)
	}
	return clarifyReply(requested, names)
}

func (t *turn) persistResult(ctx context.Context, tool string, v any) {
	t.d.persist(ctx, t.logger, chathistory.Turn{
		BusinessID: t.req.BusinessID,
		SenderID:   t.req.SenderID,
		Role:       chathistory.RoleToolResult,
		Name:       tool,
		Content:    mustJSON(v),
		Kind:       chathistory.KindRaw,
	})
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return errorJSON(err.Error())
	}
	return string(raw)
}

func errorJSON(msg string) string {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return string(raw)
}
