package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/reagent/executor"
	"github.com/BaSui01/reagent/gateway"
	"github.com/BaSui01/reagent/internal/metrics"
	"github.com/BaSui01/reagent/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds the engine's loop tunables.
type Config struct {
	// MaxSteps caps loop iterations; a logical budget, not a wall clock.
	MaxSteps int `yaml:"max_steps"`
	// RetryCount is passed through to the executor per tool call.
	RetryCount int `yaml:"retry_count"`
	// WeakEvidenceMin/Max bound the evidence band that triggers the
	// caveated final-answer call.
	WeakEvidenceMin float64 `yaml:"weak_evidence_min"`
	WeakEvidenceMax float64 `yaml:"weak_evidence_max"`
	// GatewayRPS paces gateway calls; zero disables pacing.
	GatewayRPS float64 `yaml:"gateway_rps"`
	// Tier selects the model capability band for loop calls.
	Tier gateway.ModelTier `yaml:"tier"`
	// StubAnswers extends the built-in non-answer denylist.
	StubAnswers []string `yaml:"stub_answers"`
}

// DefaultConfig returns the default loop tunables.
func DefaultConfig() Config {
	return Config{
		MaxSteps:        5,
		RetryCount:      1,
		WeakEvidenceMin: 0.3,
		WeakEvidenceMax: 0.6,
		Tier:            gateway.TierBalanced,
	}
}

// Step is one completed think/act/observe iteration, kept for tracing.
type Step struct {
	Number      int             `json:"number"`
	Thought     string          `json:"thought,omitempty"`
	Action      *types.ToolCall `json:"action,omitempty"`
	Observation string          `json:"observation,omitempty"`
}

// Result is the terminal outcome of one loop invocation. Callers always
// receive a well-formed Result; failure shows up as a low evidence score
// or empty sources, never as a transport error.
type Result struct {
	TraceID       uuid.UUID        `json:"trace_id"`
	Answer        string           `json:"answer"`
	Sources       []types.Source   `json:"sources,omitempty"`
	EvidenceScore float64          `json:"evidence_score"`
	Status        types.Status     `json:"status"`
	ToolCallsMade int              `json:"tool_calls_made"`
	TokenUsage    types.TokenUsage `json:"token_usage"`
	Steps         []Step           `json:"steps,omitempty"`
}

// Engine drives the think/act/observe state machine. One Engine serves
// many concurrent queries; all per-query state lives in the AgentState
// passed into Run/RunStream.
type Engine struct {
	gateway   gateway.Gateway
	executor  *executor.Executor
	prompts   Prompts
	config    Config
	collector *metrics.Collector
	limiter   *rate.Limiter // nil when pacing is disabled
	estimator *Estimator
	tracer    trace.Tracer
	logger    *zap.Logger
}

// New creates an Engine. collector may be nil to run without prometheus
// metrics.
func New(gw gateway.Gateway, exec *executor.Executor, prompts Prompts, cfg Config, collector *metrics.Collector, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = def.MaxSteps
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = def.RetryCount
	}
	if cfg.WeakEvidenceMax <= cfg.WeakEvidenceMin {
		cfg.WeakEvidenceMin = def.WeakEvidenceMin
		cfg.WeakEvidenceMax = def.WeakEvidenceMax
	}
	if cfg.Tier == "" {
		cfg.Tier = def.Tier
	}
	if prompts.System == "" {
		prompts = DefaultPrompts()
	}

	var limiter *rate.Limiter
	if cfg.GatewayRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.GatewayRPS), 1)
	}

	return &Engine{
		gateway:   gw,
		executor:  exec,
		prompts:   prompts,
		config:    cfg,
		collector: collector,
		limiter:   limiter,
		estimator: &Estimator{},
		tracer:    otel.Tracer("reagent/engine"),
		logger:    logger.With(zap.String("component", "reasoning_engine")),
	}
}

// Run executes the loop to a terminal state and returns the outcome. The
// returned error is non-nil only for context cancellation.
func (e *Engine) Run(ctx context.Context, state *types.AgentState, history []gateway.Message, userID string) (*Result, error) {
	return e.runLoop(ctx, state, history, userID, func(Event) bool { return true })
}

// runLoop is the single loop implementation behind Run and RunStream.
// emit delivers one event to the consumer and reports whether to keep
// going; the blocking path always says yes.
func (e *Engine) runLoop(ctx context.Context, state *types.AgentState, history []gateway.Message, userID string, emit func(Event) bool) (*Result, error) {
	traceID := uuid.New()
	logger := e.logger.With(zap.String("trace_id", traceID.String()))

	ctx, span := e.tracer.Start(ctx, "engine.Run",
		trace.WithAttributes(attribute.String("trace_id", traceID.String())))
	defer span.End()

	res := &Result{TraceID: traceID}
	history = append([]gateway.Message{}, history...)

	finish := func(status types.Status, answer string) (*Result, error) {
		e.transition(state, status)
		state.FinalAnswer = answer
		res.Answer = answer
		res.Status = status
		res.Sources = state.Sources
		res.EvidenceScore = state.EvidenceScore
		e.collector.RecordLoop(string(status), state.StepsTaken)
		span.SetAttributes(
			attribute.String("status", string(status)),
			attribute.Int("steps", state.StepsTaken),
			attribute.Int("tool_calls", res.ToolCallsMade),
		)
		logger.Info("loop finished",
			zap.String("status", string(status)),
			zap.Int("steps", state.StepsTaken),
			zap.Int("tool_calls", res.ToolCallsMade),
			zap.Float64("evidence", state.EvidenceScore))
		return res, nil
	}

	for state.StepsTaken < state.MaxSteps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.transition(state, types.StatusThinking)
		if !emit(Event{Type: EventStatus, Data: string(types.StatusThinking)}) {
			return nil, ctx.Err()
		}

		reply, err := e.sendMessage(ctx, &gateway.Request{
			SystemPrompt: e.prompts.System,
			Prompt:       accumulatedPrompt(state),
			History:      history,
			Tier:         e.config.Tier,
		}, &res.TokenUsage)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Mid-loop gateway failure, transient or not, ends the loop.
			// The caller still gets whatever the evidence supports.
			logger.Warn("gateway failed mid-loop", zap.Error(err),
				zap.String("code", string(types.GetErrorCode(err))))
			answer := synthesizeFromContext(state)
			if !emit(Event{Type: EventFinal, Data: answer}) {
				return nil, ctx.Err()
			}
			return finish(types.StatusFatalError, answer)
		}

		step := Step{Number: state.StepsTaken + 1}
		call, hasAction := ParseAction(reply.Text)

		if !hasAction {
			// No action: the text is the final-answer candidate.
			state.StepsTaken++
			step.Thought = strings.TrimSpace(reply.Text)
			res.Steps = append(res.Steps, step)
			return e.finalize(ctx, state, res, strings.TrimSpace(reply.Text), types.StatusFinalAnswer, emit, finish)
		}

		step.Thought = StripActionLines(reply.Text)
		step.Action = call
		if step.Thought != "" && !emit(Event{Type: EventThought, Data: step.Thought}) {
			return nil, ctx.Err()
		}

		e.transition(state, types.StatusActing)
		if !emit(Event{Type: EventToolCall, Data: call.Name, ToolCall: call}) {
			return nil, ctx.Err()
		}

		out, err := e.executor.Execute(ctx, call.Name, call.Arguments, userID, e.config.RetryCount)
		if err != nil {
			// Only cancellation escapes the executor.
			return nil, err
		}
		res.ToolCallsMade++

		e.transition(state, types.StatusObserving)
		observation := e.observe(state, call, out)
		step.Observation = observation
		res.Steps = append(res.Steps, step)
		if !emit(Event{Type: EventObservation, Data: observation}) {
			return nil, ctx.Err()
		}

		history = append(history,
			gateway.Message{Role: gateway.RoleAssistant, Content: reply.Text},
			gateway.Message{Role: gateway.RoleTool, Content: observation},
		)
		state.StepsTaken++
	}

	logger.Warn("max steps reached", zap.Int("max_steps", state.MaxSteps))
	return e.finalize(ctx, state, res, synthesizeFromContext(state), types.StatusMaxStepsExhausted, emit, finish)
}

// observe folds one tool result into the evidence state and returns the
// observation text fed back to the model.
func (e *Engine) observe(state *types.AgentState, call *types.ToolCall, out *types.PluginOutput) string {
	if out.IsError() {
		// Failures become observations; the loop decides what to do next.
		obs := fmt.Sprintf("Tool %s failed: %s", call.Name, out.Error)
		state.ContextGathered = append(state.ContextGathered, obs)
		return obs
	}

	fragment := string(out.Data)
	state.ContextGathered = append(state.ContextGathered, fragment)

	added := MergeCitations(state, out.Data)

	// Evidence approaches 1 asymptotically; sourced observations count
	// for more than bare text.
	gain := 0.15
	if added > 0 {
		gain = 0.3
	}
	state.EvidenceScore += (1 - state.EvidenceScore) * gain

	return fmt.Sprintf("Tool %s returned: %s", call.Name, fragment)
}

// finalize applies the weak-evidence caveat policy and the stub filter,
// then finishes through the supplied terminal handler.
func (e *Engine) finalize(
	ctx context.Context,
	state *types.AgentState,
	res *Result,
	candidate string,
	status types.Status,
	emit func(Event) bool,
	finish func(types.Status, string) (*Result, error),
) (*Result, error) {
	answer := candidate
	if state.EvidenceScore >= e.config.WeakEvidenceMin && state.EvidenceScore < e.config.WeakEvidenceMax {
		caveated, err := e.caveatCall(ctx, state, res)
		switch {
		case err == nil:
			answer = caveated
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case types.IsTransient(err):
			// The hedged retry itself hit a transient provider problem.
			// Degrade to the template instead of surfacing the error.
			e.logger.Warn("caveat call failed transiently", zap.Error(err))
			answer = lowConfidenceAnswer
		default:
			// Fatal caveat failure: keep the unhedged candidate.
			e.logger.Warn("caveat call failed", zap.Error(err))
		}
	}

	denylist := make([]string, 0, len(stubAnswers)+len(e.config.StubAnswers))
	denylist = append(denylist, stubAnswers...)
	denylist = append(denylist, e.config.StubAnswers...)
	if isStub(answer, denylist) {
		e.logger.Debug("stub answer replaced", zap.String("stub", answer))
		answer = synthesizeFromContext(state)
	}

	if !emit(Event{Type: EventFinal, Data: answer}) {
		return nil, ctx.Err()
	}
	return finish(status, answer)
}

// caveatCall issues the single extra hedged final-answer exchange.
func (e *Engine) caveatCall(ctx context.Context, state *types.AgentState, res *Result) (string, error) {
	reply, err := e.sendMessage(ctx, &gateway.Request{
		SystemPrompt: e.prompts.System,
		Prompt:       caveatPrompt(e.prompts, state),
		Tier:         e.config.Tier,
	}, &res.TokenUsage)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply.Text), nil
}

// sendMessage is the one path to the gateway: pacing, token accounting
// and request metrics live here.
func (e *Engine) sendMessage(ctx context.Context, req *gateway.Request, usage *types.TokenUsage) (*gateway.Reply, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reply, err := e.gateway.SendMessage(ctx, req)
	if err != nil {
		status := "error"
		if types.IsTransient(err) {
			status = "transient"
		}
		e.collector.RecordLLMRequest(string(req.Tier), status, 0, 0)
		return nil, err
	}

	sample := types.TokenUsage{}
	if reply.Usage != nil {
		sample = *reply.Usage
	} else {
		// Provider reported nothing; estimate the prompt side at least.
		sample.PromptTokens = e.estimator.Count(req.SystemPrompt + req.Prompt)
		sample.CompletionTokens = e.estimator.Count(reply.Text)
		sample.TotalTokens = sample.PromptTokens + sample.CompletionTokens
	}
	usage.Add(sample)
	e.collector.RecordLLMRequest(string(req.Tier), "ok", sample.PromptTokens, sample.CompletionTokens)
	return reply, nil
}

func (e *Engine) transition(state *types.AgentState, to types.Status) {
	if state.Status != to {
		e.collector.RecordStateTransition(string(state.Status), string(to))
	}
	state.Status = to
}
