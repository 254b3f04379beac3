// Copyright (c) Reagent Authors.
// Licensed under the MIT License.

/*
Package reagent is the top-level entry point: it wires the reasoning
engine, the protected tool executor and the optional shared store into
one Agent that answers queries.

	a, err := reagent.New(
		reagent.WithGateway(gw),
		reagent.WithRegistry(reg),
	)
	res, err := a.ProcessQuery(ctx, "who is on the platform team?", reagent.QueryOptions{})

Configuration problems (no gateway, empty registry) surface once at
construction; per-query failures show up as a low evidence score or
empty sources, never as a transport error.
*/
package reagent

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaSui01/reagent/engine"
	"github.com/BaSui01/reagent/executor"
	"github.com/BaSui01/reagent/gateway"
	"github.com/BaSui01/reagent/internal/metrics"
	"github.com/BaSui01/reagent/internal/store"
	"github.com/BaSui01/reagent/plugin"
	"github.com/BaSui01/reagent/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures the agent created by New.
type Option func(*options)

type options struct {
	gateway         gateway.Gateway
	registry        plugin.Registry
	kv              store.KV
	logger          *zap.Logger
	collector       *metrics.Collector
	engineConfig    engine.Config
	executorConfig  executor.Config
	prompts         engine.Prompts
	directoryPlugin string
}

// WithGateway sets the LLM gateway. Required.
func WithGateway(gw gateway.Gateway) Option {
	return func(o *options) { o.gateway = gw }
}

// WithRegistry sets the plugin registry. Required, and it must hold at
// least one plugin.
func WithRegistry(reg plugin.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithStore sets the shared key-value store backing the rate limiter and
// result cache. Optional; without it in-process fallbacks apply.
func WithStore(kv store.KV) Option {
	return func(o *options) { o.kv = kv }
}

// WithLogger sets the zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCollector sets the prometheus metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithEngineConfig overrides the loop tunables.
func WithEngineConfig(cfg engine.Config) Option {
	return func(o *options) { o.engineConfig = cfg }
}

// WithExecutorConfig overrides the protection-policy tunables.
func WithExecutorConfig(cfg executor.Config) Option {
	return func(o *options) { o.executorConfig = cfg }
}

// WithPrompts overrides the engine's prompt templates.
func WithPrompts(p engine.Prompts) Option {
	return func(o *options) { o.prompts = p }
}

// WithDirectoryPlugin names the plugin that answers recognized team
// queries directly, bypassing the loop. Optional; without it every query
// goes through the loop.
func WithDirectoryPlugin(name string) Option {
	return func(o *options) { o.directoryPlugin = name }
}

// Agent answers queries through the reasoning loop, with a directory
// shortcut for query shapes a single plugin call can satisfy.
type Agent struct {
	engine          *engine.Engine
	executor        *executor.Executor
	registry        plugin.Registry
	retryCount      int
	maxSteps        int
	directoryPlugin string
	logger          *zap.Logger
}

// QueryOptions carries the per-query parameters of ProcessQuery.
type QueryOptions struct {
	UserID    string
	SessionID string
	History   []gateway.Message
	// MaxSteps overrides the configured step budget when positive.
	MaxSteps int
}

// New validates the wiring and constructs an Agent.
func New(opts ...Option) (*Agent, error) {
	o := &options{
		engineConfig:   engine.DefaultConfig(),
		executorConfig: executor.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.gateway == nil {
		return nil, errors.New("reagent: an LLM gateway is required")
	}
	if o.registry == nil || len(o.registry.List()) == 0 {
		return nil, errors.New("reagent: the plugin registry must hold at least one plugin")
	}
	if o.directoryPlugin != "" {
		if _, ok := o.registry.Get(o.directoryPlugin); !ok {
			return nil, fmt.Errorf("reagent: directory plugin %q is not registered", o.directoryPlugin)
		}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	exec := executor.New(o.registry, o.kv, o.executorConfig, o.collector, o.logger)
	eng := engine.New(o.gateway, exec, o.prompts, o.engineConfig, o.collector, o.logger)

	return &Agent{
		engine:          eng,
		executor:        exec,
		registry:        o.registry,
		retryCount:      o.engineConfig.RetryCount,
		maxSteps:        o.engineConfig.MaxSteps,
		directoryPlugin: o.directoryPlugin,
		logger:          o.logger.With(zap.String("component", "agent")),
	}, nil
}

// ProcessQuery answers one query, blocking until done. Recognized team
// queries answer through the directory plugin without entering the loop.
func (a *Agent) ProcessQuery(ctx context.Context, query string, opts QueryOptions) (*engine.Result, error) {
	if res, ok, err := a.tryShortcut(ctx, query, opts.UserID); err != nil {
		return nil, err
	} else if ok {
		return res, nil
	}

	state := types.NewAgentState(query, a.stepBudget(opts))
	return a.engine.Run(ctx, state, opts.History, opts.UserID)
}

// ProcessQueryStream answers one query as an incremental event stream.
// Shortcut-answerable queries stream their result as a single tool_call,
// observation, final, done sequence.
func (a *Agent) ProcessQueryStream(ctx context.Context, query string, opts QueryOptions) <-chan engine.Event {
	if res, ok, err := a.tryShortcut(ctx, query, opts.UserID); ok || err != nil {
		events := make(chan engine.Event)
		go func() {
			defer close(events)
			if err != nil {
				emitEvent(ctx, events, engine.Event{Type: engine.EventDone, Err: err})
				return
			}
			for _, ev := range []engine.Event{
				{Type: engine.EventToolCall, Data: a.directoryPlugin},
				{Type: engine.EventObservation, Data: res.Answer},
				{Type: engine.EventFinal, Data: res.Answer},
				{Type: engine.EventDone, Result: res},
			} {
				if !emitEvent(ctx, events, ev) {
					return
				}
			}
		}()
		return events
	}

	state := types.NewAgentState(query, a.stepBudget(opts))
	return a.engine.RunStream(ctx, state, opts.History, opts.UserID)
}

// WarmUp primes every registered plugin's optional on-load hook.
func (a *Agent) WarmUp(ctx context.Context) {
	metas := a.registry.List()
	names := make([]string, 0, len(metas))
	for _, m := range metas {
		names = append(names, m.Name)
	}
	a.executor.WarmUp(ctx, names)
}

// Metrics returns the per-plugin execution counters.
func (a *Agent) Metrics() map[string]executor.MetricsSnapshot {
	return a.executor.GetAllMetrics()
}

// tryShortcut answers recognized directory queries through the single
// matching plugin call. A failed shortcut call falls back to the loop
// rather than surfacing the failure.
func (a *Agent) tryShortcut(ctx context.Context, query, userID string) (*engine.Result, bool, error) {
	if a.directoryPlugin == "" {
		return nil, false, nil
	}
	match, intent, arg := engine.DetectTeamQuery(query)
	if !match {
		return nil, false, nil
	}

	a.logger.Debug("intent shortcut matched",
		zap.String("intent", intent),
		zap.String("arg", arg))

	args := map[string]any{"intent": intent}
	if arg != "" {
		args["value"] = arg
	}
	out, err := a.executor.Execute(ctx, a.directoryPlugin, args, userID, a.retryCount)
	if err != nil {
		return nil, false, err
	}
	if out.IsError() {
		a.logger.Warn("directory shortcut failed, falling back to loop",
			zap.String("intent", intent),
			zap.String("error", out.Error))
		return nil, false, nil
	}

	state := types.NewAgentState(query, 1)
	answer := string(out.Data)
	added := engine.MergeCitations(state, out.Data)
	score := 0.9
	if added == 0 {
		score = 0.7
	}

	return &engine.Result{
		TraceID:       uuid.New(),
		Answer:        answer,
		Sources:       state.Sources,
		EvidenceScore: score,
		Status:        types.StatusFinalAnswer,
		ToolCallsMade: 1,
	}, true, nil
}

func (a *Agent) stepBudget(opts QueryOptions) int {
	if opts.MaxSteps > 0 {
		return opts.MaxSteps
	}
	return a.maxSteps
}

func emitEvent(ctx context.Context, ch chan<- engine.Event, ev engine.Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
