// Copyright (c) Reagent Authors.
// Licensed under the MIT License.

/*
Package types holds the shared data model of the reasoning engine.

types is the lowest-level package with no internal dependencies, so the
engine, executor, gateway and plugin packages can all agree on the same
contracts without import cycles.

# Core types

  - AgentState        — per-invocation loop state (query, gathered context,
    citations, evidence score, final answer, status)
  - ToolCall          — one parsed tool invocation request
  - PluginOutput      — result of a protected tool execution, with metadata
  - Source            — one citation record
  - TokenUsage        — prompt/completion token accounting
  - Error / ErrorCode — structured error taxonomy with transient marking
*/
package types
