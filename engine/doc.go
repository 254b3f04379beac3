// Copyright (c) Reagent Authors.
// Licensed under the MIT License.

/*
Package engine drives the bounded think/act/observe reasoning loop.

Each invocation owns one AgentState and runs strictly sequentially: ask
the model what to do next, dispatch any requested tool call through the
protected executor, fold the observation back into the evidence state,
and repeat until a final answer, the step budget, or a fatal gateway
error ends the loop. A streaming variant delivers the same sequence as
incremental events.

Model output is untrusted throughout: action parsing, citation merging
and the stub-answer filter all degrade gracefully instead of erroring.
*/
package engine
