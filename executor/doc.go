// Copyright (c) Reagent Authors.
// Licensed under the MIT License.

/*
Package executor is the sole path through which a named plugin is invoked.
It applies a uniform resource-protection policy regardless of plugin
identity: registry lookup, circuit breaking, per-user rate limiting, auth
and input validation, result caching, timed execution with retries, and
per-plugin metrics.

Ordinary failures never surface as Go errors — every call returns a
*types.PluginOutput with Success=false, a human-readable error and
structured metadata. The only error Execute can return is context
cancellation, which always propagates untouched.

The shared key-value store (rate-limit counters, result cache) is
optional: with a nil store the rate limiter falls back to an in-process
sliding window and the cache is disabled.
*/
package executor
