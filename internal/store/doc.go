// Copyright (c) Reagent Authors.
// Licensed under the MIT License.

/*
Package store provides the shared key-value store consumed by the tool
executor for rate-limit counters and the result cache.

The KV interface is deliberately narrow (Incr/Expire/Get/SetEx) so the
executor does not depend on redis directly. Its absence — a nil KV — must
degrade the executor to in-process fallbacks, never crash the system.

Redis is the production implementation, built on go-redis with a
connection check at construction, nil-value sentinel on misses, and zap
logging on operational errors.
*/
package store
