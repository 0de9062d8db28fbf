package cache

import (
	"context"
)

const (
	// RuleSetCacheContextKey is the context key for the compiled ignore rule cache,
	// shared between the snapshot scanner and the differ within a single run.
	RuleSetCacheContextKey ctxKey = iota

	ruleSetCacheName = "ruleSet"
)

type ctxKey byte

// ContextWithRuleSetCache returns a context carrying a fresh rule-set cache.
func ContextWithRuleSetCache[V any](ctx context.Context) context.Context {
	return context.WithValue(ctx, RuleSetCacheContextKey, NewCache[V](ruleSetCacheName))
}

// RuleSetCacheFromContext returns the rule-set cache from the context.
// If the context does not carry one, it creates a new instance.
func RuleSetCacheFromContext[V any](ctx context.Context) *Cache[V] {
	if c, ok := ctx.Value(RuleSetCacheContextKey).(*Cache[V]); ok && c != nil {
		return c
	}

	return NewCache[V](ruleSetCacheName)
}
