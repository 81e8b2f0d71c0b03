// Package exprfilter serves filters defined as CEL expressions.
//
// Expressions live in a Store, either in memory or in a Redis hash where each
// field is a filter name. The Resolver is registered as a dynamic filter; the
// first time a stored name is requested it registers a static filter for it,
// and the registry serves that name from the static tier from then on.
//
// Example usage:
//
//	// HSET render:filters shout 'value + "!"'
//	store := exprfilter.NewRedisStore(redisClient, "render:filters")
//
//	reg := filter.NewRegistry()
//	reg.RegisterResolver(exprfilter.NewResolver(store, cel.NewEvaluator(), reg, time.Second, logger))
//
//	out, err := reg.Apply("shout", "hey") // "hey!"
package exprfilter
