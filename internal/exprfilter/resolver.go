package exprfilter

import (
	"context"
	"fmt"
	"time"

	"github.com/aescanero/dago-node-render/internal/eval/cel"
	"github.com/aescanero/dago-node-render/internal/filter"
	"go.uber.org/zap"
)

// Registrar is the part of the registry the resolver writes to
type Registrar interface {
	Register(name string, callback interface{})
}

// Resolver is a dynamic filter that turns stored CEL expressions into static
// filters. It registers the expression under the requested name and declines
// the call, so the registry promotes the name to its static tier.
type Resolver struct {
	store     Store
	evaluator *cel.Evaluator
	registrar Registrar
	timeout   time.Duration
	logger    *zap.Logger
}

// NewResolver creates an expression filter resolver
func NewResolver(store Store, evaluator *cel.Evaluator, registrar Registrar, timeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		store:     store,
		evaluator: evaluator,
		registrar: registrar,
		timeout:   timeout,
		logger:    logger,
	}
}

// Resolve looks name up in the store
func (r *Resolver) Resolve(name string, args ...interface{}) (filter.Result, error) {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	expression, found, err := r.store.Lookup(ctx, name)
	if err != nil {
		return filter.NotHandled, err
	}
	if !found {
		return filter.NotHandled, nil
	}

	if err := r.evaluator.ValidateExpression(expression); err != nil {
		return filter.NotHandled, fmt.Errorf("invalid expression for filter %q: %w", name, err)
	}

	r.registrar.Register(name, r.filterFor(expression))

	r.logger.Info("registered expression filter",
		zap.String("filter", name),
		zap.String("expression", expression),
	)

	return filter.NotHandled, nil
}

// filterFor builds the classic filter evaluating expression
func (r *Resolver) filterFor(expression string) filter.Func {
	return func(args ...interface{}) (interface{}, error) {
		plain := make([]interface{}, len(args))
		for i, arg := range args {
			if m, ok := arg.(filter.Markup); ok {
				plain[i] = string(m)
				continue
			}
			plain[i] = arg
		}

		return r.evaluator.EvaluateFilter(context.Background(), expression, plain...)
	}
}
