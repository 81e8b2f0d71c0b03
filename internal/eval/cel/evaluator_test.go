package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateFilter(t *testing.T) {
	evaluator := NewEvaluator()
	ctx := context.Background()

	tests := []struct {
		name       string
		expression string
		args       []interface{}
		expected   interface{}
	}{
		{"concat", `value + "!"`, []interface{}{"hey"}, "hey!"},
		{"size", `size(value)`, []interface{}{"abcd"}, int64(4)},
		{"args", `args.size()`, []interface{}{"x", 1, 2}, int64(2)},
		{"conditional", `value.startsWith("a") ? "yes" : "no"`, []interface{}{"abc"}, "yes"},
		{"no args", `value == null`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := evaluator.EvaluateFilter(ctx, tt.expression, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestEvaluate_CachesPrograms(t *testing.T) {
	evaluator := NewEvaluator()

	_, err := evaluator.EvaluateFilter(context.Background(), `value + "?"`, "a")
	require.NoError(t, err)
	assert.Len(t, evaluator.cache, 1)

	_, err = evaluator.EvaluateFilter(context.Background(), `value + "?"`, "b")
	require.NoError(t, err)
	assert.Len(t, evaluator.cache, 1)

	evaluator.ClearCache()
	assert.Empty(t, evaluator.cache)
}

func TestEvaluate_Errors(t *testing.T) {
	evaluator := NewEvaluator()

	_, err := evaluator.EvaluateFilter(context.Background(), `value +`, "a")
	assert.ErrorContains(t, err, "failed to compile expression")

	_, err = evaluator.EvaluateFilter(context.Background(), `value / 0`, 1)
	assert.ErrorContains(t, err, "evaluation failed")
}

func TestValidateExpression(t *testing.T) {
	evaluator := NewEvaluator()

	assert.NoError(t, evaluator.ValidateExpression(`value + "!"`))
	assert.Error(t, evaluator.ValidateExpression(`value +`))
	assert.Error(t, evaluator.ValidateExpression(`unknown_var`))
}
