// Package cel provides a CEL (Common Expression Language) evaluator for expression filters.
//
// CEL is a non-Turing complete expression language that provides fast, safe evaluation
// of small value transformations defined outside the binary.
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	result, err := evaluator.EvaluateFilter(ctx, `value + "!"`, "hello")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	shouted := result.(string) // "hello!"
//
// Expressions see two variables:
//   - value: the filtered value (first filter argument)
//   - args: the remaining filter arguments as a list
//
// Supported operations:
//   - Comparisons: ==, !=, <, <=, >, >=
//   - Boolean logic: &&, ||, !
//   - String operations: contains, startsWith, endsWith, matches
//   - Arithmetic: +, -, *, /, %
//   - List operations: in, size
//   - Conditionals: cond ? a : b
package cel
