package template

import "github.com/aymerick/raymond/ast"

// helperUses collects, per possible helper name, the parameter counts of its
// call sites in program
func helperUses(program *ast.Program) map[string]map[int]bool {
	uses := make(map[string]map[int]bool)
	walkNode(program, uses)
	return uses
}

func walkNode(node ast.Node, uses map[string]map[int]bool) {
	switch n := node.(type) {
	case *ast.Program:
		if n == nil {
			return
		}
		for _, stmt := range n.Body {
			walkNode(stmt, uses)
		}
	case *ast.MustacheStatement:
		walkExpression(n.Expression, uses)
	case *ast.BlockStatement:
		walkExpression(n.Expression, uses)
		walkNode(n.Program, uses)
		walkNode(n.Inverse, uses)
	case *ast.PartialStatement:
		walkNode(n.Name, uses)
		for _, param := range n.Params {
			walkNode(param, uses)
		}
		walkNode(n.Hash, uses)
	case *ast.SubExpression:
		walkExpression(n.Expression, uses)
	case *ast.Expression:
		walkExpression(n, uses)
	case *ast.Hash:
		if n == nil {
			return
		}
		for _, pair := range n.Pairs {
			walkNode(pair.Val, uses)
		}
	}
}

func walkExpression(expr *ast.Expression, uses map[string]map[int]bool) {
	if expr == nil {
		return
	}

	if name := expr.HelperName(); name != "" {
		if uses[name] == nil {
			uses[name] = make(map[int]bool)
		}
		uses[name][len(expr.Params)] = true
	}

	for _, param := range expr.Params {
		walkNode(param, uses)
	}
	walkNode(expr.Hash, uses)
}
