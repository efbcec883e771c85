package ast

// Children returns the direct children of node in evaluation order.
// Absent optional children are left out.
func Children(node Node) []Node {
	var out []Node
	add := func(n Node) {
		if n != nil {
			out = append(out, n)
		}
	}

	switch n := node.(type) {
	case *Program:
		for _, decl := range n.Decls {
			add(decl)
		}

	case *FnDecl:
		if n.Name != nil {
			add(n.Name)
		}
		for _, p := range n.Params {
			add(p)
		}
		if n.ReturnType != nil {
			add(n.ReturnType)
		}
		if n.Body != nil {
			add(n.Body)
		}

	case *Param:
		if n.Name != nil {
			add(n.Name)
		}
		if n.Type != nil {
			add(n.Type)
		}

	case *Block:
		for _, stmt := range n.Stmts {
			add(stmt)
		}

	case *LetStmt:
		if n.Value != nil {
			add(n.Value)
		}
		if n.Name != nil {
			add(n.Name)
		}
		if n.Type != nil {
			add(n.Type)
		}

	case *ReturnStmt:
		if n.Value != nil {
			add(n.Value)
		}

	case *PrintStmt:
		add(n.Value)

	case *ExprStmt:
		add(n.Expr)

	case *IfStmt:
		add(n.Cond)
		if n.Then != nil {
			add(n.Then)
		}
		if n.Else != nil {
			add(n.Else)
		}

	case *WhileStmt:
		add(n.Cond)
		if n.Body != nil {
			add(n.Body)
		}

	case *UnaryExpr:
		add(n.Operand)

	case *BinaryExpr:
		add(n.Left)
		add(n.Right)

	case *CallExpr:
		add(n.Callee)
		for _, arg := range n.Args {
			add(arg)
		}

	case *AssignExpr:
		if n.Target != nil {
			add(n.Target)
		}
		add(n.Value)
	}

	return out
}

// Walk traverses the AST starting from node, calling fn for each node.
// If fn returns false, Walk stops traversing that branch.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Walk(child, fn)
	}
}

// Inspect returns the innermost node whose span contains the byte offset.
func Inspect(root Node, offset int) Node {
	var found Node
	Walk(root, func(n Node) bool {
		span := n.Span()
		if offset < span.Start || offset >= span.End {
			return false
		}
		found = n
		return true
	})
	return found
}
