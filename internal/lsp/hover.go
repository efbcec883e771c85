package lsp

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/types"
)

// HoverParams represents hover request parameters.
type HoverParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// Hover represents hover information.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// MarkupContent represents markup content.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func (s *Server) handleHover(msg *jsonrpcMessage) *jsonrpcMessage {
	var params HoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return replyError(msg, codeInvalidParams, "invalid params: %v", err)
	}

	s.mu.RLock()
	doc, ok := s.Documents[params.TextDocument.URI]
	s.mu.RUnlock()
	if !ok {
		return reply(msg, nil)
	}

	hover := getHover(doc, params.Position)
	if hover == nil {
		return reply(msg, nil)
	}
	return reply(msg, hover)
}

// getHover describes the identifier under pos.
func getHover(doc *Document, pos Position) *Hover {
	res := doc.Result
	if res == nil || res.Program == nil || res.Symbols == nil {
		return nil
	}

	offset := positionToOffset(doc.Content, pos)
	id, expr, node := findIdentifierAt(res.Program, offset)
	sym := res.Symbols.Get(id)
	if sym == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("```viv\n")
	b.WriteString(formatSymbol(sym))
	b.WriteString("\n```")

	var notes []string
	if sym.Kind == types.Borrowed {
		notes = append(notes, "borrowed parameter")
	}
	if expr != nil && expr.Disposition() != ast.Unannotated {
		notes = append(notes, "value flows as "+expr.Disposition().String())
	}
	if len(notes) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(notes, ", "))
	}

	r := spanRange(doc.Content, node.Span().Diag())
	return &Hover{
		Contents: MarkupContent{Kind: "markdown", Value: b.String()},
		Range:    &r,
	}
}

// findIdentifierAt finds the identifier use or binding name at offset.
// expr is set only for uses.
func findIdentifierAt(prog *ast.Program, offset int) (types.SymbolID, ast.Expr, ast.Node) {
	switch n := ast.Inspect(prog, offset).(type) {
	case *ast.Ident:
		return n.Symbol, n, n
	case *ast.Name:
		return n.Symbol, nil, n
	}
	return types.NoSymbol, nil, nil
}

func formatSymbol(sym *types.Symbol) string {
	if fn, ok := sym.Type.(*types.Function); ok && sym.Function {
		ret := types.Type(types.TypeUnit)
		if fn.Return != nil {
			ret = fn.Return
		}
		return fmt.Sprintf("fn %s(%s) -> %s", sym.Name, formatParams(fn.Params), ret)
	}
	if sym.Type == nil {
		return sym.Name
	}
	return fmt.Sprintf("%s: %s", sym.Name, sym.Type)
}

func formatParams(params []types.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// positionToOffset converts an LSP position to a byte offset. Characters
// are counted in runes.
func positionToOffset(content string, pos Position) int {
	line, offset := 0, 0
	for line < pos.Line {
		i := strings.IndexByte(content[offset:], '\n')
		if i < 0 {
			return len(content)
		}
		offset += i + 1
		line++
	}

	for range pos.Character {
		if offset >= len(content) || content[offset] == '\n' {
			break
		}
		_, size := utf8.DecodeRuneInString(content[offset:])
		offset += size
	}
	return offset
}

// offsetToPosition converts a byte offset to an LSP position.
func offsetToPosition(content string, offset int) Position {
	offset = min(max(offset, 0), len(content))

	var pos Position
	lineStart := 0
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			pos.Line++
			lineStart = i + 1
		}
	}
	pos.Character = utf8.RuneCountInString(content[lineStart:offset])
	return pos
}
