package lsp

import (
	"encoding/json"
	"sort"

	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/types"
)

// CompletionParams represents completion request parameters.
type CompletionParams struct {
	TextDocumentPositionParams
	Context *CompletionContext `json:"context,omitempty"`
}

type CompletionContext struct {
	TriggerKind      int    `json:"triggerKind"`
	TriggerCharacter string `json:"triggerCharacter,omitempty"`
}

// TextDocumentPositionParams represents a position in a text document.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// CompletionList represents a list of completion items.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

type CompletionItem struct {
	Label  string `json:"label"`
	Kind   int    `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

const (
	completionKindFunction = 3
	completionKindVariable = 6
	completionKindKeyword  = 14
	completionKindTypeName = 22 // Struct, the closest LSP kind for a builtin type
)

var keywords = []string{
	"fn", "let", "return", "print", "if", "else", "while", "true", "false",
}

func (s *Server) handleCompletion(msg *jsonrpcMessage) *jsonrpcMessage {
	var params CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return replyError(msg, codeInvalidParams, "invalid params: %v", err)
	}

	s.mu.RLock()
	doc, ok := s.Documents[params.TextDocument.URI]
	s.mu.RUnlock()

	if !ok {
		return reply(msg, CompletionList{Items: []CompletionItem{}})
	}
	return reply(msg, CompletionList{Items: getCompletions(doc, params.Position)})
}

// getCompletions lists keywords, builtin types, functions and the
// parameters and locals visible at pos.
func getCompletions(doc *Document, pos Position) []CompletionItem {
	var items []CompletionItem

	for _, kw := range keywords {
		items = append(items, CompletionItem{Label: kw, Kind: completionKindKeyword, Detail: "keyword"})
	}
	for _, name := range types.PrimitiveNames() {
		items = append(items, CompletionItem{Label: name, Kind: completionKindTypeName, Detail: "builtin type"})
	}

	res := doc.Result
	if res == nil || res.Program == nil || res.Symbols == nil {
		return items
	}

	for sym := range res.Symbols.All() {
		if sym.Function {
			items = append(items, CompletionItem{
				Label:  sym.Name,
				Kind:   completionKindFunction,
				Detail: formatSymbol(sym),
			})
		}
	}

	offset := positionToOffset(doc.Content, pos)
	for _, sym := range visibleLocals(res.Program, res.Symbols, offset) {
		items = append(items, CompletionItem{
			Label:  sym.Name,
			Kind:   completionKindVariable,
			Detail: formatSymbol(sym),
		})
	}
	return items
}

// visibleLocals returns the parameters and locals of the function around
// offset that are declared before it, innermost binding per name.
func visibleLocals(prog *ast.Program, symbols *types.SymbolTable, offset int) []*types.Symbol {
	var fn *ast.FnDecl
	for _, f := range prog.Functions() {
		if span := f.Span(); offset >= span.Start && offset <= span.End {
			fn = f
			break
		}
	}
	if fn == nil {
		return nil
	}

	byName := make(map[string]*types.Symbol)
	declare := func(name *ast.Name) {
		if name == nil || name.Span().End > offset {
			return
		}
		if sym := symbols.Get(name.Symbol); sym != nil {
			byName[sym.Name] = sym
		}
	}

	for _, p := range fn.Params {
		declare(p.Name)
	}
	if fn.Body != nil {
		ast.Walk(fn.Body, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.Block:
				// Locals of a block are out of scope outside its braces.
				span := n.Span()
				return offset >= span.Start && offset <= span.End
			case *ast.LetStmt:
				declare(n.Name)
			}
			return true
		})
	}

	out := make([]*types.Symbol, 0, len(byName))
	for _, sym := range byName {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
