package lsp

import (
	"encoding/json"
)

// DefinitionParams represents definition request parameters.
type DefinitionParams struct {
	TextDocumentPositionParams
}

// Location represents a location in a document.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

func (s *Server) handleDefinition(msg *jsonrpcMessage) *jsonrpcMessage {
	var params DefinitionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return replyError(msg, codeInvalidParams, "invalid params: %v", err)
	}

	s.mu.RLock()
	doc, ok := s.Documents[params.TextDocument.URI]
	s.mu.RUnlock()
	if !ok {
		return reply(msg, nil)
	}

	location := findDefinition(doc, params.Position)
	if location == nil {
		return reply(msg, nil)
	}
	return reply(msg, location)
}

// findDefinition returns the declaring name of the symbol under pos.
func findDefinition(doc *Document, pos Position) *Location {
	res := doc.Result
	if res == nil || res.Program == nil || res.Symbols == nil {
		return nil
	}

	id, _, _ := findIdentifierAt(res.Program, positionToOffset(doc.Content, pos))
	sym := res.Symbols.Get(id)
	if sym == nil {
		return nil
	}

	return &Location{
		URI:   doc.URI,
		Range: spanRange(doc.Content, sym.Span.Diag()),
	}
}
