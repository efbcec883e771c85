package parser

import (
	"github.com/vivscript/vivc/internal/lexer"
)

type delimitedConfig struct {
	Closing   lexer.TokenType
	Separator lexer.TokenType

	// Descriptions used in "expected ..., found ..." diagnostics.
	MissingElementMsg   string
	MissingSeparatorMsg string
}

type delimitedResult[T any] struct {
	Items []T
}

// parseDelimited parses separator-delimited items up to cfg.Closing.
// curTok must be on the first item; on success curTok is the closing token.
// Trailing separators are rejected.
func parseDelimited[T any](p *Parser, cfg delimitedConfig, parseItem func(idx int) (T, bool)) (delimitedResult[T], bool) {
	var result delimitedResult[T]

	if cfg.Separator == "" {
		cfg.Separator = lexer.COMMA
	}

	if cfg.Closing == "" {
		panic("parseDelimited requires a closing token")
	}

	element := cfg.MissingElementMsg
	if element == "" {
		element = "element"
	}

	for {
		if p.curTok.Type == cfg.Closing {
			p.reportExpected(element, "", p.curTok)
			return result, false
		}

		item, ok := parseItem(len(result.Items))
		if !ok {
			return result, false
		}
		result.Items = append(result.Items, item)

		switch p.peekTok.Type {
		case cfg.Separator:
			p.nextToken() // move to separator
			p.nextToken() // move to next element
		case cfg.Closing:
			p.nextToken()
			return result, true
		default:
			msg := cfg.MissingSeparatorMsg
			if msg == "" {
				msg = "'" + string(cfg.Separator) + "' or '" + string(cfg.Closing) + "'"
			}
			p.reportExpected(msg, "", p.peekTok)
			return result, false
		}
	}
}
