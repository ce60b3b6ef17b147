package parser

import (
	"github.com/cinder-lang/cinder/internal/lexer"
)

// delimitedConfig drives parseDelimited, the shared loop for every
// comma-separated, close-delimited list in the grammar.
type delimitedConfig struct {
	Closing   lexer.TokenType
	Separator lexer.TokenType

	AllowEmpty    bool
	AllowTrailing bool

	MissingElementMsg   string
	MissingSeparatorMsg string
}

// parseDelimited parses items until Closing, expecting Separator between
// them. On entry curTok must be the first token of the first element (or
// Closing when AllowEmpty); on success curTok is the Closing token.
func parseDelimited[T any](p *Parser, cfg delimitedConfig, parseItem func(idx int) (T, bool)) ([]T, bool) {
	var items []T

	if cfg.Separator == "" {
		cfg.Separator = lexer.COMMA
	}
	if cfg.Closing == "" {
		panic("parseDelimited requires a closing token")
	}

	missingElement := func(span lexer.Span) {
		msg := cfg.MissingElementMsg
		if msg == "" {
			msg = "expected element"
		}
		p.reportError(msg, span)
	}

	if p.curTok.Type == cfg.Closing {
		if cfg.AllowEmpty {
			return items, true
		}
		missingElement(p.curTok.Span)
		return items, false
	}

	for {
		item, ok := parseItem(len(items))
		if !ok {
			return items, false
		}
		items = append(items, item)

		switch p.peekTok.Type {
		case cfg.Separator:
			p.nextToken() // move to separator
			p.nextToken() // move to next potential element

			if p.curTok.Type == cfg.Closing {
				if cfg.AllowTrailing {
					return items, true
				}
				missingElement(p.curTok.Span)
				return items, false
			}
			continue

		case cfg.Closing:
			p.nextToken()
			return items, true

		default:
			msg := cfg.MissingSeparatorMsg
			if msg == "" {
				msg = "expected '" + string(cfg.Separator) + "' or '" + string(cfg.Closing) + "'"
			}
			p.reportError(msg, p.peekTok.Span)
			return items, false
		}
	}
}
