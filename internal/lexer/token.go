package lexer

// TokenType represents the type of a token
type TokenType string

// Span represents the source location of a token
type Span struct {
	Filename string // optional source filename for diagnostics
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Start    int    // index in []rune of the original input
	End      int    // exclusive end index
}

// Token represents a lexical token. Tokens are immutable once produced.
type Token struct {
	Type  TokenType
	Raw   string // exact runes from source
	Value string // decoded value (for strings, escapes resolved; Raw otherwise)
	Span  Span
}

// Token type constants
const (
	// Special tokens
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers and literals
	IDENT      TokenType = "IDENT"  // add, foobar, x, y, ...
	INT        TokenType = "INT"    // 1343456
	FLOAT      TokenType = "FLOAT"  // 3.14, 1e9
	STRING     TokenType = "STRING" // "hello"
	UNDERSCORE TokenType = "_"      // wildcard in patterns

	// Operators
	ASSIGN   TokenType = "="
	FATARROW TokenType = "=>"
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	BANG     TokenType = "!"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	AND      TokenType = "&&"
	OR       TokenType = "||"
	PIPE     TokenType = "|"
	QUESTION TokenType = "?"

	LT     TokenType = "<"
	GT     TokenType = ">"
	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LE     TokenType = "<="
	GE     TokenType = ">="

	// Delimiters
	COMMA      TokenType = ","
	SEMICOLON  TokenType = ";"
	COLON      TokenType = ":"
	COLONCOLON TokenType = "::"
	DOT        TokenType = "."
	DOTDOT     TokenType = ".."
	AT         TokenType = "@"

	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"

	ARROW TokenType = "->"

	// Keywords
	LET      TokenType = "LET"
	MUT      TokenType = "MUT"
	FN       TokenType = "FN"
	STRUCT   TokenType = "STRUCT"
	ENUM     TokenType = "ENUM"
	IF       TokenType = "IF"
	ELSE     TokenType = "ELSE"
	MATCH    TokenType = "MATCH"
	WHILE    TokenType = "WHILE"
	FOR      TokenType = "FOR"
	IN       TokenType = "IN"
	BREAK    TokenType = "BREAK"
	CONTINUE TokenType = "CONTINUE"
	RETURN   TokenType = "RETURN"
	TRUE     TokenType = "TRUE"
	FALSE    TokenType = "FALSE"
	WHERE    TokenType = "WHERE"

	// Trivia tokens (comments, whitespace, newlines)
	LINE_COMMENT  TokenType = "LINE_COMMENT"  // //
	BLOCK_COMMENT TokenType = "BLOCK_COMMENT" // /* */
	DOC_COMMENT   TokenType = "DOC_COMMENT"   // /// or /** */
	WHITESPACE    TokenType = "WHITESPACE"    // spaces, tabs
	NEWLINE       TokenType = "NEWLINE"       // \n, \r\n
)

// keywords is the static keyword table; identifier dispatch is a single map
// lookup, never an if-chain.
var keywords = map[string]TokenType{
	"let":      LET,
	"mut":      MUT,
	"fn":       FN,
	"struct":   STRUCT,
	"enum":     ENUM,
	"if":       IF,
	"else":     ELSE,
	"match":    MATCH,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
	"true":     TRUE,
	"false":    FALSE,
	"where":    WHERE,
}

// LookupIdent checks if the identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsTrivia reports whether the token type is whitespace or a comment.
func IsTrivia(tt TokenType) bool {
	switch tt {
	case LINE_COMMENT, BLOCK_COMMENT, DOC_COMMENT, WHITESPACE, NEWLINE:
		return true
	default:
		return false
	}
}
