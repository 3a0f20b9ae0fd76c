package brisk

// TokenKind enumerates the lexical categories the lexer produces. The
// lexer/parser pair is a routine, out-of-scope-for-deep-design
// component per the specification; this is a conventional
// recursive-descent token set.
type TokenKind uint8

const (
	TEOF TokenKind = iota
	TIdent
	TInt
	TFloat
	TString

	// keywords
	TFn
	TIf
	TElif
	TElse
	TWhile
	TFor
	TIn
	TMatch
	TBreak
	TContinue
	TReturn
	TDefer
	TTrue
	TFalse
	TNil
	TAnd
	TOr
	TNot

	// punctuation / operators
	TLParen
	TRParen
	TLBrace
	TRBrace
	TLBracket
	TRBracket
	TComma
	TColon
	TSemicolon
	TDotDot
	TDot
	TArrow // =>
	TAmp   // &

	TAssignDecl  // :=
	TAssignConst // ::
	TAssign      // =

	TPlus
	TMinus
	TStar
	TSlash
	TPercent

	TEq
	TNeq
	TLt
	TLte
	TGt
	TGte
	TBang

	TAt // @
)

var keywords = map[string]TokenKind{
	"fn": TFn, "if": TIf, "elif": TElif, "else": TElse,
	"while": TWhile, "for": TFor, "in": TIn, "match": TMatch,
	"break": TBreak, "continue": TContinue, "return": TReturn,
	"defer": TDefer, "true": TTrue, "false": TFalse, "nil": TNil,
	"and": TAnd, "or": TOr, "not": TNot,
}

// Token is one lexical unit with its source position (1-based line,
// 0-based column internally; rendered 1-based by error formatting).
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Col    int
}
