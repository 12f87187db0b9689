package seqlexer

import "github.com/martinemde/diagrams/syntax"

// Kind identifies the type of a sequence-diagram token.
type Kind int

const (
	EOF Kind = iota
	Newline
	Identifier
	String
	Text // rest of the line after ':' (trimmed)

	// Message arrows, longest first.
	DottedArrow // -->>
	SolidArrow  // ->>
	DottedCross // --x
	DottedOpen  // --)
	DottedLine  // -->
	SolidCross  // -x
	SolidOpen   // -)
	SolidLine   // ->

	Colon
	Comma
	Semicolon
	Plus
	Minus
	LParen
	RParen
	Punct // any other printable character

	KwSequenceDiagram
	KwParticipant
	KwActor
	KwNote
	KwLoop
	KwAlt
	KwElse
	KwOpt
	KwPar
	KwAnd
	KwCritical
	KwOption
	KwBreak
	KwEnd
	KwAutonumber
	KwActivate
	KwDeactivate
	KwLeft
	KwRight
	KwOver
	KwAs
	KwOf
	KwRect
	KwRgb
	KwRgba
	KwLink
	KwLinks
	KwProperties
	KwCreate
	KwDestroy
	KwBox
	KwTitle

	kindCount
)

var kindNames = [...]string{
	EOF:               "EOF",
	Newline:           "NEWLINE",
	Identifier:        "IDENTIFIER",
	String:            "STRING",
	Text:              "TEXT",
	DottedArrow:       "DOTTED_ARROW",
	SolidArrow:        "SOLID_ARROW",
	DottedCross:       "DOTTED_CROSS",
	DottedOpen:        "DOTTED_OPEN",
	DottedLine:        "DOTTED_LINE",
	SolidCross:        "SOLID_CROSS",
	SolidOpen:         "SOLID_OPEN",
	SolidLine:         "SOLID_LINE",
	Colon:             "COLON",
	Comma:             "COMMA",
	Semicolon:         "SEMICOLON",
	Plus:              "PLUS",
	Minus:             "MINUS",
	LParen:            "LPAREN",
	RParen:            "RPAREN",
	Punct:             "PUNCT",
	KwSequenceDiagram: "SEQUENCE_DIAGRAM",
	KwParticipant:     "PARTICIPANT",
	KwActor:           "ACTOR",
	KwNote:            "NOTE",
	KwLoop:            "LOOP",
	KwAlt:             "ALT",
	KwElse:            "ELSE",
	KwOpt:             "OPT",
	KwPar:             "PAR",
	KwAnd:             "AND",
	KwCritical:        "CRITICAL",
	KwOption:          "OPTION",
	KwBreak:           "BREAK",
	KwEnd:             "END",
	KwAutonumber:      "AUTONUMBER",
	KwActivate:        "ACTIVATE",
	KwDeactivate:      "DEACTIVATE",
	KwLeft:            "LEFT",
	KwRight:           "RIGHT",
	KwOver:            "OVER",
	KwAs:              "AS",
	KwOf:              "OF",
	KwRect:            "RECT",
	KwRgb:             "RGB",
	KwRgba:            "RGBA",
	KwLink:            "LINK",
	KwLinks:           "LINKS",
	KwProperties:      "PROPERTIES",
	KwCreate:          "CREATE",
	KwDestroy:         "DESTROY",
	KwBox:             "BOX",
	KwTitle:           "TITLE",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsArrow reports whether k is one of the eight message arrows.
func (k Kind) IsArrow() bool { return k >= DottedArrow && k <= SolidLine }

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k >= KwSequenceDiagram && k < kindCount }

// IsWord reports whether k was scanned as an identifier run.
func (k Kind) IsWord() bool { return k == Identifier || k.IsKeyword() }

// Token is a single lexical unit. Value is the raw lexeme, except for Text
// where it is the trimmed rest of the line.
type Token struct {
	Kind  Kind
	Value string
	syntax.Span
}

func (t Token) String() string {
	if t.Value == "" || t.Kind == Newline {
		return t.Kind.String()
	}
	return t.Kind.String() + "(" + t.Value + ")"
}

var keywords = map[string]Kind{
	"sequenceDiagram": KwSequenceDiagram,
	"participant":     KwParticipant,
	"actor":           KwActor,
	"note":            KwNote,
	"loop":            KwLoop,
	"alt":             KwAlt,
	"else":            KwElse,
	"opt":             KwOpt,
	"par":             KwPar,
	"and":             KwAnd,
	"critical":        KwCritical,
	"option":          KwOption,
	"break":           KwBreak,
	"end":             KwEnd,
	"autonumber":      KwAutonumber,
	"activate":        KwActivate,
	"deactivate":      KwDeactivate,
	"left":            KwLeft,
	"right":           KwRight,
	"over":            KwOver,
	"as":              KwAs,
	"of":              KwOf,
	"rect":            KwRect,
	"rgb":             KwRgb,
	"rgba":            KwRgba,
	"link":            KwLink,
	"links":           KwLinks,
	"properties":      KwProperties,
	"create":          KwCreate,
	"destroy":         KwDestroy,
	"box":             KwBox,
	"title":           KwTitle,
}

// LookupKeyword returns the keyword kind for ident, if any. Matching is
// exact: a keyword that is a prefix of an identifier never matches.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
