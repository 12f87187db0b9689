package lexer

import (
	"strings"

	"github.com/martinemde/diagrams/syntax"
)

// Kind identifies the type of a lexical token.
type Kind int

const (
	EOF        Kind = iota
	Newline         // \n
	Identifier      // [A-Za-z0-9_]+ (unicode letters and digits allowed)
	String          // "..." or '...'

	// Edge punctuation. Runs are matched greedily, then the suffix decides.
	Arrow         // -->, ->, --->
	Line          // ---, --, -
	CircleEdge    // --o
	CrossEdge     // --x
	DottedArrow   // -.->, ..>
	DottedLine    // -.-, ..
	ThickArrow    // ==>
	ThickLine     // ===, ==
	InvisibleLine // ~~~

	// Shape openers.
	SubroutineStart       // [[
	CylinderStart         // [(
	ParallelogramStart    // [/
	ParallelogramAltStart // [\
	CircleStart           // ((
	DoubleCircleStart     // (((
	StadiumStart          // ([
	HexagonStart          // {{

	// Shape closers.
	SubroutineEnd       // ]]
	CylinderEnd         // )]
	ParallelogramEnd    // /]
	ParallelogramAltEnd // \]
	CircleEnd           // ))
	DoubleCircleEnd     // )))
	StadiumEnd          // ])
	HexagonEnd          // }}

	LBracket  // [
	RBracket  // ]
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	Colon     // :
	Semicolon // ;
	Comma     // ,
	Dot       // .
	Pipe      // |
	Amp       // &
	Star      // *
	Plus      // +
	Minus     // - (never produced; dash runs become Line)
	Hash      // #
	Dollar    // $
	Percent   // %
	Lt        // <
	Gt        // >
	Slash     // /
	Backslash // \
	Question  // ?
	Bang      // !
	At        // @
	Caret     // ^
	Equals    // =
	Tilde     // ~
	Quote     // ' without a closing partner on the same line
	Backtick  // `

	// Keywords (identifier text checked against the keyword table).
	KwFlowchart
	KwGraph
	KwSubgraph
	KwEnd
	KwClassDef
	KwClass
	KwStyle
	KwLinkStyle
	KwClick
	KwDirection
	KwClassDiagram
	KwNamespace
	KwNote
	KwFor
	KwERDiagram
	KwStateDiagram
	KwState
	KwAs
	KwLeft
	KwRight
	KwOf
	KwGantt
	KwTitle
	KwDateFormat
	KwAxisFormat
	KwExcludes
	KwIncludes
	KwTodayMarker
	KwTickInterval
	KwWeekday
	KwSection
	KwAfter
	KwActive
	KwDone
	KwCrit
	KwMilestone

	kindCount
)

var kindNames = [...]string{
	EOF:                   "EOF",
	Newline:               "NEWLINE",
	Identifier:            "IDENTIFIER",
	String:                "STRING",
	Arrow:                 "ARROW",
	Line:                  "LINE",
	CircleEdge:            "CIRCLE_EDGE",
	CrossEdge:             "CROSS_EDGE",
	DottedArrow:           "DOTTED_ARROW",
	DottedLine:            "DOTTED_LINE",
	ThickArrow:            "THICK_ARROW",
	ThickLine:             "THICK_LINE",
	InvisibleLine:         "INVISIBLE_LINE",
	SubroutineStart:       "SUBROUTINE_START",
	CylinderStart:         "CYLINDER_START",
	ParallelogramStart:    "PARALLELOGRAM_START",
	ParallelogramAltStart: "PARALLELOGRAM_ALT_START",
	CircleStart:           "CIRCLE_START",
	DoubleCircleStart:     "DOUBLE_CIRCLE_START",
	StadiumStart:          "STADIUM_START",
	HexagonStart:          "HEXAGON_START",
	SubroutineEnd:         "SUBROUTINE_END",
	CylinderEnd:           "CYLINDER_END",
	ParallelogramEnd:      "PARALLELOGRAM_END",
	ParallelogramAltEnd:   "PARALLELOGRAM_ALT_END",
	CircleEnd:             "CIRCLE_END",
	DoubleCircleEnd:       "DOUBLE_CIRCLE_END",
	StadiumEnd:            "STADIUM_END",
	HexagonEnd:            "HEXAGON_END",
	LBracket:              "LBRACKET",
	RBracket:              "RBRACKET",
	LParen:                "LPAREN",
	RParen:                "RPAREN",
	LBrace:                "LBRACE",
	RBrace:                "RBRACE",
	Colon:                 "COLON",
	Semicolon:             "SEMICOLON",
	Comma:                 "COMMA",
	Dot:                   "DOT",
	Pipe:                  "PIPE",
	Amp:                   "AMP",
	Star:                  "STAR",
	Plus:                  "PLUS",
	Minus:                 "MINUS",
	Hash:                  "HASH",
	Dollar:                "DOLLAR",
	Percent:               "PERCENT",
	Lt:                    "LT",
	Gt:                    "GT",
	Slash:                 "SLASH",
	Backslash:             "BACKSLASH",
	Question:              "QUESTION",
	Bang:                  "BANG",
	At:                    "AT",
	Caret:                 "CARET",
	Equals:                "EQUALS",
	Tilde:                 "TILDE",
	Quote:                 "QUOTE",
	Backtick:              "BACKTICK",
	KwFlowchart:           "FLOWCHART",
	KwGraph:               "GRAPH",
	KwSubgraph:            "SUBGRAPH",
	KwEnd:                 "END",
	KwClassDef:            "CLASSDEF",
	KwClass:               "CLASS",
	KwStyle:               "STYLE",
	KwLinkStyle:           "LINKSTYLE",
	KwClick:               "CLICK",
	KwDirection:           "DIRECTION",
	KwClassDiagram:        "CLASS_DIAGRAM",
	KwNamespace:           "NAMESPACE",
	KwNote:                "NOTE",
	KwFor:                 "FOR",
	KwERDiagram:           "ER_DIAGRAM",
	KwStateDiagram:        "STATE_DIAGRAM",
	KwState:               "STATE",
	KwAs:                  "AS",
	KwLeft:                "LEFT",
	KwRight:               "RIGHT",
	KwOf:                  "OF",
	KwGantt:               "GANTT",
	KwTitle:               "TITLE",
	KwDateFormat:          "DATE_FORMAT",
	KwAxisFormat:          "AXIS_FORMAT",
	KwExcludes:            "EXCLUDES",
	KwIncludes:            "INCLUDES",
	KwTodayMarker:         "TODAY_MARKER",
	KwTickInterval:        "TICK_INTERVAL",
	KwWeekday:             "WEEKDAY",
	KwSection:             "SECTION",
	KwAfter:               "AFTER",
	KwActive:              "ACTIVE",
	KwDone:                "DONE",
	KwCrit:                "CRIT",
	KwMilestone:           "MILESTONE",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k >= KwFlowchart && k < kindCount }

// IsWord reports whether k was scanned as an identifier run, keyword or not.
// Grammars accept keywords wherever a free-form name is expected.
func (k Kind) IsWord() bool { return k == Identifier || k.IsKeyword() }

// IsEdge reports whether k is one of the link tokens.
func (k Kind) IsEdge() bool { return k >= Arrow && k <= InvisibleLine }

// IsShapeOpen reports whether k opens a node shape.
func (k Kind) IsShapeOpen() bool {
	switch k {
	case SubroutineStart, CylinderStart, ParallelogramStart, ParallelogramAltStart,
		CircleStart, DoubleCircleStart, StadiumStart, HexagonStart,
		LBracket, LParen, LBrace:
		return true
	}
	return false
}

// IsShapeClose reports whether k closes a node shape.
func (k Kind) IsShapeClose() bool {
	switch k {
	case SubroutineEnd, CylinderEnd, ParallelogramEnd, ParallelogramAltEnd,
		CircleEnd, DoubleCircleEnd, StadiumEnd, HexagonEnd,
		RBracket, RParen, RBrace:
		return true
	}
	return false
}

// Token is a single lexical unit. Value is the raw lexeme.
type Token struct {
	Kind  Kind
	Value string
	syntax.Span
}

// Unquote returns the contents of a String token without its delimiters,
// or Value unchanged for any other kind.
func (t Token) Unquote() string {
	if t.Kind != String || len(t.Value) < 2 {
		return t.Value
	}
	return t.Value[1 : len(t.Value)-1]
}

func (t Token) String() string {
	var sb strings.Builder
	sb.WriteString(t.Kind.String())
	if t.Value != "" && t.Kind != Newline {
		sb.WriteString("(")
		sb.WriteString(t.Value)
		sb.WriteString(")")
	}
	return sb.String()
}

// keywords maps keyword strings to their token kinds. Lookup is exact and
// case-sensitive.
var keywords = map[string]Kind{
	"flowchart":    KwFlowchart,
	"graph":        KwGraph,
	"subgraph":     KwSubgraph,
	"end":          KwEnd,
	"classDef":     KwClassDef,
	"class":        KwClass,
	"style":        KwStyle,
	"linkStyle":    KwLinkStyle,
	"click":        KwClick,
	"direction":    KwDirection,
	"classDiagram": KwClassDiagram,
	"namespace":    KwNamespace,
	"note":         KwNote,
	"for":          KwFor,
	"erDiagram":    KwERDiagram,
	"stateDiagram": KwStateDiagram,
	"state":        KwState,
	"as":           KwAs,
	"left":         KwLeft,
	"right":        KwRight,
	"of":           KwOf,
	"gantt":        KwGantt,
	"title":        KwTitle,
	"dateFormat":   KwDateFormat,
	"axisFormat":   KwAxisFormat,
	"excludes":     KwExcludes,
	"includes":     KwIncludes,
	"todayMarker":  KwTodayMarker,
	"tickInterval": KwTickInterval,
	"weekday":      KwWeekday,
	"section":      KwSection,
	"after":        KwAfter,
	"active":       KwActive,
	"done":         KwDone,
	"crit":         KwCrit,
	"milestone":    KwMilestone,
}

// LookupKeyword returns the keyword kind for ident, if any.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
