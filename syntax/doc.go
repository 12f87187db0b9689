// Package syntax holds the source-location and error types shared by the
// tokenizers and grammars.
//
// Every token and every AST node carries a Span made of two Positions. Lines
// are 1-based, columns and byte offsets are 0-based. Positions are absolute
// within the document handed to parser.Parse, even when the document is split
// into several diagram segments.
//
// Only two error types are ever returned by the parsing core:
//
//   - *LexerError: unterminated string, unrecognised character.
//   - *ParserError: unexpected or missing token, malformed notation.
//
// Both render as "<message> at line L, column C".
package syntax
