// Package jsonrow implements a single-pass JSON pre-scanner that produces
// a flat table of fixed-size row records, each describing one token's
// position and extent in the source buffer. Once scanned, the header and
// claims of a token are navigated by index arithmetic instead of by
// re-walking the JSON text, which is the win for a reader that inspects a
// handful of well-known fields (alg, kid, exp, nbf, cty, ...) out of a
// small object on every parse.
//
// A Row is conceptually location:int32 | lengthUnion:int32 | numRowsAndType:int32.
// The top nibble of the third word carries the token Kind; the sign bit of
// lengthUnion flags a string that contains a backslash escape and so needs
// unescaping before use; lengthUnion == -1 means "length not known". Scan
// fills in the length of string, number and literal rows; the start and end
// rows of objects and arrays keep -1, and Length reports it as unknown.
package jsonrow

import (
	"encoding/json"
	"errors"
	"unicode/utf8"
)

// Kind identifies what a Row describes.
type Kind uint8

const (
	KindObjectStart Kind = iota
	KindObjectEnd
	KindArrayStart
	KindArrayEnd
	KindString
	KindNumber
	KindTrue
	KindFalse
	KindNull
)

const unknownLength = -1

// escapeFlag marks, in lengthUnion, that the token's raw text contains at
// least one backslash escape sequence.
const escapeFlag int32 = -1 << 31

// Row is one 12-byte pre-scan record.
type Row struct {
	Location       int32
	lengthUnion    int32
	numRowsAndType int32
}

// Kind returns the token kind carried in the top nibble of numRowsAndType.
func (r Row) Kind() Kind {
	return Kind(uint32(r.numRowsAndType) >> 28)
}

// NumRows returns the number of rows this token spans, including itself.
// For a container start row, idx+NumRows() is the index of the row right
// after the matching end row: an O(1) skip over the whole container.
func (r Row) NumRows() int32 {
	return r.numRowsAndType & 0x0FFFFFFF
}

// Length reports the byte length of the token's raw text in the source
// buffer, and whether that length is known. Scan leaves it unknown on the
// start and end rows of objects and arrays.
func (r Row) Length() (length int32, known bool) {
	if r.lengthUnion == unknownLength {
		return 0, false
	}
	return r.lengthUnion &^ escapeFlag, true
}

// NeedsUnescape reports whether the token (always a string) contains a
// backslash escape sequence and must be decoded before use.
func (r Row) NeedsUnescape() bool {
	return r.lengthUnion != unknownLength && r.lengthUnion&escapeFlag != 0
}

func newRow(kind Kind, location int32) Row {
	return Row{
		Location:       location,
		lengthUnion:    unknownLength,
		numRowsAndType: int32(kind) << 28,
	}
}

var (
	ErrUnexpectedEnd    = errors.New("jsonrow: unexpected end of input")
	ErrUnexpectedToken  = errors.New("jsonrow: unexpected token")
	ErrInvalidEscape    = errors.New("jsonrow: invalid escape sequence")
	ErrTrailingData     = errors.New("jsonrow: trailing data after value")
	ErrDepthExceeded    = errors.New("jsonrow: nesting too deep")
	ErrRowIndexOutOfRange = errors.New("jsonrow: row index out of range")
)

// maxDepth bounds the container-nesting stack; JOSE headers and claim sets
// are shallow, and an unbounded stack on attacker-controlled input is a
// resource-exhaustion vector.
const maxDepth = 64

// Table is the result of a Scan: the source bytes plus the flat row list.
type Table struct {
	src  []byte
	rows []Row
}

// Root returns the index of the top-level value's row.
func (t *Table) Root() int { return 0 }

// Len returns the number of rows in the table.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the row at idx.
func (t *Table) Row(idx int) Row { return t.rows[idx] }

// Scan performs a single pass over src, which must be exactly one JSON
// value (a JWS/JWE header or claim set is always a JSON object), and
// returns a navigable Table.
func Scan(src []byte) (*Table, error) {
	s := &scanner{src: src}
	if err := s.scanValue(0); err != nil {
		return nil, err
	}
	i := skipWhitespace(src, s.pos)
	if i != len(src) {
		return nil, ErrTrailingData
	}
	return &Table{src: src, rows: s.rows}, nil
}

type scanner struct {
	src   []byte
	pos   int
	rows  []Row
	depth int
}

func skipWhitespace(src []byte, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

// scanValue scans one JSON value starting at s.pos (after leading
// whitespace already skipped by the caller context) and appends its
// row(s). pos is updated to just past the value.
func (s *scanner) scanValue(pos int) error {
	s.pos = skipWhitespace(s.src, pos)
	if s.pos >= len(s.src) {
		return ErrUnexpectedEnd
	}
	switch c := s.src[s.pos]; {
	case c == '{':
		return s.scanObject()
	case c == '[':
		return s.scanArray()
	case c == '"':
		return s.scanString()
	case c == 't':
		return s.scanLiteral("true", KindTrue)
	case c == 'f':
		return s.scanLiteral("false", KindFalse)
	case c == 'n':
		return s.scanLiteral("null", KindNull)
	case c == '-' || (c >= '0' && c <= '9'):
		return s.scanNumber()
	default:
		return ErrUnexpectedToken
	}
}

func (s *scanner) scanLiteral(lit string, kind Kind) error {
	if s.pos+len(lit) > len(s.src) || string(s.src[s.pos:s.pos+len(lit)]) != lit {
		return ErrUnexpectedToken
	}
	row := newRow(kind, int32(s.pos))
	row.lengthUnion = int32(len(lit))
	row.numRowsAndType |= 1
	s.rows = append(s.rows, row)
	s.pos += len(lit)
	return nil
}

func (s *scanner) scanNumber() error {
	start := s.pos
	i := s.pos
	if i < len(s.src) && s.src[i] == '-' {
		i++
	}
	for i < len(s.src) && s.src[i] >= '0' && s.src[i] <= '9' {
		i++
	}
	if i < len(s.src) && s.src[i] == '.' {
		i++
		for i < len(s.src) && s.src[i] >= '0' && s.src[i] <= '9' {
			i++
		}
	}
	if i < len(s.src) && (s.src[i] == 'e' || s.src[i] == 'E') {
		i++
		if i < len(s.src) && (s.src[i] == '+' || s.src[i] == '-') {
			i++
		}
		for i < len(s.src) && s.src[i] >= '0' && s.src[i] <= '9' {
			i++
		}
	}
	if i == start {
		return ErrUnexpectedToken
	}
	row := newRow(KindNumber, int32(start))
	row.lengthUnion = int32(i - start)
	row.numRowsAndType |= 1
	s.rows = append(s.rows, row)
	s.pos = i
	return nil
}

func (s *scanner) scanString() error {
	if s.src[s.pos] != '"' {
		return ErrUnexpectedToken
	}
	start := s.pos + 1
	i := start
	escaped := false
	for {
		if i >= len(s.src) {
			return ErrUnexpectedEnd
		}
		c := s.src[i]
		if c == '"' {
			break
		}
		if c == '\\' {
			escaped = true
			i++
			if i >= len(s.src) {
				return ErrUnexpectedEnd
			}
			if s.src[i] == 'u' {
				if i+4 >= len(s.src) {
					return ErrUnexpectedEnd
				}
				i += 5
				continue
			}
			i++
			continue
		}
		i++
	}

	row := newRow(KindString, int32(start))
	length := int32(i - start)
	if escaped {
		length |= escapeFlag
	}
	row.lengthUnion = length
	row.numRowsAndType |= 1
	s.rows = append(s.rows, row)
	s.pos = i + 1
	return nil
}

func (s *scanner) scanObject() error {
	s.depth++
	if s.depth > maxDepth {
		return ErrDepthExceeded
	}
	defer func() { s.depth-- }()

	startIdx := len(s.rows)
	s.rows = append(s.rows, newRow(KindObjectStart, int32(s.pos)))
	s.pos++

	s.pos = skipWhitespace(s.src, s.pos)
	if s.pos >= len(s.src) {
		return ErrUnexpectedEnd
	}
	if s.src[s.pos] == '}' {
		s.rows = append(s.rows, newRow(KindObjectEnd, int32(s.pos)))
		s.pos++
		s.patchContainer(startIdx)
		return nil
	}

	for {
		s.pos = skipWhitespace(s.src, s.pos)
		if s.pos >= len(s.src) || s.src[s.pos] != '"' {
			return ErrUnexpectedToken
		}
		if err := s.scanString(); err != nil {
			return err
		}

		s.pos = skipWhitespace(s.src, s.pos)
		if s.pos >= len(s.src) || s.src[s.pos] != ':' {
			return ErrUnexpectedToken
		}
		s.pos++

		if err := s.scanValue(s.pos); err != nil {
			return err
		}

		s.pos = skipWhitespace(s.src, s.pos)
		if s.pos >= len(s.src) {
			return ErrUnexpectedEnd
		}
		switch s.src[s.pos] {
		case ',':
			s.pos++
			continue
		case '}':
			s.rows = append(s.rows, newRow(KindObjectEnd, int32(s.pos)))
			s.pos++
			s.patchContainer(startIdx)
			return nil
		default:
			return ErrUnexpectedToken
		}
	}
}

func (s *scanner) scanArray() error {
	s.depth++
	if s.depth > maxDepth {
		return ErrDepthExceeded
	}
	defer func() { s.depth-- }()

	startIdx := len(s.rows)
	s.rows = append(s.rows, newRow(KindArrayStart, int32(s.pos)))
	s.pos++

	s.pos = skipWhitespace(s.src, s.pos)
	if s.pos >= len(s.src) {
		return ErrUnexpectedEnd
	}
	if s.src[s.pos] == ']' {
		s.rows = append(s.rows, newRow(KindArrayEnd, int32(s.pos)))
		s.pos++
		s.patchContainer(startIdx)
		return nil
	}

	for {
		if err := s.scanValue(s.pos); err != nil {
			return err
		}

		s.pos = skipWhitespace(s.src, s.pos)
		if s.pos >= len(s.src) {
			return ErrUnexpectedEnd
		}
		switch s.src[s.pos] {
		case ',':
			s.pos++
			continue
		case ']':
			s.rows = append(s.rows, newRow(KindArrayEnd, int32(s.pos)))
			s.pos++
			s.patchContainer(startIdx)
			return nil
		default:
			return ErrUnexpectedToken
		}
	}
}

// patchContainer fills in the start row's NumRows now that every
// descendant (and the matching end row) has been appended.
func (s *scanner) patchContainer(startIdx int) {
	n := int32(len(s.rows) - startIdx)
	s.rows[startIdx].numRowsAndType |= n
}

// Text returns the raw source bytes spanned by the row at idx (for a
// string, excluding the surrounding quotes).
func (t *Table) Text(idx int) []byte {
	row := t.rows[idx]
	length, _ := row.Length()
	return t.src[row.Location : row.Location+length]
}

// String decodes the string token at idx, unescaping it if necessary.
func (t *Table) String(idx int) (string, error) {
	row := t.rows[idx]
	if row.Kind() != KindString {
		return "", ErrUnexpectedToken
	}
	raw := t.Text(idx)
	if !row.NeedsUnescape() {
		return string(raw), nil
	}
	return unescape(raw)
}

// Object looks up key among the direct children of the object row at idx,
// returning the index of the value row. Children nested inside array/object
// values are skipped in O(1) via NumRows, so lookup cost is linear only in
// the number of direct members, not the subtree size.
func (t *Table) Object(idx int, key string) (int, bool) {
	row := t.rows[idx]
	if row.Kind() != KindObjectStart {
		return 0, false
	}
	end := idx + int(row.NumRows())
	i := idx + 1
	for i < end-1 {
		keyRow := t.rows[i]
		if keyRow.Kind() != KindString {
			return 0, false
		}
		var k string
		if keyRow.NeedsUnescape() {
			var err error
			k, err = unescape(t.Text(i))
			if err != nil {
				return 0, false
			}
		} else {
			k = string(t.Text(i))
		}
		valueIdx := i + 1
		if k == key {
			return valueIdx, true
		}
		i = valueIdx + int(t.rows[valueIdx].NumRows())
	}
	return 0, false
}

// Keys returns the direct member names of the object row at idx, in
// source order.
func (t *Table) Keys(idx int) ([]string, error) {
	row := t.rows[idx]
	if row.Kind() != KindObjectStart {
		return nil, ErrUnexpectedToken
	}
	end := idx + int(row.NumRows())
	var keys []string
	i := idx + 1
	for i < end-1 {
		k, err := t.String(i)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		valueIdx := i + 1
		i = valueIdx + int(t.rows[valueIdx].NumRows())
	}
	return keys, nil
}

// Value decodes the subtree rooted at idx into a generic Go value:
// map[string]any for an object, []any for an array, string, json.Number
// (to avoid float64 precision loss on large "exp"/"nbf" values the way
// encoding/json.Decoder.UseNumber does), bool, or nil.
func (t *Table) Value(idx int) (any, error) {
	row := t.rows[idx]
	switch row.Kind() {
	case KindObjectStart:
		end := idx + int(row.NumRows())
		m := make(map[string]any, row.NumRows()/2)
		i := idx + 1
		for i < end-1 {
			k, err := t.String(i)
			if err != nil {
				return nil, err
			}
			valueIdx := i + 1
			v, err := t.Value(valueIdx)
			if err != nil {
				return nil, err
			}
			m[k] = v
			i = valueIdx + int(t.rows[valueIdx].NumRows())
		}
		return m, nil
	case KindArrayStart:
		end := idx + int(row.NumRows())
		arr := make([]any, 0)
		i := idx + 1
		for i < end-1 {
			v, err := t.Value(i)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
			i += int(t.rows[i].NumRows())
		}
		return arr, nil
	case KindString:
		return t.String(idx)
	case KindNumber:
		return json.Number(t.Text(idx)), nil
	case KindTrue:
		return true, nil
	case KindFalse:
		return false, nil
	case KindNull:
		return nil, nil
	default:
		return nil, ErrUnexpectedToken
	}
}

// DecodeObject scans src, which must hold exactly one JSON object, and
// returns it as a map[string]any. This is the pre-scan path JWS/JWE
// headers and JWT claim sets go through in place of a full
// encoding/json.Decoder pass.
func DecodeObject(src []byte) (map[string]any, error) {
	t, err := Scan(src)
	if err != nil {
		return nil, err
	}
	v, err := t.Value(t.Root())
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ErrUnexpectedToken
	}
	return m, nil
}

// Elements returns the row indices of each element of the array row at idx.
func (t *Table) Elements(idx int) []int {
	row := t.rows[idx]
	if row.Kind() != KindArrayStart {
		return nil
	}
	end := idx + int(row.NumRows())
	var elems []int
	i := idx + 1
	for i < end-1 {
		elems = append(elems, i)
		i += int(t.rows[i].NumRows())
	}
	return elems
}

func unescape(raw []byte) (string, error) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(raw) {
			return "", ErrInvalidEscape
		}
		switch raw[i] {
		case '"':
			out = append(out, '"')
		case '\\':
			out = append(out, '\\')
		case '/':
			out = append(out, '/')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			if i+4 >= len(raw) {
				return "", ErrInvalidEscape
			}
			r, err := hex4(raw[i+1 : i+5])
			if err != nil {
				return "", err
			}
			i += 4
			if utf16IsHighSurrogate(r) && i+6 < len(raw) && raw[i+1] == '\\' && raw[i+2] == 'u' {
				r2, err := hex4(raw[i+3 : i+7])
				if err == nil && utf16IsLowSurrogate(r2) {
					combined := utf16Decode(r, r2)
					var buf [utf8.UTFMax]byte
					n := utf8.EncodeRune(buf[:], combined)
					out = append(out, buf[:n]...)
					i += 6
					continue
				}
			}
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], rune(r))
			out = append(out, buf[:n]...)
		default:
			return "", ErrInvalidEscape
		}
	}
	return string(out), nil
}

func hex4(b []byte) (rune, error) {
	var v rune
	for _, c := range b {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			v |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= rune(c-'A') + 10
		default:
			return 0, ErrInvalidEscape
		}
	}
	return v, nil
}

func utf16IsHighSurrogate(r rune) bool { return r >= 0xD800 && r <= 0xDBFF }
func utf16IsLowSurrogate(r rune) bool  { return r >= 0xDC00 && r <= 0xDFFF }

func utf16Decode(hi, lo rune) rune {
	return ((hi - 0xD800) << 10) | (lo - 0xDC00) + 0x10000
}
