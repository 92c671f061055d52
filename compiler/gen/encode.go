package gen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// EscapeString escapes a raw string for inclusion in a double-quoted
// Python literal. Backslash is escaped first so that the operation is
// idempotent with respect to UnescapeString: escaping an already
// unescaped string twice never double-escapes.
func EscapeString(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}

// UnescapeString reverses EscapeString. It is the literal-decoding
// rule the escaper targets; round-tripping through it keeps escaping
// stable.
func UnescapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// StringLiteral renders a text value as a Python string literal.
// Multi-line text uses the triple-quoted form, single-line text the
// quote-escaped form. {variable} placeholders pass through untouched;
// substitution happens at send time in the emitted program.
func StringLiteral(s string) string {
	if strings.ContainsAny(s, "\n\r") {
		return tripleQuoted(s)
	}
	return `"` + EscapeString(s) + `"`
}

func tripleQuoted(s string) string {
	// Triple-quoted literals keep newlines verbatim; only the backslash
	// and the quote sequence need care.
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"""`, `\"\"\"`)
	if strings.HasSuffix(s, `"`) {
		s = s[:len(s)-1] + `\"`
	}
	return `"""` + s + `"""`
}

// BoolLiteral renders a boolean as a Python literal.
func BoolLiteral(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// IntLiteral renders an integer as a Python literal.
func IntLiteral(n int) string {
	return fmt.Sprintf("%d", n)
}

// translit maps Cyrillic letters to a Latin approximation so that
// Russian-labelled nodes still produce readable identifiers.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// stripMarks removes combining marks left over after NFD decomposition,
// folding accented Latin letters to their base form.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Identifier sanitizes an arbitrary node id or label into a safe
// snake_case Python identifier. Non-alphanumeric characters become
// underscores; Cyrillic is transliterated; an empty or digit-leading
// result gets a node_ prefix. Collisions between two sanitized names
// are resolved by the identifier table, not here.
func Identifier(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			if t, ok := translit[r]; ok {
				b.WriteString(t)
			} else {
				b.WriteByte('_')
			}
		}
	}
	ident := inflect.Underscore(b.String())
	ident = strings.Trim(collapseUnderscores(ident), "_")
	if ident == "" || ident[0] >= '0' && ident[0] <= '9' {
		ident = "node_" + ident
	}
	return ident
}

func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// identTable hands out unique identifiers, disambiguating sanitized
// collisions by appending a counter.
type identTable struct {
	used map[string]int
}

func newIdentTable() *identTable {
	return &identTable{used: make(map[string]int)}
}

// claim returns the identifier itself the first time it is seen and a
// counter-suffixed form on every later collision. The mapping from
// input to output is injective within one table.
func (t *identTable) claim(ident string) string {
	n, taken := t.used[ident]
	if !taken {
		t.used[ident] = 1
		return ident
	}
	for {
		n++
		candidate := fmt.Sprintf("%s_%d", ident, n)
		if _, clash := t.used[candidate]; !clash {
			t.used[ident] = n
			t.used[candidate] = 1
			return candidate
		}
	}
}

// tokenTail returns the trailing span of a sanitized id bounded to max
// bytes. Telegram callback data is limited to 64 bytes, so tokens keep
// only the id tail, which carries the unique suffix in editor-assigned
// ids.
func tokenTail(ident string, max int) string {
	if len(ident) <= max {
		return ident
	}
	tail := ident[len(ident)-max:]
	return strings.TrimLeft(tail, "_")
}
