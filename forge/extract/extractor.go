package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

// Result is what extraction yields. Exactly one of Fields or Question is
// populated: a clarifying question short-circuits structured extraction
// because the caller must supply more input before a record exists.
type Result struct {
	Fields   map[string]any
	Fallback bool
	Question string
}

// Extractor recovers a structured record from unreliable generator text.
// It is total: malformed input degrades through the recovery tiers down to
// a synthesized default record, it never errors.
type Extractor struct {
	defaults map[contractx.ComponentKind]map[string]any
	scavenge map[string]*regexp.Regexp
}

type Option func(*Extractor)

// WithDefaults replaces the fallback record for one kind.
func WithDefaults(kind contractx.ComponentKind, fields map[string]any) Option {
	return func(e *Extractor) {
		e.defaults[kind] = cloneFields(fields)
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		defaults: DefaultRecords(),
		scavenge: scavengePatterns(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the clarifying-question pre-check, then the recovery tiers
// in order: whole-text parse, fenced block, brace-balanced repair, line
// scan, and finally the kind's default record with opportunistic field
// scraping.
func (e *Extractor) Extract(kind contractx.ComponentKind, text string) Result {
	if q := clarifyingQuestion(text); q != "" {
		return Result{Question: q}
	}
	for _, tier := range []func(string) (map[string]any, bool){
		parseWhole,
		parseFenced,
		parseRecovered,
		parseLineScan,
	} {
		if fields, ok := tier(text); ok {
			return Result{Fields: fields}
		}
	}
	return e.fallbackRecord(kind, text)
}

var questionRe = regexp.MustCompile(`"clarifying_question"\s*:\s*"((?:[^"\\]|\\.)+)"`)

func clarifyingQuestion(text string) string {
	if v := gjson.Get(text, "clarifying_question"); v.Exists() && v.Type == gjson.String && v.String() != "" {
		return v.String()
	}
	if m := questionRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// Tier 1: the entire text is one JSON object.
func parseWhole(text string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return nil, false
	}
	return decodeObject(trimmed)
}

var fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Tier 2: a fenced block somewhere in the text contains an object.
func parseFenced(text string) (map[string]any, bool) {
	m := fencedRe.FindStringSubmatch(text)
	if m == nil || !gjson.Valid(m[1]) {
		return nil, false
	}
	return decodeObject(m[1])
}

// Tier 3: scan from the first opening brace after any conversational
// preamble, balance the braces, apply the textual repairs, truncate to the
// first top-level balanced object and parse.
func parseRecovered(text string) (map[string]any, bool) {
	idx := strings.Index(text, "{")
	if idx < 0 {
		return nil, false
	}
	candidate := BalanceBraces(text[idx:])
	candidate = repairText(candidate)
	if end := scanObject(candidate); end > 0 {
		candidate = candidate[:end]
	}
	if !gjson.Valid(candidate) {
		return nil, false
	}
	return decodeObject(candidate)
}

// Tier 4: accumulate lines starting at the first one containing an
// opening brace, tracking net depth, stopping at the first return to zero.
func parseLineScan(text string) (map[string]any, bool) {
	var b strings.Builder
	depth := 0
	started := false
	for _, line := range strings.Split(text, "\n") {
		if !started && !strings.Contains(line, "{") {
			continue
		}
		started = true
		b.WriteString(line)
		b.WriteByte('\n')
		depth += braceDelta(line)
		if depth <= 0 {
			break
		}
	}
	if !started {
		return nil, false
	}
	return decodeObject(strings.TrimSpace(b.String()))
}

// Tier 5: the kind's default record, with a handful of fields
// opportunistically overwritten from patterns over the raw text.
func (e *Extractor) fallbackRecord(kind contractx.ComponentKind, text string) Result {
	fields := cloneFields(e.defaults[kind])
	if fields == nil {
		fields = map[string]any{}
	}
	for field, re := range e.scavenge {
		if _, known := fields[field]; !known {
			continue
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			fields[field] = f
		}
	}
	return Result{Fields: fields, Fallback: true}
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	return m, true
}

// BalanceBraces appends missing closers when there are more opens than
// closes, or removes trailing surplus closers in the opposite case. Brace
// counting ignores braces inside string literals. The operation is
// idempotent.
func BalanceBraces(s string) string {
	opens := 0
	var closePositions []int
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			opens++
		case '}':
			closePositions = append(closePositions, i)
		}
	}
	closes := len(closePositions)
	switch {
	case opens > closes:
		return s + strings.Repeat("}", opens-closes)
	case closes > opens:
		surplus := closes - opens
		drop := make(map[int]bool, surplus)
		for i := closes - surplus; i < closes; i++ {
			drop[closePositions[i]] = true
		}
		var b strings.Builder
		b.Grow(len(s) - surplus)
		for i := 0; i < len(s); i++ {
			if !drop[i] {
				b.WriteByte(s[i])
			}
		}
		return b.String()
	}
	return s
}

// Ordered textual repairs for common generator mistakes. Applied in a
// fixed order: unit-suffixed bare numbers first, then bare multi-word
// phrases, then trailing commas.
var (
	unitNumberRe    = regexp.MustCompile(`:\s*(\d+(?:\.\d+)?[A-Za-z][A-Za-z0-9/-]*)\s*([,}\]])`)
	barePhraseRe    = regexp.MustCompile(`:\s*([A-Za-z][A-Za-z0-9_'-]*(?:[ \t]+[A-Za-z0-9_'-]+)+)\s*([,}\]])`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

func repairText(s string) string {
	s = unitNumberRe.ReplaceAllString(s, `: "$1"$2`)
	s = barePhraseRe.ReplaceAllString(s, `: "$1"$2`)
	s = trailingCommaRe.ReplaceAllString(s, `$1`)
	return s
}

// scanObject returns the index just past the first top-level balanced
// object in s, or -1 if the braces never close.
func scanObject(s string) int {
	depth := 0
	inStr, esc, started := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
			started = true
		case '}':
			depth--
			if started && depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func braceDelta(line string) int {
	delta := 0
	inStr, esc := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}

func cloneFields(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
