// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/phobologic/autodoc/internal/model"
	"github.com/phobologic/autodoc/internal/summarize"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

type symbol struct {
	name      string
	kind      string
	start     int
	end       int
	signature string
}

// Encode converts a Report into TOON format.
func Encode(rep *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("repo: %s", encodeValue(rep.Repo)))

	var fileRows [][]string
	for i := range rep.Files {
		rf := &rep.Files[i]
		status := "ok"
		if rf.Degraded() {
			status = "degraded"
		}
		fileRows = append(fileRows, []string{
			rf.Path,
			fmt.Sprintf("%.4f", rf.Rank),
			strconv.Itoa(len(rf.Functions)),
			strconv.Itoa(len(rf.Classes)),
			status,
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "rank", "functions", "classes", "status"}, fileRows))

	var importRows [][]string
	for i := range rep.Files {
		rf := &rep.Files[i]
		for _, imp := range rf.Imports {
			importRows = append(importRows, []string{rf.Path, imp})
		}
	}
	parts = append(parts, formatTabular("imports", []string{"file", "module"}, importRows))

	var symbolRows [][]string
	for i := range rep.Files {
		rf := &rep.Files[i]
		for _, s := range symbols(&rf.SourceFile) {
			symbolRows = append(symbolRows, []string{
				rf.Path,
				s.name,
				s.kind,
				strconv.Itoa(s.start),
				strconv.Itoa(s.end),
				s.signature,
			})
		}
	}
	parts = append(parts, formatTabular("symbols", []string{"file", "name", "kind", "start", "end", "signature"}, symbolRows))

	var depRows [][]string
	for i := range rep.Dependencies {
		d := &rep.Dependencies[i]
		depRows = append(depRows, []string{
			d.Source,
			d.Target,
			strings.Join(d.Symbols, " "),
		})
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target", "symbols"}, depRows))

	var callRows [][]string
	for i := range rep.Files {
		rf := &rep.Files[i]
		for _, fn := range rf.Functions {
			for _, call := range fn.Calls {
				callRows = append(callRows, []string{rf.Path, fn.Name, call})
			}
		}
	}
	parts = append(parts, formatTabular("calls", []string{"file", "caller", "callee"}, callRows))

	var errRows [][]string
	for i := range rep.Files {
		if rf := &rep.Files[i]; rf.Degraded() {
			errRows = append(errRows, []string{rf.Path, rf.ParseError})
		}
	}
	if len(errRows) > 0 {
		parts = append(parts, formatTabular("errors", []string{"file", "reason"}, errRows))
	}

	return strings.Join(parts, "\n")
}

// symbols lists a file's functions and classes in source order.
func symbols(sf *model.SourceFile) []symbol {
	var out []symbol
	for _, fn := range sf.Functions {
		out = append(out, symbol{fn.Name, "function", fn.Start, fn.End, fn.Signature})
	}
	for _, cl := range sf.Classes {
		out = append(out, symbol{cl.Name, "class", cl.Start, cl.End, cl.Signature})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// EncodeChunks renders chunks as a single table. Text is summarized by its
// character count.
func EncodeChunks(chunks []model.Chunk) string {
	rows := make([][]string, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		start, end := "", ""
		if c.Span != nil {
			start = strconv.Itoa(c.Span.Start)
			end = strconv.Itoa(c.Span.End)
		}
		rows = append(rows, []string{
			c.OwnerPath,
			string(c.Kind),
			c.Name,
			start,
			end,
			strconv.Itoa(utf8.RuneCountInString(c.Text)),
		})
	}
	return formatTabular("chunks", []string{"file", "type", "name", "start", "end", "chars"}, rows)
}

// EncodeSummaries renders one row per summarized chunk.
func EncodeSummaries(items []summarize.ChunkSummary) string {
	rows := make([][]string, 0, len(items))
	for i := range items {
		it := &items[i]
		rows = append(rows, []string{
			it.Chunk.OwnerPath,
			string(it.Chunk.Kind),
			it.Chunk.Name,
			string(it.Status),
			it.Summary.OneLiner,
		})
	}
	return formatTabular("summaries", []string{"file", "type", "name", "status", "one_liner"}, rows)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
