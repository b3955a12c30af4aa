// Package chunk cuts structural records and long text into units sized for
// summarization.
package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/phobologic/autodoc/internal/model"
)

// DefaultMaxChars is the fragment budget used when none is given.
const DefaultMaxChars = 3000

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// ForFile returns one chunk per function, then one per class, in the
// record's own order. A file with neither yields a single file chunk
// holding the whole source, so every record produces at least one chunk.
func ForFile(sf *model.SourceFile) []model.Chunk {
	chunks := make([]model.Chunk, 0, len(sf.Functions)+len(sf.Classes))
	for _, fn := range sf.Functions {
		chunks = append(chunks, model.Chunk{
			Kind:      model.FunctionChunk,
			Name:      fn.Name,
			Text:      fn.Snippet,
			Span:      &model.Span{Start: fn.Start, End: fn.End},
			OwnerPath: sf.Path,
		})
	}
	for _, cl := range sf.Classes {
		chunks = append(chunks, model.Chunk{
			Kind:      model.ClassChunk,
			Name:      cl.Name,
			Text:      cl.Snippet,
			Span:      &model.Span{Start: cl.Start, End: cl.End},
			OwnerPath: sf.Path,
		})
	}
	if len(chunks) == 0 {
		chunks = append(chunks, model.Chunk{
			Kind:      model.FileChunk,
			Name:      sf.Path,
			Text:      sf.Source,
			OwnerPath: sf.Path,
		})
	}
	return chunks
}

// ForFiles concatenates ForFile over files, preserving file order.
func ForFiles(files []model.SourceFile) []model.Chunk {
	var chunks []model.Chunk
	for i := range files {
		chunks = append(chunks, ForFile(&files[i])...)
	}
	return chunks
}

// SplitText breaks text into ordered fragments of at most maxChars
// characters. Text within budget comes back whole. Otherwise paragraphs
// (separated by blank lines) are packed greedily; the separator between two
// fragments is dropped while separators inside a fragment are kept
// verbatim. A paragraph over budget is split at line ends, and a single
// line over budget is emitted whole. maxChars <= 0 means DefaultMaxChars.
func SplitText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if charLen(text) <= maxChars {
		return []string{text}
	}

	var (
		out     []string
		current strings.Builder
		curLen  int
		pending string // separator preceding the next paragraph
	)
	flush := func() {
		if curLen > 0 {
			out = append(out, current.String())
		}
		current.Reset()
		curLen = 0
	}

	bounds := paragraphBreak.FindAllStringIndex(text, -1)
	start := 0
	for i := 0; i <= len(bounds); i++ {
		end, next := len(text), len(text)
		if i < len(bounds) {
			end, next = bounds[i][0], bounds[i][1]
		}
		part := text[start:end]
		sep := pending
		pending = text[end:next]
		start = next

		if part == "" {
			continue
		}
		partLen := charLen(part)

		if curLen > 0 && curLen+charLen(sep)+partLen <= maxChars {
			current.WriteString(sep)
			current.WriteString(part)
			curLen += charLen(sep) + partLen
			continue
		}
		flush()
		if partLen <= maxChars {
			current.WriteString(part)
			curLen = partLen
			continue
		}
		out = append(out, splitLines(part, maxChars)...)
	}
	flush()
	return out
}

// splitLines packs whole lines (newline included) into fragments within
// budget.
func splitLines(part string, maxChars int) []string {
	var (
		out    []string
		cur    strings.Builder
		curLen int
	)
	for _, line := range strings.SplitAfter(part, "\n") {
		if line == "" {
			continue
		}
		n := charLen(line)
		if curLen > 0 && curLen+n > maxChars {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(line)
		curLen += n
	}
	if curLen > 0 {
		out = append(out, cur.String())
	}
	return out
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
