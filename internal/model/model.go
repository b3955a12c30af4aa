// Package model defines core data structures for autodoc.
package model

// SourceFile is the structural record for one analyzed source file.
// When parsing fails, Imports, Functions and Classes are empty and
// ParseError describes why; Source is always populated.
type SourceFile struct {
	Path       string        `json:"path" yaml:"path"`
	Source     string        `json:"source" yaml:"source"`
	Imports    []string      `json:"imports" yaml:"imports"`
	Functions  []FunctionDef `json:"functions" yaml:"functions"`
	Classes    []ClassDef    `json:"classes" yaml:"classes"`
	ParseError string        `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
}

// Degraded reports whether the file could not be parsed.
func (f *SourceFile) Degraded() bool {
	return f.ParseError != ""
}

// FunctionDef describes a function definition. Start and End are 1-based
// lines; End is 0 when unknown. StartByte and EndByte delimit Snippet
// within the owning SourceFile's Source.
type FunctionDef struct {
	Name      string   `json:"name" yaml:"name"`
	Start     int      `json:"start" yaml:"start"`
	End       int      `json:"end,omitempty" yaml:"end,omitempty"`
	StartByte int      `json:"start_byte" yaml:"start_byte"`
	EndByte   int      `json:"end_byte" yaml:"end_byte"`
	Snippet   string   `json:"snippet" yaml:"snippet"`
	Signature string   `json:"signature,omitempty" yaml:"signature,omitempty"`
	Calls     []string `json:"calls" yaml:"calls"`
}

// ClassDef describes a class definition.
type ClassDef struct {
	Name      string `json:"name" yaml:"name"`
	Start     int    `json:"start" yaml:"start"`
	End       int    `json:"end,omitempty" yaml:"end,omitempty"`
	StartByte int    `json:"start_byte" yaml:"start_byte"`
	EndByte   int    `json:"end_byte" yaml:"end_byte"`
	Snippet   string `json:"snippet" yaml:"snippet"`
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`
}

// ChunkKind indicates what a chunk was cut from.
type ChunkKind string

const (
	FunctionChunk ChunkKind = "function"
	ClassChunk    ChunkKind = "class"
	FileChunk     ChunkKind = "file"
)

// Span is the line range a chunk covers.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end,omitempty" yaml:"end,omitempty"`
}

// Chunk is a unit of source text handed to the summarizer.
type Chunk struct {
	Kind      ChunkKind `json:"type" yaml:"type"`
	Name      string    `json:"name" yaml:"name"`
	Text      string    `json:"text" yaml:"text"`
	Span      *Span     `json:"meta,omitempty" yaml:"meta,omitempty"`
	OwnerPath string    `json:"file_path" yaml:"file_path"`
}

// Dependency is a file-level edge: Source refers to names that Target
// defines.
type Dependency struct {
	Source  string   `json:"source" yaml:"source"`
	Target  string   `json:"target" yaml:"target"`
	Symbols []string `json:"symbols" yaml:"symbols"`
}

// RankedFile is an analyzed file with its PageRank score.
type RankedFile struct {
	SourceFile `yaml:",inline"`
	Rank       float64 `json:"rank" yaml:"rank"`
}

// Report is a ranked view of one analysis run. Files are ordered by rank,
// highest first.
type Report struct {
	Repo         string       `json:"repo" yaml:"repo"`
	Files        []RankedFile `json:"files" yaml:"files"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
}
