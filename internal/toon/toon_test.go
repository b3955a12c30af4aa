package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/autodoc/internal/model"
	"github.com/phobologic/autodoc/internal/summarize"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main.py", "src/main.py"},
		{"dotted name", "Foo.__init__", "Foo.__init__"},
		{"signature no special", "run(self) -> None", "run(self) -> None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	rep := &model.Report{
		Repo: "myrepo",
		Files: []model.RankedFile{
			{
				SourceFile: model.SourceFile{
					Path:    "src/main.py",
					Imports: []string{"os", "util"},
					Functions: []model.FunctionDef{
						{Name: "main", Start: 4, End: 6, Signature: "main()", Calls: []string{"util.helper"}},
					},
					Classes: []model.ClassDef{
						{Name: "App", Start: 1, End: 3, Signature: "App"},
					},
				},
				Rank: 0.75,
			},
			{
				SourceFile: model.SourceFile{
					Path:      "src/util.py",
					Functions: []model.FunctionDef{{Name: "helper", Start: 1, End: 2, Signature: "helper(x)"}},
				},
				Rank: 0.25,
			},
		},
		Dependencies: []model.Dependency{
			{Source: "src/main.py", Target: "src/util.py", Symbols: []string{"helper", "util"}},
		},
	}

	got := Encode(rep)
	want := strings.Join([]string{
		"repo: myrepo",
		"files[2]{path,rank,functions,classes,status}:",
		"  src/main.py,0.7500,1,1,ok",
		"  src/util.py,0.2500,1,0,ok",
		"imports[2]{file,module}:",
		"  src/main.py,os",
		"  src/main.py,util",
		"symbols[3]{file,name,kind,start,end,signature}:",
		"  src/main.py,App,class,1,3,App",
		"  src/main.py,main,function,4,6,main()",
		"  src/util.py,helper,function,1,2,helper(x)",
		"dependencies[1]{source,target,symbols}:",
		"  src/main.py,src/util.py,helper util",
		"calls[1]{file,caller,callee}:",
		"  src/main.py,main,util.helper",
	}, "\n")
	if got != want {
		t.Errorf("Encode mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncodeDegraded(t *testing.T) {
	t.Parallel()

	rep := &model.Report{
		Repo: "r",
		Files: []model.RankedFile{
			{SourceFile: model.SourceFile{Path: "bad.py", ParseError: "syntax error at line 2"}, Rank: 1},
		},
	}

	got := Encode(rep)
	if !strings.Contains(got, "  bad.py,1.0000,0,0,degraded") {
		t.Errorf("expected degraded file row, got:\n%s", got)
	}
	if !strings.Contains(got, "errors[1]{file,reason}:\n  bad.py,syntax error at line 2") {
		t.Errorf("expected errors section, got:\n%s", got)
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Report{Repo: "empty"})
	if !strings.Contains(got, "files[0]{path,rank,functions,classes,status}:") {
		t.Errorf("expected empty files section, got:\n%s", got)
	}
	if !strings.Contains(got, "symbols[0]{file,name,kind,start,end,signature}:") {
		t.Errorf("expected empty symbols section, got:\n%s", got)
	}
	if strings.Contains(got, "errors[") {
		t.Errorf("errors section should be omitted, got:\n%s", got)
	}
}

func TestEncodeChunks(t *testing.T) {
	t.Parallel()

	chunks := []model.Chunk{
		{Kind: model.FunctionChunk, Name: "f", Text: "def f():\n    pass", Span: &model.Span{Start: 1, End: 2}, OwnerPath: "a.py"},
		{Kind: model.FileChunk, Name: "b.py", Text: "héllo", OwnerPath: "b.py"},
	}
	got := EncodeChunks(chunks)
	want := "chunks[2]{file,type,name,start,end,chars}:\n" +
		"  a.py,function,f,1,2,17\n" +
		`  b.py,file,b.py,"","",5`
	if got != want {
		t.Errorf("EncodeChunks mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncodeSummaries(t *testing.T) {
	t.Parallel()

	items := []summarize.ChunkSummary{
		{
			Chunk:   model.Chunk{Kind: model.FunctionChunk, Name: "f", OwnerPath: "a.py"},
			Summary: summarize.Summary{OneLiner: "Does f, then g"},
			Status:  summarize.Success,
		},
	}
	got := EncodeSummaries(items)
	want := "summaries[1]{file,type,name,status,one_liner}:\n" +
		`  a.py,function,f,success,"Does f, then g"`
	if got != want {
		t.Errorf("EncodeSummaries mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}
