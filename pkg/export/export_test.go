package export

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treestack/pkg/model"
	"github.com/vanderheijden86/treestack/pkg/tree"
)

// sampleTree builds roadmap[q1[auth billing] q2] with billing hidden and
// auth selected.
func sampleTree(t *testing.T) []model.Node {
	t.Helper()
	auth := tree.NewNode[model.Item]("auth", "Auth rewrite")
	auth.Values = model.Item{Kind: "task", Description: "Replace sessions with tokens.", Tags: []string{"backend"}}
	auth.IsSelected = true
	billing := tree.NewNode[model.Item]("billing", "Billing")
	billing.IsVisible = false
	q1 := tree.NewNode("q1", "Q1", auth, billing)
	q1.IsExpanded = true
	q2 := tree.NewNode[model.Item]("q2", "Q2")
	q2.IsDisabled = true

	c, err := tree.NewCache([]model.Node{q1, q2})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return c.ToTree(true)
}

func keys(rows []Row) string {
	var ks []string
	for _, r := range rows {
		ks = append(ks, r.Key)
	}
	return strings.Join(ks, ",")
}

func TestFlatten(t *testing.T) {
	nodes := sampleTree(t)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"visible only", Options{}, "q1,auth,q2"},
		{"include hidden", Options{IncludeHidden: true}, "q1,auth,billing,q2"},
		{"expanded only", Options{ExpandedOnly: true}, "q1,auth,q2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keys(Flatten(nodes, tt.opts)); got != tt.want {
				t.Errorf("Flatten() = %s, want %s", got, tt.want)
			}
		})
	}

	rows := Flatten(nodes, Options{IncludeHidden: true})
	if !rows[2].Hidden || !rows[2].Last || rows[1].Last {
		t.Errorf("unexpected flags: %+v", rows[1:3])
	}
}

func TestRowPrefix(t *testing.T) {
	a := tree.NewNode("a", "A",
		tree.NewNode("b", "B", tree.NewNode[model.Item]("c", "C")),
		tree.NewNode[model.Item]("d", "D"),
	)
	c, _ := tree.NewCache([]model.Node{a})
	rows := Flatten(c.ToTree(true), Options{})

	want := []string{"", "├── ", "│   └── ", "└── "}
	for i, r := range rows {
		if got := r.Prefix(); got != want[i] {
			t.Errorf("row %s prefix = %q, want %q", r.Key, got, want[i])
		}
	}
}

func TestGenerateMarkdown(t *testing.T) {
	md, err := GenerateMarkdown(sampleTree(t), "Roadmap", Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# Roadmap",
		"- **Nodes**: 3",
		"- **Selected**: 1",
		"- [ ] Q1 `q1`",
		"  - [x] Auth rewrite `auth`",
		"- [ ] ~~Q2~~ `q2`",
		"### Auth rewrite",
		"Replace sessions with tokens.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Billing") {
		t.Error("hidden node should not be exported")
	}
}

func TestSaveMarkdownToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	if err := SaveMarkdownToFile(sampleTree(t), "", path, Options{IncludeHidden: true}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# Tree Export") || !strings.Contains(string(data), "_(hidden)_") {
		t.Errorf("unexpected content:\n%s", data)
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sampleTree(t), "Roadmap <Q>", Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") || !strings.Contains(out, "</svg>") {
		t.Fatalf("not an SVG document:\n%s", out)
	}
	for _, id := range []string{`id="n-q1"`, `id="n-auth"`, `id="n-q2"`} {
		if !strings.Contains(out, id) {
			t.Errorf("missing group %s", id)
		}
	}
	if strings.Contains(out, "Billing") {
		t.Error("hidden node rendered")
	}
	if !strings.Contains(out, "Roadmap &lt;Q&gt;") {
		t.Error("title should be escaped")
	}
	if got := strings.Count(out, "<polyline"); got != 1 {
		t.Errorf("expected 1 connector, got %d", got)
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, sampleTree(t), "Roadmap", Options{}); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	_, width, height := layoutBoxes(Flatten(sampleTree(t), Options{}), "Roadmap")
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		t.Errorf("size %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}

	path := filepath.Join(t.TempDir(), "tree.png")
	if err := SavePNG(path, sampleTree(t), "", Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("png not written: %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleTree(t), "Roadmap", Options{}); err != nil {
		t.Fatal(err)
	}
	var got RobotTree
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.Count != 3 || len(got.Selected) != 1 || got.Selected[0] != "auth" {
		t.Errorf("unexpected summary %+v", got)
	}
	if len(got.Document.Nodes) != 2 || len(got.Document.Nodes[0].Children) != 1 {
		t.Errorf("hidden node should be pruned: %+v", got.Document.Nodes)
	}
}

func TestXMLID(t *testing.T) {
	if got := xmlID("a b/c"); got != "n-a_b_c" {
		t.Errorf("xmlID = %q", got)
	}
}
