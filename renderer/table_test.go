package renderer

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"render-scaffold/gpu"
	"render-scaffold/gpu/gputest"
	"render-scaffold/shader"
)

func recordingEntry(name string, frames *[]Frame) Entry {
	return Entry{Name: name, Draw: func(f Frame) error {
		*frames = append(*frames, f)
		return nil
	}}
}

func TestTableInvoke(t *testing.T) {
	var a, b []Frame
	table, err := NewTable(recordingEntry("feedback", &a), recordingEntry("direct", &b))
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if !reflect.DeepEqual(table.Names(), []string{"feedback", "direct"}) {
		t.Errorf("Names: unexpected %v", table.Names())
	}

	if err := table.Invoke(ByName("direct"), Frame{Index: 4, Time: 10}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if err := table.Invoke(ByIndex(0), Frame{Index: 5, Time: 20}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(a) != 1 || a[0].Index != 5 {
		t.Errorf("feedback: unexpected frames %v", a)
	}
	if len(b) != 1 || b[0].Index != 4 {
		t.Errorf("direct: unexpected frames %v", b)
	}
}

func TestTableUnknownRenderer(t *testing.T) {
	var frames []Frame
	table, err := NewTable(recordingEntry("only", &frames))
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	selectors := []Selector{ByName("missing"), ByName(""), ByIndex(1), ByIndex(-1)}
	for _, sel := range selectors {
		for _, f := range []Frame{{}, {Index: 1 << 40, Time: 1e9, Delta: 16}} {
			err := table.Invoke(sel, f)
			var unknown *UnknownRendererError
			if !errors.As(err, &unknown) || !errors.Is(err, ErrUnknownRenderer) {
				t.Errorf("Invoke(%s): expected UnknownRendererError, got %v", sel, err)
				continue
			}
			if unknown.Selector != sel {
				t.Errorf("Invoke(%s): error carries %s", sel, unknown.Selector)
			}
		}
	}
	if len(frames) != 0 {
		t.Errorf("Invoke: renderer ran %d times", len(frames))
	}
}

func TestTableDrawError(t *testing.T) {
	boom := errors.New("boom")
	table, err := NewTable(Entry{Name: "bad", Draw: func(Frame) error { return boom }})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if err := table.Invoke(ByName("bad"), Frame{}); !errors.Is(err, boom) {
		t.Errorf("Invoke: expected wrapped draw error, got %v", err)
	}
}

func TestNewTableRejects(t *testing.T) {
	draw := func(Frame) error { return nil }
	cases := map[string][]Entry{
		"empty name": {{Name: "", Draw: draw}},
		"nil draw":   {{Name: "x"}},
		"duplicate":  {{Name: "x", Draw: draw}, {Name: "x", Draw: draw}},
	}
	for name, entries := range cases {
		if _, err := NewTable(entries...); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseSelector(t *testing.T) {
	if got := ParseSelector("2"); got != ByIndex(2) {
		t.Errorf("ParseSelector(2): got %s", got)
	}
	if got := ParseSelector("direct"); got != ByName("direct") {
		t.Errorf("ParseSelector(direct): got %s", got)
	}
}

func TestSelectorVar(t *testing.T) {
	v := NewSelectorVar(ByName("a"))
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); v.Set(ByName("b")) }()
		go func() { defer wg.Done(); _ = v.Selector() }()
	}
	wg.Wait()
	if v.Selector() != ByName("b") {
		t.Errorf("SelectorVar: expected \"b\", got %s", v.Selector())
	}
}

const attribVertex = `attribute vec3 aPosition;
attribute vec3 aNormal;
void main() { gl_Position = vec4(aPosition + aNormal, 1.0); }
`

const attribFragment = `void main() { gl_FragColor = vec4(1.0); }
`

func TestUseProgram(t *testing.T) {
	ctx := gputest.New()
	p := shader.NewPipeline(ctx)
	prog, err := p.Build(attribVertex, attribFragment)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	buf := ctx.CreateBuffer()

	UseProgram(ctx, prog, buf, 3)
	UseProgram(ctx, prog, buf, 3)

	if n := ctx.Count("ActiveAttributes"); n != 2 {
		t.Errorf("UseProgram: expected attributes re-queried each call, got %d", n)
	}
	for _, loc := range []gpu.AttribLocation{0, 1} {
		if !ctx.AttribEnabled(loc) {
			t.Errorf("UseProgram: attribute %d not enabled", loc)
		}
	}
	if ctx.Count("VertexAttribPointer 0 3 0 0") != 2 {
		t.Errorf("UseProgram: unexpected calls %v", ctx.Calls)
	}
	if ctx.Count("UseProgram") != 2 || ctx.Count("BindBuffer") != 2 {
		t.Errorf("UseProgram: expected program and buffer rebound, got %v", ctx.Calls)
	}
}

func TestUseProgramDeclaredSizes(t *testing.T) {
	ctx := gputest.New()
	p := shader.NewPipeline(ctx)
	prog, err := p.Build(`attribute vec3 aPosition;
attribute vec2 aOffset;
void main() { gl_Position = vec4(aPosition + vec3(aOffset, 0.0), 1.0); }
`, attribFragment)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	UseProgram(ctx, prog, ctx.CreateBuffer(), 0)

	if ctx.Count("VertexAttribPointer 0 3 0 0") != 1 || ctx.Count("VertexAttribPointer 1 2 0 0") != 1 {
		t.Errorf("UseProgram: expected declared sizes 3 and 2, got %v", ctx.Calls)
	}
}
