package shader

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"render-scaffold/core"
	"render-scaffold/gpu"
	"render-scaffold/gpu/gputest"
	"render-scaffold/log"
)

// silentContext reports empty info logs, as some drivers do.
type silentContext struct {
	*gputest.Context
}

func (silentContext) ShaderInfoLog(gpu.Shader) string   { return "" }
func (silentContext) ProgramInfoLog(gpu.Program) string { return "" }

const vertexSrc = `attribute vec2 aPosition;
attribute vec2 aUV;
varying vec2 vUV;
void main() {
	vUV = aUV;
	gl_Position = vec4(aPosition, 0.0, 1.0);
}
`

const fragmentSrc = `uniform sampler2D uImage;
uniform sampler2D uMask;
uniform float uTime;
uniform vec2 uResolution;
uniform mat4 uTransform;
varying vec2 vUV;
void main() {
	gl_FragColor = texture2D(uImage, vUV) * texture2D(uMask, vUV);
}
`

func TestCompile(t *testing.T) {
	ctx := gputest.New()
	ctx.Preamble[gpu.FragmentStage] = "precision mediump float;\n"
	p := NewPipeline(ctx)

	stage, err := p.Compile(fragmentSrc, gpu.FragmentStage)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if stage.Handle == 0 || stage.Kind != gpu.FragmentStage {
		t.Errorf("Compile: unexpected stage %+v", stage)
	}
	if stage.Source != fragmentSrc {
		t.Error("Compile: stage source should exclude the preamble")
	}
	if got := ctx.Shader(stage.Handle).Source; !strings.HasPrefix(got, "precision mediump float;\n") {
		t.Errorf("Compile: expected preamble to be submitted, got %q", got)
	}
}

func TestCompileError(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)

	src := "void main() {}\n#error unsupported target\n"
	stage, err := p.Compile(src, gpu.VertexStage)
	if stage != nil {
		t.Error("Compile: expected no stage on failure")
	}
	if !errors.Is(err, ErrCompile) {
		t.Fatalf("Compile: expected ErrCompile, got %v", err)
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile: expected *CompileError, got %T", err)
	}
	if ce.Log == "" || !strings.Contains(ce.Log, "unsupported target") {
		t.Errorf("CompileError: expected diagnostic, got %q", ce.Log)
	}
	if ce.Source != src || ce.Kind != gpu.VertexStage {
		t.Errorf("CompileError: unexpected %+v", ce)
	}
	if len(p.Stages()) != 0 {
		t.Errorf("Stages: expected none, got %d", len(p.Stages()))
	}
}

func TestCompileErrorWithoutInfoLog(t *testing.T) {
	p := NewPipeline(silentContext{gputest.New()})

	_, err := p.Compile("#error boom\n", gpu.FragmentStage)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile: expected *CompileError, got %v", err)
	}
	if ce.Log == "" {
		t.Error("CompileError: expected a diagnostic when the info log is empty")
	}
	if !strings.Contains(ce.Error(), "fragment") {
		t.Errorf("CompileError: expected stage kind in %q", ce.Error())
	}
}

func TestLink(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)

	prog, err := p.Build(vertexSrc, fragmentSrc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ctx.Count("CompileShader") != 2 || ctx.Count("LinkProgram") != 1 {
		t.Errorf("Build: expected 2 compiles and 1 link, got %v", ctx.Calls)
	}
	if len(prog.Stages) != 2 {
		t.Errorf("Stages: expected 2, got %d", len(prog.Stages))
	}
	if !ctx.Program(prog.Handle).Linked {
		t.Error("Link: program not linked")
	}
}

func TestLinkWarningIsNotFatal(t *testing.T) {
	ctx := gputest.New()
	ctx.LinkWarning = "warning: varying vUV written but never read"
	p := NewPipeline(ctx)

	if _, err := p.Build(vertexSrc, fragmentSrc); err != nil {
		t.Fatalf("Build: expected success with warning, got %v", err)
	}
}

func TestLinkError(t *testing.T) {
	ctx := gputest.New()
	ctx.FailLink = "error: too many varyings"
	p := NewPipeline(ctx)

	prog, err := p.Build(vertexSrc, fragmentSrc)
	if prog != nil {
		t.Error("Build: expected no program on link failure")
	}
	var le *LinkError
	if !errors.As(err, &le) || !errors.Is(err, ErrLink) {
		t.Fatalf("Build: expected *LinkError, got %v", err)
	}
	if le.Log != "error: too many varyings" {
		t.Errorf("LinkError: unexpected log %q", le.Log)
	}
	if len(p.Programs()) != 0 {
		t.Error("Programs: failed program must not be retained")
	}
}

func TestLinkErrorWithoutInfoLog(t *testing.T) {
	var out bytes.Buffer
	log.SetSink(&out)
	defer log.SetSink(os.Stdout)

	ctx := gputest.New()
	ctx.FailLink = "error: too many varyings"
	p := NewPipeline(silentContext{ctx})

	_, err := p.Build(vertexSrc, fragmentSrc)
	var le *LinkError
	if !errors.As(err, &le) {
		t.Fatalf("Build: expected *LinkError, got %v", err)
	}
	if le.Log == "" {
		t.Error("LinkError: expected a diagnostic when the info log is empty")
	}
	for _, line := range []string{"   1: attribute vec2 aPosition;", "   1: uniform sampler2D uImage;"} {
		if !strings.Contains(out.String(), line) {
			t.Errorf("link failure log: expected stage source line %q", line)
		}
	}
}

func TestLinkMissingStage(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)

	vert, err := p.Compile(vertexSrc, gpu.VertexStage)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := p.Link(vert); !errors.Is(err, ErrLink) {
		t.Errorf("Link: expected ErrLink, got %v", err)
	}
}

func TestUniformCache(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)
	prog, err := p.Build(vertexSrc, fragmentSrc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, ok := prog.Uniform("uTime"); !ok {
			t.Fatal("Uniform: expected uTime")
		}
		if _, ok := prog.Uniform("uMissing"); ok {
			t.Fatal("Uniform: expected uMissing to be absent")
		}
	}
	if n := ctx.Count("UniformLocation"); n != 2 {
		t.Errorf("Uniform: expected 2 lookups, got %d", n)
	}
}

func TestResolve(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)
	prog, err := p.Build(vertexSrc, fragmentSrc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	prog.Resolve("uTime", "uResolution", "uMissing")
	if n := ctx.Count("UniformLocation"); n != 3 {
		t.Fatalf("Resolve: expected 3 lookups, got %d", n)
	}
	if err := prog.Upload(map[string]any{"uTime": 1.0, "uResolution": [2]float32{1, 1}, "uMissing": 0.5}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if n := ctx.Count("UniformLocation"); n != 3 {
		t.Errorf("Upload: expected resolved locations to be reused, got %d lookups", n)
	}
}

func TestBindSamplers(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)
	prog, err := p.Build(vertexSrc, fragmentSrc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	prog.BindSamplers("uImage", "uUnused", "uMask")

	image, _ := prog.Uniform("uImage")
	mask, _ := prog.Uniform("uMask")
	if ctx.Uniforms[image] != int32(0) {
		t.Errorf("uImage: expected unit 0, got %v", ctx.Uniforms[image])
	}
	if ctx.Uniforms[mask] != int32(2) {
		t.Errorf("uMask: expected unit 2, got %v", ctx.Uniforms[mask])
	}
}

func TestUpload(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)
	prog, err := p.Build(vertexSrc, fragmentSrc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	err = prog.Upload(map[string]any{
		"uTime":       1.5,
		"uResolution": mgl32.Vec2{640, 480},
		"uTransform":  mgl32.Ident4(),
		"uAbsent":     float32(3),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	timeLoc, _ := prog.Uniform("uTime")
	if ctx.Uniforms[timeLoc] != float32(1.5) {
		t.Errorf("uTime: expected 1.5, got %v", ctx.Uniforms[timeLoc])
	}
	res, _ := prog.Uniform("uResolution")
	if ctx.Uniforms[res] != [2]float32{640, 480} {
		t.Errorf("uResolution: expected [640 480], got %v", ctx.Uniforms[res])
	}
	xf, _ := prog.Uniform("uTransform")
	if ctx.Uniforms[xf] != [16]float32(mgl32.Ident4()) {
		t.Errorf("uTransform: expected identity, got %v", ctx.Uniforms[xf])
	}

	if err := prog.Upload(map[string]any{"uTime": "soon"}); err == nil {
		t.Error("Upload: expected error for unsupported type")
	}
}

func TestUploadParams(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)
	prog, err := p.Build(vertexSrc, fragmentSrc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	prog.UploadParams(core.Params{"uTime": 2, "Speed": 4})
	loc, _ := prog.Uniform("uTime")
	if ctx.Uniforms[loc] != float32(2) {
		t.Errorf("uTime: expected 2, got %v", ctx.Uniforms[loc])
	}
}

func TestActiveAttributesRequeried(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)
	prog, err := p.Build(vertexSrc, fragmentSrc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	attrs := prog.ActiveAttributes()
	prog.ActiveAttributes()
	if len(attrs) != 2 || attrs[0].Name != "aPosition" || attrs[1].Components != 2 {
		t.Errorf("ActiveAttributes: unexpected %+v", attrs)
	}
	if n := ctx.Count("ActiveAttributes"); n != 2 {
		t.Errorf("ActiveAttributes: expected 2 queries, got %d", n)
	}
}

func TestDestroy(t *testing.T) {
	ctx := gputest.New()
	p := NewPipeline(ctx)
	prog, err := p.Build(vertexSrc, fragmentSrc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	handle := prog.Handle
	stages := []gpu.Shader{prog.Stages[0].Handle, prog.Stages[1].Handle}

	// Stages stay alive after linking.
	for _, s := range stages {
		if ctx.Shader(s).Deleted {
			t.Fatalf("Link: stage %d deleted early", s)
		}
	}

	p.Destroy()
	if !ctx.Program(handle).Deleted {
		t.Error("Destroy: program not deleted")
	}
	for _, s := range stages {
		if !ctx.Shader(s).Deleted {
			t.Errorf("Destroy: stage %d not deleted", s)
		}
	}
	if prog.Handle != 0 {
		t.Error("Destroy: program handle not cleared")
	}
}

func TestDecodeSource(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(fragmentSrc))
	src, err := DecodeSource(encoded + "\n")
	if err != nil {
		t.Fatalf("DecodeSource: %v", err)
	}
	if src != fragmentSrc {
		t.Error("DecodeSource: round trip mismatch")
	}
	if _, err := DecodeSource("not base64!"); err == nil {
		t.Error("DecodeSource: expected error")
	}
}
