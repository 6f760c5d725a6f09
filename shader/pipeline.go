// Package shader compiles shader stages and links them into programs.
package shader

import (
	"encoding/base64"
	"fmt"
	"strings"

	"render-scaffold/gpu"
	"render-scaffold/log"
)

var logger = log.New("shader")

// Stage is a compiled shader object. It is never modified after Compile
// returns it.
type Stage struct {
	Handle gpu.Shader
	Kind   gpu.StageKind
	Source string
}

// Pipeline owns every stage and program it creates. Stages stay alive after
// linking and are released together with the programs by Destroy.
type Pipeline struct {
	ctx      gpu.Context
	stages   []*Stage
	programs []*Program
}

func NewPipeline(ctx gpu.Context) *Pipeline {
	return &Pipeline{ctx: ctx}
}

// Compile submits source for one stage. The backend's dialect preamble is
// prepended before compilation.
func (p *Pipeline) Compile(source string, kind gpu.StageKind) (*Stage, error) {
	handle := p.ctx.CreateShader(kind)
	p.ctx.ShaderSource(handle, p.ctx.ShaderPreamble(kind)+source)
	p.ctx.CompileShader(handle)

	if !p.ctx.ShaderCompiled(handle) {
		infoLog := strings.TrimRight(p.ctx.ShaderInfoLog(handle), "\x00\n ")
		if infoLog == "" {
			infoLog = fmt.Sprintf("%s shader compile failed (no info log)", kind)
		}
		logger.Errorf("%s shader source:\n%s", kind, numberLines(source))
		logger.Errorf("%s shader info log:\n%s", kind, infoLog)
		p.ctx.DeleteShader(handle)
		return nil, &CompileError{Kind: kind, Source: source, Log: infoLog}
	}

	stage := &Stage{Handle: handle, Kind: kind, Source: source}
	p.stages = append(p.stages, stage)
	logger.Debugf("compiled %s shader %d", kind, handle)
	return stage, nil
}

// Link attaches the stages in order and links them. A successful link that
// still produced an info log is reported as a warning.
func (p *Pipeline) Link(stages ...*Stage) (*Program, error) {
	handle := p.ctx.CreateProgram()
	for _, s := range stages {
		p.ctx.AttachShader(handle, s.Handle)
	}
	p.ctx.LinkProgram(handle)

	infoLog := strings.TrimRight(p.ctx.ProgramInfoLog(handle), "\x00\n ")
	if !p.ctx.ProgramLinked(handle) {
		if infoLog == "" {
			infoLog = "program link failed (no info log)"
		}
		for _, s := range stages {
			logger.Errorf("%s shader source:\n%s", s.Kind, numberLines(s.Source))
		}
		logger.Errorf("program link log:\n%s", infoLog)
		p.ctx.DeleteProgram(handle)
		return nil, &LinkError{Log: infoLog}
	}
	if infoLog != "" {
		logger.Warningf("program %d linked with warnings:\n%s", handle, infoLog)
	}

	prog := &Program{
		Handle:   handle,
		Stages:   append([]*Stage(nil), stages...),
		ctx:      p.ctx,
		uniforms: make(map[string]gpu.UniformLocation),
	}
	p.programs = append(p.programs, prog)
	logger.Debugf("linked program %d from %d stages", handle, len(stages))
	return prog, nil
}

// Build compiles a vertex and a fragment source and links them.
func (p *Pipeline) Build(vertexSrc, fragmentSrc string) (*Program, error) {
	vert, err := p.Compile(vertexSrc, gpu.VertexStage)
	if err != nil {
		return nil, fmt.Errorf("vertex: %w", err)
	}
	frag, err := p.Compile(fragmentSrc, gpu.FragmentStage)
	if err != nil {
		return nil, fmt.Errorf("fragment: %w", err)
	}
	return p.Link(vert, frag)
}

func (p *Pipeline) Stages() []*Stage     { return p.stages }
func (p *Pipeline) Programs() []*Program { return p.programs }

// Destroy deletes every program, then every stage.
func (p *Pipeline) Destroy() {
	for _, prog := range p.programs {
		p.ctx.DeleteProgram(prog.Handle)
		prog.Handle = 0
	}
	for _, s := range p.stages {
		p.ctx.DeleteShader(s.Handle)
		s.Handle = 0
	}
	p.programs = nil
	p.stages = nil
}

// DecodeSource decodes a base64-encoded shader payload.
func DecodeSource(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("shader: decode source: %w", err)
	}
	return string(raw), nil
}

func numberLines(source string) string {
	lines := strings.Split(source, "\n")
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%4d: %s\n", i+1, line)
	}
	return b.String()
}
