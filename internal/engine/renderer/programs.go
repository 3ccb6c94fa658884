package renderer

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/engine/renderer/shaders"
	"github.com/Faultbox/glbviewer/internal/engine/shader"
	"github.com/Faultbox/glbviewer/internal/viewer"
)

// program is a compiled variant with its uniform cache.
type program struct {
	id       uint32
	uniforms *shader.Uniforms
}

func (p *program) loc(name string) int32 {
	return p.uniforms.Loc(name)
}

// programs compiles and caches shader variants. Low priority requests are
// queued and built one per frame.
type programs struct {
	log      *zap.Logger
	compiled map[programKey]*program
	failed   map[programKey]error
	queue    []programKey
}

func newPrograms(log *zap.Logger) *programs {
	return &programs{
		log:      log,
		compiled: make(map[programKey]*program),
		failed:   make(map[programKey]error),
	}
}

// get returns the program for k, compiling it now if needed.
func (ps *programs) get(k programKey) (*program, error) {
	if p, ok := ps.compiled[k]; ok {
		return p, nil
	}
	if err, ok := ps.failed[k]; ok {
		return nil, err
	}
	id, err := shader.CompileVariant(shaders.ModelVertexShader, shaders.ModelFragmentShader, k.defines()...)
	if err != nil {
		err = fmt.Errorf("variant %s: %w", strings.Join(k.defines(), "|"), err)
		ps.failed[k] = err
		ps.log.Error("shader variant failed", zap.Error(err))
		return nil, err
	}
	p := &program{id: id, uniforms: shader.NewUniforms(id)}
	ps.compiled[k] = p
	ps.log.Debug("compiled shader variant", zap.Strings("defines", k.defines()))
	return p, nil
}

// request compiles k now for high priority, or queues it.
func (ps *programs) request(k programKey, p viewer.Priority) error {
	if p == viewer.PriorityHigh {
		_, err := ps.get(k)
		return err
	}
	if _, ok := ps.compiled[k]; ok {
		return nil
	}
	for _, q := range ps.queue {
		if q == k {
			return nil
		}
	}
	ps.queue = append(ps.queue, k)
	return nil
}

// step compiles at most one queued variant.
func (ps *programs) step() {
	if len(ps.queue) == 0 {
		return
	}
	k := ps.queue[0]
	ps.queue = ps.queue[1:]
	_, _ = ps.get(k) // failures are logged and cached
}

// pending reports the number of queued variants.
func (ps *programs) pending() int {
	return len(ps.queue)
}

func (ps *programs) destroy() {
	for k, p := range ps.compiled {
		gl.DeleteProgram(p.id)
		delete(ps.compiled, k)
	}
	clear(ps.failed)
	ps.queue = nil
}
