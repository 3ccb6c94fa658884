package viewer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrSuperseded is reported to a load callback when a newer load or a
// ClearModel reached the session before its bytes arrived.
var ErrSuperseded = errors.New("viewer: load superseded by a newer request")

// Loader reads model sources on worker goroutines and attaches them on the
// render thread, so file I/O never blocks a frame. A read is attached only
// if nothing else loaded or cleared the session since it started.
type Loader struct {
	session *Session
	poster  Poster
	wg      sync.WaitGroup
}

// NewLoader returns a loader that posts results through poster.
func NewLoader(s *Session, poster Poster) *Loader {
	return &Loader{session: s, poster: poster}
}

// Load starts reading src. Call it on the render thread. done, if non-nil,
// runs on the render thread with the outcome.
func (l *Loader) Load(ctx context.Context, src Source, done func(error)) {
	gen := l.session.supersede()

	assets := l.session.opts.Assets
	log := l.session.log
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		data, err := src.Open(ctx, assets)
		l.poster.Post(func() {
			if !l.session.latest(gen) {
				log.Debug("dropping stale load", zap.String("model", src.ID()))
				finish(done, ErrSuperseded)
				return
			}
			if err != nil {
				log.Error("reading model", zap.String("model", src.ID()), zap.Error(err))
				finish(done, err)
				return
			}
			finish(done, l.session.LoadModel(ctx, BufferSource{Name: src.ID(), Data: data}))
		})
	}()
}

// Wait blocks until every started read has posted its result.
func (l *Loader) Wait() {
	l.wg.Wait()
}

func finish(done func(error), err error) {
	if done != nil {
		done(err)
	}
}
