package viewer

import "sync"

// LifecycleObserver receives host visibility changes.
type LifecycleObserver interface {
	OnResume()
	OnPause()
	OnDestroy()
}

// Lifecycle is the host's visibility state machine.
type Lifecycle interface {
	AddObserver(LifecycleObserver)
	RemoveObserver(LifecycleObserver)
}

// HostState is the state of a LifecycleRegistry.
type HostState int

const (
	HostCreated HostState = iota
	HostResumed
	HostPaused
	HostDestroyed
)

// LifecycleRegistry is a Lifecycle driven explicitly by the host window
// code. Observers added while the host is resumed are resumed immediately.
type LifecycleRegistry struct {
	mu        sync.Mutex
	state     HostState
	observers []LifecycleObserver
}

// NewLifecycleRegistry returns a registry in the created state.
func NewLifecycleRegistry() *LifecycleRegistry {
	return &LifecycleRegistry{}
}

// State returns the current host state.
func (r *LifecycleRegistry) State() HostState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// AddObserver registers o, catching it up to a resumed host.
func (r *LifecycleRegistry) AddObserver(o LifecycleObserver) {
	r.mu.Lock()
	for _, existing := range r.observers {
		if existing == o {
			r.mu.Unlock()
			return
		}
	}
	r.observers = append(r.observers, o)
	resumed := r.state == HostResumed
	r.mu.Unlock()

	if resumed {
		o.OnResume()
	}
}

// RemoveObserver unregisters o.
func (r *LifecycleRegistry) RemoveObserver(o LifecycleObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.observers {
		if existing == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Resume moves the host to the foreground.
func (r *LifecycleRegistry) Resume() {
	r.transition(HostResumed, LifecycleObserver.OnResume)
}

// Pause moves the host to the background.
func (r *LifecycleRegistry) Pause() {
	r.transition(HostPaused, LifecycleObserver.OnPause)
}

// Destroy tears the host down. It pauses first when resumed.
func (r *LifecycleRegistry) Destroy() {
	if r.State() == HostResumed {
		r.Pause()
	}
	r.transition(HostDestroyed, LifecycleObserver.OnDestroy)
}

func (r *LifecycleRegistry) transition(to HostState, notify func(LifecycleObserver)) {
	r.mu.Lock()
	if r.state == to || r.state == HostDestroyed {
		r.mu.Unlock()
		return
	}
	r.state = to
	observers := append([]LifecycleObserver(nil), r.observers...)
	r.mu.Unlock()

	for _, o := range observers {
		notify(o)
	}
}
