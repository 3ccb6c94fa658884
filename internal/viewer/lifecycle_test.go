package viewer

import (
	"reflect"
	"testing"
)

type recorder struct {
	name   string
	events *[]string
}

func (r *recorder) OnResume()  { *r.events = append(*r.events, r.name+":resume") }
func (r *recorder) OnPause()   { *r.events = append(*r.events, r.name+":pause") }
func (r *recorder) OnDestroy() { *r.events = append(*r.events, r.name+":destroy") }

func TestLifecycleRegistry(t *testing.T) {
	var events []string
	a := &recorder{"a", &events}
	b := &recorder{"b", &events}

	r := NewLifecycleRegistry()
	r.AddObserver(a)
	r.AddObserver(a)
	r.Pause() // created -> paused without a resume is still a transition
	r.Resume()
	r.Resume()
	r.AddObserver(b) // caught up immediately
	r.RemoveObserver(a)
	r.Destroy()
	r.Resume()

	want := []string{
		"a:pause",
		"a:resume",
		"b:resume",
		"b:pause",
		"b:destroy",
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v\nwant %v", events, want)
	}
	if r.State() != HostDestroyed {
		t.Errorf("state = %v", r.State())
	}
}

type selfRemover struct {
	r     *LifecycleRegistry
	calls int
}

func (s *selfRemover) OnResume() {
	s.calls++
	s.r.RemoveObserver(s)
}
func (s *selfRemover) OnPause()   {}
func (s *selfRemover) OnDestroy() {}

func TestLifecycleObserverRemovesItself(t *testing.T) {
	r := NewLifecycleRegistry()
	s := &selfRemover{r: r}
	var events []string
	other := &recorder{"x", &events}
	r.AddObserver(s)
	r.AddObserver(other)

	r.Resume()
	r.Pause()
	r.Resume()

	if s.calls != 1 {
		t.Errorf("self-removing observer called %d times", s.calls)
	}
	want := []string{"x:resume", "x:pause", "x:resume"}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}
