// Package demo holds the catalog plumbing shared by every computer vision
// demo: the Demo type, the Registry and the Env a demo runs in.
package demo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrDuplicateDemo = errors.New("demo already registered")
	ErrInvalidDemo   = errors.New("demo needs a name and a run function")
	ErrUnknownDemo   = errors.New("unknown demo")
	ErrEmptyImage    = errors.New("image is empty")
	ErrBadParam      = errors.New("bad parameter")
)

// Demo is one standalone pipeline: load inputs, call OpenCV, show results.
type Demo struct {
	Name    string
	Group   string
	Summary string
	// Inputs lists the sample names the demo reads, in order.
	Inputs []string
	Run    func(env *Env) error
}

// Registry keeps demos by name.
type Registry struct {
	mu    sync.RWMutex
	demos map[string]Demo
}

func NewRegistry() *Registry {
	return &Registry{demos: make(map[string]Demo)}
}

// Register adds a demo. Names are unique.
func (r *Registry) Register(d Demo) error {
	if d.Name == "" || d.Run == nil {
		return ErrInvalidDemo
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.demos[d.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDemo, d.Name)
	}
	r.demos[d.Name] = d
	return nil
}

// MustRegister is Register for package init code.
func (r *Registry) MustRegister(demos ...Demo) {
	for _, d := range demos {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(name string) (Demo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.demos[name]
	if !ok {
		return Demo{}, fmt.Errorf("%w: %s", ErrUnknownDemo, name)
	}
	return d, nil
}

// List returns every demo ordered by group, then name.
func (r *Registry) List() []Demo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Demo, 0, len(r.demos))
	for _, d := range r.demos {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Group != list[j].Group {
			return list[i].Group < list[j].Group
		}
		return list[i].Name < list[j].Name
	})
	return list
}

// Group returns the demos of one group, ordered by name.
func (r *Registry) Group(group string) []Demo {
	var out []Demo
	for _, d := range r.List() {
		if d.Group == group {
			out = append(out, d)
		}
	}
	return out
}

// Groups returns the sorted group names.
func (r *Registry) Groups() []string {
	seen := map[string]bool{}
	var groups []string
	for _, d := range r.List() {
		if !seen[d.Group] {
			seen[d.Group] = true
			groups = append(groups, d.Group)
		}
	}
	return groups
}
