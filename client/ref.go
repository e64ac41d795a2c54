package client

import "weak"

// Ref is a non-owning reference to a client instance.
type Ref interface {
	// Resolve returns the instance if it is still alive.
	Resolve() (Handle, bool)
}

type weakRef struct {
	p weak.Pointer[Instance]
}

// Weak returns a Ref that does not keep inst alive.
func Weak(inst *Instance) Ref {
	return weakRef{p: weak.Make(inst)}
}

func (r weakRef) Resolve() (Handle, bool) {
	inst := r.p.Value()
	if inst == nil || inst.closed.Load() {
		return nil, false
	}
	return inst, true
}
