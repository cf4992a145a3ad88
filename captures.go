package fcheck

import "slices"

// Captures holds the text bound by "[[name:regex]]" declarations of accepted
// directives. Bindings are only added or replaced during a run.
type Captures struct {
	binds map[string]string
	order []string
}

func (cs *Captures) Lookup(name string) (string, bool) {
	if cs == nil {
		return "", false
	}
	v, ok := cs.binds[name]
	return v, ok
}

func (cs *Captures) bind(name, text string) {
	if cs.binds == nil {
		cs.binds = make(map[string]string)
	}
	if _, ok := cs.binds[name]; !ok {
		cs.order = append(cs.order, name)
	}
	cs.binds[name] = text
}

// Names returns the bound names in the order they were first bound.
func (cs *Captures) Names() []string {
	if cs == nil {
		return nil
	}
	return slices.Clone(cs.order)
}

func (cs *Captures) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.order)
}
