package forms

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FieldSpec binds a named field to a location in the form's document mirror.
// Get and Set are typed accessor closures (the lens for that leaf), so paths
// are checked at compile time instead of being interpolated strings.
type FieldSpec struct {
	Get   func() string
	Set   func(raw string) error
	Rules []Rule
}

type field struct {
	spec  FieldSpec
	dirty bool
	err   error
	// badInput keeps input that failed parsing. The mirror still holds the
	// previous valid value, but validation must keep reporting the failure.
	badInput *string
}

// Form tracks per-field dirty and error state over a document mirror owned by
// a concrete form type (ConfigForm, ApiKeyForm, ...). Updating one leaf never
// touches its siblings.
type Form struct {
	mu     sync.Mutex
	fields map[string]*field
}

func NewForm() *Form {
	return &Form{fields: make(map[string]*field)}
}

func (f *Form) Register(name string, spec FieldSpec) {
	f.mu.Lock()
	f.fields[name] = &field{spec: spec}
	f.mu.Unlock()
}

// DeregisterPrefix drops every field whose name starts with prefix. Dynamic
// list sections use it before re-registering shifted indices.
func (f *Form) DeregisterPrefix(prefix string) {
	f.mu.Lock()
	for name := range f.fields {
		if strings.HasPrefix(name, prefix) {
			delete(f.fields, name)
		}
	}
	f.mu.Unlock()
}

// Set updates a single leaf: run the field's rules, write through the lens,
// mark it dirty. A rule or parse failure is recorded on the field and the
// mirror keeps its previous value.
func (f *Form) Set(name, raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fld, ok := f.fields[name]
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	fld.dirty = true

	for _, rule := range fld.spec.Rules {
		if err := rule(raw); err != nil {
			fld.err = err
			fld.badInput = &raw
			return err
		}
	}
	if err := fld.spec.Set(raw); err != nil {
		fld.err = err
		fld.badInput = &raw
		return err
	}
	fld.err = nil
	fld.badInput = nil
	return nil
}

func (f *Form) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	fld, ok := f.fields[name]
	if !ok {
		return ""
	}
	if fld.badInput != nil {
		return *fld.badInput
	}
	return fld.spec.Get()
}

func (f *Form) Dirty(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	fld, ok := f.fields[name]
	return ok && fld.dirty
}

func (f *Form) FieldError(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fld, ok := f.fields[name]; ok {
		return fld.err
	}
	return nil
}

// SetExternalError attaches an error produced outside the synchronous rules,
// e.g. a remote uniqueness check.
func (f *Form) SetExternalError(name string, err error) {
	f.mu.Lock()
	if fld, ok := f.fields[name]; ok {
		fld.err = err
	}
	f.mu.Unlock()
}

// ValidateAll runs every field's rules over its current value and returns the
// failures keyed by field name. A field holding unparseable input keeps
// failing until corrected.
func (f *Form) ValidateAll() map[string]error {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make(map[string]error)
	for name, fld := range f.fields {
		if fld.badInput != nil {
			errs[name] = fld.err
			continue
		}
		value := fld.spec.Get()
		fld.err = nil
		for _, rule := range fld.spec.Rules {
			if err := rule(value); err != nil {
				fld.err = err
				errs[name] = err
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ClearState resets every dirty/error flag. Load paths call it after the
// mirror was replaced wholesale.
func (f *Form) ClearState() {
	f.mu.Lock()
	for _, fld := range f.fields {
		fld.dirty = false
		fld.err = nil
		fld.badInput = nil
	}
	f.mu.Unlock()
}

func (f *Form) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.fields))
	for name := range f.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
