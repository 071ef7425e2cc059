package forms

import (
	"sync"

	"operatorpanel/src/model"
)

type ApiKeyFormMode int

const (
	// ApiKeyAdd requires both the name and the secret value.
	ApiKeyAdd ApiKeyFormMode = iota
	// ApiKeyEdit only renames: the secret is write-only and never editable.
	ApiKeyEdit
)

// ApiKeyForm backs both the add form and the edit dialog; the two modes carry
// different required-field sets.
type ApiKeyForm struct {
	*Form

	mode ApiKeyFormMode

	docMu sync.Mutex
	doc   model.ApiKeyCreate
}

func NewApiKeyForm(mode ApiKeyFormMode) *ApiKeyForm {
	af := &ApiKeyForm{Form: NewForm(), mode: mode}

	af.Register("name", FieldSpec{
		Get: func() string {
			af.docMu.Lock()
			defer af.docMu.Unlock()
			return af.doc.Name
		},
		Set: func(raw string) error {
			af.docMu.Lock()
			defer af.docMu.Unlock()
			af.doc.Name = raw
			return nil
		},
		Rules: []Rule{Required()},
	})

	if mode == ApiKeyAdd {
		af.Register("key", FieldSpec{
			Get: func() string {
				af.docMu.Lock()
				defer af.docMu.Unlock()
				return af.doc.Key
			},
			Set: func(raw string) error {
				af.docMu.Lock()
				defer af.docMu.Unlock()
				af.doc.Key = raw
				return nil
			},
			Rules: []Rule{Required(), MinLen(8), NoWhitespace()},
		})
	}

	return af
}

func (af *ApiKeyForm) Mode() ApiKeyFormMode { return af.mode }

// Load seeds the edit form from a server record and clears all flags.
func (af *ApiKeyForm) Load(name string) {
	af.docMu.Lock()
	af.doc = model.ApiKeyCreate{Name: name}
	af.docMu.Unlock()
	af.ClearState()
}

// Reset empties the form, used after a successful add.
func (af *ApiKeyForm) Reset() {
	af.Load("")
}

func (af *ApiKeyForm) Document() model.ApiKeyCreate {
	af.docMu.Lock()
	defer af.docMu.Unlock()
	return af.doc
}

func (af *ApiKeyForm) UpdateDocument() model.ApiKeyUpdate {
	af.docMu.Lock()
	defer af.docMu.Unlock()
	return model.ApiKeyUpdate{Name: af.doc.Name}
}
