package forms

import (
	"sync"

	"operatorpanel/src/model"
)

// RegisterForm backs the one-time operator account creation.
type RegisterForm struct {
	*Form

	docMu   sync.Mutex
	doc     model.UserCreate
	confirm string
}

func NewRegisterForm() *RegisterForm {
	rf := &RegisterForm{Form: NewForm()}

	rf.Register("username", FieldSpec{
		Get: func() string {
			rf.docMu.Lock()
			defer rf.docMu.Unlock()
			return rf.doc.Username
		},
		Set: func(raw string) error {
			rf.docMu.Lock()
			defer rf.docMu.Unlock()
			rf.doc.Username = raw
			return nil
		},
		Rules: []Rule{Required(), NoWhitespace()},
	})

	rf.Register("password", FieldSpec{
		Get: func() string {
			rf.docMu.Lock()
			defer rf.docMu.Unlock()
			return rf.doc.Password
		},
		Set: func(raw string) error {
			rf.docMu.Lock()
			defer rf.docMu.Unlock()
			rf.doc.Password = raw
			return nil
		},
		Rules: []Rule{Required(), MinLen(8), NoWhitespace()},
	})

	rf.Register("confirm", FieldSpec{
		Get: func() string {
			rf.docMu.Lock()
			defer rf.docMu.Unlock()
			return rf.confirm
		},
		Set: func(raw string) error {
			rf.docMu.Lock()
			defer rf.docMu.Unlock()
			rf.confirm = raw
			return nil
		},
		Rules: []Rule{
			Required(),
			Matches(func() string {
				rf.docMu.Lock()
				defer rf.docMu.Unlock()
				return rf.doc.Password
			}, "passwords do not match"),
		},
	})

	return rf
}

func (rf *RegisterForm) Document() model.UserCreate {
	rf.docMu.Lock()
	defer rf.docMu.Unlock()
	return rf.doc
}
