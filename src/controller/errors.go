package controller

import "errors"

// ErrValidation means the action was stopped locally and no request was sent.
// Field-level details live on the owning form.
var ErrValidation = errors.New("validation failed")
