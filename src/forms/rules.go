package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Rule is a synchronous validator over a field's raw input. Every rule except
// Required treats the empty string as valid, so optional fields only validate
// once something was typed.
type Rule func(value string) error

func Required() Rule {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return errors.New("required")
		}
		return nil
	}
}

func MinLen(n int) Rule {
	return func(value string) error {
		if value == "" {
			return nil
		}
		if len(value) < n {
			return fmt.Errorf("must be at least %d characters", n)
		}
		return nil
	}
}

func NoWhitespace() Rule {
	return func(value string) error {
		if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
			return errors.New("must not contain whitespace")
		}
		return nil
	}
}

func IntRange(min, max int) Rule {
	return func(value string) error {
		if value == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return errors.New("must be a whole number")
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %d and %d", min, max)
		}
		return nil
	}
}

// Matches checks cross-field equality, e.g. password confirmation. other is
// read at validation time so ordering of edits does not matter.
func Matches(other func() string, msg string) Rule {
	return func(value string) error {
		if value == "" {
			return nil
		}
		if value != other() {
			return errors.New(msg)
		}
		return nil
	}
}
