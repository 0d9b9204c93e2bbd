package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validator is a function that validates a string and returns an error if invalid
type Validator func(value string) error

// Field creates a labeled validator with a custom name for better error messages
func Field(name string, validators ...Validator) Validator {
	return func(value string) error {
		for _, v := range validators {
			if err := v(value); err != nil {
				if !strings.Contains(err.Error(), name) {
					return fmt.Errorf("%s: %w", name, err)
				}
				return err
			}
		}
		return nil
	}
}

// Compose chains multiple validators; the first error wins
func Compose(validators ...Validator) Validator {
	return func(value string) error {
		for _, v := range validators {
			if err := v(value); err != nil {
				return err
			}
		}
		return nil
	}
}

// Required ensures the field is not empty
func Required() Validator {
	return func(v string) error {
		if v == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	}
}

// RuneMinLength checks minimum length in code points
func RuneMinLength(min int) Validator {
	return func(v string) error {
		if utf8.RuneCountInString(v) < min {
			return fmt.Errorf("must be at least %d characters", min)
		}
		return nil
	}
}

// RuneMaxLength checks maximum length in code points
func RuneMaxLength(max int) Validator {
	return func(v string) error {
		if utf8.RuneCountInString(v) > max {
			return fmt.Errorf("must be no more than %d characters", max)
		}
		return nil
	}
}

// RuneLengthBetween checks code-point length between min and max (inclusive)
func RuneLengthBetween(min, max int) Validator {
	return Compose(RuneMinLength(min), RuneMaxLength(max))
}

// DigitsOnly ensures string contains only digits
func DigitsOnly() Validator {
	return func(v string) error {
		if v == "" {
			return nil // let Required handle empty
		}
		for _, c := range v {
			if !unicode.IsDigit(c) {
				return fmt.Errorf("must contain only digits")
			}
		}
		return nil
	}
}
