package opfield

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// Validator checks secret references, optionally against a vault allow-list.
// The zero value accepts any vault.
type Validator struct {
	// Vaults, when non-empty, lists the only vault names references may use.
	// Names are compared exactly.
	Vaults []string
}

// NewValidator returns a validator restricted to vaults (nil allows all).
func NewValidator(vaults []string) *Validator {
	return &Validator{Vaults: slices.Clone(vaults)}
}

// Validate reports whether value is an acceptable secret reference.
// Only string and URI values are considered; any other type is invalid.
func (v *Validator) Validate(value any) error {
	s, ok := stringValue(value)
	if !ok || utf8.RuneCountInString(s) > MaxURILength {
		return &ValidationError{Code: CodeInvalid, Message: DefaultValidationMessage, Value: value}
	}

	ref, err := ParseURI(s)
	if err != nil {
		return err
	}

	if len(v.Vaults) > 0 && !slices.Contains(v.Vaults, ref.Vault) {
		return &ValidationError{
			Code:    CodeInvalidVault,
			Message: fmt.Sprintf("The vault '%s' is not a valid vault.", ref.Vault),
			Value:   value,
		}
	}
	return nil
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case URI:
		return string(v), true
	default:
		return "", false
	}
}
