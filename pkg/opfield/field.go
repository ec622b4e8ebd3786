package opfield

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/systmms/opfield/internal/metrics"
)

// DefaultMaxLength is the column width used when none is given.
const DefaultMaxLength = 255

// Field defines a secret-reference column. The column stores the URI; the
// secret is only ever obtained through Secret.
type Field struct {
	name      string
	maxLength int
	vaults    []string
	reader    SecretReader
}

// Option configures a Field.
type Option func(*Field)

// WithMaxLength sets the column width in characters.
func WithMaxLength(n int) Option {
	return func(f *Field) { f.maxLength = n }
}

// WithVaults restricts references to the listed vaults.
func WithVaults(vaults ...string) Option {
	return func(f *Field) { f.vaults = slices.Clone(vaults) }
}

// WithReader sets the reader used by Secret.
func WithReader(r SecretReader) Option {
	return func(f *Field) { f.reader = r }
}

// New defines a field named name.
func New(name string, opts ...Option) *Field {
	f := &Field{name: name, maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the column name.
func (f *Field) Name() string { return f.name }

// MaxLength returns the column width in characters.
func (f *Field) MaxLength() int { return f.maxLength }

// Vaults returns the vault allow-list, or nil when any vault is allowed.
func (f *Field) Vaults() []string { return slices.Clone(f.vaults) }

// Validator returns the URI validator bound to the field's allow-list.
func (f *Field) Validator() *Validator {
	return NewValidator(f.vaults)
}

// Clean checks value against the column width and the URI validator.
func (f *Field) Clean(value any) error {
	err := f.clean(value)
	result := "valid"
	if err != nil {
		result = ValidationCode(err)
	}
	metrics.NewReadMetrics().RecordValidation(result)
	return err
}

// Validators returns the checks Clean runs, in order: column width first,
// then the URI validator.
func (f *Field) Validators() []func(any) error {
	return []func(any) error{f.checkLength, f.Validator().Validate}
}

// clean runs every validator and reports all failures, in validator order.
func (f *Field) clean(value any) error {
	var errs []error
	for _, validate := range f.Validators() {
		if err := validate(value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

func (f *Field) checkLength(value any) error {
	s, ok := stringValue(value)
	if !ok || f.maxLength <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(s); n > f.maxLength {
		return &ValidationError{
			Code:    CodeMaxLength,
			Message: fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", f.maxLength, n),
			Value:   value,
		}
	}
	return nil
}

// Deconstruct returns the keyword options needed to recreate the field.
// max_length is always present; vaults only when an allow-list is set.
func (f *Field) Deconstruct() map[string]any {
	kwargs := map[string]any{"max_length": f.maxLength}
	if f.vaults != nil {
		kwargs["vaults"] = slices.Clone(f.vaults)
	}
	return kwargs
}

// ColumnType returns the SQL column type for the given dialect.
func (f *Field) ColumnType(dialect string) (string, error) {
	switch strings.ToLower(dialect) {
	case "postgres", "postgresql", "mysql", "mariadb", "sqlite", "sqlite3":
		return fmt.Sprintf("VARCHAR(%d)", f.maxLength), nil
	default:
		return "", fmt.Errorf("unsupported SQL dialect: %s", dialect)
	}
}

// Secret resolves the secret uri points to. The reference is validated
// against the field first; every call runs the op CLI again.
func (f *Field) Secret(ctx context.Context, uri URI) (string, error) {
	if err := f.Validator().Validate(uri); err != nil {
		return "", err
	}
	reader := f.reader
	if reader == nil {
		reader = NewReader(nil)
	}
	return reader.Read(ctx, string(uri))
}

// SetSecret always fails: the vault, not the local store, owns the secret.
func (f *Field) SetSecret(URI, string) error {
	return ErrReadOnly
}
