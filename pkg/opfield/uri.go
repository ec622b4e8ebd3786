package opfield

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Scheme is the URI scheme of 1Password secret references.
const Scheme = "op"

// MaxURILength is the longest reference, in characters, the validator accepts.
const MaxURILength = 2048

// Each path component is non-empty and slash-free; the section is optional.
var uriPattern = regexp.MustCompile(
	`(?i)^op://` +
		`(?P<vault>[^/]+)` +
		`/(?P<item>[^/]+)` +
		`(?:/(?P<section>[^/]+))?` +
		`/(?P<field>[^/]+)$`,
)

// Reference is a parsed op://vault/item[/section]/field URI.
type Reference struct {
	Vault   string
	Item    string
	Section string
	Field   string
}

// ParseURI splits a secret reference into its components.
func ParseURI(s string) (Reference, error) {
	if utf8.RuneCountInString(s) > MaxURILength {
		return Reference{}, &ValidationError{Code: CodeInvalid, Message: DefaultValidationMessage, Value: s}
	}
	m := uriPattern.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, &ValidationError{Code: CodeInvalidFormat, Message: DefaultValidationMessage, Value: s}
	}
	return Reference{
		Vault:   m[uriPattern.SubexpIndex("vault")],
		Item:    m[uriPattern.SubexpIndex("item")],
		Section: m[uriPattern.SubexpIndex("section")],
		Field:   m[uriPattern.SubexpIndex("field")],
	}, nil
}

// String renders the reference as an op:// URI.
func (r Reference) String() string {
	parts := []string{r.Vault, r.Item}
	if r.Section != "" {
		parts = append(parts, r.Section)
	}
	parts = append(parts, r.Field)
	return Scheme + "://" + strings.Join(parts, "/")
}

// URI is a stored secret reference. It is persisted verbatim; the resolved
// secret never is.
type URI string

// String returns the reference text.
func (u URI) String() string {
	return string(u)
}

// Parse splits the stored reference into its components.
func (u URI) Parse() (Reference, error) {
	return ParseURI(string(u))
}

// Vault returns the vault component, or "" when the URI is malformed.
func (u URI) Vault() string {
	ref, err := u.Parse()
	if err != nil {
		return ""
	}
	return ref.Vault
}

// Scan implements sql.Scanner. NULL scans to "".
func (u *URI) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*u = ""
	case string:
		*u = URI(v)
	case []byte:
		*u = URI(v)
	default:
		return fmt.Errorf("opfield: cannot scan %T into URI", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (u URI) Value() (driver.Value, error) {
	return string(u), nil
}
