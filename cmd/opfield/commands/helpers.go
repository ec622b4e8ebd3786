package commands

import (
	"github.com/systmms/opfield/internal/config"
	"github.com/systmms/opfield/pkg/opfield"
)

// columnName is the column stored references live in.
const columnName = "op_uri"

// readerField builds the configured field wired to the op CLI reader.
// vaults, when given, replace the allow-list from opfield.yaml.
func readerField(cfg *config.Config, vaults []string) (*opfield.Field, error) {
	reader, err := cfg.Reader()
	if err != nil {
		return nil, err
	}
	opts := []opfield.Option{opfield.WithReader(reader)}
	if len(vaults) > 0 {
		opts = append(opts, opfield.WithVaults(vaults...))
	}
	return cfg.Field(columnName, opts...), nil
}
