package duckdb

import (
	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from core.AdapterConfig.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "json", "icu")
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply globally (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// parseParams decodes raw params. Nil or empty input yields empty Params.
func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return p, nil
}
