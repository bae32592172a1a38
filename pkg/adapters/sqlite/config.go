package sqlite

import (
	"github.com/go-viper/mapstructure/v2"
)

// Params holds SQLite-specific configuration.
// Parsed from core.AdapterConfig.Params using mapstructure.
type Params struct {
	// BusyTimeout is how long (ms) a connection waits on a locked database. Default 5000.
	BusyTimeout int `mapstructure:"busy_timeout"`

	// JournalMode for file databases (e.g., "WAL", "DELETE"). Default WAL.
	JournalMode string `mapstructure:"journal_mode"`

	// ForeignKeys toggles foreign key enforcement. Default true.
	ForeignKeys *bool `mapstructure:"foreign_keys"`
}

const (
	defaultBusyTimeout = 5000
	defaultJournalMode = "WAL"
)

// parseParams decodes raw params and fills defaults.
func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) > 0 {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           p,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, err
		}
	}

	if p.BusyTimeout <= 0 {
		p.BusyTimeout = defaultBusyTimeout
	}
	if p.JournalMode == "" {
		p.JournalMode = defaultJournalMode
	}
	if p.ForeignKeys == nil {
		on := true
		p.ForeignKeys = &on
	}
	return p, nil
}
