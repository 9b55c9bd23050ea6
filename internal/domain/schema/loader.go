package schema

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFile reads instrument definitions from a YAML file and builds a
// registry from them. The file holds a top-level `instruments` list shaped
// like the Instrument struct. A schema file replaces the built-in defaults
// entirely so multiple schema versions can coexist and be tested in
// isolation.
func LoadFile(path string) (*Registry, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, path, err)
	}

	var doc struct {
		Instruments []Instrument `koanf:"instruments"`
	}
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, path, err)
	}
	if len(doc.Instruments) == 0 {
		return nil, fmt.Errorf("%w: %s declares no instruments", ErrInvalidSchema, path)
	}
	return NewRegistry(doc.Instruments...)
}
