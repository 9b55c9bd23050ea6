package threshold

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFile reads a cutoff set from a YAML file, replacing the published
// defaults. The document mirrors the Set structure:
//
//	categories:
//	  stress:
//	    female: [50.0, 55.6]
//	    male: [48.4, 54.7]
//	types:
//	  stress:
//	    직무 요구:
//	      female: [50.0, 58.3]
func LoadFile(path string) (Set, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Set{}, fmt.Errorf("load cutoffs: %s: %w", path, err)
	}

	var set Set
	if err := k.UnmarshalWithConf("", &set, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Set{}, fmt.Errorf("load cutoffs: %s: %w", path, err)
	}
	if len(set.Categories) == 0 && len(set.Types) == 0 {
		return Set{}, fmt.Errorf("load cutoffs: %s declares no thresholds", path)
	}
	return set, nil
}
