package report

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteSummary writes a run summary as indented JSON at path.
func WriteSummary(s Summary, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}
	return nil
}
