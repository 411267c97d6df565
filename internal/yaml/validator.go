package yaml

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidateSyntax validates YAML syntax by streaming through the document.
// Returns nil if the YAML is syntactically valid, or an error with line
// information if syntax errors are found.
func ValidateSyntax(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	for {
		var n yaml.Node
		if err := dec.Decode(&n); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// ValidateFile validates the YAML syntax of a file at the given path.
func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if err := ValidateSyntax(f); err != nil {
		return fmt.Errorf("YAML syntax error in %s: %w", path, err)
	}
	return nil
}
