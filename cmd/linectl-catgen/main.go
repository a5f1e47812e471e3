// Command linectl-catgen generates the catalog identifier tables from a
// YAML description.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

func main() {
	catalogPath := flag.String("catalog", "", "Path to catalog.yaml")
	output := flag.String("output", "", "Output Go file")
	flag.Parse()

	if *catalogPath == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: linectl-catgen -catalog <path> -output <file>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*catalogPath, *output); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(catalogPath, output string) error {
	cat, err := LoadCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	code, err := Generate(cat, filepath.Base(catalogPath))
	if err != nil {
		return fmt.Errorf("generating %s: %w", output, err)
	}
	if err := writeFormatted(output, code); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Printf("  generated %s\n", output)
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Keep the raw output around for debugging the templates.
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
