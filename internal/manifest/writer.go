package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Banner is the generated-file warning written as the first line of every
// merged manifest. It carries no timestamp so unchanged inputs produce
// byte-identical output.
const Banner = "# DO NOT EDIT: This file is autogenerated by treads merge.\n"

// Write serializes a manifest to path, prefixed with the Banner. The field
// order publish, agents, mcpServers is preserved (consumers diff this file),
// and empty lists and maps are serialized rather than omitted. The content is
// written to a temp file in the target directory and renamed into place, so a
// failed run leaves any previous output untouched.
func Write(path string, m *Manifest) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".nanobot-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp manifest in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if err := writeManifest(tmp, m); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp manifest: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing manifest %s: %w", path, err)
	}
	return nil
}

func writeManifest(f *os.File, m *Manifest) error {
	if _, err := f.WriteString(Banner); err != nil {
		return err
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
