package mapping

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// mappingFile mirrors the on-disk TOML layout:
//
//	[[class]]
//	mapped = "net/game/Entity"
//	obfuscated = "a/b/C"
//
//	  [[class.method]]
//	  mapped = "tick"
//	  obfuscated = "a"
//	  descriptor = "()V"
type mappingFile struct {
	Class []Class `toml:"class"`
}

// Load parses a TOML mapping file into a Table.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapping: cannot read %s: %w", path, err)
	}
	var f mappingFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("mapping: parse error in %s: %w", path, err)
	}
	return NewTable(f.Class), nil
}

// LoadCached loads a table, going through the compiled CBOR cache when
// it exists and is at least as new as the TOML source. A stale or
// missing cache is rebuilt best-effort; cache write failures are not
// errors.
func LoadCached(tomlPath, cachePath string) (*Table, error) {
	if cachePath == "" {
		return Load(tomlPath)
	}
	src, err := os.Stat(tomlPath)
	if err != nil {
		return nil, fmt.Errorf("mapping: cannot stat %s: %w", tomlPath, err)
	}
	if cached, err := os.Stat(cachePath); err == nil && !cached.ModTime().Before(src.ModTime()) {
		data, err := os.ReadFile(cachePath)
		if err == nil {
			if t, err := UnmarshalTable(data); err == nil {
				return t, nil
			}
		}
		// Unreadable or corrupt cache falls through to a rebuild.
	}

	t, err := Load(tomlPath)
	if err != nil {
		return nil, err
	}
	if data, err := MarshalTable(t); err == nil {
		_ = os.WriteFile(cachePath, data, 0o644)
	}
	return t, nil
}
