// Weft CLI - inspect class files, manage mapping databases, and run
// the transformation engine offline over .class files and jars.
package main

import (
	"archive/zip"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"weft/classfile"
	"weft/engine"
	"weft/mapping"
	"weft/mixin"
)

func main() {
	configPath := flag.String("config", "", "Path to weft.toml")
	dump := flag.Bool("dump", false, "Disassemble the given .class files")
	compileMappings := flag.String("compile-mappings", "", "Compile a TOML mapping file into a CBOR cache")
	importMappings := flag.String("import-mappings", "", "Import a TOML mapping file into a sqlite store")
	dbPath := flag.String("db", "", "Sqlite mapping store path (with -import-mappings)")
	probe := flag.Bool("probe", false, "List classes the engine would modify")
	apply := flag.Bool("apply", false, "Transform classes and write the changed ones")
	outPath := flag.String("o", "", "Output path (cache file for -compile-mappings, directory for -apply)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: weft [options] [paths...]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects JVM class files and applies registered mixins to them.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  weft -dump Foo.class                              # Disassemble a class\n")
		fmt.Fprintf(os.Stderr, "  weft -compile-mappings m.toml -o m.wmc            # Build the compiled cache\n")
		fmt.Fprintf(os.Stderr, "  weft -import-mappings m.toml -db m.db             # Fill the sqlite store\n")
		fmt.Fprintf(os.Stderr, "  weft -probe -config weft.toml app.jar             # Which classes would change?\n")
		fmt.Fprintf(os.Stderr, "  weft -apply -config weft.toml -o out app.jar      # Write transformed classes\n")
	}
	flag.Parse()

	switch {
	case *dump:
		for _, path := range flag.Args() {
			if err := dumpClass(path); err != nil {
				fail(err)
			}
		}
	case *compileMappings != "":
		if *outPath == "" {
			fail(fmt.Errorf("-compile-mappings needs -o <cache>"))
		}
		if _, err := mapping.LoadCached(*compileMappings, *outPath); err != nil {
			fail(err)
		}
		fmt.Printf("compiled %s -> %s\n", *compileMappings, *outPath)
	case *importMappings != "":
		if *dbPath == "" {
			fail(fmt.Errorf("-import-mappings needs -db <path>"))
		}
		if err := importToStore(*importMappings, *dbPath); err != nil {
			fail(err)
		}
		fmt.Printf("imported %s -> %s\n", *importMappings, *dbPath)
	case *probe || *apply:
		e, err := buildEngine(*configPath)
		if err != nil {
			fail(err)
		}
		for _, path := range flag.Args() {
			if err := processPath(e, path, *apply, *outPath); err != nil {
				fail(err)
			}
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func dumpClass(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Print(cf.Disassemble())
	return nil
}

func importToStore(tomlPath, dbPath string) error {
	tbl, err := mapping.Load(tomlPath)
	if err != nil {
		return err
	}
	store, err := mapping.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Put(tbl)
}

// buildEngine assembles an engine from the config file and the mixins
// registered on the default registry by linked-in modules.
func buildEngine(configPath string) (*engine.Engine, error) {
	cfg := &engine.Config{}
	if configPath != "" {
		loaded, err := engine.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	commonlog.Configure(cfg.Engine.Verbosity, nil)

	var svc engine.MappingService
	switch {
	case cfg.Mappings.Database != "":
		store, err := mapping.OpenStore(cfg.Mappings.Database)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		tbl, err := store.LoadTable()
		if err != nil {
			return nil, err
		}
		svc = tbl
	case cfg.Mappings.File != "":
		tbl, err := mapping.LoadCached(cfg.Mappings.File, cfg.Mappings.Cache)
		if err != nil {
			return nil, err
		}
		svc = tbl
	}

	return engine.New(*cfg, mixin.Default, svc)
}

func processPath(e *engine.Engine, path string, apply bool, outDir string) error {
	if strings.HasSuffix(path, ".jar") || strings.HasSuffix(path, ".zip") {
		return processJar(e, path, apply, outDir)
	}
	return processClassFile(e, path, apply, outDir)
}

func processClassFile(e *engine.Engine, path string, apply bool, outDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return processClass(e, cf.Name(), data, apply, outDir)
}

func processJar(e *engine.Engine, path string, apply bool, outDir string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, entry := range r.File {
		if !strings.HasSuffix(entry.Name, ".class") {
			continue
		}
		name := strings.TrimSuffix(entry.Name, ".class")
		if !apply {
			if e.ModifyClass(name, nil) != nil {
				fmt.Println(name)
			}
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("%s!%s: %w", path, entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("%s!%s: %w", path, entry.Name, err)
		}
		if err := processClass(e, name, data, true, outDir); err != nil {
			return err
		}
	}
	return nil
}

func processClass(e *engine.Engine, name string, data []byte, apply bool, outDir string) error {
	if !apply {
		if e.ModifyClass(name, nil) != nil {
			fmt.Println(name)
		}
		return nil
	}
	out := e.ModifyClass(name, data)
	if out == nil {
		return nil
	}
	if outDir == "" {
		outDir = "."
	}
	dest := filepath.Join(outDir, filepath.FromSlash(name)+".class")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s: %d -> %d bytes\n", name, len(data), len(out))
	return nil
}
