package engine

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tliron/commonlog"

	"weft/mixin"
)

// defaultProbeCacheSize bounds the probe-result cache when the config
// does not say otherwise.
const defaultProbeCacheSize = 2048

// Engine is one transformation engine instance. The host owns the
// handle; there is no process-global engine.
type Engine struct {
	log      commonlog.Logger
	index    *mixin.Index
	mappings MappingService
	names    *normalizer
	probe    *lru.Cache[string, bool]
}

// New scans the provided mixins and builds an engine. mappings may be
// nil when no obfuscation mapping is in play.
func New(cfg Config, scanner mixin.Scanner, mappings MappingService) (*Engine, error) {
	index, err := mixin.NewIndex(scanner)
	if err != nil {
		return nil, fmt.Errorf("engine: initial mixin scan: %w", err)
	}
	size := cfg.Engine.ProbeCacheSize
	if size <= 0 {
		size = defaultProbeCacheSize
	}
	probe, err := lru.New[string, bool](size)
	if err != nil {
		return nil, fmt.Errorf("engine: probe cache: %w", err)
	}
	e := &Engine{
		log:      commonlog.GetLogger("weft.engine"),
		index:    index,
		mappings: mappings,
		names:    newNormalizer(),
		probe:    probe,
	}
	e.log.Infof("engine ready: %d mixin(s) registered", index.Len())
	return e, nil
}

// ModifyClass is the host loader's entry point.
//
// Probe mode (classData empty or nil): returns a non-nil empty slice
// when at least one mixin targets the class, nil otherwise, without
// touching the class bytes.
//
// Transform mode: returns the replacement class bytes, or nil for "no
// modification". No failure propagates: a buggy mixin, undecodable
// input, or anything unexpected yields nil plus a log entry, never a
// corrupted non-empty result.
func (e *Engine) ModifyClass(className string, classData []byte) (result []byte) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("unexpected failure while modifying %s: %v", className, r)
			result = nil
		}
	}()

	name := e.names.Normalize(className)
	if len(classData) == 0 {
		if e.hasAny(name) {
			return []byte{}
		}
		return nil
	}

	if !e.hasAny(name) {
		return nil
	}
	id := uuid.NewString()
	e.log.Debugf("[%s] transforming %s (%d bytes)", id, name, len(classData))
	out := e.transform(id, name, classData)
	if out == nil {
		e.log.Debugf("[%s] %s unchanged", id, name)
	} else {
		e.log.Infof("[%s] %s rewritten: %d -> %d bytes", id, name, len(classData), len(out))
	}
	return out
}

// hasAny answers the probe query through the bounded cache.
func (e *Engine) hasAny(className string) bool {
	if v, ok := e.probe.Get(className); ok {
		return v
	}
	v := e.hasAnyUncached(className)
	e.probe.Add(className, v)
	return v
}

// Rescan re-runs the mixin scanner, replacing the index, and drops the
// probe cache. Callers must not run Rescan concurrently with
// ModifyClass; the engine does not lock across the two.
func (e *Engine) Rescan() error {
	if err := e.index.Rebuild(); err != nil {
		return fmt.Errorf("engine: rescan: %w", err)
	}
	e.probe.Purge()
	e.log.Infof("rescan complete: %d mixin(s) registered", e.index.Len())
	return nil
}

// MixinCount reports the number of indexed mixins.
func (e *Engine) MixinCount() int {
	return e.index.Len()
}
