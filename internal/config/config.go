// Package config decodes ownc.toml, the project manifest naming the
// compile entry point, the profile-cache directory, and the §5 fixed-point
// iteration-budget override. Grounded on the teacher's
// cmd/surge/project_manifest.go (loadProjectConfig's toml.DecodeFile +
// meta.IsDefined required-field checks), retargeted from surge's
// [package]/[run] schema to this core's [project]/[limits]/[trace] schema.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"ownc/internal/diag"
	"ownc/internal/source"
)

// TraceLevel mirrors internal/trace.Level's three settings as a
// config-file string, decoded independently so internal/config does not
// need to import internal/trace just to parse one field.
type TraceLevel string

const (
	TraceOff    TraceLevel = "off"
	TracePhase  TraceLevel = "phase"
	TraceDetail TraceLevel = "detail"
)

// Project is the decoded ownc.toml manifest.
type Project struct {
	Path string // path to the manifest file as passed to Load, not part of the TOML itself

	Entry         string     `toml:"-"`
	CacheDir      string     `toml:"-"`
	MaxIterations int        `toml:"-"`
	Trace         TraceLevel `toml:"-"`
}

type projectSection struct {
	Entry    string `toml:"entry"`
	CacheDir string `toml:"cache_dir"`
}

type limitsSection struct {
	MaxIterations int `toml:"max_iterations"`
}

type traceSection struct {
	Level string `toml:"level"`
}

type fileSchema struct {
	Project projectSection `toml:"project"`
	Limits  limitsSection  `toml:"limits"`
	Trace   traceSection   `toml:"trace"`
}

const defaultMaxIterations = 10000
const defaultCacheDir = ".ownc-cache"

// Load decodes path as an ownc.toml manifest. A malformed file (bad TOML
// syntax, or a missing required [project].entry) comes back as a
// diag.Diagnostic value rather than a bare toml/fmt error, so driver code can
// treat every failure - core or config - through the one error taxonomy.
func Load(path string) (*Project, error) {
	var schema fileSchema
	meta, err := toml.DecodeFile(path, &schema)
	if err != nil {
		d := diag.NewError(diag.UnknownCode, source.NoSpan, fmt.Sprintf("%s: failed to parse TOML: %v", path, err))
		return nil, d
	}
	if !meta.IsDefined("project") || !meta.IsDefined("project", "entry") || strings.TrimSpace(schema.Project.Entry) == "" {
		d := diag.NewError(diag.UnknownCode, source.NoSpan, fmt.Sprintf("%s: missing [project].entry", path))
		return nil, d
	}

	p := &Project{
		Path:          path,
		Entry:         strings.TrimSpace(schema.Project.Entry),
		CacheDir:      strings.TrimSpace(schema.Project.CacheDir),
		MaxIterations: schema.Limits.MaxIterations,
		Trace:         TraceLevel(schema.Trace.Level),
	}
	if p.CacheDir == "" {
		p.CacheDir = defaultCacheDir
	}
	if p.MaxIterations <= 0 {
		p.MaxIterations = defaultMaxIterations
	}
	switch p.Trace {
	case TraceOff, TracePhase, TraceDetail:
	case "":
		p.Trace = TraceOff
	default:
		d := diag.NewError(diag.UnknownCode, source.NoSpan, fmt.Sprintf("%s: [trace].level must be one of off/phase/detail, got %q", path, schema.Trace.Level))
		return nil, d
	}
	return p, nil
}
