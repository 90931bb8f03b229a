package cpp

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gocpp/pkg/utils"
	"gocpp/pkg/vfs"
)

const defaultIncludeDepth = 200

// MarkerMode selects how Preprocess records line transitions in rendered
// output.
type MarkerMode int

const (
	// MarkersFull writes # <line> "<file>" markers with the enter/return
	// flags compilers expect from -E output.
	MarkersFull MarkerMode = iota
	// MarkersLine writes portable #line directives instead.
	MarkersLine
	// MarkersNone writes no markers; small gaps become blank lines.
	MarkersNone
)

var markerNames = [...]string{
	MarkersFull: "full",
	MarkersLine: "line",
	MarkersNone: "none",
}

func (m MarkerMode) String() string {
	if int(m) >= 0 && int(m) < len(markerNames) {
		return markerNames[m]
	}
	return fmt.Sprintf("MarkerMode(%d)", int(m))
}

// ParseMarkerMode maps a flag or profile spelling to its MarkerMode.
func ParseMarkerMode(s string) (MarkerMode, error) {
	for i, n := range markerNames {
		if s == n {
			return MarkerMode(i), nil
		}
	}
	return MarkersFull, fmt.Errorf("unknown line marker mode %q", s)
}

// Config carries everything a run needs beyond the source text itself.
// The zero value works; New fills in the defaults.
type Config struct {
	// Defines are applied before the first file, in order, in -D form:
	// NAME, NAME=VALUE or NAME(params)=VALUE. A bare NAME defines it
	// as 1. Undefines are applied after all Defines.
	Defines   []string
	Undefines []string

	IncludePaths    []string // -I directories, searched in order
	SysIncludePaths []string // system directories, searched after -I

	// GNUExt enables the GNU macro extensions: named variadic
	// parameters and the , ## __VA_ARGS__ comma swallow.
	GNUExt bool

	MaxIncludeDepth int // nested #include limit, 0 means 200
	CounterStart    int // first value __COUNTER__ yields

	Markers MarkerMode

	// FS resolves include files; nil means the host file system.
	FS vfs.FS
	// Diags receives every diagnostic as it is produced; nil means
	// plain text on stderr.
	Diags DiagSink
}

// DefaultConfig is the configuration the CLI starts from.
func DefaultConfig() Config {
	return Config{
		GNUExt:          true,
		MaxIncludeDepth: defaultIncludeDepth,
		Markers:         MarkersFull,
	}
}

// Profile is the YAML form of a stored configuration, so invocations
// like cross-target header sets do not have to be respelled per run.
type Profile struct {
	Defines         []string `yaml:"defines"`
	Undefines       []string `yaml:"undefines"`
	IncludePaths    []string `yaml:"include_paths"`
	SystemPaths     []string `yaml:"system_paths"`
	GNUExtensions   *bool    `yaml:"gnu_extensions"`
	MaxIncludeDepth int      `yaml:"max_include_depth"`
	LineMarkers     string   `yaml:"line_markers"`
}

// LoadProfile merges the profile file at path into cfg: list entries
// append, scalars replace when present in the file. Relative include
// paths in the profile are anchored at the profile's own directory, so
// a checked-in profile works from any working directory.
func LoadProfile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("profile %s: %w", path, err)
	}
	_, baseDir, err := utils.GetPathInfo(path)
	if err != nil {
		return fmt.Errorf("profile %s: %w", path, err)
	}
	cfg.Defines = append(cfg.Defines, p.Defines...)
	cfg.Undefines = append(cfg.Undefines, p.Undefines...)
	for _, dir := range p.IncludePaths {
		cfg.IncludePaths = append(cfg.IncludePaths, utils.ResolveRelative(baseDir, dir))
	}
	for _, dir := range p.SystemPaths {
		cfg.SysIncludePaths = append(cfg.SysIncludePaths, utils.ResolveRelative(baseDir, dir))
	}
	if p.GNUExtensions != nil {
		cfg.GNUExt = *p.GNUExtensions
	}
	if p.MaxIncludeDepth > 0 {
		cfg.MaxIncludeDepth = p.MaxIncludeDepth
	}
	if p.LineMarkers != "" {
		m, err := ParseMarkerMode(p.LineMarkers)
		if err != nil {
			return fmt.Errorf("profile %s: %w", path, err)
		}
		cfg.Markers = m
	}
	return nil
}
