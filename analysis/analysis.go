package analysis

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unusedjars/config"
	"unusedjars/exclusions"
	"unusedjars/gradle"
	"unusedjars/jar"
	"unusedjars/jdeps"
	"unusedjars/maven"
	"unusedjars/models"

	log "github.com/sirupsen/logrus"
)

var ErrInvariant = exclusions.ErrInvariant

const (
	FormatAuto       = "auto"
	FormatMaven      = "maven"
	FormatGradle     = "gradle"
	FormatProperties = "properties"
)

type Options struct {
	LibsDir    string
	TreeFile   string
	TreeFormat string
	JdepsFile  string
	Config     *config.Config

	// Gradle configuration to read; the first one in the output when empty.
	GradleConfiguration string
}

type Result struct {
	Tree       *models.Dependency
	All        []models.Dep
	Usage      *models.UsageMap
	Used       []models.Dep
	Unused     []models.Dep
	Retained   []models.Dep
	Exclusions *models.ExclusionMap
}

// usedDeps is every dep counted as used: the keys of the usage map, plus the
// referenced deps when countReferenced is set.
func usedDeps(usage *models.UsageMap, countReferenced bool) []models.Dep {
	used := usage.Keys()
	if countReferenced {
		for _, d := range usage.Referenced() {
			if !models.ContainsDep(used, d) {
				used = append(used, d)
			}
		}
	}
	return used
}

func detectFormat(path string) (string, error) {
	if strings.HasSuffix(path, ".properties") || strings.HasSuffix(path, "-dependencies.xml") {
		return FormatProperties, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open dependency tree: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "+--- ") || strings.Contains(line, "\\--- ") {
			return FormatGradle, nil
		}
		if strings.Contains(line, "+- ") || strings.Contains(line, "\\- ") {
			return FormatMaven, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read dependency tree: %w", err)
	}
	return FormatMaven, nil
}

// LoadTree parses the dependency tree at path. A flat properties listing
// becomes a root whose children are the listed deps.
func LoadTree(path, format, gradleConfiguration string) (*models.Dependency, error) {
	if format == "" || format == FormatAuto {
		detected, err := detectFormat(path)
		if err != nil {
			return nil, err
		}
		log.Debugf("Detected %s dependency tree in %s", detected, path)
		format = detected
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dependency tree: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatMaven:
		return maven.ParseTree(f)
	case FormatGradle:
		g := gradle.Gradle{Configuration: gradleConfiguration}
		return g.ParseTree(f)
	case FormatProperties:
		deps, err := maven.ParseProperties(f)
		if err != nil {
			return nil, err
		}
		return models.TreeOf(deps), nil
	default:
		return nil, fmt.Errorf("unknown dependency tree format: %s", format)
	}
}

func matchesAny(d models.Dep, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && (strings.Contains(d.GroupId, p) || strings.Contains(d.ArtifactId, p)) {
			return true
		}
	}
	return false
}

// Retain splits unused into the deps that stay unused and the deps matching
// a retain pattern.
func Retain(unused []models.Dep, patterns []string) (kept, retained []models.Dep) {
	for _, d := range unused {
		if matchesAny(d, patterns) {
			retained = append(retained, d)
		} else {
			kept = append(kept, d)
		}
	}
	return kept, retained
}

// Check verifies the usage sets: required deps are used, white-listed deps
// are not unused, and nothing is both used and unused.
func Check(used []models.Dep, unused []models.Dep, cfg *config.Config) error {
	for _, d := range cfg.RequiredDeps() {
		if !models.ContainsDep(used, d) {
			return fmt.Errorf("%w: %s must be in used list", ErrInvariant, d)
		}
	}
	for _, d := range cfg.WhitelistDeps() {
		if models.ContainsDep(unused, d) {
			return fmt.Errorf("%w: %s must not be in unused list", ErrInvariant, d)
		}
	}
	for _, d := range unused {
		if models.ContainsDep(used, d) {
			return fmt.Errorf("%w: %s is both used and unused", ErrInvariant, d)
		}
	}
	return nil
}

// Run executes the whole analysis: load tree, list jars, extract usage,
// compute unused jars and the exclusions that would drop them.
func Run(opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	log.Infof("Loading dependency tree %s", opts.TreeFile)
	tree, err := LoadTree(opts.TreeFile, opts.TreeFormat, opts.GradleConfiguration)
	if err != nil {
		return nil, err
	}

	log.Infof("Reading jars in %s", opts.LibsDir)
	resolver := jar.NewResolver(opts.LibsDir, tree)
	all, err := resolver.ListJars()
	if err != nil {
		return nil, err
	}

	log.Infof("Reading jdeps output %s", opts.JdepsFile)
	extractor := &jdeps.Extractor{
		Resolver:   resolver,
		Skip:       cfg.SkipPatterns(),
		JDKMarkers: cfg.JDKMarkers,
	}
	usage, err := extractor.ExtractFile(opts.JdepsFile)
	if err != nil {
		return nil, err
	}

	result := &Result{Tree: tree, All: all, Usage: usage, Used: usedDeps(usage, cfg.CountReferenced)}
	result.Unused, result.Retained = Retain(models.MinusDeps(all, result.Used), cfg.Retain)
	if err := Check(result.Used, result.Unused, cfg); err != nil {
		return nil, err
	}

	result.Exclusions = exclusions.Find(tree, result.Unused)
	if err := exclusions.Verify(result.Exclusions, result.Unused, cfg.WhitelistDeps()); err != nil {
		return nil, err
	}
	return result, nil
}

// ResolveOptions fills in the default file names relative to dir.
func ResolveOptions(dir string, opts Options) Options {
	resolve := func(path, def string) string {
		if path == "" {
			path = def
		}
		if filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(dir, path)
	}
	opts.LibsDir = resolve(opts.LibsDir, "libs")
	opts.TreeFile = resolve(opts.TreeFile, "deps_tree.txt")
	opts.JdepsFile = resolve(opts.JdepsFile, "jdeps.out")
	return opts
}
