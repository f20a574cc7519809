package jar

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unusedjars/models"

	"github.com/magiconair/properties"
	log "github.com/sirupsen/logrus"
)

const PomPropertiesFile = "pom.properties"

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrAmbiguousGroup = errors.New("ambiguous group")

	regexVersionSegment = regexp.MustCompile("^\\d")
)

// ReadPomProperties looks for the pom.properties Maven embeds in a jar and
// returns the Dep it describes. found is false when the jar has none.
func ReadPomProperties(path string) (dep models.Dep, found bool, err error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return models.Dep{}, false, fmt.Errorf("failed to open jar %s: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.Contains(f.Name, PomPropertiesFile) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return models.Dep{}, true, fmt.Errorf("failed to open %s in %s: %w", f.Name, path, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return models.Dep{}, true, fmt.Errorf("failed to read %s in %s: %w", f.Name, path, err)
		}

		loader := properties.Loader{Encoding: properties.ISO_8859_1, DisableExpansion: true}
		p, err := loader.LoadBytes(data)
		if err != nil {
			return models.Dep{}, true, fmt.Errorf("failed to parse %s in %s: %w", f.Name, path, err)
		}
		groupId, ok := p.Get("groupId")
		if !ok {
			return models.Dep{}, true, fmt.Errorf("%s in %s has no groupId", f.Name, path)
		}
		artifactId, ok := p.Get("artifactId")
		if !ok {
			return models.Dep{}, true, fmt.Errorf("%s in %s has no artifactId", f.Name, path)
		}
		return models.Dep{GroupId: groupId, ArtifactId: artifactId, Path: path}, true, nil
	}
	return models.Dep{}, false, nil
}

// ArtifactCandidates guesses the artifact id of a jar from its file name. It
// drops the extension, "-SNAPSHOT", "-native" and a trailing "-1" build
// counter, then cuts at a digit-led segment. Artifact ids can contain such a
// segment themselves (log4j-1.2-api), so every cut is returned, from the last
// digit-led segment back to the first. A name without one is its own guess.
func ArtifactCandidates(fileName string) []string {
	name := strings.TrimSuffix(filepath.Base(fileName), ".jar")
	name = strings.ReplaceAll(name, "-SNAPSHOT", "")
	name = strings.ReplaceAll(name, "-native", "")
	name = strings.TrimSuffix(name, "-1")

	var candidates []string
	segments := strings.Split(name, "-")
	for i := len(segments) - 1; i > 0; i-- {
		if regexVersionSegment.MatchString(segments[i]) {
			candidates = append(candidates, strings.Join(segments[:i], "-"))
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, name)
	}
	return candidates
}

// ArtifactFromFileName is the most likely artifact id of a jar: the name with
// its last digit-led segment and everything after it cut off.
func ArtifactFromFileName(fileName string) string {
	return ArtifactCandidates(fileName)[0]
}

// Resolver maps jar file names in a libs directory to Deps. Results are
// cached, so each jar is opened at most once.
type Resolver struct {
	LibsDir string
	Tree    *models.Dependency
	cache   map[string]models.Dep
}

func NewResolver(libsDir string, tree *models.Dependency) *Resolver {
	return &Resolver{
		LibsDir: libsDir,
		Tree:    tree,
		cache:   map[string]models.Dep{},
	}
}

// Resolve identifies the jar. The embedded pom.properties wins; without one
// the artifact is guessed from the file name and its group must be unique in
// the dependency tree.
func (r *Resolver) Resolve(jarFileName string) (models.Dep, error) {
	if dep, ok := r.cache[jarFileName]; ok {
		return dep, nil
	}

	jarAbsPath, err := filepath.Abs(filepath.Join(r.LibsDir, jarFileName))
	if err != nil {
		return models.Dep{}, fmt.Errorf("failed to resolve path of %s: %w", jarFileName, err)
	}
	dep, found, err := ReadPomProperties(jarAbsPath)
	if err != nil {
		return models.Dep{}, err
	}
	if !found {
		dep, err = r.resolveFromTree(jarFileName, jarAbsPath)
		if err != nil {
			return models.Dep{}, err
		}
		log.Warnf("%s isn't found in %s, resolved %s from the dependency tree", PomPropertiesFile, jarFileName, dep)
	}

	r.cache[jarFileName] = dep
	return dep, nil
}

func (r *Resolver) resolveFromTree(jarFileName, jarAbsPath string) (models.Dep, error) {
	candidates := ArtifactCandidates(jarFileName)
	if r.Tree == nil {
		return models.Dep{}, fmt.Errorf("%w for artifact %s of %s: no dependency tree", ErrGroupNotFound, candidates[0], jarFileName)
	}

	for _, artifactId := range candidates {
		groups := r.Tree.FindGroups(artifactId)
		switch len(groups) {
		case 0:
			log.Tracef("No group for artifact %s of %s", artifactId, jarFileName)
			continue
		case 1:
			return models.Dep{GroupId: groups[0], ArtifactId: artifactId, Path: jarAbsPath}, nil
		default:
			return models.Dep{}, fmt.Errorf("%w for artifact %s of %s: %s", ErrAmbiguousGroup, artifactId, jarFileName, strings.Join(groups, ", "))
		}
	}
	return models.Dep{}, fmt.Errorf("%w for artifact %s of %s", ErrGroupNotFound, strings.Join(candidates, " or "), jarFileName)
}

// ListJars resolves every jar in the libs directory, in file name order.
func (r *Resolver) ListJars() ([]models.Dep, error) {
	entries, err := os.ReadDir(r.LibsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read libs directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jar") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var deps []models.Dep
	for _, name := range names {
		dep, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		log.Tracef("Resolved %s to %s", name, dep)
		deps = append(deps, dep)
	}
	return deps, nil
}
