package maven

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unusedjars/models"

	"github.com/magiconair/properties"
	log "github.com/sirupsen/logrus"
)

var (
	regexTreeStart  = regexp.MustCompile("\\[INFO\\] --- (maven-)?dependency(-plugin)?:.+:tree .*")
	regexTreeEnd    = regexp.MustCompile("\\[INFO\\] BUILD (SUCCESS|FAILURE).*")
	regexInfoPrefix = regexp.MustCompile("^\\[INFO\\] ?")
	dependencyRegex = regexp.MustCompile("^((?:[| ]  )*)(\\+-|\\\\-) (.+)$")
	regexVerbose    = regexp.MustCompile("^\\((\\S+)(?: .*)?\\)$")
	regexDigitLed   = regexp.MustCompile("^\\d")
)

// stripMavenOutput reduces raw `mvn dependency:tree` console output to the
// tree itself. Text that was written with -DoutputFile is returned unchanged.
func stripMavenOutput(lines []string) []string {
	var startLine = -1
	var endLine = len(lines)
	for lineNum, line := range lines {
		if startLine < 0 && regexTreeStart.MatchString(line) {
			startLine = lineNum + 1
		}
		if startLine >= 0 && regexTreeEnd.MatchString(line) {
			endLine = lineNum
			break
		}
	}
	if startLine < 0 {
		return lines
	}

	var entries []string
	for i := startLine; i < endLine; i++ {
		entries = append(entries, regexInfoPrefix.ReplaceAllString(lines[i], ""))
	}
	return entries
}

// parseCoordinates reads one tree entry. The accepted shapes are
//
//	group:artifact:type:version
//	group:artifact:type:version:scope
//	group:artifact:type:classifier:version:scope
//
// optionally followed by annotations such as "(optional)". Verbose entries
// like "(g:a:jar:1.0:compile - omitted for duplicate)" are unwrapped.
func parseCoordinates(entry string) (*models.Dependency, error) {
	entry = strings.TrimSpace(entry)
	if r := regexVerbose.FindStringSubmatch(entry); r != nil {
		entry = r[1]
	}

	dep := &models.Dependency{}
	if i := strings.Index(entry, " "); i >= 0 {
		dep.Optional = strings.Contains(entry[i:], "(optional)")
		entry = entry[:i]
	}

	split := strings.Split(entry, ":")
	switch len(split) {
	case 4:
		dep.Version = split[3]
	case 5:
		dep.Version = split[3]
		dep.Scope = split[4]
	case 6:
		dep.Classifier = split[3]
		dep.Version = split[4]
		dep.Scope = split[5]
	default:
		return nil, fmt.Errorf("unrecognized maven coordinates %q", entry)
	}
	dep.GroupId = split[0]
	dep.ArtifactId = split[1]
	dep.Extension = split[2]
	return dep, nil
}

// ParseTree reads the text form of a Maven dependency tree. The first
// coordinate line is the project itself and becomes the root.
func ParseTree(r io.Reader) (*models.Dependency, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read maven tree: %w", err)
	}

	var root *models.Dependency
	for lineNum, entry := range stripMavenOutput(lines) {
		if strings.TrimSpace(entry) == "" {
			continue
		}

		// dependency:tree marks parent-child relationships with a prefix:
		//
		//	- +-	: 	A dependency of the line's parent
		//	- \-	: 	The last dependency of the line's parent
		//	- |  +- : 	Every "|  " or "   " before the marker adds one level of depth
		r := dependencyRegex.FindStringSubmatch(entry)
		if r == nil {
			if root != nil {
				log.Tracef("Ignoring maven tree line %d: %s", lineNum+1, entry)
				continue
			}
			dep, err := parseCoordinates(entry)
			if err != nil {
				log.Tracef("Skipping maven tree preamble line %d: %s", lineNum+1, entry)
				continue
			}
			root = dep
			continue
		}

		if root == nil {
			return nil, fmt.Errorf("maven tree line %d has no root project: %s", lineNum+1, entry)
		}
		dep, err := parseCoordinates(r[3])
		if err != nil {
			return nil, fmt.Errorf("maven tree line %d: %w", lineNum+1, err)
		}

		// The tree is printed depth-first, so the parent of an entry is always
		// the last child at each level above it.
		depth := len(r[1])/3 + 1
		curr := root
		for i := 1; i < depth; i++ {
			if len(curr.Children) == 0 {
				return nil, fmt.Errorf("maven tree line %d is nested under nothing: %s", lineNum+1, entry)
			}
			curr = curr.Children[len(curr.Children)-1]
		}
		curr.Children = append(curr.Children, dep)
	}

	if root == nil {
		return nil, fmt.Errorf("no maven dependency tree found")
	}
	return root, nil
}

// packagings are the type segments that may follow the artifact in a
// coordinate value.
var packagings = map[string]bool{"jar": true, "war": true, "pom": true, "aar": true, "bundle": true, "test-jar": true}

// propertyDep turns one entry of the flat listing into a Dep. The value is
// one of "artifact", "artifact:version[...]" or "group:artifact[:version...]";
// the last form overrides the key. A "g:a=..." line reaches here as key g and
// a value starting with "a=", which is cut at the '='.
func propertyDep(key, value string) models.Dep {
	value = strings.TrimSpace(strings.SplitN(value, "=", 2)[0])
	parts := strings.Split(value, ":")
	if len(parts) >= 2 {
		second := strings.TrimSpace(parts[1])
		if second != "" && !packagings[second] && !regexDigitLed.MatchString(second) {
			return models.Dep{GroupId: strings.TrimSpace(parts[0]), ArtifactId: second}
		}
	}
	return models.Dep{GroupId: key, ArtifactId: strings.TrimSpace(parts[0])}
}

// ParseProperties reads the flat dependency listing, one dependency per
// property with the group as key and the artifact as value.
func ParseProperties(r io.Reader) ([]models.Dep, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dependency listing: %w", err)
	}

	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dependency listing: %w", err)
	}

	var deps []models.Dep
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		dep := propertyDep(key, value)
		if dep.GroupId == "" || dep.ArtifactId == "" {
			log.Debugf("Skipping incomplete dependency listing entry: %s", key)
			continue
		}
		deps = append(deps, dep)
	}
	return deps, nil
}
