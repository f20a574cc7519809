package gradle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unusedjars/models"

	log "github.com/sirupsen/logrus"
)

var (
	regexConfiguration  = regexp.MustCompile("^([A-Za-z][\\w-]*)( - .+)?$")
	dependencyTreeRegex = regexp.MustCompile("^((?:[| ]    )*)(\\+---|\\\\---) (.+)$")
	dependencyRegex     = regexp.MustCompile("^([^:\\s]+):([^:\\s]+)(?::([^:\\s]+))?(?: -> ([^\\s]+))?(?: \\(([*cn])\\))?$")
)

// Gradle parses the output of `gradle dependencies`. When Configuration is
// empty the first configuration block in the output is used.
type Gradle struct {
	Configuration string
}

// parseDependency reads one tree entry. Gradle entries come in several shapes:
//
//	* Just a plain dependency		 :		<groupId>:<artifactId>:<version>
//	* Version forced-changed		 :		<groupId>:<artifactId>:<version> -> <newVersion>
//	* Omitted due to previous listing:		<groupId>:<artifactId>:<version> [-> <newVersion>] (*)
//	* Dependency constraint			 :		<groupId>:<artifactId>:<version> [-> <newVersion>] (c)
//	* Not resolved					 :		<groupId>:<artifactId>:<version> (n)
//
// Constraints, unresolved entries and project dependencies are not jars on
// the classpath and yield nil.
func (g *Gradle) parseDependency(entry string) *models.Dependency {
	res := dependencyRegex.FindStringSubmatch(strings.TrimSpace(entry))
	if res == nil || res[1] == "project" {
		return nil
	}
	if res[5] == "c" || res[5] == "n" {
		return nil
	}

	version := res[3]
	if res[4] != "" {
		version = res[4]
	}
	return &models.Dependency{
		GroupId:    res[1],
		ArtifactId: res[2],
		Version:    version,
		Extension:  "jar",
	}
}

func (g *Gradle) isStart(line string) (string, bool) {
	r := regexConfiguration.FindStringSubmatch(line)
	if r == nil || r[2] == "" {
		return "", false
	}
	if g.Configuration != "" && r[1] != g.Configuration {
		return "", false
	}
	return r[1], true
}

// ParseTree builds a tree under a synthetic root named after the
// configuration. Top-level dependencies are the root's children.
func (g *Gradle) ParseTree(r io.Reader) (*models.Dependency, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gradle tree: %w", err)
	}

	// Find the configuration block. Without a header line the whole text is
	// assumed to be a single tree.
	var root *models.Dependency
	var startLine = 0
	for lineNum, line := range lines {
		if name, ok := g.isStart(line); ok {
			root = &models.Dependency{ArtifactId: name}
			startLine = lineNum + 1
			break
		}
	}
	if root == nil {
		if g.Configuration != "" {
			return nil, fmt.Errorf("configuration %s not found in gradle output", g.Configuration)
		}
		root = &models.Dependency{}
	}

	skipDepth := 0
	inBlock := startLine > 0
	for i := startLine; i < len(lines); i++ {
		entry := lines[i]
		if strings.TrimSpace(entry) == "" {
			if inBlock {
				break
			}
			continue
		}

		// dependencies marks parent-child relationships with a prefix:
		//
		//	- +---		: 	A dependency of the line's parent
		//	- \---		: 	The last dependency of the line's parent
		//	- |    +--- : 	Every "|    " or "     " before the marker adds one level of depth
		r := dependencyTreeRegex.FindStringSubmatch(entry)
		if r == nil {
			log.Tracef("Ignoring gradle output line %d: %s", i+1, entry)
			continue
		}
		inBlock = true
		depth := len(r[1])/5 + 1
		if skipDepth > 0 {
			if depth > skipDepth {
				continue
			}
			skipDepth = 0
		}

		dep := g.parseDependency(r[3])
		if dep == nil {
			log.Debugf("Skipping gradle entry: %s", strings.TrimSpace(r[3]))
			skipDepth = depth
			continue
		}

		curr := root
		for d := 1; d < depth; d++ {
			if len(curr.Children) == 0 {
				return nil, fmt.Errorf("gradle tree line %d is nested under nothing: %s", i+1, entry)
			}
			curr = curr.Children[len(curr.Children)-1]
		}
		curr.Children = append(curr.Children, dep)
	}

	return root, nil
}
