package jdeps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unusedjars/models"

	log "github.com/sirupsen/logrus"
)

const arrow = "->"

var (
	DefaultSkip       = []string{"jce.jar", "jfxrt.jar"}
	DefaultJDKMarkers = []string{"not found", "/usr/lib/jvm"}
)

type Resolver interface {
	Resolve(jarFileName string) (models.Dep, error)
}

// Extractor turns a jdeps summary into a usage map. Lines containing a Skip
// substring are ignored, typically the analyzed application's own jar and
// JDK extension jars. Lines containing a JDKMarker, or pointing at something
// that is not a jar, count as a reference of the jar to itself.
type Extractor struct {
	Resolver   Resolver
	Skip       []string
	JDKMarkers []string
}

func containsAny(line string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(line, p) {
			return true
		}
	}
	return false
}

// jarName reduces one side of a jdeps line to the jar's file name, so
// "app/libs/a.jar" and "libs/a.jar" both become "a.jar".
func jarName(side string) string {
	fields := strings.Fields(side)
	if len(fields) == 0 {
		return ""
	}
	return filepath.Base(fields[0])
}

// ParseLine splits "a.jar -> b.jar" into the jar names on either side. ok is
// false when the line is not a jar-level dependency.
func ParseLine(line string) (from, to string, ok bool) {
	parts := strings.SplitN(line, arrow, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	from = jarName(parts[0])
	if !strings.HasSuffix(from, ".jar") {
		return "", "", false
	}
	return from, jarName(parts[1]), true
}

func (e *Extractor) Extract(r io.Reader) (*models.UsageMap, error) {
	usage := models.NewUsageMap()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if !strings.Contains(line, arrow) || containsAny(line, e.Skip) {
			continue
		}

		from, to, ok := ParseLine(line)
		if !ok {
			log.Debugf("Skipping jdeps line %d: %s", lineNum, line)
			continue
		}

		parent, err := e.Resolver.Resolve(from)
		if err != nil {
			return nil, fmt.Errorf("jdeps line %d: %w", lineNum, err)
		}

		child := parent
		if !containsAny(line, e.JDKMarkers) && strings.HasSuffix(to, ".jar") {
			child, err = e.Resolver.Resolve(to)
			if err != nil {
				return nil, fmt.Errorf("jdeps line %d: %w", lineNum, err)
			}
		}

		log.Tracef("%s -> %s", parent, child)
		usage.Add(parent, child)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jdeps output: %w", err)
	}
	return usage, nil
}

func (e *Extractor) ExtractFile(path string) (*models.UsageMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jdeps output: %w", err)
	}
	defer f.Close()
	return e.Extract(f)
}
