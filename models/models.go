package models

import (
	"fmt"
	"strings"
)

type RootCtx struct {
	LogLevel                      string
	LargeDependencyThreshold      string
	LargeDependencyThresholdBytes uint64
	LargeDependenciesOnly         bool
}

// Key is the identity of a Dep. Two Deps with the same coordinates are the
// same library no matter where their jars live.
type Key struct {
	GroupId    string
	ArtifactId string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.GroupId, k.ArtifactId)
}

// Dep is a library jar identified by its Maven coordinates. Path is the
// absolute location of the backing jar and may be empty.
type Dep struct {
	GroupId    string
	ArtifactId string
	Path       string
}

func (d Dep) Key() Key {
	return Key{GroupId: d.GroupId, ArtifactId: d.ArtifactId}
}

func (d Dep) Equal(other Dep) bool {
	return d.Key() == other.Key()
}

func (d Dep) String() string {
	return d.Key().String()
}

// ParseDep builds a Dep from "group:artifact" coordinates.
func ParseDep(coords string) (Dep, error) {
	split := strings.Split(strings.TrimSpace(coords), ":")
	if len(split) != 2 || split[0] == "" || split[1] == "" {
		return Dep{}, fmt.Errorf("invalid coordinates %q, expected group:artifact", coords)
	}
	return Dep{GroupId: split[0], ArtifactId: split[1]}, nil
}

// ParseDeps parses every entry with ParseDep.
func ParseDeps(coords []string) ([]Dep, error) {
	var deps []Dep
	for _, c := range coords {
		d, err := ParseDep(c)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// Dependency is a node of a dependency tree as printed by Maven or Gradle.
type Dependency struct {
	GroupId    string
	ArtifactId string
	Version    string
	Extension  string
	Classifier string
	Scope      string
	Optional   bool
	Children   []*Dependency
}

func (d *Dependency) Dep() Dep {
	return Dep{GroupId: d.GroupId, ArtifactId: d.ArtifactId}
}

// Walk visits the node and its descendants depth-first, parents before
// children.
func (d *Dependency) Walk(fn func(node *Dependency, depth int)) {
	d.walk(fn, 0)
}

func (d *Dependency) walk(fn func(node *Dependency, depth int), depth int) {
	fn(d, depth)
	for _, c := range d.Children {
		c.walk(fn, depth+1)
	}
}

// FindGroups returns the distinct groups of every node whose artifact id is
// artifactId, in the order they are first seen.
func (d *Dependency) FindGroups(artifactId string) []string {
	var groups []string
	seen := map[string]bool{}
	d.Walk(func(node *Dependency, _ int) {
		if node.ArtifactId == artifactId && !seen[node.GroupId] {
			seen[node.GroupId] = true
			groups = append(groups, node.GroupId)
		}
	})
	return groups
}

// TreeOf wraps a flat dependency listing in a synthetic root.
func TreeOf(deps []Dep) *Dependency {
	root := &Dependency{}
	for _, d := range deps {
		root.Children = append(root.Children, &Dependency{GroupId: d.GroupId, ArtifactId: d.ArtifactId})
	}
	return root
}
