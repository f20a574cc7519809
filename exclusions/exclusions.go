package exclusions

import (
	"errors"
	"fmt"
	"unusedjars/models"

	log "github.com/sirupsen/logrus"
)

var ErrInvariant = errors.New("invariant violated")

// Find walks the subtree of every top-level dependency and records each
// unused dep nested somewhere beneath it. Nodes match on artifact id alone,
// so two groups sharing an artifact id are conflated.
func Find(tree *models.Dependency, unused []models.Dep) *models.ExclusionMap {
	exclusions := models.NewExclusionMap()
	if tree == nil {
		return exclusions
	}

	for _, top := range tree.Children {
		rootDep := top.Dep()
		for _, unusedDep := range unused {
			if contains(top.Children, unusedDep) {
				log.Debugf("Excluding %s from %s", unusedDep, rootDep)
				exclusions.Put(rootDep, unusedDep)
			}
		}
	}
	return exclusions
}

// contains searches depth-first and stops at the first matching node.
func contains(nodes []*models.Dependency, dep models.Dep) bool {
	for _, node := range nodes {
		if node.ArtifactId == dep.ArtifactId {
			return true
		}
		if contains(node.Children, dep) {
			return true
		}
	}
	return false
}

// Verify checks that every excluded dep is unused and none is white-listed.
func Verify(exclusions *models.ExclusionMap, unused []models.Dep, whitelist []models.Dep) error {
	for _, rootDep := range exclusions.Roots() {
		for _, excluded := range exclusions.Get(rootDep) {
			if !models.ContainsDep(unused, excluded) {
				return fmt.Errorf("%w: excluded dep %s missing in unused deps list", ErrInvariant, excluded)
			}
			if models.ContainsDep(whitelist, excluded) {
				return fmt.Errorf("%w: dep %s must not be in exclusions", ErrInvariant, excluded)
			}
		}
	}
	return nil
}
