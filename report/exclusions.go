package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"unusedjars/models"
)

type pomDependencies struct {
	XMLName    xml.Name        `xml:"dependencies"`
	Dependency []pomDependency `xml:"dependency"`
}

type pomDependency struct {
	GroupId    string         `xml:"groupId"`
	ArtifactId string         `xml:"artifactId"`
	Exclusions []pomExclusion `xml:"exclusions>exclusion"`
}

type pomExclusion struct {
	GroupId    string `xml:"groupId"`
	ArtifactId string `xml:"artifactId"`
}

// WriteExclusions renders the exclusions as pom.xml <dependency> elements
// wrapped in a <dependencies> document. An empty indent writes everything on
// one line.
func WriteExclusions(w io.Writer, exclusions *models.ExclusionMap, indent string) error {
	doc := pomDependencies{}
	for _, root := range exclusions.Roots() {
		dep := pomDependency{GroupId: root.GroupId, ArtifactId: root.ArtifactId}
		for _, excluded := range exclusions.Get(root) {
			dep.Exclusions = append(dep.Exclusions, pomExclusion{GroupId: excluded.GroupId, ArtifactId: excluded.ArtifactId})
		}
		doc.Dependency = append(doc.Dependency, dep)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", indent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode exclusions: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func WriteExclusionsFile(path string, exclusions *models.ExclusionMap) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteExclusions(f, exclusions, "  "); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
