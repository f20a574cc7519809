package report

import (
	"errors"
	"io"
	"unusedjars/models"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// UsageGraph builds a directed graph with an edge from every jar to each jar
// it references. References of a jar to itself stand for JDK or unresolved
// classes and are left out.
func UsageGraph(usage *models.UsageMap) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed())
	addVertex := func(d models.Dep) error {
		err := g.AddVertex(d.String())
		if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return err
		}
		return nil
	}

	for _, from := range usage.Keys() {
		if err := addVertex(from); err != nil {
			return nil, err
		}
		for _, to := range usage.Refs(from) {
			if to.Equal(from) {
				continue
			}
			if err := addVertex(to); err != nil {
				return nil, err
			}
			err := g.AddEdge(from.String(), to.String())
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, err
			}
		}
	}
	return g, nil
}

// WriteUsageGraph writes the usage graph in DOT format.
func WriteUsageGraph(w io.Writer, usage *models.UsageMap) error {
	g, err := UsageGraph(usage)
	if err != nil {
		return err
	}
	return draw.DOT(g, w)
}
