package report

import (
	"fmt"
	"io"
	"strings"
	"unusedjars/models"

	"github.com/fatih/color"
)

type analyzedDependency struct {
	Dependency *models.Dependency
	Parent     *analyzedDependency
	Children   []*analyzedDependency
	Depth      int
	Size       uint64
	TotalSize  uint64
}

type dependencyStack []*analyzedDependency

func (s dependencyStack) Push(v *analyzedDependency) dependencyStack {
	return append(s, v)
}

func (s dependencyStack) Pop() (dependencyStack, *analyzedDependency) {
	l := len(s)
	return s[:l-1], s[l-1]
}

func calculateTotalSizes(root *models.Dependency, sizes map[models.Key]uint64) []*analyzedDependency {
	// Convert top-level deps into analyzed form
	var deps []*analyzedDependency
	for _, d := range root.Children {
		deps = append(deps, &analyzedDependency{
			Dependency: d,
			Size:       sizes[d.Dep().Key()],
		})
	}

	// Push all top-level deps
	var stack dependencyStack
	for i := len(deps) - 1; i >= 0; i-- {
		stack = stack.Push(deps[i])
	}

	for len(stack) > 0 {
		var entry *analyzedDependency
		stack, entry = stack.Pop()

		for _, d := range entry.Dependency.Children {
			entry.Children = append(entry.Children, &analyzedDependency{
				Dependency: d,
				Parent:     entry,
				Depth:      entry.Depth + 1,
				Size:       sizes[d.Dep().Key()],
			})
		}
		for i := len(entry.Children) - 1; i >= 0; i-- {
			stack = stack.Push(entry.Children[i])
		}

		for ptr := entry; ptr != nil; ptr = ptr.Parent {
			ptr.TotalSize += entry.Size
		}
	}
	return deps
}

// PrintTree prints the dependency tree with the size of every jar and of its
// subtree. Unused jars are flagged, and with ctx.LargeDependenciesOnly only
// top-level subtrees above the threshold are shown.
func PrintTree(w io.Writer, root *models.Dependency, sizes map[models.Key]uint64, unused []models.Dep, ctx models.RootCtx) {
	// A flat listing has a synthetic root without coordinates.
	if root.GroupId != "" || root.ArtifactId != "" {
		fmt.Fprintf(w, "Project: %s:%s (%s)\n", root.GroupId, root.ArtifactId, root.Version)
	}
	if len(root.Children) == 0 {
		fmt.Fprintf(w, "%s in 0 dependencies\n", HumanReadable(0))
		return
	}

	unusedKeys := map[models.Key]bool{}
	for _, d := range unused {
		unusedKeys[d.Key()] = true
	}

	// Depth-first stack walk, printing as we go
	analyzedDeps := calculateTotalSizes(root, sizes)
	var stack dependencyStack

	// Insert these in reverse because stacks operate on the last inserted record
	for i := len(analyzedDeps) - 1; i >= 0; i-- {
		stack = stack.Push(analyzedDeps[i])
	}

	var totalDeps uint64 = 0
	var totalSize uint64 = 0
	var currTopLevel *analyzedDependency
	for len(stack) > 0 {
		var entry *analyzedDependency
		stack, entry = stack.Pop()
		dep := entry.Dependency
		totalDeps++
		totalSize += entry.Size

		// The prefix is dependent on the next item in the stack. If the next
		// item is at the same depth, then we need to include pipes to extend
		// the tree downwards. If the next item is not at the same depth, then
		// we need to use the angle character.
		prefix := "├── "
		if entry.Depth > 0 {
			if len(stack) > 0 && stack[len(stack)-1].Depth == entry.Depth {
				prefix = fmt.Sprintf("%s├── ", strings.Repeat("|    ", entry.Depth))
			} else {
				prefix = fmt.Sprintf("%s└── ", strings.Repeat("|    ", entry.Depth))
			}
		} else {
			currTopLevel = entry
			if len(stack) == 0 && len(entry.Children) == 0 {
				prefix = "└── "
			}
		}

		// Highlight any file that is greater than the large file threshold
		fileColor := color.New(color.Reset)
		totalColor := color.New(color.Reset)
		if entry.Size > ctx.LargeDependencyThresholdBytes {
			fileColor = color.New(color.BgRed)
		}
		if entry.TotalSize > ctx.LargeDependencyThresholdBytes {
			totalColor = color.New(color.BgRed)
		}

		marker := ""
		if unusedKeys[dep.Dep().Key()] {
			marker = color.New(color.FgYellow).Sprint(" UNUSED")
		}

		if !ctx.LargeDependenciesOnly || currTopLevel.TotalSize > ctx.LargeDependencyThresholdBytes {
			fmt.Fprintf(w, "%s%s:%s:%s Size[%s, %s]%s\n",
				prefix,
				dep.GroupId,
				dep.ArtifactId,
				dep.Version,
				fileColor.Sprintf("File: %s", HumanReadable(entry.Size)),
				totalColor.Sprintf("Total: %s", HumanReadable(entry.TotalSize)),
				marker)
		}

		// Push all child dependencies in reverse order since stacks operate on the
		// last inputted value
		for i := len(entry.Children) - 1; i >= 0; i-- {
			stack = stack.Push(entry.Children[i])
		}
	}

	fmt.Fprintf(w, "%s in %d dependencies\n", HumanReadable(totalSize), totalDeps)
}
