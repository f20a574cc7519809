package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"unusedjars/models"

	"github.com/fatih/color"
)

// PrintUnused lists unused jars, largest first. Jars above threshold are
// highlighted.
func PrintUnused(w io.Writer, unused []models.Dep, threshold uint64) error {
	type entry struct {
		dep  models.Dep
		size uint64
	}
	var entries []entry
	for _, d := range unused {
		entries = append(entries, entry{dep: d, size: JarSize(d.Path)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].size > entries[j].size
	})

	for _, e := range entries {
		sizeColor := color.New(color.Reset)
		if e.size > threshold {
			sizeColor = color.New(color.BgRed)
		}
		_, err := fmt.Fprintf(w, "%s (%s) %s\n",
			e.dep,
			filepath.Base(e.dep.Path),
			sizeColor.Sprint(HumanReadable(e.size)))
		if err != nil {
			return err
		}
	}
	return nil
}
