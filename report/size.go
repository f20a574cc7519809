package report

import (
	"math"
	"os"
	"strings"
	"unusedjars/models"

	"github.com/dustin/go-humanize"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "EB"}

// HumanReadable renders a byte count in base 1024 units with at most one
// decimal, e.g. 1536 is "1.5 KB". Zero is "0".
func HumanReadable(size uint64) string {
	if size == 0 {
		return "0"
	}

	digitGroups := int(math.Log10(float64(size)) / math.Log10(1024))
	if digitGroups > len(units)-1 {
		digitGroups = len(units) - 1
	}
	// The logarithm can land just off an exact power of 1024.
	for digitGroups > 0 && size < uint64(1)<<(10*uint(digitGroups)) {
		digitGroups--
	}
	for digitGroups < len(units)-1 && size >= uint64(1)<<(10*uint(digitGroups+1)) {
		digitGroups++
	}

	// One decimal, ties to even.
	value := math.RoundToEven(float64(size)/math.Pow(1024, float64(digitGroups))*10) / 10
	return strings.TrimSuffix(humanize.FormatFloat("#,###.#", value), ".0") + " " + units[digitGroups]
}

// JarSize is the size of the file at path, or 0 when it cannot be read.
func JarSize(path string) uint64 {
	if path == "" {
		return 0
	}
	stats, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return uint64(stats.Size())
}

type Stat struct {
	Count int
	Bytes uint64
}

func Measure(deps []models.Dep) Stat {
	s := Stat{Count: len(deps)}
	for _, d := range deps {
		s.Bytes += JarSize(d.Path)
	}
	return s
}

// Sizes maps each dep to the size of its jar.
func Sizes(deps []models.Dep) map[models.Key]uint64 {
	sizes := map[models.Key]uint64{}
	for _, d := range deps {
		sizes[d.Key()] = JarSize(d.Path)
	}
	return sizes
}
