package report

import (
	"fmt"
	"io"
	"unusedjars/models"
)

type Summary struct {
	Total    Stat
	Used     Stat
	Unused   Stat
	Retained Stat
}

func NewSummary(all, used, unused, retained []models.Dep) Summary {
	return Summary{
		Total:    Measure(all),
		Used:     Measure(used),
		Unused:   Measure(unused),
		Retained: Measure(retained),
	}
}

// Percent is part as a truncated percentage of total, 0 for an empty total.
func Percent(part, total uint64) int {
	if total == 0 {
		return 0
	}
	return int(float64(part) / float64(total) * 100)
}

func (s Summary) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-8s %d, %s\n", "Total", s.Total.Count, HumanReadable(s.Total.Bytes)); err != nil {
		return err
	}
	type row struct {
		label string
		stat  Stat
	}
	rows := []row{{"Used", s.Used}, {"Unused", s.Unused}}
	if s.Retained.Count > 0 {
		rows = append(rows, row{"Retained", s.Retained})
	}
	for _, r := range rows {
		_, err := fmt.Fprintf(w, "%-8s %d, %s, %d%%\n",
			r.label,
			r.stat.Count,
			HumanReadable(r.stat.Bytes),
			Percent(r.stat.Bytes, s.Total.Bytes))
		if err != nil {
			return err
		}
	}
	return nil
}
