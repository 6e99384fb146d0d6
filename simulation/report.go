package simulation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Format prints one line per ground-truth point and the overall mean error.
func (r *Report) Format(w io.Writer) error {
	for _, res := range r.Results {
		if _, err := fmt.Fprintf(w, "%s: %.3f m.\n", res.Truth, res.Error); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Mean error: %.3f m.\n", r.MeanError)
	return err
}

var csvHeader = []string{"truth_x_mm", "truth_y_mm", "fix", "x_mm", "y_mm", "error_m"}

// Rows flattens the report into one CSV row per fix, header first.
func (r *Report) Rows() [][]string {
	rows := [][]string{csvHeader}
	for _, res := range r.Results {
		for i, p := range res.Positions {
			rows = append(rows, []string{
				strconv.Itoa(res.Truth.X),
				strconv.Itoa(res.Truth.Y),
				strconv.Itoa(i),
				strconv.Itoa(p.X),
				strconv.Itoa(p.Y),
				strconv.FormatFloat(res.Truth.Distance(p)/mmPerMetre, 'f', 3, 64),
			})
		}
	}
	return rows
}

func (r *Report) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(r.Rows()); err != nil {
		return errors.Wrap(err, "write csv")
	}
	w.Flush()
	return w.Error()
}
