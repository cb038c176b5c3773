package clockcheck

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WriteDump renders the check result as plain-text tables: the merged
// generated-clock comparison with one row per side of each aligned pair,
// then the clock-network cells of each side with their type status. The
// cell sections appear only when type rules were configured.
func (res *Result) WriteDump(w io.Writer) error {
	if len(res.Rows) > 0 {
		if _, err := fmt.Fprintln(w, "\n====== GClock Compare"); err != nil {
			return err
		}
		t := newTable("T", "CK", "Ln", "Pin", "Cell")
		for i, row := range res.Rows {
			lStat, cStat := "--", "--"
			if i < len(res.RowStats) {
				lStat, cStat = res.RowStats[i][0], res.RowStats[i][1]
			}
			t.Row("L", lStat, row.L.Ln, row.L.Name, row.L.Cell)
			t.Row("C", cStat, row.C.Ln, row.C.Name, row.C.Cell)
		}
		if _, err := fmt.Fprintln(w, t.String()); err != nil {
			return err
		}
	}

	if err := writeCells(w, "launch source", res.Launch); err != nil {
		return err
	}
	return writeCells(w, "capture source", res.Capture)
}

// DumpFile writes the dump to the named file.
func (res *Result) DumpFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.WriteDump(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCells(w io.Writer, name string, cells []CellCheck) error {
	if len(cells) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "====== Non-CK type cell (%s)\n", name); err != nil {
		return err
	}
	t := newTable("CK", "Ln", "Pin", "Cell")
	for _, c := range cells {
		t.Row(c.Status, c.Pin.Ln, c.Pin.Name, c.Pin.Cell)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle()).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

// cellStatus maps the pass/covered pair to the printed status.
func cellStatus(pass, ckm bool) string {
	switch {
	case pass:
		return StatusOK
	case ckm:
		return StatusIgnore
	default:
		return StatusFail
	}
}
