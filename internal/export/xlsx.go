package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tupyy/taskpool/internal/models"
)

const SheetName = "Results"

var header = []any{"Run", "Seq", "Worker", "Command", "Exit code", "Duration (s)", "Stdout", "Stderr"}

// WriteXLSX writes one row per record, after a header row, to path.
func WriteXLSX(path string, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.RunID, r.Seq, r.Worker, r.Command, r.ExitCode, r.Duration.Seconds(), r.Stdout, r.Stderr}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r.Seq, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
