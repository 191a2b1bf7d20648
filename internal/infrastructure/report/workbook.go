// Package report renders a reconciliation run as an Excel workbook and reads
// operator-filled override columns back from it
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
	"github.com/garyjia/workflow-reconciler/internal/domain/workflow"
)

// Sheet names
const (
	SheetSummary   = "Summary"
	SheetUnmatched = "Unmatched"
	SheetSkipped   = "Skipped"
	SheetErrors    = "Errors"
	SheetDropped   = "Dropped Stages"
)

// Unmatched sheet columns an operator fills in before a replay
const (
	colOverrideRequester = "Override Requester Employee No"
	colOverrideDeptID    = "Override Department ID"
	colOverrideDeptCode  = "Override Department Code"
	colOverrideDeptName  = "Override Department Name"
)

const colLegacyRecordID = "Legacy Record ID"

var entryHeader = []string{
	colLegacyRecordID,
	"Request Number",
	"Legacy Status",
	"Mapped Status",
	"Reason",
	"Message",
	"Requester Employee No",
	"Requester Name",
	"Department Code",
	"Department Name",
	"Approvers",
	"Suggestions",
}

var droppedHeader = []string{
	colLegacyRecordID,
	"Request Number",
	"Stage",
	"Reason",
	"Message",
	"Employee No",
	"Name",
}

func approverNumberColumn(stage workflow.Stage) string {
	return "Override " + stage.Name() + " Approver No"
}

func approverNameColumn(stage workflow.Stage) string {
	return "Override " + stage.Name() + " Approver Name"
}

func overrideHeader() []string {
	cols := []string{colOverrideRequester, colOverrideDeptID, colOverrideDeptCode, colOverrideDeptName}
	for _, stage := range workflow.Stages {
		cols = append(cols, approverNumberColumn(stage), approverNameColumn(stage))
	}
	return cols
}

// Writer renders run results
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a new report writer
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// Build renders result into a new workbook. The caller closes it.
func (w *Writer) Build(result *reconcile.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	for _, name := range []string{SheetUnmatched, SheetSkipped, SheetErrors, SheetDropped} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	steps := []func() error{
		func() error { return w.writeSummary(f, result, bold) },
		func() error {
			return w.writeEntries(f, SheetUnmatched, result.Unmatched, overrideHeader(), bold)
		},
		func() error { return w.writeEntries(f, SheetSkipped, result.Skipped, nil, bold) },
		func() error { return w.writeEntries(f, SheetErrors, result.Errors, nil, bold) },
		func() error { return w.writeDropped(f, result.DroppedStages, bold) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}

	w.logger.Debug("Report workbook built",
		zap.String("run_id", result.RunID),
		zap.Int("unmatched", len(result.Unmatched)))
	return f, nil
}

// WriteTo renders result as xlsx into out
func (w *Writer) WriteTo(result *reconcile.Result, out io.Writer) error {
	f, err := w.Build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile renders result to an xlsx file at path
func (w *Writer) WriteFile(result *reconcile.Result, path string) error {
	f, err := w.Build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	w.logger.Info("Report workbook saved", zap.String("path", path))
	return nil
}

func (w *Writer) writeSummary(f *excelize.File, result *reconcile.Result, bold int) error {
	s := result.Summary
	rows := [][]interface{}{
		{"Field", "Value"},
		{"Run ID", result.RunID},
		{"Company ID", result.CompanyID},
		{"Dry Run", s.DryRun},
		{"Started At", formatTime(s.StartedAt)},
		{"Finished At", formatTime(s.FinishedAt)},
		{"Fetched", s.Fetched},
		{"Targeted", s.Targeted},
		{"Processed", s.Processed},
		{"Skipped", s.Skipped},
		{"Already Synced", s.AlreadySynced},
		{"Unmatched", s.Unmatched},
		{"Errors", s.Errors},
		{"Stages Dropped", s.StagesDropped},
		{"Requests Created", s.Created.Requests},
		{"Approval Steps Created", s.Created.ApprovalSteps},
		{"Items Created", s.Created.Items},
		{"Serve Batches Created", s.Created.ServeBatches},
		{"Posting Records Created", s.Created.PostingRecords},
	}
	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "B", 28); err != nil {
		return fmt.Errorf("failed to size summary columns: %w", err)
	}
	return f.SetRowStyle(SheetSummary, 1, 1, bold)
}

func (w *Writer) writeEntries(f *excelize.File, sheet string, entries []reconcile.Entry, extra []string, bold int) error {
	header := make([]interface{}, 0, len(entryHeader)+len(extra))
	for _, h := range append(append([]string{}, entryHeader...), extra...) {
		header = append(header, h)
	}

	rows := [][]interface{}{header}
	for _, e := range entries {
		h := e.Hints
		if h == nil {
			h = &reconcile.Hints{}
		}
		rows = append(rows, []interface{}{
			e.LegacyRecordID,
			e.RequestNumber,
			e.LegacyStatus,
			e.MappedStatus,
			e.Reason,
			e.Message,
			h.RequesterEmployeeNumber,
			h.RequesterName,
			h.DepartmentCode,
			h.DepartmentName,
			formatApprovers(h.Approvers),
			strings.Join(h.Suggestions, "; "),
		})
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}

func (w *Writer) writeDropped(f *excelize.File, dropped []reconcile.DroppedStage, bold int) error {
	header := make([]interface{}, 0, len(droppedHeader))
	for _, h := range droppedHeader {
		header = append(header, h)
	}
	rows := [][]interface{}{header}
	for _, d := range dropped {
		rows = append(rows, []interface{}{
			d.LegacyRecordID, d.RequestNumber, d.Stage, d.Reason, d.Message, d.EmployeeNumber, d.Name,
		})
	}
	if err := writeRows(f, SheetDropped, rows); err != nil {
		return err
	}
	return f.SetRowStyle(SheetDropped, 1, 1, bold)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// formatApprovers renders stage hints as "STAGE: number / name" joined by "; "
func formatApprovers(hints []reconcile.StageHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		var ids []string
		if h.EmployeeNumber != "" {
			ids = append(ids, h.EmployeeNumber)
		}
		if h.Name != "" {
			ids = append(ids, h.Name)
		}
		label := h.Stage + ": " + strings.Join(ids, " / ")
		if h.RawStatus != "" {
			label += " (" + h.RawStatus + ")"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "; ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
