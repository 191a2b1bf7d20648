package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
	"github.com/garyjia/workflow-reconciler/internal/domain/workflow"
)

// ReadOverrides reads the filled override columns of a report's Unmatched sheet.
// Rows with no override column filled are ignored.
func ReadOverrides(r io.Reader) ([]reconcile.ManualOverride, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetUnmatched)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", SheetUnmatched, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colLegacyRecordID]; !ok {
		return nil, fmt.Errorf("%s sheet has no %q column", SheetUnmatched, colLegacyRecordID)
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []reconcile.ManualOverride
	for n, row := range rows[1:] {
		o := reconcile.ManualOverride{
			LegacyRecordID:          cell(row, colLegacyRecordID),
			RequesterEmployeeNumber: cell(row, colOverrideRequester),
			DepartmentCode:          cell(row, colOverrideDeptCode),
			DepartmentName:          cell(row, colOverrideDeptName),
		}
		if o.LegacyRecordID == "" {
			continue
		}
		if raw := cell(row, colOverrideDeptID); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid department id %q", n+2, raw)
			}
			o.DepartmentID = &id
		}
		for _, stage := range workflow.Stages {
			a := reconcile.ApproverOverride{
				EmployeeNumber: cell(row, approverNumberColumn(stage)),
				Name:           cell(row, approverNameColumn(stage)),
			}
			if a.EmployeeNumber == "" && a.Name == "" {
				continue
			}
			if o.Approvers == nil {
				o.Approvers = make(map[string]reconcile.ApproverOverride)
			}
			o.Approvers[stage.Key()] = a
		}

		if o.RequesterEmployeeNumber == "" && o.DepartmentID == nil && o.DepartmentCode == "" &&
			o.DepartmentName == "" && len(o.Approvers) == 0 {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// LoadOverrides reads overrides from a .json list or a filled .xlsx report
func LoadOverrides(path string) ([]reconcile.ManualOverride, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open overrides: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadOverrides(file)
	case ".json":
		var list []reconcile.ManualOverride
		if err := json.NewDecoder(file).Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to decode overrides: %w", err)
		}
		return list, nil
	}
	return nil, fmt.Errorf("unsupported overrides file %q", path)
}
