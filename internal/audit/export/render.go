package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"

	"fleetaudit/internal/audit/models"
)

// csvHeader is the fixed column set of CSV and PDF exports. Snapshots and
// change sets stay JSON-only; tabular formats carry the flat view auditors
// actually read.
var csvHeader = []string{
	"id", "timestamp", "actor_id", "actor_username", "actor_role",
	"action", "resource_type", "resource_id", "resource_label",
	"success", "error_message", "reason_code",
	"break_glass_used", "dual_control_approver",
}

func eventRow(e *models.AuditEvent) []string {
	breakGlass := "false"
	if e.BreakGlass != nil && e.BreakGlass.Used {
		breakGlass = "true"
	}
	approver := ""
	if e.DualControlApprover != nil {
		approver = e.DualControlApprover.UserID
	}
	return []string{
		e.ID,
		e.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
		e.Actor.UserID,
		e.Actor.Username,
		string(e.Actor.Role),
		string(e.Action),
		string(e.Resource.Type),
		e.Resource.ID,
		e.Resource.Label,
		strconv.FormatBool(e.Success),
		e.ErrorMessage,
		e.ReasonCode,
		breakGlass,
		approver,
	}
}

func renderCSV(ctx context.Context, events []models.AuditEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.Write(eventRow(&events[i])); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderJSON(events []models.AuditEvent) ([]byte, error) {
	if events == nil {
		events = []models.AuditEvent{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}
	return data, nil
}

// renderPDF lays the flat view out as a landscape table, one row per event.
func renderPDF(ctx context.Context, events []models.AuditEvent) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Audit Log Export", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	widths := []float64{34, 30, 18, 24, 20, 20, 20, 24, 28, 12, 24, 22}
	columns := []string{
		"id", "timestamp", "actor", "username", "role", "action",
		"res type", "res id", "label", "ok", "reason", "approver",
	}

	pdf.SetFont("Helvetica", "B", 7)
	for i, col := range columns {
		pdf.CellFormat(widths[i], 6, col, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 7)
	for i := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := pdfRow(&events[i])
		for j, cell := range row {
			pdf.CellFormat(widths[j], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfRow(e *models.AuditEvent) []string {
	approver := ""
	if e.DualControlApprover != nil {
		approver = e.DualControlApprover.UserID
	}
	return []string{
		e.ID,
		e.Timestamp.UTC().Format("2006-01-02 15:04"),
		e.Actor.UserID,
		e.Actor.Username,
		string(e.Actor.Role),
		string(e.Action),
		string(e.Resource.Type),
		e.Resource.ID,
		e.Resource.Label,
		strconv.FormatBool(e.Success),
		e.ReasonCode,
		approver,
	}
}
