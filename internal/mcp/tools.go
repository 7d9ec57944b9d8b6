package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/audit"
	"github.com/oncology-insights-server/internal/domain"
)

// Tool names
const (
	ToolPredictSurvival        = "predict_survival"
	ToolPredictDrugResponse    = "predict_drug_response"
	ToolListPatientPredictions = "list_patient_predictions"
	ToolExportPredictions      = "export_predictions"
	ToolCBioPortalStats        = "cbioportal_stats"
)

// defaultListLimit applies when list_patient_predictions gets no limit
const defaultListLimit = 20

// ListPredictionsInput selects the audit trail of one patient
type ListPredictionsInput struct {
	PatientID int64 `json:"patientId" jsonschema:"numeric id of the patient"`
	Limit     int   `json:"limit,omitempty" jsonschema:"maximum number of records, newest first (default 20)"`
}

// ExportPredictionsInput names the export file
type ExportPredictionsInput struct {
	Filename string `json:"filename,omitempty" jsonschema:"file name inside the export directory (default predictions-<timestamp>.json)"`
}

// StatsInput takes no arguments
type StatsInput struct{}

// registerTools registers every tool with the MCP server.
func (s *LiteServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolPredictSurvival,
		Description: "Estimate the 5-year survival rate of a cancer patient from age, gender, cancer type, stage and ECOG performance status. Returns the rate in percent, a confidence score and the risk factors that lowered it.",
	}, s.predictSurvival)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolPredictDrugResponse,
		Description: "Estimate the response rate of a patient to a drug from age, cancer type, stage and the number of prior treatment lines. Returns the rate in percent, a confidence score and recommendations.",
	}, s.predictDrugResponse)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListPatientPredictions,
		Description: "List the audited predictions made for a patient, newest first.",
	}, s.listPatientPredictions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolExportPredictions,
		Description: "Export the full prediction audit trail as a JSON file in the server's export directory.",
	}, s.exportPredictions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolCBioPortalStats,
		Description: "Summarise public cBioPortal cohorts: totals, samples by cancer type and recent public studies.",
	}, s.cbioportalStats)

	s.logger.WithField("tool_count", 5).Info("Successfully registered all tools")
}

func (s *LiteServer) predictSurvival(ctx context.Context, _ *mcp.CallToolRequest, in domain.SurvivalPredictionRequest) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolPredictSurvival).Debug("Tool invoked")

	estimate, err := s.predictor.PredictSurvival(ctx, &in)
	if err != nil {
		return toolError(err), nil, nil
	}
	return jsonResult(estimate)
}

func (s *LiteServer) predictDrugResponse(ctx context.Context, _ *mcp.CallToolRequest, in domain.DrugResponsePredictionRequest) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolPredictDrugResponse).Debug("Tool invoked")

	estimate, err := s.predictor.PredictDrugResponse(ctx, &in)
	if err != nil {
		return toolError(err), nil, nil
	}
	return jsonResult(estimate)
}

func (s *LiteServer) listPatientPredictions(ctx context.Context, _ *mcp.CallToolRequest, in ListPredictionsInput) (*mcp.CallToolResult, any, error) {
	if in.PatientID <= 0 {
		return toolError(domain.NewValidationError("patientId", "patient id must be positive", in.PatientID)), nil, nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	records, err := s.store.ListByPatient(ctx, in.PatientID, limit)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"patient_id": in.PatientID, "error": err}).Error("Failed to list predictions")
		return toolError(fmt.Errorf("failed to list predictions: %w", err)), nil, nil
	}
	return jsonResult(records)
}

func (s *LiteServer) exportPredictions(ctx context.Context, _ *mcp.CallToolRequest, in ExportPredictionsInput) (*mcp.CallToolResult, any, error) {
	name := filepath.Base(in.Filename)
	if in.Filename == "" || name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("predictions-%s.json", time.Now().UTC().Format("20060102-150405"))
	}
	path := filepath.Join(s.config.ExportDir(), name)

	f, err := os.Create(path)
	if err != nil {
		return toolError(fmt.Errorf("failed to create export file: %w", err)), nil, nil
	}
	if err := audit.ExportTo(ctx, s.store, f); err != nil {
		s.logger.WithFields(logrus.Fields{"path": path, "error": err}).Error("Failed to export predictions")
		return toolError(fmt.Errorf("failed to export predictions: %w", err)), nil, nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return toolError(fmt.Errorf("failed to count predictions: %w", err)), nil, nil
	}

	s.logger.WithFields(logrus.Fields{"path": path, "count": count}).Info("Exported prediction audit trail")
	return jsonResult(map[string]interface{}{
		"path":  path,
		"count": count,
	})
}

func (s *LiteServer) cbioportalStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, any, error) {
	return jsonResult(s.cohorts.AggregatedStats(ctx))
}

// jsonResult renders v as an indented JSON text result
func jsonResult(v interface{}) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// toolError reports a failure inside the result so the client can show it
func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
