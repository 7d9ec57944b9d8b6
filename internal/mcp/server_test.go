package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncology-insights-server/internal/config"
	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/logging"
	"github.com/oncology-insights-server/internal/scoring"
	"github.com/oncology-insights-server/pkg/external"
)

type stubPortal struct {
	calls atomic.Int32
	err   error
}

func (p *stubPortal) GetCancerTypes(context.Context) ([]external.CancerType, error) {
	p.calls.Add(1)
	return []external.CancerType{{CancerTypeID: "luad", Name: "Lung Adenocarcinoma"}}, p.err
}

func (p *stubPortal) GetStudies(context.Context, int) ([]external.Study, error) {
	p.calls.Add(1)
	return []external.Study{
		{StudyID: "luad_tcga", Name: "Lung TCGA", CancerTypeID: "luad", AllSampleCount: 500, PublicStudy: true},
	}, p.err
}

func (p *stubPortal) GetClinicalData(context.Context, string, domain.ClinicalDataType) ([]external.ClinicalData, error) {
	return nil, p.err
}

func (p *stubPortal) GetPatients(context.Context, string) ([]external.StudyPatient, error) {
	return nil, p.err
}

func newTestServer(t *testing.T, portal external.CBioPortalAPI) *LiteServer {
	t.Helper()

	cfg := config.DefaultLiteConfig()
	cfg.DataDir = t.TempDir()

	server, err := NewLiteServer(cfg,
		WithLogger(logging.Discard()),
		WithCBioPortal(portal),
		WithScorer(scoring.NewScorer(scoring.WithNoise(func() float64 { return 0.5 }))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return server
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func TestNewLiteServer(t *testing.T) {
	server := newTestServer(t, &stubPortal{})

	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.AuditStore())
	_, err := os.Stat(server.config.AuditDBPath())
	assert.NoError(t, err, "audit database is created in the data dir")
	_, err = os.Stat(server.config.ExportDir())
	assert.NoError(t, err)
}

func TestNewLiteServer_NilLogger(t *testing.T) {
	cfg := config.DefaultLiteConfig()
	cfg.DataDir = t.TempDir()

	_, err := NewLiteServer(cfg, WithLogger(nil))
	assert.Error(t, err)
}

func TestPredictSurvivalTool(t *testing.T) {
	server := newTestServer(t, &stubPortal{})
	ctx := context.Background()

	res, _, err := server.predictSurvival(ctx, nil, domain.SurvivalPredictionRequest{
		PatientID:         int64Ptr(4),
		Age:               intPtr(55),
		Gender:            "Female",
		CancerType:        "Breast",
		Stage:             "II",
		PerformanceStatus: intPtr(0),
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var est scoring.SurvivalEstimate
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &est))
	assert.Equal(t, 70.0, est.PredictedSurvivalRate)

	// the audit write is asynchronous
	require.Eventually(t, func() bool {
		n, err := server.AuditStore().Count(ctx)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	res, _, err = server.listPatientPredictions(ctx, nil, ListPredictionsInput{PatientID: 4})
	require.NoError(t, err)
	var records []*domain.PredictionRecord
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &records))
	require.Len(t, records, 1)
	assert.Equal(t, scoring.SurvivalModelName, records[0].ModelName)
	assert.JSONEq(t, `"Breast"`, mustField(t, records[0].InputFeatures, "cancerType"))
}

func mustField(t *testing.T, raw json.RawMessage, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return string(m[field])
}

func TestPredictSurvivalTool_ValidationError(t *testing.T) {
	server := newTestServer(t, &stubPortal{})

	res, _, err := server.predictSurvival(context.Background(), nil, domain.SurvivalPredictionRequest{
		Age: intPtr(30), Gender: "nobody", CancerType: "Lung", Stage: "I", PerformanceStatus: intPtr(0),
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "gender")
}

func TestPredictDrugResponseTool_MissingDrug(t *testing.T) {
	server := newTestServer(t, &stubPortal{})

	res, _, err := server.predictDrugResponse(context.Background(), nil, domain.DrugResponsePredictionRequest{
		Age: intPtr(45), CancerType: "Lung", Stage: "I",
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "drugName")

	count, err := server.AuditStore().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPredictDrugResponseTool(t *testing.T) {
	server := newTestServer(t, &stubPortal{})

	prior := 0
	res, _, err := server.predictDrugResponse(context.Background(), nil, domain.DrugResponsePredictionRequest{
		Age: intPtr(45), CancerType: "Lung", Stage: "I", DrugName: "Cisplatin", PriorTreatments: &prior,
	})
	require.NoError(t, err)

	var est scoring.DrugResponseEstimate
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &est))
	assert.Equal(t, 70.0, est.PredictedResponseRate)
	assert.Equal(t, scoring.DrugModelName, est.ModelUsed)
}

func TestListPatientPredictionsTool_InvalidPatient(t *testing.T) {
	server := newTestServer(t, &stubPortal{})

	res, _, err := server.listPatientPredictions(context.Background(), nil, ListPredictionsInput{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestExportPredictionsTool(t *testing.T) {
	server := newTestServer(t, &stubPortal{})
	ctx := context.Background()

	require.NoError(t, server.AuditStore().Record(ctx, &domain.PredictionRecord{
		PatientID: 1, ModelName: scoring.DrugModelName, PredictionType: scoring.DrugPredictionType, PredictedValue: 42,
	}))

	res, _, err := server.exportPredictions(ctx, nil, ExportPredictionsInput{Filename: "../escape.json"})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out struct {
		Path  string `json:"path"`
		Count int64  `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, filepath.Join(server.config.ExportDir(), "escape.json"), out.Path, "export stays inside the export dir")
	assert.Equal(t, int64(1), out.Count)

	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	var export domain.PredictionExport
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, 1, export.Count)
}

func TestCBioPortalStatsTool(t *testing.T) {
	portal := &stubPortal{}
	server := newTestServer(t, portal)
	ctx := context.Background()

	res, _, err := server.cbioportalStats(ctx, nil, StatsInput{})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"totalSamples": 500`)

	_, _, err = server.cbioportalStats(ctx, nil, StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), portal.calls.Load(), "second call is served from the memory cache")
}

func TestCBioPortalStatsTool_UpstreamDown(t *testing.T) {
	server := newTestServer(t, &stubPortal{err: errors.New("unreachable")})

	res, _, err := server.cbioportalStats(context.Background(), nil, StatsInput{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"totalStudies": 0`)
}

func TestStart_UnsupportedTransport(t *testing.T) {
	server := newTestServer(t, &stubPortal{})
	server.config.Transport = "websocket"

	err := server.Start(context.Background())
	assert.ErrorContains(t, err, "unsupported transport")
}
