package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
)

func TestGenerateProjectReportPDF(t *testing.T) {
	report := &dto.ProjectReport{
		ProjectID:      "8f14e45f-ceea-467e-a8b3-2c1f0a3b4d5e",
		ProjectName:    "Launch",
		Owner:          "ana",
		TotalMembers:   3,
		TotalTasks:     4,
		CompletedTasks: 1,
		PendingTasks:   2,
		OverdueTasks:   1,
		TasksByPriority: map[string]int{
			"high": 2, "low": 2,
		},
		CompletionRate: decimal.NewFromInt(25),
		GeneratedAt:    time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}

	b, err := NewMarotoPDFGenerator().GenerateProjectReportPDF(context.Background(), "Acme", report)
	require.NoError(t, err)
	require.NotEmpty(t, b)
	assert.Equal(t, "%PDF", string(b[:4]))
}

func TestGenerateProjectReportPDF_SinReporte(t *testing.T) {
	_, err := NewMarotoPDFGenerator().GenerateProjectReportPDF(context.Background(), "Acme", nil)
	assert.Error(t, err)
}
