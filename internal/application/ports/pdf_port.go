package ports

import (
	"context"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
)

// ReportPDFGenerator renderiza el reporte de proyecto como PDF.
type ReportPDFGenerator interface {
	GenerateProjectReportPDF(ctx context.Context, companyName string, report *dto.ProjectReport) ([]byte, error)
}
