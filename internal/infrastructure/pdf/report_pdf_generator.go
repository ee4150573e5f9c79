// Package pdf genera el reporte de proyecto en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + Proyecto  │  Fecha de generación         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Dueño / Miembros / % completado                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Total | Completadas | Pendientes | Vencidas         │
//	│  TABLA: Prioridad | Tareas                                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: ID del proyecto                                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/ports"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
)

var _ ports.ReportPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorDanger  = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// priorityLabels orden y etiqueta de las prioridades en la tabla.
var priorityLabels = []struct{ key, label string }{
	{entity.PriorityUrgent, "Urgente"},
	{entity.PriorityHigh, "Alta"},
	{entity.PriorityMedium, "Media"},
	{entity.PriorityLow, "Baja"},
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ports.ReportPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateProjectReportPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateProjectReportPDF(
	_ context.Context,
	companyName string,
	report *dto.ProjectReport,
) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de proyecto: "+report.ProjectName, true).
		WithAuthor(companyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(companyName, report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow("Total", "Completadas", "Pendientes", "Vencidas"))
	m.AddRows(countsRow(report))
	m.AddRows(line.NewRow(4))

	m.AddRows(tableHeaderRow("Prioridad", "Tareas"))
	for _, r := range priorityRows(report.TasksByPriority) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa + nombre del proyecto (izq) y fecha (der).
func headerRow(companyName string, report *dto.ProjectReport) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(nonEmpty(companyName, "—"), props.Text{
				Size: 9, Top: 1, Color: colorGray,
			}),
			text.New(report.ProjectName, props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 6,
			}),
		),
		col.New(4).Add(
			text.New("REPORTE DE PROYECTO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+report.GeneratedAt.UTC().Format("02/01/2006 15:04")+" UTC", props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

// summaryRow: dueño, miembros y porcentaje de avance.
func summaryRow(report *dto.ProjectReport) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("RESUMEN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dueño: %s   |   Miembros: %d",
				nonEmpty(report.Owner, "—"), report.TotalMembers,
			), props.Text{Size: 9, Top: 7}),
		),
		col.New(4).Add(
			text.New(report.CompletionRate.StringFixed(2)+"%", props.Text{
				Style: fontstyle.Bold, Size: 16, Align: align.Right,
				Color: colorPrimary, Top: 2,
			}),
			text.New("completado", props.Text{
				Size: 8, Align: align.Right, Top: 10, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de tabla con columnas del mismo ancho.
func tableHeaderRow(labels ...string) core.Row {
	size := 12 / len(labels)
	cols := make([]core.Col, 0, len(labels))
	for _, l := range labels {
		cols = append(cols, col.New(size).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Center,
			Color: colorWhite, Top: 2,
		})).WithStyle(&props.Cell{BackgroundColor: colorPrimary}))
	}
	return row.New(8).Add(cols...)
}

// countsRow: totales del proyecto; las vencidas en rojo si hay alguna.
func countsRow(report *dto.ProjectReport) core.Row {
	cell := func(n int, color *props.Color) core.Col {
		return col.New(3).Add(text.New(strconv.Itoa(n), props.Text{
			Style: fontstyle.Bold, Size: 11, Align: align.Center, Top: 2, Color: color,
		}))
	}
	overdueColor := colorGray
	if report.OverdueTasks > 0 {
		overdueColor = colorDanger
	}
	return row.New(10).Add(
		cell(report.TotalTasks, nil),
		cell(report.CompletedTasks, colorPrimary),
		cell(report.PendingTasks, nil),
		cell(report.OverdueTasks, overdueColor),
	)
}

// priorityRows: una fila por prioridad, de urgente a baja.
func priorityRows(byPriority map[string]int) []core.Row {
	result := make([]core.Row, 0, len(priorityLabels))
	for _, p := range priorityLabels {
		result = append(result, row.New(7).Add(
			col.New(6).Add(text.New(p.label, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(strconv.Itoa(byPriority[p.key]), props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return result
}

func footerRow(report *dto.ProjectReport) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("Proyecto "+report.ProjectID, props.Text{
			Size: 6.5, Color: colorGray, Top: 2,
		}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
