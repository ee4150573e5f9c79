package usecase

import (
	"time"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/domain"
)

// Paginación por defecto de los listados.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampPage normaliza limit/offset del query string.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dto.DateLayout)
	return &s
}

// parseDate interpreta "YYYY-MM-DD"; vacío = nil.
func parseDate(field string, raw *string, verr *domain.ValidationError) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	t, err := time.Parse(dto.DateLayout, *raw)
	if err != nil {
		verr.Add(field, "formato de fecha inválido, use YYYY-MM-DD")
		return nil
	}
	return &t
}
