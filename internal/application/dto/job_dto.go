package dto

import (
	"encoding/json"
	"time"
)

// JobEnvelope mensaje que viaja por la cola. Namespace va siempre explícito
// (vacío solo en los trabajos que recorren todas las empresas).
type JobEnvelope struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Namespace  string          `json:"namespace,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}
