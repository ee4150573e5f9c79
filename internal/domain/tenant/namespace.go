// Package tenant define el namespace (schema PostgreSQL) de cada empresa.
//
// El namespace se pasa SIEMPRE como argumento explícito a repositorios y trabajos;
// no existe un "schema actual" global.
package tenant

import (
	"errors"
	"net"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Namespace nombre de schema ya validado y en minúsculas.
type Namespace string

// Public namespace global: registro de empresas, dominios y superusuarios de plataforma.
const Public Namespace = "public"

const maxSchemaLen = 63 // límite de identificadores en PostgreSQL

var (
	ErrSchemaEmpty    = errors.New("el nombre de schema es obligatorio")
	ErrSchemaChars    = errors.New("el nombre de schema solo puede contener caracteres alfanuméricos y guiones bajos")
	ErrSchemaLength   = errors.New("el nombre de schema no puede superar 63 caracteres")
	ErrSchemaReserved = errors.New("el nombre de schema está reservado")
	ErrDomainInvalid  = errors.New("dominio inválido")
)

var lower = cases.Lower(language.Und)

// NormalizeSchema valida y normaliza el nombre de schema de una empresa.
func NormalizeSchema(raw string) (Namespace, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrSchemaEmpty
	}
	for _, r := range s {
		if !isASCIIAlnum(r) && r != '_' {
			return "", ErrSchemaChars
		}
	}
	if len(s) > maxSchemaLen {
		return "", ErrSchemaLength
	}
	s = lower.String(s)
	if s == string(Public) || s == "information_schema" || strings.HasPrefix(s, "pg_") {
		return "", ErrSchemaReserved
	}
	return Namespace(s), nil
}

// NormalizeDomain limpia un hostname: minúsculas, sin puerto, sin espacios.
func NormalizeDomain(raw string) (string, error) {
	h := strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	h = strings.TrimSuffix(lower.String(h), ".")
	if h == "" || strings.ContainsAny(h, " \t/\\@") || len(h) > 255 {
		return "", ErrDomainInvalid
	}
	return h, nil
}

// IsPublic indica si es el namespace global.
func (n Namespace) IsPublic() bool { return n == Public }

func (n Namespace) String() string { return string(n) }

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
