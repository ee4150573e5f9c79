package ports

import "context"

// Email mensaje de texto plano a un único destinatario.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer define el puerto de salida para el envío de correo.
// Cualquier adaptador (SMTP, log en desarrollo, mock en tests) debe implementar esta interfaz.
// Un error significa que el correo NO se entregó al servidor.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}
