// Package mail implementa ports.Mailer: SMTP con gomail y un mailer de log para desarrollo.
package mail

import (
	"context"
	"fmt"
	"net/mail"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/Proyectos-api/internal/application/ports"
	"github.com/jhoicas/Proyectos-api/pkg/config"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
)

var (
	_ ports.Mailer = (*SMTPMailer)(nil)
	_ ports.Mailer = (*LogMailer)(nil)
)

// Dialer subconjunto de gomail.Dialer (inyectable en tests).
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer envía texto plano por SMTP. Cada Send abre y cierra su propia conexión.
type SMTPMailer struct {
	dialer Dialer
	from   string
}

// NewSMTPMailer construye el mailer con la configuración SMTP.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return NewSMTPMailerWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), cfg.From)
}

// NewSMTPMailerWithDialer permite inyectar el dialer (tests).
func NewSMTPMailerWithDialer(d Dialer, from string) *SMTPMailer {
	return &SMTPMailer{dialer: d, from: from}
}

// Send arma el mensaje y lo entrega al servidor.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msgObj, err := buildMessage(m.from, msg)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msgObj); err != nil {
		return fmt.Errorf("mail: enviar a %s: %w", msg.To, err)
	}
	return nil
}

func buildMessage(from string, msg ports.Email) (*gomail.Message, error) {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return nil, fmt.Errorf("mail: destinatario inválido %q: %w", msg.To, err)
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	return gm, nil
}

// LogMailer registra el correo en el log en lugar de enviarlo (SMTP_HOST vacío).
type LogMailer struct {
	log *logger.Logger
}

// NewLogMailer construye el mailer de log.
func NewLogMailer(log *logger.Logger) *LogMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &LogMailer{log: log}
}

// Send escribe destinatario, asunto y cuerpo en el log.
func (m *LogMailer) Send(_ context.Context, msg ports.Email) error {
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("correo (no enviado: SMTP sin configurar)")
	return nil
}

// New elige el adaptador según la configuración.
func New(cfg config.SMTPConfig, log *logger.Logger) ports.Mailer {
	if cfg.Enabled() {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(log)
}
