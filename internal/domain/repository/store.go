package repository

import "context"

// Repos agrupa los repositorios atados a una misma conexión o transacción.
type Repos struct {
	Companies CompanyRepository
	Domains   DomainRepository
	Schemas   SchemaProvisioner
	Users     UserRepository
	Projects  ProjectRepository
	Tasks     TaskRepository
	Reminders ReminderLogRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD con repositorios atados a esa tx.
// Si fn devuelve error se hace rollback de todo lo escrito.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
