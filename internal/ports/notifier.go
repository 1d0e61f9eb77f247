package ports

import (
	"context"

	"github.com/johnqh/heavymath/internal/domain"
)

// Notifier presenta los settlements terminales al operador.
type Notifier interface {
	// Notify muestra el resumen de un pool que acaba de cerrar.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, report domain.SettlementReport) error
}
