package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/johnqh/heavymath/internal/domain"
)

// Console implementa ports.Notifier imprimiendo los settlements por
// stdout.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Notify imprime el resumen de un pool terminal. Cancelados y abandonados
// salen en una línea; los resueltos llevan tabla con el desglose.
func (c *Console) Notify(_ context.Context, r domain.SettlementReport) error {
	now := time.Now().Format("15:04:05")

	if r.Status != domain.StatusResolved {
		fmt.Fprintf(c.out, "[%s] pool %s (%s/%s) %s: %d stakes, total %s, full refunds\n",
			now, shortID(r.PoolID), r.Category, r.SubCategory, r.Status, r.Participants, r.Total)
		return nil
	}

	fmt.Fprintf(c.out, "[%s] pool %s (%s/%s) RESOLVED eq=%d res=%d: %d stakes, %d winners\n",
		now, shortID(r.PoolID), r.Category, r.SubCategory, r.Equilibrium, r.Resolution,
		r.Participants, r.Winners)

	table := tablewriter.NewWriter(c.out)
	table.Header("Total", "Eq bucket", "Distributable", "Dealer fee", "System fee", "Winner pool", "Dust")
	table.Append(
		r.Total.String(),
		r.Total.Sub(r.Distributable).String(),
		r.Distributable.String(),
		r.DealerFee.String(),
		r.SystemFee.String(),
		r.WinnerPool.String(),
		r.Dust.String(),
	)
	table.Render()
	return nil
}

// shortID recorta un uuid a su primer bloque para logs legibles.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
