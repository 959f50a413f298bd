package entity

import "time"

// Withdrawal representa un retiro de almacén: un evento transaccional que
// descuenta cantidades de uno o más productos a nombre de un destinatario.
// Los campos de usuario son un snapshot del momento del retiro, no una
// referencia viva: editar el usuario después no reescribe la historia.
// TotalItems se calcula en el servidor como Σ Items[i].Quantity.
type Withdrawal struct {
	ID               int64
	UserID           int64
	UserName         string
	UserSection      string
	RecipientName    string
	RecipientSection string
	Notes            string
	TotalItems       int64
	CreatedAt        time.Time
	Items            []WithdrawalItem
}

// WithdrawalItem es una línea del retiro: producto + cantidad, con snapshots
// de nombre y categoría capturados al confirmar. Position conserva el orden
// de entrada para que el listado haga round-trip.
// Un ítem nunca sobrevive a su retiro (se eliminan juntos).
type WithdrawalItem struct {
	WithdrawalID int64
	ProductID    int64
	Quantity     int64
	ProductName  string // snapshot, inmune a renombres posteriores
	CategoryName string // snapshot
	Position     int
}

// ComputeTotal recalcula TotalItems desde las líneas.
func (w *Withdrawal) ComputeTotal() int64 {
	var total int64
	for _, it := range w.Items {
		total += it.Quantity
	}
	return total
}
