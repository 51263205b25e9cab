package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// Pick es la cantidad tomada de un lote por la selección FEFO.
type Pick struct {
	Lot      *entity.Lot
	Quantity int64
}

// Selection resultado de SelectFEFO.
type Selection struct {
	Picks     []Pick
	Shortfall int64
	// ExpiredLotIDs lotes con disponibilidad que se excluyeron por vencidos (contexto para diagnóstico).
	ExpiredLotIDs []string
}

// SortFEFO ordena los lotes por vencimiento ascendente; los lotes sin vencimiento van al final
// y los empates se rompen por ID para que la selección sea determinista.
func SortFEFO(lots []*entity.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i].ExpirationDate, lots[j].ExpirationDate
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return lots[i].ID < lots[j].ID
	})
}

// CandidateLots devuelve, en orden FEFO, los lotes vigentes con cantidad disponible.
func CandidateLots(lots []*entity.Lot, today time.Time) []*entity.Lot {
	out := make([]*entity.Lot, 0, len(lots))
	for _, l := range lots {
		if l.Available() > 0 && !l.IsExpiredAt(today) {
			out = append(out, l)
		}
	}
	SortFEFO(out)
	return out
}

// SelectFEFO (First-Expired-First-Out) recorre los lotes candidatos tomando
// min(disponible, restante) de cada uno hasta cubrir required. No modifica los lotes.
func SelectFEFO(lots []*entity.Lot, required int64, today time.Time) Selection {
	var sel Selection
	for _, l := range lots {
		if l.Available() > 0 && l.IsExpiredAt(today) {
			sel.ExpiredLotIDs = append(sel.ExpiredLotIDs, l.ID)
		}
	}
	sort.Strings(sel.ExpiredLotIDs)

	remaining := required
	for _, l := range CandidateLots(lots, today) {
		if remaining <= 0 {
			break
		}
		take := min(l.Available(), remaining)
		sel.Picks = append(sel.Picks, Pick{Lot: l, Quantity: take})
		remaining -= take
	}
	if remaining > 0 {
		sel.Shortfall = remaining
	}
	return sel
}
