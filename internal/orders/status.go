package orders

type Status string

const (
	StatusPending            Status = "pending"
	StatusConfirmed          Status = "confirmed"
	StatusPartiallyCancelled Status = "partially_cancelled"
	StatusCancelled          Status = "cancelled"
)

// cancelled = terminal: tidak ada transisi keluar.
var validNext = map[Status]map[Status]bool{
	StatusPending:            {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:          {StatusPartiallyCancelled: true, StatusCancelled: true},
	StatusPartiallyCancelled: {StatusCancelled: true},
	StatusCancelled:          {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Deducted: true jika stok sudah pernah dipotong utk order berstatus ini
// (confirm path). Pending belum pernah memotong stok.
func (s Status) Deducted() bool {
	return s == StatusConfirmed || s == StatusPartiallyCancelled
}
