package orders

import (
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")
var ErrProductNotFound = errors.New("product not found")

// ErrStaleOrderStatus: guard UPDATE ... WHERE status=<expected> tidak
// mengenai baris; status order bergeser di luar pembacaan transaksi ini.
var ErrStaleOrderStatus = errors.New("order status changed concurrently")

// ValidationError: input salah (qty <= 0, item bukan milik order,
// minta cancel melebihi sisa). Selalu tanpa mutasi.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StateConflictError: transisi status yang tidak valid
// (confirm order yang sudah confirmed/cancelled, cancel dua kali).
type StateConflictError struct {
	OrderID string
	Status  Status // status order saat ditolak
	Op      string // "confirm" | "cancel" | "cancel_items"
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s order %s: status is %s", e.Op, e.OrderID, e.Status)
}

// InsufficientStockError: stok kurang saat confirm / deduksi manual.
// Menyebut product dan stok tersedia supaya caller bisa menampilkan detail.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// TransientError: infrastruktur (lock timeout, koneksi putus). Aman di-retry
// karena operasi all-or-nothing, tidak ada partial commit.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}
