package orders

import (
	"crypto/rand"
	"fmt"
	"time"
)

const numberAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789" // tanpa I/L/O/0/1

// NewOrderNumber: prefix + tanggal + suffix acak, mis. ORD-20260824-K7Q2XB.
// Keunikan dijamin unique constraint di DB; caller retry kalau tabrakan.
func NewOrderNumber(prefix string, now time.Time) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand gagal = sistem rusak
	}
	for i := range b {
		b[i] = numberAlphabet[int(b[i])%len(numberAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), b)
}
