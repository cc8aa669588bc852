package test

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomID returns a pseudo-random identifier of length n prefixed with prefix.
func RandomID(prefix string, n int) string {
	if n <= 0 {
		n = 8
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = idAlphabet[randomIntn(len(idAlphabet))]
	}
	return prefix + string(buf)
}

// RandomPrice returns a price between 1.00 and max.99 with two decimal places.
func RandomPrice(max int) decimal.Decimal {
	if max < 1 {
		max = 1
	}
	whole := 1 + randomIntn(max)
	cents := randomIntn(100)
	return decimal.RequireFromString(fmt.Sprintf("%d.%02d", whole, cents))
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}
