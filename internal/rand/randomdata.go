// Package rand produces random payloads and offsets for tests.
package rand

import (
	"math/rand"
	"sync"
	"time"
)

// source is shared by every test in a binary, so it is seeded once and locked
var source = struct {
	sync.Mutex
	*rand.Rand
}{
	Rand: rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec
}

// Bytes returns n random bytes
func Bytes(n int) []byte {
	buf := make([]byte, n)
	source.Lock()
	_, _ = source.Read(buf)
	source.Unlock()
	return buf
}

// Intn returns a random int in [0, n)
func Intn(n int) int {
	source.Lock()
	defer source.Unlock()
	return source.Rand.Intn(n)
}
