package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs_Next(t *testing.T) {
	g := NewSequentialIDs("")
	assert.Equal(t, "batch-0001", g.Next())
	assert.Equal(t, "batch-0002", g.Next())

	g.Reset()
	assert.Equal(t, "batch-0001", g.Next())
}

func TestSequentialIDs_Concurrent(t *testing.T) {
	g := NewSequentialIDs("b")
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Next()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}
