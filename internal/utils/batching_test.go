package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchBufferGetAndClear(t *testing.T) {
	b := NewBatchBuffer[int](4)
	assert.Nil(t, b.GetAndClear())

	assert.Equal(t, 1, b.Add(1))
	assert.Equal(t, 2, b.Add(2))
	assert.Equal(t, []int{1, 2}, b.GetAndClear())
	assert.Zero(t, b.Size())
}

func TestBatchBufferRequeueKeepsOrder(t *testing.T) {
	b := NewBatchBuffer[int](4)
	b.Add(1)
	b.Add(2)
	taken := b.GetAndClear()
	b.Add(3)

	b.Requeue(taken)
	b.Requeue(nil)

	assert.Equal(t, 3, b.Size())
	assert.Equal(t, []int{1, 2, 3}, b.GetAndClear())
}

func TestBatchBufferConcurrentAdds(t *testing.T) {
	b := NewBatchBuffer[int](8)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b.Add(n)
		}(i)
	}
	wg.Wait()

	assert.Len(t, b.GetAndClear(), 100)
}

func TestChunk(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, Chunk(items, 3))
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5, 6, 7}}, Chunk(items, 25))
	assert.Empty(t, Chunk([]int{}, 3))
	assert.Nil(t, Chunk(items, 0))
}
