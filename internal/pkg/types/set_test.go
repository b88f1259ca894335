package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSet(t *testing.T) {
	t.Run("empty set", func(t *testing.T) {
		set := NewSet[int]()
		assert.Zero(t, set.Len())
	})

	t.Run("multiple elements", func(t *testing.T) {
		set := NewSet(1, 2, 3, 4, 5)
		assert.Equal(t, 5, set.Len())
		for i := 1; i <= 5; i++ {
			assert.True(t, set.Has(i))
		}
	})

	t.Run("duplicate elements", func(t *testing.T) {
		set := NewSet(1, 2, 2, 3, 3, 3)
		assert.Equal(t, 3, set.Len())
	})

	t.Run("string elements", func(t *testing.T) {
		set := NewSet("hello", "world")
		assert.True(t, set.Has("hello"))
		assert.False(t, set.Has("missing"))
	})
}

func TestSet_Add(t *testing.T) {
	t.Run("add to empty set", func(t *testing.T) {
		set := NewSet[int]()
		set.Add(42)

		assert.Equal(t, 1, set.Len())
		assert.True(t, set.Has(42))
	})

	t.Run("add duplicate elements", func(t *testing.T) {
		set := NewSet(1, 2, 3)
		set.Add(2, 3, 4)

		assert.Equal(t, 4, set.Len())
	})

	t.Run("add no elements", func(t *testing.T) {
		set := NewSet(1, 2, 3)
		set.Add()

		assert.Equal(t, 3, set.Len())
	})
}

func TestSet_Delete(t *testing.T) {
	t.Run("delete from empty set", func(t *testing.T) {
		set := NewSet[int]()
		set.Delete(42)

		assert.Zero(t, set.Len())
	})

	t.Run("delete existing element", func(t *testing.T) {
		set := NewSet(1, 2, 3, 4, 5)
		set.Delete(3)

		assert.Equal(t, 4, set.Len())
		assert.False(t, set.Has(3))
	})

	t.Run("delete non-existing element", func(t *testing.T) {
		set := NewSet(1, 2, 3)
		set.Delete(99)

		assert.Equal(t, 3, set.Len())
	})
}
