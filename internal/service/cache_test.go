package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpledms/internal/model"
)

func TestShareCache_GetSetDelete(t *testing.T) {
	c := NewShareCache(8, time.Minute)

	_, ok := c.Get("s1")
	assert.False(t, ok)

	c.Set(&model.Share{ID: "s1", ShortURL: "https://is.gd/a"})
	got, ok := c.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "https://is.gd/a", got.ShortURL)

	got.ShortURL = "mutated"
	again, _ := c.Get("s1")
	assert.Equal(t, "https://is.gd/a", again.ShortURL)

	c.Delete("s1", "unknown")
	_, ok = c.Get("s1")
	assert.False(t, ok)
}

func TestShareCache_TTL(t *testing.T) {
	c := NewShareCache(8, 20*time.Millisecond)
	c.Set(&model.Share{ID: "s1"})

	assert.Eventually(t, func() bool {
		_, ok := c.Get("s1")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestShareCache_Disabled(t *testing.T) {
	c := NewShareCache(0, time.Minute)
	assert.Nil(t, c)

	c.Set(&model.Share{ID: "s1"})
	_, ok := c.Get("s1")
	assert.False(t, ok)
	c.Delete("s1")
	assert.Zero(t, c.Len())
}
