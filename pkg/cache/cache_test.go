package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGet(t *testing.T) {
	c := New(time.Minute, 0, 100)
	c.Set("greeting", "olá")

	value, found := c.Get("greeting")
	assert.True(t, found)
	assert.Equal(t, "olá", value)

	_, found = c.Get("missing")
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	c := New(time.Minute, 0, 100)
	c.SetWithExpiration("short", "value", 10*time.Millisecond)

	_, found := c.Get("short")
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)
	_, found = c.Get("short")
	assert.False(t, found)
}

func TestZeroExpirationNeverExpires(t *testing.T) {
	c := New(0, 0, 100)
	c.Set("forever", "value")

	time.Sleep(10 * time.Millisecond)
	_, found := c.Get("forever")
	assert.True(t, found)
}

func TestMaxItemsEviction(t *testing.T) {
	c := New(time.Minute, 0, 3)
	for i := 0; i < 4; i++ {
		c.SetWithExpiration(fmt.Sprintf("k%d", i), "v", time.Duration(i+1)*time.Minute)
	}

	assert.Equal(t, 3, c.Count())
	// the entry closest to expiry was evicted
	_, found := c.Get("k0")
	assert.False(t, found)
	_, found = c.Get("k3")
	assert.True(t, found)
}

func TestDeleteAndFlush(t *testing.T) {
	c := New(time.Minute, 0, 100)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	_, found := c.Get("a")
	assert.False(t, found)

	c.Flush()
	assert.Zero(t, c.Count())
}
