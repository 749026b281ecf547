package valkey

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("VALKEY_TEST_ADDRESS")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := NewClient(Config{Address: addr, KeyPrefix: "azapod-test", ConnectTimeout: 500 * time.Millisecond})
	if err != nil {
		t.Skip("No valkey")
	}
	t.Cleanup(client.Close)
	return client
}

func TestKey_JoinsUnderPrefix(t *testing.T) {
	c := &Client{keyPrefix: "azapod:"}
	assert.Equal(t, "azapod:lock:AP240101.GR9", c.Key("lock", "AP240101.GR9"))
}

func TestFillLock_ExcludesSecondHolder(t *testing.T) {
	client := testClient(t)
	lock := NewFillLock(client, 5*time.Second, "test")
	key := "TEST" + time.Now().Format("150405.000")

	unlock, err := lock.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = lock.Lock(ctx, key)
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()

	unlock2, err := lock.Lock(context.Background(), key)
	require.NoError(t, err)
	unlock2()
}
