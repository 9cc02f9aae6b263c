package redis

import (
	"sync/atomic"
	"testing"
	"time"

	"pulse_chat_server/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOfflineCache(workers, size int) *RedisCache {
	// tasks never touch the client, so no server is needed
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return NewRedisCache(client, workers, size)
}

func TestSubmitTaskRunsOnWorkers(t *testing.T) {
	rc := newOfflineCache(2, 10)
	var n int32
	for i := 0; i < 5; i++ {
		rc.SubmitTask(func() { atomic.AddInt32(&n, 1) })
	}
	require.NoError(t, rc.Close())
	assert.Equal(t, int32(5), atomic.LoadInt32(&n))
}

func TestSubmitTaskFallsBackWhenQueueFull(t *testing.T) {
	rc := newOfflineCache(1, 1)
	defer rc.Close()

	block := make(chan struct{})
	rc.SubmitTask(func() { <-block }) // occupies the worker
	time.Sleep(20 * time.Millisecond)
	rc.SubmitTask(func() {}) // fills the queue

	ran := false
	rc.SubmitTask(func() { ran = true }) // runs inline
	assert.True(t, ran)
	close(block)
}

func TestWorkerSurvivesPanic(t *testing.T) {
	rc := newOfflineCache(1, 4)
	done := make(chan struct{})
	rc.SubmitTask(func() { panic("boom") })
	rc.SubmitTask(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not recover from panic")
	}
	require.NoError(t, rc.Close())
}

func TestInitDisabledReturnsNil(t *testing.T) {
	rc, err := Init(config.RedisConfig{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, rc)
}
