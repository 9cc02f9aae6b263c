// Package mqtest 测试用的内存发布者
package mqtest

import (
	"context"
	"sync"
	"time"
)

type Record struct {
	RoutingKey string
	Event      any
}

// Recorder 记录所有已发布事件的 Publisher
type Recorder struct {
	mu      sync.Mutex
	records []Record
	notify  chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 64)}
}

func (r *Recorder) Publish(_ context.Context, routingKey string, event any) error {
	r.mu.Lock()
	r.records = append(r.records, Record{RoutingKey: routingKey, Event: event})
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Keys 按发布顺序返回路由键
func (r *Recorder) Keys() []string {
	recs := r.Records()
	keys := make([]string, 0, len(recs))
	for _, rec := range recs {
		keys = append(keys, rec.RoutingKey)
	}
	return keys
}

// WaitFor 阻塞到 routingKey 被发布或超时
func (r *Recorder) WaitFor(routingKey string, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		for _, k := range r.Keys() {
			if k == routingKey {
				return true
			}
		}
		select {
		case <-r.notify:
		case <-deadline:
			return false
		}
	}
}
