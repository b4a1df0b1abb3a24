package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Resolve hooks
	r := NoopResolveHooks{}
	r.OnSessionStart(ctx, "skyrimspecialedition", 3863)
	r.OnNodeExpanded(ctx, "nexus:3863", 1)
	r.OnNodeDegraded(ctx, "nexus:12604", nil)
	r.OnSessionComplete(ctx, "skyrimspecialedition", 3863, 42, time.Second, nil)

	// Queue hooks
	q := NoopQueueHooks{}
	q.OnItemDispatched(ctx, "nexus:3863/15037")
	q.OnItemSettled(ctx, "nexus:3863/15037", nil)
	q.OnQueueDrained(ctx, 3, 0, time.Second)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "page")
	c.OnCacheMiss(ctx, "mod")
	c.OnCacheSet(ctx, "files", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "www.nexusmods.com", "/skyrimspecialedition/mods/3863")
	h.OnResponse(ctx, "GET", "www.nexusmods.com", "/skyrimspecialedition/mods/3863", 200, time.Second)
	h.OnError(ctx, "GET", "www.nexusmods.com", "/skyrimspecialedition/mods/3863", nil)
}

type testResolveHooks struct{ NoopResolveHooks }
type testQueueHooks struct{ NoopQueueHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Resolve() should return NoopResolveHooks by default")
	}
	if _, ok := Queue().(NoopQueueHooks); !ok {
		t.Error("Queue() should return NoopQueueHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customResolve := &testResolveHooks{}
	SetResolveHooks(customResolve)
	if Resolve() != customResolve {
		t.Error("SetResolveHooks should set custom hooks")
	}

	customQueue := &testQueueHooks{}
	SetQueueHooks(customQueue)
	if Queue() != customQueue {
		t.Error("SetQueueHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Reset() should restore NoopResolveHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testResolveHooks{}
	SetResolveHooks(custom)
	SetResolveHooks(nil)
	if Resolve() != custom {
		t.Error("SetResolveHooks(nil) should be ignored")
	}
}
