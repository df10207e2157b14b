package dedupe

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDeduperAcquiresOnce(t *testing.T) {
	d := NewMemory(time.Minute)
	ctx := context.Background()

	if !d.AcquireOnce(ctx, "stripe", "evt_1") {
		t.Fatalf("expected first acquire to succeed")
	}
	if d.AcquireOnce(ctx, "stripe", "evt_1") {
		t.Fatalf("expected duplicate to be rejected")
	}
	if !d.AcquireOnce(ctx, "other", "evt_1") {
		t.Fatalf("expected different scope to be independent")
	}
}

func TestMemoryDeduperReleaseAllowsRetry(t *testing.T) {
	d := NewMemory(time.Minute)
	ctx := context.Background()

	if !d.AcquireOnce(ctx, "stripe", "evt_1") {
		t.Fatalf("expected first acquire to succeed")
	}
	d.Release(ctx, "stripe", "evt_1")
	if !d.AcquireOnce(ctx, "stripe", "evt_1") {
		t.Fatalf("expected acquire after release to succeed")
	}
	d.Release(ctx, "stripe", "never_seen")
}
