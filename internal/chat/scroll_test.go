package chat_test

import (
	"testing"

	"github.com/oron-mozes/creo-sub001/internal/chat"
)

func TestScroll_NearBottomSnapsAndKeepsUnreadZero(t *testing.T) {
	tr := chat.NewScrollTracker()
	// 1000px of content, viewport 500px, scrolled to 450 → 50px from bottom.
	tr.ObserveScroll(1000, 450, 500)
	if !tr.NearBottom() {
		t.Fatal("50px from bottom should count as near bottom")
	}

	if d := tr.ContentChanged(3); d != chat.ScrollSnap {
		t.Errorf("decision = %v, want snap", d)
	}
	if tr.UnreadCount() != 0 {
		t.Errorf("unread = %d, want 0", tr.UnreadCount())
	}

	// After the snap the view re-measures at the bottom.
	tr.ObserveScroll(1100, 600, 500)
	if tr.UnreadCount() != 0 || !tr.NearBottom() {
		t.Error("pinned view must stay near bottom with zero unread")
	}
}

func TestScroll_ScrolledUpAccumulatesExactlyN(t *testing.T) {
	tr := chat.NewScrollTracker()
	// 500px from the bottom: user is reading history.
	tr.ObserveScroll(2000, 1000, 500)
	if tr.NearBottom() {
		t.Fatal("500px from bottom must not count as near bottom")
	}

	if d := tr.ContentChanged(2); d != chat.ScrollNone {
		t.Errorf("decision = %v, want none (viewport unchanged)", d)
	}
	if tr.UnreadCount() != 2 {
		t.Errorf("unread = %d, want 2", tr.UnreadCount())
	}
	if !tr.BannerVisible() {
		t.Error("banner should be visible while scrolled up with unread")
	}

	if d := tr.ContentChanged(1); d != chat.ScrollNone {
		t.Errorf("decision = %v, want none", d)
	}
	if tr.UnreadCount() != 3 {
		t.Errorf("unread = %d, want 3", tr.UnreadCount())
	}
}

func TestScroll_FragmentGrowthNeverIncrementsUnread(t *testing.T) {
	tr := chat.NewScrollTracker()
	tr.ObserveScroll(2000, 1000, 500)

	// Streaming-fragment growth is a content change with zero new messages.
	for i := 0; i < 5; i++ {
		tr.ContentChanged(0)
	}
	if tr.UnreadCount() != 0 {
		t.Errorf("unread = %d, want 0 for fragment-only growth", tr.UnreadCount())
	}
	if tr.BannerVisible() {
		t.Error("banner must stay hidden without discrete new messages")
	}
}

func TestScroll_DecisionUsesStateCapturedBeforeMutation(t *testing.T) {
	tr := chat.NewScrollTracker()
	tr.ObserveScroll(1000, 450, 500) // near bottom

	// The new content changes the metrics, but the decision must use the
	// pre-mutation flag: ContentChanged first, re-measure after.
	if d := tr.ContentChanged(1); d != chat.ScrollSnap {
		t.Errorf("decision = %v, want snap based on pre-update state", d)
	}
	// Content grew by 300px before the snap is applied; re-measuring at
	// the old offset would look far from the bottom.
	tr.ObserveScroll(1300, 800, 500)
	if !tr.NearBottom() {
		t.Error("after snapping, tracker should be near bottom again")
	}
}

func TestScroll_AcknowledgeResetsAndScrollsSmooth(t *testing.T) {
	tr := chat.NewScrollTracker()
	tr.ObserveScroll(2000, 0, 500)
	tr.ContentChanged(2)
	if tr.UnreadCount() != 2 {
		t.Fatalf("unread = %d, want 2", tr.UnreadCount())
	}

	if d := tr.AcknowledgeUnread(); d != chat.ScrollSmooth {
		t.Errorf("decision = %v, want smooth", d)
	}
	if tr.UnreadCount() != 0 {
		t.Errorf("unread = %d, want 0 after acknowledge", tr.UnreadCount())
	}
}

func TestScroll_ReturningToBottomClearsUnread(t *testing.T) {
	tr := chat.NewScrollTracker()
	tr.ObserveScroll(2000, 0, 500)
	tr.ContentChanged(4)
	if tr.UnreadCount() != 4 {
		t.Fatalf("unread = %d, want 4", tr.UnreadCount())
	}

	// The user scrolls back down manually.
	tr.ObserveScroll(2000, 1450, 500)
	if !tr.NearBottom() {
		t.Fatal("50px from bottom should be near bottom")
	}
	if tr.UnreadCount() != 0 {
		t.Errorf("unread = %d, want 0 after returning to bottom", tr.UnreadCount())
	}
}

func TestScroll_ThresholdBoundary(t *testing.T) {
	tr := chat.NewScrollTracker()

	// Exactly at the threshold is NOT near bottom (strict less-than).
	tr.ObserveScroll(1000, 1000-500-chat.DefaultNearBottomThreshold, 500)
	if tr.NearBottom() {
		t.Errorf("distance %d should not be near bottom", tr.DistanceFromBottom())
	}

	tr.ObserveScroll(1000, 1000-500-chat.DefaultNearBottomThreshold+1, 500)
	if !tr.NearBottom() {
		t.Errorf("distance %d should be near bottom", tr.DistanceFromBottom())
	}
}

func TestScroll_CustomThreshold(t *testing.T) {
	tr := chat.NewScrollTracker()
	tr.SetThreshold(4) // terminal viewport, measured in lines

	tr.ObserveScroll(100, 90, 5) // 5 lines from bottom
	if tr.NearBottom() {
		t.Error("5 lines away should not be near bottom with threshold 4")
	}
	tr.ObserveScroll(100, 92, 5) // 3 lines from bottom
	if !tr.NearBottom() {
		t.Error("3 lines away should be near bottom with threshold 4")
	}
}
