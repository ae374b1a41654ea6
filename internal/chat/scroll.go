package chat

// DefaultNearBottomThreshold is the fixed distance from the bottom edge
// under which the viewport counts as "near bottom".
const DefaultNearBottomThreshold = 120

// ScrollDecision tells the view layer what to do with the viewport after
// an update. The tracker itself never touches the viewport.
type ScrollDecision int

const (
	// ScrollNone leaves the viewport where it is.
	ScrollNone ScrollDecision = iota
	// ScrollSnap jumps to the bottom immediately, without animation.
	// Snapping avoids visual oscillation when chunks arrive in bursts.
	ScrollSnap
	// ScrollSmooth scrolls to the bottom with animation, for explicit
	// user-initiated jumps (tapping the unread banner).
	ScrollSmooth
)

// ScrollTracker decides, on every content update, whether to move the
// viewport or accumulate an unread counter, without fighting a user who is
// deliberately scrolled up reading history.
//
// It is a two-state machine (near-bottom / not) with hysteresis: the
// near-bottom flag consulted by ContentChanged is the one captured by the
// last ObserveScroll call, before the new content changed the metrics.
// Callers must therefore call ContentChanged first and re-measure with
// ObserveScroll after applying the decision.
//
// The tracker is not safe for concurrent use; it belongs to the view's
// event loop.
type ScrollTracker struct {
	threshold          int
	distanceFromBottom int
	nearBottom         bool
	unread             int
}

// NewScrollTracker creates a tracker using the default threshold.
// A fresh view starts pinned to the bottom.
func NewScrollTracker() *ScrollTracker {
	return &ScrollTracker{
		threshold:  DefaultNearBottomThreshold,
		nearBottom: true,
	}
}

// SetThreshold overrides the near-bottom threshold. The unit is whatever
// the caller measures content in (pixels in a browser, lines in a
// terminal viewport).
func (t *ScrollTracker) SetThreshold(n int) {
	if n > 0 {
		t.threshold = n
	}
}

// ObserveScroll recomputes the scroll metrics from the current viewport
// geometry. contentHeight is the total scrollable extent, offset the
// distance scrolled from the top, and viewHeight the visible extent.
// Arriving near the bottom clears the unread counter.
func (t *ScrollTracker) ObserveScroll(contentHeight, offset, viewHeight int) {
	distance := contentHeight - offset - viewHeight
	if distance < 0 {
		distance = 0
	}
	t.distanceFromBottom = distance
	t.nearBottom = distance < t.threshold
	if t.nearBottom {
		t.unread = 0
	}
}

// ContentChanged records that content grew and returns the viewport
// decision. newMessages is the number of discrete messages appended; pass
// zero for streaming-fragment growth, which can snap the viewport but
// never increments the unread counter.
//
// The decision is based on the near-bottom flag from before this update.
func (t *ScrollTracker) ContentChanged(newMessages int) ScrollDecision {
	if t.nearBottom {
		return ScrollSnap
	}
	t.unread += newMessages
	return ScrollNone
}

// AcknowledgeUnread clears the unread counter and asks for a smooth
// scroll to the bottom. Call when the user taps the unread banner.
func (t *ScrollTracker) AcknowledgeUnread() ScrollDecision {
	t.unread = 0
	return ScrollSmooth
}

// DistanceFromBottom returns the last measured distance from the bottom.
func (t *ScrollTracker) DistanceFromBottom() int {
	return t.distanceFromBottom
}

// NearBottom reports whether the viewport was near the bottom at the last
// measurement.
func (t *ScrollTracker) NearBottom() bool {
	return t.nearBottom
}

// UnreadCount returns the number of messages that arrived while the user
// was scrolled up.
func (t *ScrollTracker) UnreadCount() int {
	return t.unread
}

// BannerVisible reports whether the unread banner should be shown.
func (t *ScrollTracker) BannerVisible() bool {
	return !t.nearBottom && t.unread > 0
}
