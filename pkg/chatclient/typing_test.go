package chatclient

import (
	"testing"
	"time"
)

func collectTyping(subs *subscriptionSet) *Subscription[TypingEvent] {
	return subs.addTyping()
}

func TestTypingIndicatorDecays(t *testing.T) {
	subs := newSubscriptionSet()
	tracker := newTypingTracker(100*time.Millisecond, subs)
	defer tracker.stop()

	sub := collectTyping(subs)
	defer sub.Close()

	tracker.observe(TypingEvent{JobID: "job-1", UserID: "provider-7", IsTyping: true})

	first := <-sub.C
	if !first.IsTyping {
		t.Fatalf("first event = %+v, want typing", first)
	}

	// Without a refresh the indicator expires on its own.
	select {
	case decayed := <-sub.C:
		if decayed.IsTyping {
			t.Errorf("decay event = %+v, want is_typing=false", decayed)
		}
		if decayed.JobID != "job-1" || decayed.UserID != "provider-7" {
			t.Errorf("decay event = %+v", decayed)
		}
	case <-time.After(time.Second):
		t.Fatal("typing indicator never decayed")
	}
}

func TestTypingRefreshPostponesDecay(t *testing.T) {
	subs := newSubscriptionSet()
	tracker := newTypingTracker(150*time.Millisecond, subs)
	defer tracker.stop()

	sub := collectTyping(subs)
	defer sub.Close()

	tracker.observe(TypingEvent{JobID: "job-1", UserID: "u", IsTyping: true})
	<-sub.C

	// Refresh just before expiry; the decay timer restarts.
	time.Sleep(100 * time.Millisecond)
	tracker.observe(TypingEvent{JobID: "job-1", UserID: "u", IsTyping: true})
	<-sub.C

	select {
	case e := <-sub.C:
		t.Fatalf("premature event: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case decayed := <-sub.C:
		if decayed.IsTyping {
			t.Errorf("decay event = %+v", decayed)
		}
	case <-time.After(time.Second):
		t.Fatal("indicator never decayed after refresh")
	}
}

func TestExplicitStopCancelsDecay(t *testing.T) {
	subs := newSubscriptionSet()
	tracker := newTypingTracker(100*time.Millisecond, subs)
	defer tracker.stop()

	sub := collectTyping(subs)
	defer sub.Close()

	tracker.observe(TypingEvent{JobID: "job-1", UserID: "u", IsTyping: true})
	<-sub.C
	tracker.observe(TypingEvent{JobID: "job-1", UserID: "u", IsTyping: false})
	stop := <-sub.C
	if stop.IsTyping {
		t.Fatalf("stop event = %+v", stop)
	}

	// The cancelled timer must not fire a second false event.
	select {
	case e := <-sub.C:
		t.Fatalf("spurious event after stop: %+v", e)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestTypingTracksUsersIndependently(t *testing.T) {
	subs := newSubscriptionSet()
	tracker := newTypingTracker(100*time.Millisecond, subs)
	defer tracker.stop()

	sub := collectTyping(subs)
	defer sub.Close()

	tracker.observe(TypingEvent{JobID: "job-1", UserID: "a", IsTyping: true})
	tracker.observe(TypingEvent{JobID: "job-1", UserID: "b", IsTyping: true})
	<-sub.C
	<-sub.C

	decayed := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case e := <-sub.C:
			if e.IsTyping {
				t.Fatalf("expected decay, got %+v", e)
			}
			decayed[e.UserID] = true
		case <-time.After(time.Second):
			t.Fatal("missing decay event")
		}
	}
	if !decayed["a"] || !decayed["b"] {
		t.Errorf("decayed = %v", decayed)
	}
}
