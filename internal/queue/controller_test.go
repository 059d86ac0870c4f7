package queue

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/haryoiro/tubetone/internal/structures"
)

func track(id string) structures.Track {
	return structures.Track{TrackID: id, Title: "Track " + id}
}

func ids(tracks []structures.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.TrackID
	}
	return out
}

func currentID(c *Controller) string {
	if cur := c.Current(); cur != nil {
		return cur.TrackID
	}
	return ""
}

func TestSetCurrentTrackArchivesPrevious(t *testing.T) {
	c := New()
	a, b := track("a"), track("b")

	c.SetCurrentTrack(&a)
	if got := c.Snapshot().History; len(got) != 0 {
		t.Fatalf("history after first track = %v, want empty", ids(got))
	}

	c.SetCurrentTrack(&b)
	h := c.Snapshot().History
	if len(h) != 1 || h[0].TrackID != "a" {
		t.Fatalf("history = %v, want [a]", ids(h))
	}

	c.SetCurrentTrack(nil)
	h = c.Snapshot().History
	if len(h) != 2 || h[1].TrackID != "b" {
		t.Fatalf("history = %v, want [a b]", ids(h))
	}
	if c.Current() != nil {
		t.Fatal("current should be nil")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	c := New()
	for i := 0; i < 30; i++ {
		tr := track(fmt.Sprint(i))
		c.SetCurrentTrack(&tr)

		h := c.Snapshot().History
		if len(h) > 20 {
			t.Fatalf("history grew to %d", len(h))
		}
		if i > 0 && h[len(h)-1].TrackID != fmt.Sprint(i-1) {
			t.Fatalf("tail = %s, want %d", h[len(h)-1].TrackID, i-1)
		}
	}

	h := c.Snapshot().History
	if len(h) != 20 {
		t.Fatalf("len = %d, want 20", len(h))
	}
	// 29 is current; 9..28 remain
	if h[0].TrackID != "9" {
		t.Errorf("oldest = %s, want 9", h[0].TrackID)
	}
}

func TestCustomHistoryLimit(t *testing.T) {
	c := New(WithHistoryLimit(2))
	for _, id := range []string{"a", "b", "c", "d"} {
		tr := track(id)
		c.SetCurrentTrack(&tr)
	}
	if got := ids(c.Snapshot().History); fmt.Sprint(got) != "[b c]" {
		t.Errorf("history = %v, want [b c]", got)
	}
}

func TestPreviousTrackPopsHistory(t *testing.T) {
	c := New()
	a, b, d := track("a"), track("b"), track("d")
	c.SetCurrentTrack(&a)
	c.SetCurrentTrack(&b)
	c.SetCurrentTrack(&d)

	prev, ok := c.PreviousTrack()
	if !ok || prev.TrackID != "b" {
		t.Fatalf("PreviousTrack = %v,%v want b", prev.TrackID, ok)
	}
	if currentID(c) != "b" || !c.IsPlaying() {
		t.Fatalf("current = %s playing=%v", currentID(c), c.IsPlaying())
	}
	// outgoing track is not archived
	if got := ids(c.Snapshot().History); fmt.Sprint(got) != "[a]" {
		t.Fatalf("history = %v, want [a]", got)
	}

	if prev, ok = c.PreviousTrack(); !ok || prev.TrackID != "a" {
		t.Fatalf("PreviousTrack = %v,%v want a", prev.TrackID, ok)
	}
	if _, ok = c.PreviousTrack(); ok {
		t.Fatal("PreviousTrack on empty history should report false")
	}
	if currentID(c) != "a" {
		t.Errorf("current changed on empty history: %s", currentID(c))
	}
}

func TestPreviousFollowsPlayOrderNotQueueOrder(t *testing.T) {
	c := New()
	c.ReplaceQueue([]structures.Track{track("a"), track("b"), track("c")})

	c3 := track("c")
	c.SetCurrentTrack(&c3)
	a := track("a")
	c.SetCurrentTrack(&a)

	prev, ok := c.PreviousTrack()
	if !ok || prev.TrackID != "c" {
		t.Fatalf("previous = %s, want c (chronological)", prev.TrackID)
	}
}

func TestNextTrackSequentialExample(t *testing.T) {
	c := New()
	a, b, cc := track("A"), track("B"), track("C")
	c.AddToQueue(a)
	c.AddToQueue(b)
	c.AddToQueue(cc)
	c.SetCurrentTrack(&a)

	if next, ok := c.NextTrack(); !ok || next.TrackID != "B" {
		t.Fatalf("next = %s,%v want B", next.TrackID, ok)
	}
	if next, ok := c.NextTrack(); !ok || next.TrackID != "C" {
		t.Fatalf("next = %s,%v want C", next.TrackID, ok)
	}

	before := c.Snapshot()
	if _, ok := c.NextTrack(); ok {
		t.Fatal("end of queue without repeat should not move")
	}
	after := c.Snapshot()
	if after.Current.TrackID != "C" || len(after.History) != len(before.History) {
		t.Fatalf("state changed at end of queue: current=%s history=%v", after.Current.TrackID, ids(after.History))
	}

	c.SetRepeatMode(structures.RepeatAll)
	if next, ok := c.NextTrack(); !ok || next.TrackID != "A" {
		t.Fatalf("repeat-all wrap = %s,%v want A", next.TrackID, ok)
	}
	if !c.IsPlaying() {
		t.Error("NextTrack should set playing")
	}
}

func TestNextTrackCurrentNotInQueue(t *testing.T) {
	c := New()
	c.ReplaceQueue([]structures.Track{track("a"), track("b")})
	x := track("x")
	c.SetCurrentTrack(&x)

	next, ok := c.NextTrack()
	if !ok || next.TrackID != "a" {
		t.Fatalf("next = %s, want head of queue", next.TrackID)
	}
	if got := ids(c.Snapshot().History); fmt.Sprint(got) != "[x]" {
		t.Errorf("history = %v", got)
	}
}

func TestNextTrackPromotesRecommendation(t *testing.T) {
	c := New()
	a := track("a")
	c.AddToQueue(a)
	c.SetCurrentTrack(&a)
	c.SetRecommendations([]structures.Track{track("r1"), track("r2")})

	next, ok := c.NextTrack()
	if !ok || next.TrackID != "r1" {
		t.Fatalf("next = %s, want r1", next.TrackID)
	}
	s := c.Snapshot()
	if fmt.Sprint(ids(s.Queue)) != "[a r1]" {
		t.Errorf("queue = %v, want [a r1]", ids(s.Queue))
	}
	if fmt.Sprint(ids(s.Recommendations)) != "[r2]" {
		t.Errorf("recommendations = %v, want [r2]", ids(s.Recommendations))
	}
}

func TestNextTrackRepeatOne(t *testing.T) {
	c := New()
	a := track("a")
	c.ReplaceQueue([]structures.Track{a, track("b")})
	c.SetRecommendations([]structures.Track{track("r")})
	c.SetCurrentTrack(&a)
	c.SetRepeatMode(structures.RepeatOne)
	c.SetShuffle(true)

	for i := 0; i < 5; i++ {
		next, ok := c.NextTrack()
		if !ok || next.TrackID != "a" {
			t.Fatalf("iteration %d: next = %s, want a", i, next.TrackID)
		}
	}
	if h := c.Snapshot().History; len(h) != 0 {
		t.Errorf("repeat-one pushed history: %v", ids(h))
	}
}

func TestNextTrackRepeatOneWithoutCurrent(t *testing.T) {
	c := New()
	c.ReplaceQueue([]structures.Track{track("a")})
	c.SetRepeatMode(structures.RepeatOne)

	next, ok := c.NextTrack()
	if !ok || next.TrackID != "a" {
		t.Fatalf("next = %s,%v want a", next.TrackID, ok)
	}
}

func TestNextTrackShuffleStaysInUnion(t *testing.T) {
	c := New(WithRand(rand.New(rand.NewPCG(1, 2))))
	c.ReplaceQueue([]structures.Track{track("q1"), track("q2")})
	c.SetRecommendations([]structures.Track{track("r1")})
	c.SetShuffle(true)

	allowed := map[string]bool{"q1": true, "q2": true, "r1": true}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		next, ok := c.NextTrack()
		if !ok {
			t.Fatal("shuffle with non-empty pool should move")
		}
		if !allowed[next.TrackID] {
			t.Fatalf("shuffle picked %s outside queue and recommendations", next.TrackID)
		}
		seen[next.TrackID] = true
	}
	if len(seen) != 3 {
		t.Errorf("shuffle only reached %v", seen)
	}
	s := c.Snapshot()
	if len(s.Queue) != 2 || len(s.Recommendations) != 1 {
		t.Errorf("shuffle mutated lists: queue=%v recs=%v", ids(s.Queue), ids(s.Recommendations))
	}
}

func TestNextTrackShuffleEmpty(t *testing.T) {
	c := New()
	c.SetShuffle(true)
	if _, ok := c.NextTrack(); ok {
		t.Fatal("empty shuffle pool should not move")
	}
}

func TestPeekNext(t *testing.T) {
	c := New()
	a := track("a")
	c.ReplaceQueue([]structures.Track{a, track("b")})
	c.SetCurrentTrack(&a)

	if next, ok := c.PeekNext(); !ok || next.TrackID != "b" {
		t.Fatalf("peek = %s,%v want b", next.TrackID, ok)
	}
	if currentID(c) != "a" {
		t.Fatal("PeekNext changed state")
	}

	c.SetShuffle(true)
	if _, ok := c.PeekNext(); ok {
		t.Error("PeekNext under shuffle should not predict")
	}
}

func TestVolumeClampAndRoundTrip(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.35, 0.35},
		{1, 1},
		{-0.5, 0},
		{1.7, 1},
	}
	c := New()
	for _, tt := range tests {
		c.SetVolume(tt.in)
		if got := c.Volume(); got != tt.want {
			t.Errorf("SetVolume(%v) -> %v, want %v", tt.in, got, tt.want)
		}
	}

	c.SetVolume(0.4)
	c.SetVolume(math.NaN())
	if got := c.Volume(); got != 0.4 {
		t.Errorf("NaN changed volume to %v", got)
	}
}

func TestQueueEditing(t *testing.T) {
	c := New()
	a := track("a")
	c.AddToQueue(a)
	c.AddToQueue(track("b"))
	c.AddToQueue(a)

	if got := ids(c.Snapshot().Queue); fmt.Sprint(got) != "[a b a]" {
		t.Fatalf("queue = %v", got)
	}
	c.RemoveFromQueue("a")
	if got := ids(c.Snapshot().Queue); fmt.Sprint(got) != "[b]" {
		t.Fatalf("queue after remove = %v, want [b]", got)
	}
	c.RemoveFromQueue("missing")
	if len(c.Snapshot().Queue) != 1 {
		t.Fatal("removing an absent id changed the queue")
	}
}

func TestModeWritesHaveNoSideEffects(t *testing.T) {
	c := New()
	a := track("a")
	c.ReplaceQueue([]structures.Track{a})
	c.SetCurrentTrack(&a)
	before := c.Snapshot()

	c.SetPlaybackMode(structures.PlaybackVideo)
	c.SetRepeatMode(structures.RepeatAll)
	c.SetShuffle(true)

	after := c.Snapshot()
	if after.PlaybackMode != structures.PlaybackVideo || after.RepeatMode != structures.RepeatAll || !after.Shuffle {
		t.Fatalf("modes not written: %+v", after)
	}
	if after.Current.TrackID != before.Current.TrackID || len(after.Queue) != len(before.Queue) || len(after.History) != len(before.History) {
		t.Fatal("mode writes changed queue state")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	c := New()
	c.AddToQueue(track("a"))
	s := c.Snapshot()
	s.Queue[0].TrackID = "mutated"

	if c.Snapshot().Queue[0].TrackID != "a" {
		t.Fatal("snapshot aliases controller state")
	}
}
