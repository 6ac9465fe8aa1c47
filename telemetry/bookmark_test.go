package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_NectarBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history with modest nectar
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{LastEpisode: (i + 1) * 10, Episodes: 10, NectarMean: 0.1})
	}

	// Now a window with nectar >2x the average
	bookmarks := bd.Check(WindowStats{LastEpisode: 60, Episodes: 10, NectarMean: 0.3})
	if !hasBookmark(bookmarks, BookmarkNectarBreakthrough) {
		t.Error("expected nectar_breakthrough bookmark")
	}
	if bookmarks[0].Episode != 60 {
		t.Errorf("episode = %d, want 60", bookmarks[0].Episode)
	}
}

func TestBookmarkDetector_RewardCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{LastEpisode: (i + 1) * 10, Episodes: 10, RewardMean: 1.0})
	}

	bookmarks := bd.Check(WindowStats{LastEpisode: 60, Episodes: 10, RewardMean: 0.5})
	if !hasBookmark(bookmarks, BookmarkRewardCollapse) {
		t.Error("expected reward_collapse bookmark")
	}

	// Peak resets after a collapse
	bookmarks = bd.Check(WindowStats{LastEpisode: 70, Episodes: 10, RewardMean: 0.45})
	if hasBookmark(bookmarks, BookmarkRewardCollapse) {
		t.Error("collapse should not re-trigger against the old peak")
	}
}

func TestBookmarkDetector_BoundarySpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{LastEpisode: (i + 1) * 10, Episodes: 10, BoundaryHits: 2})
	}

	bookmarks := bd.Check(WindowStats{LastEpisode: 60, Episodes: 10, BoundaryHits: 10})
	if !hasBookmark(bookmarks, BookmarkBoundarySpike) {
		t.Error("expected boundary_spike bookmark")
	}
}

func TestBookmarkDetector_StableForaging(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var hits []int
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(WindowStats{LastEpisode: i, Episodes: 10, NectarMean: 0.5})
		if hasBookmark(bookmarks, BookmarkStableForaging) {
			hits = append(hits, i)
		}
	}

	// Triggers exactly once, after five stable windows with a full lookback
	if len(hits) != 1 || hits[0] != 8 {
		t.Errorf("stable_foraging triggered at %v, want [8]", hits)
	}
}

func TestBookmarkDetector_NoHistory(t *testing.T) {
	bd := NewBookmarkDetector(0)
	if got := bd.Check(WindowStats{NectarMean: 10, RewardMean: -5, BoundaryHits: 50, Episodes: 1}); len(got) != 0 {
		t.Errorf("first window produced bookmarks: %v", got)
	}
}
