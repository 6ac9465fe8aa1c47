package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNectarBreakthrough BookmarkType = "nectar_breakthrough"
	BookmarkRewardCollapse     BookmarkType = "reward_collapse"
	BookmarkBoundarySpike      BookmarkType = "boundary_spike"
	BookmarkStableForaging     BookmarkType = "stable_foraging"
)

// Bookmark marks a stats window worth looking at.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Episode     int          `csv:"episode" json:"episode"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"episode", b.Episode,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable windows in a training run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	rewardPeak         float64 // best reward mean since the last collapse
	havePeak           bool
	stableWindowsCount int // consecutive windows with steady nectar
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable foraging detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest window and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Nectar breakthrough: mean nectar > 2x rolling average
		if b := bd.checkNectarBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Reward collapse: dropped >30% below the recent peak
		if b := bd.checkRewardCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Boundary spike: boundary hits per episode > 2x rolling average
		if b := bd.checkBoundarySpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable foraging: nectar mean steady over 5 windows
		if b := bd.checkStableForaging(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if !bd.havePeak || stats.RewardMean > bd.rewardPeak {
		bd.rewardPeak = stats.RewardMean
		bd.havePeak = true
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkNectarBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.NectarMean
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.NectarMean > avg*2.0 && stats.NectarMean > 0.1 {
		return &Bookmark{
			Type:        BookmarkNectarBreakthrough,
			Episode:     stats.LastEpisode,
			Description: fmt.Sprintf("Nectar mean %.3f is %.1fx average (%.3f)", stats.NectarMean, stats.NectarMean/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkRewardCollapse(stats WindowStats) *Bookmark {
	if !bd.havePeak || bd.rewardPeak <= 0 {
		return nil
	}

	drop := 1.0 - stats.RewardMean/bd.rewardPeak
	if drop > 0.30 {
		// Reset peak after collapse
		oldPeak := bd.rewardPeak
		bd.rewardPeak = stats.RewardMean

		return &Bookmark{
			Type:        BookmarkRewardCollapse,
			Episode:     stats.LastEpisode,
			Description: fmt.Sprintf("Reward mean fell %.0f%% from peak %.3f to %.3f", drop*100, oldPeak, stats.RewardMean),
		}
	}
	return nil
}

func hitsPerEpisode(s WindowStats) float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.BoundaryHits) / float64(s.Episodes)
}

func (bd *BookmarkDetector) checkBoundarySpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += hitsPerEpisode(h)
	}
	avg := total / float64(len(history))
	current := hitsPerEpisode(stats)

	if avg > 0 && current > avg*2.0 && stats.BoundaryHits >= 3 {
		return &Bookmark{
			Type:        BookmarkBoundarySpike,
			Episode:     stats.LastEpisode,
			Description: fmt.Sprintf("Boundary hits %.2f/episode is %.1fx average (%.2f)", current, current/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStableForaging(stats WindowStats) *Bookmark {
	if stats.NectarMean <= 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.NectarMean
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.NectarMean - mean
		variance += d * d
	}
	variance /= 4

	cv2 := 1.0
	if mean > 0 {
		cv2 = variance / (mean * mean)
	}
	if cv2 < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableForaging,
			Episode:     stats.LastEpisode,
			Description: fmt.Sprintf("Nectar mean steady near %.3f over 5+ windows", mean),
		}
	}
	return nil
}
