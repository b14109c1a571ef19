package feedparse

import (
	"github.com/hitoshi/podcheck/internal/model"
	"github.com/hitoshi/podcheck/internal/timeutil"
)

// Statistics はフィードの統計情報を計算する。
// 合計・平均時間はitunes:duration（H:MM:SS / MM:SS / 秒数のみ）の
// パース結果から算出する。HasValueはチャンネルレベルのvalueブロックが
// 宣言されている場合は全エピソードに適用されるものとして数える。
// Atomフィードはエピソード拡張を持たないため件数のみを返す。
func Statistics(feed *model.Feed) model.FeedStatistics {
	stats := model.FeedStatistics{}
	if feed == nil {
		return stats
	}

	switch feed.Type {
	case model.FeedTypeRSS:
		ch := feed.RSS.Channel
		stats.TotalItems = len(ch.Items)
		channelHasValue := ch.Value != nil

		for _, item := range ch.Items {
			if item.EnclosureURL != "" {
				stats.HasEnclosures++
			}
			if item.HasTranscript {
				stats.HasTranscripts++
			}
			if item.ChaptersURL != "" {
				stats.HasChapters++
			}
			if channelHasValue || item.Value != nil {
				stats.HasValue++
			}
			stats.TotalDuration += timeutil.ParseDuration(item.Duration)
		}

	case model.FeedTypeAtom:
		stats.TotalItems = len(feed.Atom.Entries)
	}

	if stats.TotalItems > 0 {
		stats.AverageDuration = float64(stats.TotalDuration) / float64(stats.TotalItems)
	}

	return stats
}
