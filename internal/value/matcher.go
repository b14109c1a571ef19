package value

import (
	"math"

	"github.com/hitoshi/podcheck/internal/model"
)

// chapterEndTime はチャプターの実効終了時刻を計算する。
// 次チャプターの開始時刻、最終チャプターはエピソード合計時間（既知の場合）、
// どちらも不明な場合は正の無限大を返す。
// episodeDurationが0以下の場合は合計時間不明として扱う。
func chapterEndTime(chapters []model.Chapter, index int, episodeDuration float64) float64 {
	if index+1 < len(chapters) {
		return chapters[index+1].StartTime
	}
	if episodeDuration > chapters[index].StartTime {
		return episodeDuration
	}
	return math.Inf(1)
}

// splitOverlaps はスプリットが [start, end) の区間に重なるかを判定する。
// 重なりの条件: スプリットが区間内で開始する、区間内で終了する、
// または区間全体を包含する。duration=0のスプリットは点として扱い、
// 開始時刻が区間内に落ちる場合のみ一致する。
func splitOverlaps(split model.ValueTimeSplit, start, end float64) bool {
	if split.Duration == 0 {
		return split.StartTime >= start && split.StartTime < end
	}

	splitEnd := split.StartTime + split.Duration
	return (split.StartTime >= start && split.StartTime < end) ||
		(splitEnd > start && splitEnd <= end) ||
		(split.StartTime <= start && splitEnd >= end)
}

// MatchSplitsToChapters はタイムスプリットを重なりに基づいてチャプターに割り当てる。
// 出力はチャプター順を保持し、各チャプターは（空の可能性のある）
// ValueTimeSplitsスライスを持つ。1つのスプリットが複数チャプターに
// 重なる場合は、それぞれのチャプターに割り当てられる。
func MatchSplitsToChapters(chapters []model.Chapter, splits []model.ValueTimeSplit, episodeDuration float64) []model.ChapterWithValue {
	result := make([]model.ChapterWithValue, 0, len(chapters))

	for i, ch := range chapters {
		end := chapterEndTime(chapters, i, episodeDuration)

		matched := []model.ValueTimeSplit{}
		for _, split := range splits {
			if splitOverlaps(split, ch.StartTime, end) {
				matched = append(matched, split)
			}
		}

		result = append(result, model.ChapterWithValue{
			Chapter:         ch,
			ValueTimeSplits: matched,
		})
	}

	return result
}

// SplitsForTimeRange は指定区間に重なるスプリットを返す。
// 特定のチャプター/トラックに適用されるスプリットの検索に使用する。
func SplitsForTimeRange(splits []model.ValueTimeSplit, start, end float64) []model.ValueTimeSplit {
	matched := []model.ValueTimeSplit{}
	for _, split := range splits {
		if splitOverlaps(split, start, end) {
			matched = append(matched, split)
		}
	}
	return matched
}

// CheckPaymentCoverage は支払いメタデータのチャプターカバレッジを計算する。
// 支払いメタデータがエピソード全体をカバーしていないフィードの検出に使用する。
// 不変条件: ChaptersWithPayment + len(ChaptersWithoutPayment) == TotalChapters。
func CheckPaymentCoverage(chapters []model.Chapter, splits []model.ValueTimeSplit, episodeDuration float64) model.CoverageReport {
	report := model.CoverageReport{
		TotalChapters:          len(chapters),
		ChaptersWithoutPayment: []string{},
	}

	for i, ch := range chapters {
		end := chapterEndTime(chapters, i, episodeDuration)
		if len(SplitsForTimeRange(splits, ch.StartTime, end)) > 0 {
			report.ChaptersWithPayment++
		} else {
			report.ChaptersWithoutPayment = append(report.ChaptersWithoutPayment, ch.Title)
		}
	}

	if report.TotalChapters > 0 {
		report.CoveragePercentage = int(math.Round(float64(report.ChaptersWithPayment) / float64(report.TotalChapters) * 100))
	}

	return report
}
