// Package check はフィード検査のオーケストレーションを提供する。
// フェッチ・パース・チャプター解決・受取人解決の各層を束ね、
// HTTPハンドラーに検査結果を返すサービス層。
package check

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/podcheck/internal/fetch"
	"github.com/hitoshi/podcheck/internal/feedparse"
	"github.com/hitoshi/podcheck/internal/model"
	"github.com/hitoshi/podcheck/internal/remote"
	"github.com/hitoshi/podcheck/internal/timeutil"
	"github.com/hitoshi/podcheck/internal/value"
)

// ContentFetcher はコンテンツ取得のインターフェース。
type ContentFetcher interface {
	Fetch(ctx context.Context, targetURL string, accept string) (*fetch.Result, error)
}

// ChapterResolverService はチャプター解決のインターフェース。
type ChapterResolverService interface {
	FetchChapters(ctx context.Context, chaptersURL string) *model.ChaptersData
}

// RemoteResolverService はリモートフィード解決のインターフェース。
type RemoteResolverService interface {
	ResolveManyValueBlocks(ctx context.Context, feedGUIDs []string) map[string]*model.ValueBlock
	ResolveManyPodcastInfos(ctx context.Context, feedGUIDs []string, hint *remote.RSSHint) map[string]*model.PodcastInfo
	ResolveEpisodeInfo(ctx context.Context, feedGUID, episodeGUID string) *model.EpisodeInfo
}

// LatencyRecorder は検査レイテンシのメトリクス収集インターフェース。
type LatencyRecorder interface {
	RecordParseFailure()
	RecordCheckLatency(duration time.Duration)
}

// Service は検査パイプラインのサービス実装。
type Service struct {
	fetcher  ContentFetcher
	parser   *feedparse.Parser
	chapters ChapterResolverService
	remote   RemoteResolverService
	metrics  LatencyRecorder
	logger   *slog.Logger
}

// NewService はService の新しいインスタンスを生成する。
func NewService(
	fetcher ContentFetcher,
	parser *feedparse.Parser,
	chapters ChapterResolverService,
	remote RemoteResolverService,
	metrics LatencyRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		fetcher:  fetcher,
		parser:   parser,
		chapters: chapters,
		remote:   remote,
		metrics:  metrics,
		logger:   logger,
	}
}

// FeedCheckResult はフィード検査1回分の結果。
type FeedCheckResult struct {
	// URL は実際にパースされたフィードのURL。
	URL string `json:"url"`
	// DiscoveredFrom はHTMLページから自動検出した場合の元ページURL。
	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	// Via はフェッチに成功した経路（"direct"またはリレー名）。
	Via string `json:"via"`
	// Parse はパース結果（種別・名前空間・メタデータを含む）。
	Parse feedparse.ParseResult `json:"parse"`
	// ValidationErrors は必須要素の構造検証エラー。
	ValidationErrors []string `json:"validationErrors"`
	// Statistics はエピソード集計。
	Statistics model.FeedStatistics `json:"statistics"`
}

// CheckFeed はフィードURLを検査する。
// URLがHTMLページだった場合はlink要素からフィードを自動検出し、
// 最初の候補を取得してパースする。
// 失敗はAPIErrorで返し、HTTP層がステータスコードへ対応付ける。
func (s *Service) CheckFeed(ctx context.Context, feedURL string) (*FeedCheckResult, *model.APIError) {
	start := time.Now()
	defer func() {
		s.metrics.RecordCheckLatency(time.Since(start))
	}()

	result, err := s.fetcher.Fetch(ctx, feedURL, fetch.AcceptFeed)
	if err != nil {
		return nil, model.NewFetchFailedError(feedURL)
	}

	discoveredFrom := ""
	targetURL := feedURL

	// HTMLページの場合はフィードリンクを自動検出する
	if feedparse.IsHTMLContent(result.ContentType, result.Body) {
		candidates := feedparse.FindFeedLinks(result.Body, feedURL)
		if len(candidates) == 0 {
			s.metrics.RecordParseFailure()
			return nil, model.NewParseFailedError("HTMLページからフィードリンクを検出できませんでした")
		}

		discoveredFrom = feedURL
		targetURL = candidates[0].URL
		s.logger.Info("HTMLページからフィードを自動検出しました",
			slog.String("page_url", feedURL),
			slog.String("feed_url", targetURL),
			slog.Int("candidate_count", len(candidates)),
		)

		result, err = s.fetcher.Fetch(ctx, targetURL, fetch.AcceptFeed)
		if err != nil {
			return nil, model.NewFetchFailedError(targetURL)
		}
	}

	parse := s.parser.ParseFeed(string(result.Body))
	if !parse.Success {
		s.metrics.RecordParseFailure()
		return nil, model.NewParseFailedError(parse.Error)
	}

	return &FeedCheckResult{
		URL:              targetURL,
		DiscoveredFrom:   discoveredFrom,
		Via:              result.Via,
		Parse:            parse,
		ValidationErrors: feedparse.ValidateStructure(parse.Feed),
		Statistics:       feedparse.Statistics(parse.Feed),
	}, nil
}

// CheckChapters はチャプターURLを検査する。
// すべてのトランスポートで取得に失敗した場合やパースできない場合はAPIErrorを返す。
func (s *Service) CheckChapters(ctx context.Context, chaptersURL string) (*model.ChaptersData, *model.APIError) {
	data := s.chapters.FetchChapters(ctx, chaptersURL)
	if data == nil {
		return nil, model.NewChaptersFailedError(chaptersURL)
	}
	return data, nil
}

// ValueReport は受取人パイプライン1回分の結果。
type ValueReport struct {
	// FeedURL は検査したフィードのURL。
	FeedURL string `json:"feedUrl"`
	// EpisodeID は対象エピソードの識別子（GUIDまたは位置ID）。
	EpisodeID string `json:"episodeId"`
	// EpisodeTitle は対象エピソードのタイトル。
	EpisodeTitle string `json:"episodeTitle"`
	// Value は有効な受取人ブロック（エピソード優先、なければチャンネル）。
	Value *model.ValueBlock `json:"value,omitempty"`
	// TimeSplits はエピソードの時間分割。
	TimeSplits []model.ValueTimeSplit `json:"timeSplits"`
	// Chapters はチャプターと時間分割の対応付け結果。
	// チャプターURLがない、または解決に失敗した場合は空。
	Chapters []model.ChapterWithValue `json:"chapters"`
	// Coverage は支払い分割のカバレッジ集計。
	Coverage model.CoverageReport `json:"coverage"`
	// RemotePodcasts は時間分割が参照するリモートフィードの表示情報。
	RemotePodcasts map[string]*model.PodcastInfo `json:"remotePodcasts,omitempty"`
	// RemoteValues は時間分割が参照するリモートフィードの受取人ブロック。
	RemoteValues map[string]*model.ValueBlock `json:"remoteValues,omitempty"`
	// RemoteEpisodes は時間分割がitemGuidで参照するリモートエピソードの情報。
	// ディレクトリAPIが未設定の場合は空。キーはitemGuid。
	RemoteEpisodes map[string]*model.EpisodeInfo `json:"remoteEpisodes,omitempty"`
}

// CheckValue は受取人パイプラインを実行する。
// フィードを取得・パースし、対象エピソードの受取人ブロック・時間分割・
// チャプター対応・カバレッジ・リモートフィード解決をまとめて返す。
// episodeIDが空の場合は先頭エピソードを対象とする。
func (s *Service) CheckValue(ctx context.Context, feedURL, episodeID string) (*ValueReport, *model.APIError) {
	feedResult, apiErr := s.CheckFeed(ctx, feedURL)
	if apiErr != nil {
		return nil, apiErr
	}

	feed := feedResult.Parse.Feed
	if feed.Type != model.FeedTypeRSS || feed.RSS == nil {
		return nil, model.NewParseFailedError("受取人検査はRSSフィードのみ対応しています")
	}

	channel := feed.RSS.Channel
	item := findEpisode(channel.Items, episodeID)
	if item == nil {
		return nil, model.NewEpisodeNotFoundError(episodeID)
	}

	// エピソードレベルのブロックが権威、なければチャンネルレベルを適用
	effectiveValue := item.Value
	if effectiveValue == nil {
		effectiveValue = channel.Value
	}

	report := &ValueReport{
		FeedURL:      feedResult.URL,
		EpisodeID:    item.ID,
		EpisodeTitle: item.Title,
		Value:        effectiveValue,
		TimeSplits:   item.TimeSplits,
		Chapters:     []model.ChapterWithValue{},
		Coverage:     model.CoverageReport{ChaptersWithoutPayment: []string{}},
	}

	// チャプターが宣言されていれば解決して時間分割と対応付ける
	if item.ChaptersURL != "" {
		if data := s.chapters.FetchChapters(ctx, item.ChaptersURL); data != nil {
			episodeDuration := float64(timeutil.ParseDuration(item.Duration))
			report.Chapters = value.MatchSplitsToChapters(data.Chapters, item.TimeSplits, episodeDuration)
			report.Coverage = value.CheckPaymentCoverage(data.Chapters, item.TimeSplits, episodeDuration)
		}
	}

	// 時間分割が参照するリモートフィードをバッチ解決する。
	// 検査中のフィード自身がpodcast:guidを宣言していればヒントとして渡す。
	guids := remoteGUIDs(item.TimeSplits)
	if len(guids) > 0 {
		hint := &remote.RSSHint{
			Title:   channel.Title,
			GUID:    channel.GUID,
			FeedURL: feedResult.URL,
		}
		report.RemotePodcasts = s.remote.ResolveManyPodcastInfos(ctx, guids, hint)
		report.RemoteValues = s.remote.ResolveManyValueBlocks(ctx, guids)
	}

	// itemGuid付きのremoteItemはエピソード単位の情報も引く
	for _, split := range item.TimeSplits {
		if split.RemoteItem == nil || split.RemoteItem.ItemGUID == "" {
			continue
		}
		if _, ok := report.RemoteEpisodes[split.RemoteItem.ItemGUID]; ok {
			continue
		}
		episode := s.remote.ResolveEpisodeInfo(ctx, split.RemoteItem.FeedGUID, split.RemoteItem.ItemGUID)
		if episode == nil {
			continue
		}
		if report.RemoteEpisodes == nil {
			report.RemoteEpisodes = make(map[string]*model.EpisodeInfo)
		}
		report.RemoteEpisodes[split.RemoteItem.ItemGUID] = episode
	}

	return report, nil
}

// findEpisode はエピソード識別子でアイテムを検索する。
// 識別子はGUIDまたは位置ID（episode-<n>）。空の場合は先頭を返す。
func findEpisode(items []model.Item, episodeID string) *model.Item {
	if len(items) == 0 {
		return nil
	}
	if episodeID == "" {
		return &items[0]
	}
	for i := range items {
		if items[i].ID == episodeID || items[i].GUID == episodeID {
			return &items[i]
		}
	}
	return nil
}

// remoteGUIDs は時間分割が参照するリモートフィードGUIDを重複なしで集める。
func remoteGUIDs(splits []model.ValueTimeSplit) []string {
	seen := make(map[string]struct{})
	var guids []string
	for _, split := range splits {
		if split.RemoteItem == nil || split.RemoteItem.FeedGUID == "" {
			continue
		}
		if _, ok := seen[split.RemoteItem.FeedGUID]; ok {
			continue
		}
		seen[split.RemoteItem.FeedGUID] = struct{}{}
		guids = append(guids, split.RemoteItem.FeedGUID)
	}
	return guids
}
