package check

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/podcheck/internal/feedparse"
	"github.com/hitoshi/podcheck/internal/fetch"
	"github.com/hitoshi/podcheck/internal/model"
	"github.com/hitoshi/podcheck/internal/remote"
	"github.com/hitoshi/podcheck/internal/security"
)

const checkFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
     xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"
     xmlns:podcast="https://podcastindex.org/namespace/1.0">
  <channel>
    <title>Check Podcast</title>
    <link>https://example.com</link>
    <description>A podcast for checking</description>
    <podcast:value type="lightning" method="keysend">
      <podcast:valueRecipient name="Host" type="node" address="02aa" split="100"/>
    </podcast:value>
    <item>
      <title>Episode 1</title>
      <link>https://example.com/ep1</link>
      <description>First episode</description>
      <guid>ep-guid-1</guid>
      <itunes:duration>10:00</itunes:duration>
      <podcast:chapters url="https://example.com/ep1-chapters.json" type="application/json+chapters"/>
      <podcast:value type="lightning" method="keysend">
        <podcast:valueRecipient name="Alice" address="02ab" split="60"/>
        <podcast:valueRecipient name="Bob" address="02cd" split="40"/>
        <podcast:valueTimeSplit startTime="60" duration="90" remotePercentage="30">
          <podcast:remoteItem feedGuid="879febfc-538d-5c10-a34e-a9de5a7666ca" itemGuid="remote-item-1"/>
        </podcast:valueTimeSplit>
      </podcast:value>
    </item>
    <item>
      <title>Episode 2</title>
      <link>https://example.com/ep2</link>
      <description>Second episode</description>
    </item>
  </channel>
</rss>`

const discoveryHTML = `<!DOCTYPE html>
<html><head>
<title>Podcast Site</title>
<link rel="alternate" type="application/rss+xml" title="Check Podcast" href="/feed.xml">
</head><body>episodes here</body></html>`

// routingFetcher はURL別に応答を返すテスト用フェッチャー。
type routingFetcher struct {
	responses map[string]*fetch.Result
}

func (f *routingFetcher) Fetch(ctx context.Context, targetURL string, accept string) (*fetch.Result, error) {
	if result, ok := f.responses[targetURL]; ok {
		return result, nil
	}
	return nil, &fetch.StatusError{Code: 404}
}

// stubChapters はテスト用のチャプターリゾルバー。
type stubChapters struct {
	data *model.ChaptersData
}

func (s *stubChapters) FetchChapters(ctx context.Context, chaptersURL string) *model.ChaptersData {
	return s.data
}

// stubRemote はテスト用のリモートリゾルバー。
type stubRemote struct {
	resolvedGUIDs []string
	episode       *model.EpisodeInfo
}

func (s *stubRemote) ResolveEpisodeInfo(ctx context.Context, feedGUID, episodeGUID string) *model.EpisodeInfo {
	return s.episode
}

func (s *stubRemote) ResolveManyValueBlocks(ctx context.Context, feedGUIDs []string) map[string]*model.ValueBlock {
	s.resolvedGUIDs = feedGUIDs
	results := make(map[string]*model.ValueBlock, len(feedGUIDs))
	for _, guid := range feedGUIDs {
		results[guid] = &model.ValueBlock{Type: "lightning", Method: "keysend", Recipients: []model.ValueRecipient{}}
	}
	return results
}

func (s *stubRemote) ResolveManyPodcastInfos(ctx context.Context, feedGUIDs []string, hint *remote.RSSHint) map[string]*model.PodcastInfo {
	results := make(map[string]*model.PodcastInfo, len(feedGUIDs))
	for _, guid := range feedGUIDs {
		results[guid] = &model.PodcastInfo{Title: "Remote Show", FeedGUID: guid, Source: model.InfoSourceFallback}
	}
	return results
}

// noopMetrics はテスト用のメトリクススタブ。
type noopMetrics struct{}

func (noopMetrics) RecordParseFailure()                {}
func (noopMetrics) RecordCheckLatency(d time.Duration) {}

func newTestService(fetcher ContentFetcher, chapters ChapterResolverService, remote RemoteResolverService) *Service {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewService(fetcher, feedparse.NewParser(security.NewContentSanitizer()), chapters, remote, noopMetrics{}, logger)
}

func feedFetcher() *routingFetcher {
	return &routingFetcher{responses: map[string]*fetch.Result{
		"https://example.com/feed.xml": {Body: []byte(checkFeedXML), ContentType: "application/rss+xml", Via: "direct"},
		"https://example.com/page":     {Body: []byte(discoveryHTML), ContentType: "text/html; charset=utf-8", Via: "direct"},
	}}
}

func TestCheckFeed_Success(t *testing.T) {
	svc := newTestService(feedFetcher(), &stubChapters{}, &stubRemote{})

	result, apiErr := svc.CheckFeed(context.Background(), "https://example.com/feed.xml")
	if apiErr != nil {
		t.Fatalf("検査失敗: %+v", apiErr)
	}
	if !result.Parse.Success || result.Parse.FeedType != model.FeedTypeRSS {
		t.Errorf("パース結果 = %+v", result.Parse)
	}
	if len(result.ValidationErrors) != 0 {
		t.Errorf("構造検証エラー = %v, want なし", result.ValidationErrors)
	}
	if result.Statistics.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", result.Statistics.TotalItems)
	}
	if result.Via != "direct" {
		t.Errorf("Via = %q, want \"direct\"", result.Via)
	}
}

func TestCheckFeed_HTMLAutoDiscovery(t *testing.T) {
	svc := newTestService(feedFetcher(), &stubChapters{}, &stubRemote{})

	result, apiErr := svc.CheckFeed(context.Background(), "https://example.com/page")
	if apiErr != nil {
		t.Fatalf("検査失敗: %+v", apiErr)
	}
	if result.DiscoveredFrom != "https://example.com/page" {
		t.Errorf("DiscoveredFrom = %q", result.DiscoveredFrom)
	}
	if result.URL != "https://example.com/feed.xml" {
		t.Errorf("URL = %q, want 検出されたフィードURL", result.URL)
	}
	if !result.Parse.Success {
		t.Error("検出されたフィードがパースされるべき")
	}
}

func TestCheckFeed_FetchFailure(t *testing.T) {
	svc := newTestService(&routingFetcher{responses: map[string]*fetch.Result{}}, &stubChapters{}, &stubRemote{})

	_, apiErr := svc.CheckFeed(context.Background(), "https://example.com/missing.xml")
	if apiErr == nil || apiErr.Code != "FETCH_FAILED" {
		t.Errorf("apiErr = %+v, want FETCH_FAILED", apiErr)
	}
}

func TestCheckFeed_ParseFailure(t *testing.T) {
	fetcher := &routingFetcher{responses: map[string]*fetch.Result{
		"https://example.com/broken.xml": {Body: []byte("this is not a feed"), ContentType: "text/plain", Via: "direct"},
	}}
	svc := newTestService(fetcher, &stubChapters{}, &stubRemote{})

	_, apiErr := svc.CheckFeed(context.Background(), "https://example.com/broken.xml")
	if apiErr == nil || apiErr.Code != "PARSE_FAILED" {
		t.Errorf("apiErr = %+v, want PARSE_FAILED", apiErr)
	}
}

func TestCheckChapters_Failure(t *testing.T) {
	svc := newTestService(feedFetcher(), &stubChapters{data: nil}, &stubRemote{})

	_, apiErr := svc.CheckChapters(context.Background(), "https://example.com/chapters.json")
	if apiErr == nil || apiErr.Code != "CHAPTERS_FAILED" {
		t.Errorf("apiErr = %+v, want CHAPTERS_FAILED", apiErr)
	}
}

func TestCheckValue_FullPipeline(t *testing.T) {
	chapters := &stubChapters{data: &model.ChaptersData{
		Version: "1.2.0",
		Chapters: []model.Chapter{
			{StartTime: 0, Title: "Intro"},
			{StartTime: 120, Title: "Main"},
		},
	}}
	remoteStub := &stubRemote{episode: &model.EpisodeInfo{ID: 42, Title: "Remote Episode", GUID: "remote-item-1"}}
	svc := newTestService(feedFetcher(), chapters, remoteStub)

	report, apiErr := svc.CheckValue(context.Background(), "https://example.com/feed.xml", "ep-guid-1")
	if apiErr != nil {
		t.Fatalf("パイプライン失敗: %+v", apiErr)
	}

	if report.EpisodeID != "ep-guid-1" || report.EpisodeTitle != "Episode 1" {
		t.Errorf("エピソード = %q / %q", report.EpisodeID, report.EpisodeTitle)
	}

	// エピソードレベルのブロックが優先される
	if report.Value == nil || len(report.Value.Recipients) != 2 {
		t.Fatalf("受取人ブロック = %+v", report.Value)
	}
	if report.Value.Recipients[0].Name != "Alice" {
		t.Errorf("受取人1 = %q, want \"Alice\"", report.Value.Recipients[0].Name)
	}

	if len(report.TimeSplits) != 1 {
		t.Fatalf("時間分割数 = %d, want 1", len(report.TimeSplits))
	}

	// スプリット{60,90}は両チャプター（[0,120)と[120,600)）に重なる
	if len(report.Chapters) != 2 {
		t.Fatalf("チャプター数 = %d, want 2", len(report.Chapters))
	}
	for i, ch := range report.Chapters {
		if len(ch.ValueTimeSplits) != 1 {
			t.Errorf("チャプター%dのスプリット数 = %d, want 1", i+1, len(ch.ValueTimeSplits))
		}
	}
	if report.Coverage.CoveragePercentage != 100 {
		t.Errorf("カバレッジ = %d%%, want 100%%", report.Coverage.CoveragePercentage)
	}

	// リモートフィードのバッチ解決
	if len(remoteStub.resolvedGUIDs) != 1 || remoteStub.resolvedGUIDs[0] != "879febfc-538d-5c10-a34e-a9de5a7666ca" {
		t.Errorf("解決対象GUID = %v", remoteStub.resolvedGUIDs)
	}
	if report.RemotePodcasts["879febfc-538d-5c10-a34e-a9de5a7666ca"] == nil {
		t.Error("リモートポッドキャスト情報が含まれるべき")
	}
	if ep := report.RemoteEpisodes["remote-item-1"]; ep == nil || ep.Title != "Remote Episode" {
		t.Errorf("リモートエピソード情報 = %+v", ep)
	}
}

func TestCheckValue_ChannelValueWhenEpisodeHasNone(t *testing.T) {
	svc := newTestService(feedFetcher(), &stubChapters{}, &stubRemote{})

	// Episode 2はGUIDがないため位置IDで参照する
	report, apiErr := svc.CheckValue(context.Background(), "https://example.com/feed.xml", "episode-2")
	if apiErr != nil {
		t.Fatalf("パイプライン失敗: %+v", apiErr)
	}
	if report.Value == nil || len(report.Value.Recipients) != 1 || report.Value.Recipients[0].Name != "Host" {
		t.Errorf("チャンネルレベルのブロックが適用されるべき: %+v", report.Value)
	}
	if len(report.Chapters) != 0 {
		t.Errorf("チャプター宣言のないエピソードのチャプター数 = %d, want 0", len(report.Chapters))
	}
}

func TestCheckValue_EpisodeNotFound(t *testing.T) {
	svc := newTestService(feedFetcher(), &stubChapters{}, &stubRemote{})

	_, apiErr := svc.CheckValue(context.Background(), "https://example.com/feed.xml", "no-such-episode")
	if apiErr == nil || apiErr.Code != "EPISODE_NOT_FOUND" {
		t.Errorf("apiErr = %+v, want EPISODE_NOT_FOUND", apiErr)
	}
}

func TestCheckValue_DefaultsToFirstEpisode(t *testing.T) {
	svc := newTestService(feedFetcher(), &stubChapters{}, &stubRemote{})

	report, apiErr := svc.CheckValue(context.Background(), "https://example.com/feed.xml", "")
	if apiErr != nil {
		t.Fatalf("パイプライン失敗: %+v", apiErr)
	}
	if report.EpisodeID != "ep-guid-1" {
		t.Errorf("episode省略時は先頭エピソード: %q", report.EpisodeID)
	}
}
