package model

import "time"

// ValueBlock はpodcast:value要素を表す。
// チャンネルまたはエピソードのどちらかに所有され、
// 表示にはエピソードレベルのブロックが優先される。
type ValueBlock struct {
	Type       string           `json:"type"`
	Method     string           `json:"method"`
	Suggested  string           `json:"suggested,omitempty"`
	Recipients []ValueRecipient `json:"recipients"`
}

// ValueRecipient はpodcast:valueRecipient要素を表す。
// Splitはパーセンテージだが合計100である保証はなく、正規化は行わない。
type ValueRecipient struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Address     string  `json:"address"`
	Split       float64 `json:"split"`
	Fee         bool    `json:"fee,omitempty"`
	CustomKey   string  `json:"customKey,omitempty"`
	CustomValue string  `json:"customValue,omitempty"`
}

// RemoteItem は他フィードのフィード/エピソードへの参照を表す。
type RemoteItem struct {
	FeedGUID string `json:"feedGuid"`
	ItemGUID string `json:"itemGuid,omitempty"`
}

// ValueTimeSplit はpodcast:valueTimeSplit要素（時間区切りの支払い上書き）を表す。
// RemoteItemが設定される場合はリモートフィードがRemotePercentage%を受け取り、
// ValueRecipientsが設定される場合はインライン受取人リストが適用される。
// 両方が設定されることもあるが、消費経路は別である。
type ValueTimeSplit struct {
	StartTime        float64          `json:"startTime"`
	Duration         float64          `json:"duration"`
	RemotePercentage float64          `json:"remotePercentage"`
	RemoteItem       *RemoteItem      `json:"remoteItem,omitempty"`
	ValueRecipients  []ValueRecipient `json:"valueRecipients,omitempty"`
}

// Chapter はチャプターファイル内の1チャプターを表す。
// StartTime昇順に並んでいることを前提とする（検証はしない）。
// 終了時刻は暗黙で、次チャプターの開始時刻、最終チャプターは
// エピソード合計時間（既知の場合）、どちらも不明なら無限大として扱う。
type Chapter struct {
	StartTime float64 `json:"startTime"`
	Title     string  `json:"title"`
	Img       string  `json:"img,omitempty"`
	URL       string  `json:"url,omitempty"`
}

// ChaptersData はチャプターファイル全体を表す。
type ChaptersData struct {
	Version  string    `json:"version"`
	Chapters []Chapter `json:"chapters"`
}

// ChapterWithValue はチャプターとそれに重なるタイムスプリットの組。
// 計算結果であり永続化はされない。
type ChapterWithValue struct {
	Chapter
	ValueTimeSplits []ValueTimeSplit `json:"valueTimeSplits"`
}

// CoverageReport はチャプターに対する支払いメタデータのカバレッジ。
// 不変条件: ChaptersWithPayment + len(ChaptersWithoutPayment) == TotalChapters。
type CoverageReport struct {
	TotalChapters          int      `json:"totalChapters"`
	ChaptersWithPayment    int      `json:"chaptersWithPayment"`
	ChaptersWithoutPayment []string `json:"chaptersWithoutPayment"`
	CoveragePercentage     int      `json:"coveragePercentage"`
}

// InfoSource はPodcastInfoの取得元を表す。
type InfoSource string

const (
	// InfoSourceAPI はディレクトリAPIから取得したことを示す。
	InfoSourceAPI InfoSource = "api"
	// InfoSourceRSS はRSSチャンネルのヒントから取得したことを示す。
	InfoSourceRSS InfoSource = "rss"
	// InfoSourceFallback は静的フォールバックテーブルまたは
	// プレースホルダから取得したことを示す。
	InfoSourceFallback InfoSource = "fallback"
)

// RemoteFeedInfo はリモートフィード解決キャッシュのエントリ。
// 初回解決時に生成され、以降のフェッチで同一GUIDのエントリがその場で更新される。
// 鮮度ウィンドウを過ぎたエントリは再フェッチの対象となる。
type RemoteFeedInfo struct {
	GUID        string      `json:"guid"`
	Title       string      `json:"title"`
	FeedURL     string      `json:"feedUrl,omitempty"`
	Value       *ValueBlock `json:"value,omitempty"`
	LastFetched time.Time   `json:"lastFetched"`
	Error       string      `json:"error,omitempty"`
}

// PodcastInfo はディレクトリ検索キャッシュのエントリ。
// Sourceの値に応じて異なる鮮度ウィンドウが適用される
// （API由来はRSS/フォールバック由来より早く失効する）。
type PodcastInfo struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author,omitempty"`
	Image       string     `json:"image,omitempty"`
	FeedGUID    string     `json:"feedGuid"`
	FeedURL     string     `json:"feedUrl,omitempty"`
	Source      InfoSource `json:"source"`
	LastFetched time.Time  `json:"-"`
}

// EpisodeInfo はディレクトリAPIのエピソード検索結果を表す。
type EpisodeInfo struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	GUID     string `json:"guid"`
	FeedGUID string `json:"feedGuid"`
}
