// Package model はドメインモデルを定義する。
package model

// FeedType はフィードの種類（RSS/Atom）を表す。
type FeedType string

const (
	// FeedTypeRSS はRSSフィード。
	FeedTypeRSS FeedType = "rss"
	// FeedTypeAtom はAtomフィード。
	FeedTypeAtom FeedType = "atom"
	// FeedTypeUnknown は判別できなかったフィード。
	FeedTypeUnknown FeedType = "unknown"
)

// Feed はパース済みフィードのタグ付きユニオン。
// TypeがFeedTypeRSSの場合はRSSのみ、FeedTypeAtomの場合はAtomのみが設定される。
// XMLの属性エンコーディング規約はパース境界のアダプタで吸収済みであり、
// このモデルの利用側がエンコーディング規約に依存することはない。
type Feed struct {
	Type FeedType `json:"type"`
	RSS  *RSSFeed `json:"rss,omitempty"`
	Atom *AtomFeed `json:"atom,omitempty"`
}

// RSSFeed はRSSフィードのチャンネルを保持する。
type RSSFeed struct {
	Channel Channel `json:"channel"`
}

// Channel はRSSフィードのチャンネル情報。
// GUIDはpodcast:guid要素の値（未宣言の場合は空文字列）。
// Valueはチャンネルレベルのpodcast:valueブロック（存在しない場合はnil）。
type Channel struct {
	Title       string      `json:"title"`
	Link        string      `json:"link"`
	Description string      `json:"description"`
	Language    string      `json:"language,omitempty"`
	LastUpdated string      `json:"lastUpdated,omitempty"`
	GUID        string      `json:"guid,omitempty"`
	Value       *ValueBlock `json:"value,omitempty"`
	Items       []Item      `json:"items"`
}

// Item はRSSフィードのエピソード（記事）を表す。
// IDはフィード内で安定かつ一意なエピソード識別子で、
// GUIDが存在する場合はGUID、存在しない場合は位置インデックスから合成される。
type Item struct {
	ID           string           `json:"id"`
	GUID         string           `json:"guid,omitempty"`
	Title        string           `json:"title"`
	Link         string           `json:"link,omitempty"`
	Description  string           `json:"description,omitempty"`
	PubDate      string           `json:"pubDate,omitempty"`
	Duration     string           `json:"duration,omitempty"`
	EnclosureURL string           `json:"enclosureUrl,omitempty"`
	ChaptersURL  string           `json:"chaptersUrl,omitempty"`
	HasTranscript bool            `json:"hasTranscript"`
	Value        *ValueBlock      `json:"value,omitempty"`
	TimeSplits   []ValueTimeSplit `json:"timeSplits,omitempty"`
}

// AtomFeed はAtomフィードのメタデータとエントリを保持する。
type AtomFeed struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Updated  string  `json:"updated"`
	Link     string  `json:"link,omitempty"`
	Entries  []Entry `json:"entries"`
}

// Entry はAtomフィードのエントリを表す。
// IDまたは位置インデックスから合成された識別子を持つ。
type Entry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Updated string `json:"updated,omitempty"`
	Link    string `json:"link,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// FeedMetadata はフィードから抽出した基本メタデータ。
type FeedMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
	Language    string `json:"language,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	ItemCount   int    `json:"itemCount"`
	HasPodcasting20 bool `json:"hasPodcasting20"`
	HasITunes       bool `json:"hasITunes"`
	HasGooglePlay   bool `json:"hasGooglePlay"`
}

// FeedStatistics はフィードの統計情報。
// 時間はすべて秒単位。HasValueはチャンネルレベルのvalueブロックが
// 存在する場合に全エピソードをカウントする（全体適用の規約）。
type FeedStatistics struct {
	TotalItems      int     `json:"totalItems"`
	TotalDuration   int     `json:"totalDuration"`
	AverageDuration float64 `json:"averageDuration"`
	HasEnclosures   int     `json:"hasEnclosures"`
	HasTranscripts  int     `json:"hasTranscripts"`
	HasChapters     int     `json:"hasChapters"`
	HasValue        int     `json:"hasValue"`
}
