// Package feedparse はRSS/AtomフィードのXMLをパースし、正準ドメインモデルへ変換する。
// XMLの属性エンコーディング規約はこのパッケージのアダプタで完全に吸収し、
// 他のコンポーネントがgofeedの型やエンコーディング規約に触れることはない。
package feedparse

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"

	"github.com/hitoshi/podcheck/internal/model"
	"github.com/hitoshi/podcheck/internal/security"
	"github.com/hitoshi/podcheck/internal/value"
)

// ParseResult はフィードパースの結果を表す。
// パース失敗時もpanicやエラーを呼び出し元に伝播させず、
// Success=falseとエラーメッセージで報告する。
type ParseResult struct {
	Success    bool               `json:"success"`
	Feed       *model.Feed        `json:"feed,omitempty"`
	Error      string             `json:"error,omitempty"`
	FeedType   model.FeedType     `json:"feedType"`
	Namespaces []string           `json:"namespaces"`
	Metadata   model.FeedMetadata `json:"metadata"`
}

// Parser はフィードXMLのパーサ。
// エピソードのdescription等のHTMLはサニタイザを通してからモデルに格納する。
type Parser struct {
	sanitizer security.ContentSanitizerService
}

// NewParser はParserの新しいインスタンスを生成する。
func NewParser(sanitizer security.ContentSanitizerService) *Parser {
	return &Parser{
		sanitizer: sanitizer,
	}
}

// ParseFeed はフィードXMLテキストをパースして結果を返す。
// ルート要素がrssならRSS、feedならAtomとしてパースし、
// どちらでもない場合はSuccess=falseの結果を返す。
func (p *Parser) ParseFeed(xmlContent string) ParseResult {
	feedType := detectFeedType(xmlContent)
	namespaces := detectNamespaces(xmlContent)

	switch feedType {
	case model.FeedTypeRSS:
		parsed, err := (&rss.Parser{}).Parse(strings.NewReader(xmlContent))
		if err != nil || parsed == nil {
			return failureResult(fmt.Sprintf("RSSフィードのパースに失敗しました: %v", err))
		}
		feed := p.adaptRSS(parsed)
		return ParseResult{
			Success:    true,
			Feed:       feed,
			FeedType:   model.FeedTypeRSS,
			Namespaces: namespaces,
			Metadata:   buildMetadata(feed, namespaces),
		}

	case model.FeedTypeAtom:
		parsed, err := (&atom.Parser{}).Parse(strings.NewReader(xmlContent))
		if err != nil {
			return failureResult(fmt.Sprintf("Atomフィードのパースに失敗しました: %v", err))
		}
		feed := p.adaptAtom(parsed)
		return ParseResult{
			Success:    true,
			Feed:       feed,
			FeedType:   model.FeedTypeAtom,
			Namespaces: namespaces,
			Metadata:   buildMetadata(feed, namespaces),
		}

	default:
		return failureResult("RSSまたはAtom形式のフィードを検出できませんでした")
	}
}

// ParseValueSource はリモートフィード解決向けの簡易パース。
// RSSフィードのチャンネル情報とフィードレベルの受取人ブロックを返す。
// チャンネルに受取人ブロックがない場合は先頭アイテムのブロックを使う。
// RSSとしてパースできない場合はok=falseを返す。
func (p *Parser) ParseValueSource(xmlContent string) (title string, guid string, value *model.ValueBlock, ok bool) {
	result := p.ParseFeed(xmlContent)
	if !result.Success || result.FeedType != model.FeedTypeRSS || result.Feed.RSS == nil {
		return "", "", nil, false
	}

	channel := result.Feed.RSS.Channel
	value = channel.Value
	if value == nil && len(channel.Items) > 0 {
		value = channel.Items[0].Value
	}
	return channel.Title, channel.GUID, value, true
}

// failureResult はパース失敗時の結果を生成する。
// 名前空間は空、メタデータはゼロ値となる。
func failureResult(reason string) ParseResult {
	return ParseResult{
		Success:    false,
		Error:      reason,
		FeedType:   model.FeedTypeUnknown,
		Namespaces: []string{},
		Metadata:   model.FeedMetadata{},
	}
}

// detectFeedType はルート要素からフィード種別を判定する。
func detectFeedType(xmlContent string) model.FeedType {
	switch gofeed.DetectFeedType(strings.NewReader(xmlContent)) {
	case gofeed.FeedTypeRSS:
		return model.FeedTypeRSS
	case gofeed.FeedTypeAtom:
		return model.FeedTypeAtom
	default:
		return model.FeedTypeUnknown
	}
}

// detectNamespaces はルート要素のxmlns宣言から
// podcast / itunes / googleplay 名前空間の有無を検出する。
// 検出結果は常にこの固定順で返す。
func detectNamespaces(xmlContent string) []string {
	dec := xml.NewDecoder(strings.NewReader(xmlContent))
	dec.Strict = false

	declared := map[string]bool{}
	for {
		tok, err := dec.Token()
		if err == io.EOF || err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		// 最初のStartElementがルート要素
		for _, attr := range se.Attr {
			if attr.Name.Space == "xmlns" {
				declared[attr.Name.Local] = true
			}
		}
		break
	}

	namespaces := []string{}
	for _, ns := range []string{"podcast", "itunes", "googleplay"} {
		if declared[ns] {
			namespaces = append(namespaces, ns)
		}
	}
	return namespaces
}

// adaptRSS はgofeedのRSSフィードを正準モデルに変換する。
// podcast名前空間のvalue/valueTimeSplit/chapters/transcript/guidは
// ここで抽出され、以降のコンポーネントは拡張ツリーに触れない。
func (p *Parser) adaptRSS(f *rss.Feed) *model.Feed {
	ch := f

	channel := model.Channel{
		Title:       ch.Title,
		Link:        ch.Link,
		Description: ch.Description,
		Language:    ch.Language,
		LastUpdated: firstNonEmpty(ch.LastBuildDate, ch.PubDate),
		Items:       []model.Item{},
	}

	if podcast, ok := ch.Extensions["podcast"]; ok {
		if g := firstExt(podcast["guid"]); g != nil {
			channel.GUID = strings.TrimSpace(g.Value)
		}
		channel.Value = value.ExtractValueBlock(firstExt(podcast["value"]))
	}

	for i, it := range ch.Items {
		if it == nil {
			continue
		}
		channel.Items = append(channel.Items, p.adaptItem(it, i))
	}

	return &model.Feed{
		Type: model.FeedTypeRSS,
		RSS:  &model.RSSFeed{Channel: channel},
	}
}

// adaptItem はRSSの1アイテムをエピソードモデルに変換する。
// 識別子はGUIDがあればGUID、なければ位置インデックスから episode-<n> を合成する。
// タイトル中のエピソード番号からの導出は行わない（同番号の重複で衝突するため）。
func (p *Parser) adaptItem(it *rss.Item, index int) model.Item {
	item := model.Item{
		Title:       it.Title,
		Link:        it.Link,
		Description: p.sanitizer.Sanitize(it.Description),
		PubDate:     it.PubDate,
	}

	if it.GUID != nil {
		item.GUID = strings.TrimSpace(it.GUID.Value)
	}
	if item.GUID != "" {
		item.ID = item.GUID
	} else {
		item.ID = fmt.Sprintf("episode-%d", index+1)
	}

	if it.ITunesExt != nil {
		item.Duration = it.ITunesExt.Duration
	}
	if it.Enclosure != nil {
		item.EnclosureURL = it.Enclosure.URL
	}

	if podcast, ok := it.Extensions["podcast"]; ok {
		if chaptersNode := firstExt(podcast["chapters"]); chaptersNode != nil {
			item.ChaptersURL = chaptersNode.Attrs["url"]
		}
		item.HasTranscript = len(podcast["transcript"]) > 0

		if valueNode := firstExt(podcast["value"]); valueNode != nil {
			item.Value = value.ExtractValueBlock(valueNode)
			item.TimeSplits = value.ExtractTimeSplits(valueNode)
		}
	}

	return item
}

// adaptAtom はgofeedのAtomフィードを正準モデルに変換する。
func (p *Parser) adaptAtom(f *atom.Feed) *model.Feed {
	atomFeed := model.AtomFeed{
		ID:       f.ID,
		Title:    f.Title,
		Subtitle: f.Subtitle,
		Updated:  f.Updated,
		Link:     atomLink(f.Links),
		Entries:  []model.Entry{},
	}

	for i, e := range f.Entries {
		if e == nil {
			continue
		}
		entry := model.Entry{
			ID:      e.ID,
			Title:   e.Title,
			Updated: e.Updated,
			Link:    atomLink(e.Links),
			Summary: p.sanitizer.Sanitize(e.Summary),
		}
		if entry.ID == "" {
			entry.ID = fmt.Sprintf("episode-%d", i+1)
		}
		atomFeed.Entries = append(atomFeed.Entries, entry)
	}

	return &model.Feed{
		Type: model.FeedTypeAtom,
		Atom: &atomFeed,
	}
}

// atomLink はAtomのリンク一覧から代表リンクを選ぶ。
// rel=selfのリンクを優先し、なければ先頭のリンクを返す。
func atomLink(links []*atom.Link) string {
	var first string
	for _, l := range links {
		if l == nil {
			continue
		}
		if l.Rel == "self" {
			return l.Href
		}
		if first == "" {
			first = l.Href
		}
	}
	return first
}

// buildMetadata は正準モデルからメタデータを抽出する。
func buildMetadata(feed *model.Feed, namespaces []string) model.FeedMetadata {
	md := model.FeedMetadata{}
	for _, ns := range namespaces {
		switch ns {
		case "podcast":
			md.HasPodcasting20 = true
		case "itunes":
			md.HasITunes = true
		case "googleplay":
			md.HasGooglePlay = true
		}
	}

	switch feed.Type {
	case model.FeedTypeRSS:
		ch := feed.RSS.Channel
		md.Title = ch.Title
		md.Description = ch.Description
		md.Link = ch.Link
		md.Language = ch.Language
		md.LastUpdated = ch.LastUpdated
		md.ItemCount = len(ch.Items)
	case model.FeedTypeAtom:
		a := feed.Atom
		md.Title = a.Title
		md.Description = a.Subtitle
		md.Link = a.Link
		md.LastUpdated = a.Updated
		md.ItemCount = len(a.Entries)
	}

	return md
}

// firstExt は拡張ノードのスライスから先頭要素を返す。
func firstExt(nodes []ext.Extension) *ext.Extension {
	if len(nodes) == 0 {
		return nil
	}
	return &nodes[0]
}

// firstNonEmpty は最初の空でない文字列を返す。
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
