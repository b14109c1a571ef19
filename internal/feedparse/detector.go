package feedparse

import (
	"bytes"
	"mime"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/hitoshi/podcheck/internal/model"
)

// FeedCandidate はHTMLページから自動検出されたフィード候補を表す。
// ユーザーがフィードURLの代わりにサイトのページURLを指定した場合に使用する。
type FeedCandidate struct {
	URL      string         `json:"url"`
	FeedType model.FeedType `json:"feedType"`
	Title    string         `json:"title,omitempty"`
}

// IsHTMLContent はレスポンスがHTMLページかどうかを判定する。
// Content-Typeがtext/htmlであるか、ボディ先頭が<html/<!doctypeで始まる場合に真。
func IsHTMLContent(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	if strings.ToLower(mediaType) == "text/html" {
		return true
	}

	// 先頭1KBで判定（XMLプロローグやBOMの後にルート要素が現れる）
	checkSize := 1024
	if len(body) < checkSize {
		checkSize = len(body)
	}
	prefix := strings.ToLower(string(bytes.TrimSpace(body[:checkSize])))
	return strings.HasPrefix(prefix, "<!doctype html") || strings.HasPrefix(prefix, "<html")
}

// FindFeedLinks はHTMLのhead内の<link rel="alternate">から
// RSS/Atomフィード候補を検出する。相対URLはbaseURLを基準に解決する。
// ドキュメント内の出現順を保持して返す。
func FindFeedLinks(htmlBody []byte, baseURL string) []FeedCandidate {
	var candidates []FeedCandidate

	baseU, err := url.Parse(baseURL)
	if err != nil {
		return candidates
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return candidates

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			// bodyに入ったら探索を打ち切る
			if tagName == "body" {
				return candidates
			}
			if tagName != "link" || !hasAttr {
				continue
			}

			var rel, linkType, href, title string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "type":
					linkType = strings.ToLower(string(val))
				case "href":
					href = string(val)
				case "title":
					title = string(val)
				}
				if !more {
					break
				}
			}

			if rel != "alternate" || href == "" {
				continue
			}

			var feedType model.FeedType
			switch linkType {
			case "application/rss+xml":
				feedType = model.FeedTypeRSS
			case "application/atom+xml":
				feedType = model.FeedTypeAtom
			default:
				continue
			}

			ref, err := url.Parse(href)
			if err != nil {
				continue
			}

			candidates = append(candidates, FeedCandidate{
				URL:      baseU.ResolveReference(ref).String(),
				FeedType: feedType,
				Title:    title,
			})
		}
	}
}
