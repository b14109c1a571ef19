// Package fetch はフィード・チャプターファイル取得のHTTPトランスポート層を提供する。
// 直接フェッチとCORSリレー経由のフォールバックチェーン、および
// ディレクトリAPIクライアントと共有する再試行ポリシーを含む。
package fetch

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// ProxyTransport は1つのCORSリレーのURL構築規約とレスポンス形式を表す。
type ProxyTransport struct {
	// Name はログ・メトリクスで使用するリレーの識別名。
	Name string
	// BuildURL は対象URLからリレー経由のリクエストURLを構築する。
	BuildURL func(target string) string
	// Unwrap はリレーのレスポンスボディから元のコンテンツを取り出す。
	// 素のボディをそのまま返すリレーではnil。
	Unwrap func(body []byte) ([]byte, error)
}

// alloriginsEnvelope はallorigins.winのJSONエンベロープ。
type alloriginsEnvelope struct {
	Contents string `json:"contents"`
}

// unwrapAllorigins はalloriginsのJSONエンベロープからコンテンツを取り出す。
func unwrapAllorigins(body []byte) ([]byte, error) {
	var envelope alloriginsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("alloriginsエンベロープのパースに失敗しました: %w", err)
	}
	if envelope.Contents == "" {
		return nil, fmt.Errorf("alloriginsエンベロープにコンテンツがありません")
	}
	return []byte(envelope.Contents), nil
}

// DefaultProxyChain は公開CORSリレーの既定チェーンを優先順で返す。
// クエリパラメータでラップするリレーは対象URLをエンコードし、
// パス前置のリレーはそのまま連結する。
func DefaultProxyChain() []ProxyTransport {
	return []ProxyTransport{
		{
			Name: "corsproxy.io",
			BuildURL: func(target string) string {
				return "https://corsproxy.io/?" + url.QueryEscape(target)
			},
		},
		{
			Name: "codetabs.com",
			BuildURL: func(target string) string {
				return "https://api.codetabs.com/v1/proxy?quest=" + url.QueryEscape(target)
			},
		},
		{
			Name: "cors.sh",
			BuildURL: func(target string) string {
				return "https://proxy.cors.sh/" + target
			},
		},
		{
			Name: "thingproxy.freeboard.io",
			BuildURL: func(target string) string {
				return "https://thingproxy.freeboard.io/fetch/" + target
			},
		},
		{
			Name: "allorigins.win",
			BuildURL: func(target string) string {
				return "https://api.allorigins.win/get?url=" + url.QueryEscape(target)
			},
			Unwrap: unwrapAllorigins,
		},
	}
}
