// Package value はPodcasting 2.0のvalue-for-value支払いメタデータの
// 抽出とチャプターへの割り当てを提供する。
package value

import (
	"strconv"

	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/hitoshi/podcheck/internal/model"
)

const (
	// defaultValueType はtype属性省略時の支払い種別。
	defaultValueType = "lightning"
	// defaultValueMethod はmethod属性省略時の支払い方式。
	defaultValueMethod = "keysend"
	// defaultRecipientType はvalueRecipientのtype属性省略時の値。
	defaultRecipientType = "node"
)

// ExtractValueBlock はpodcast:value拡張ノードからValueBlockを抽出する。
// nodeがnilの場合はnilを返す。type/methodは省略時にlightning/keysendとなる。
// 受取人が存在しない場合も空のRecipientsを持つブロックを返す。
func ExtractValueBlock(node *ext.Extension) *model.ValueBlock {
	if node == nil {
		return nil
	}

	block := &model.ValueBlock{
		Type:       attrOr(node.Attrs, "type", defaultValueType),
		Method:     attrOr(node.Attrs, "method", defaultValueMethod),
		Suggested:  node.Attrs["suggested"],
		Recipients: []model.ValueRecipient{},
	}

	for _, r := range node.Children["valueRecipient"] {
		block.Recipients = append(block.Recipients, extractRecipient(r))
	}

	return block
}

// ExtractTimeSplits はpodcast:value拡張ノードからvalueTimeSplit子要素を抽出する。
// valueTimeSplit子要素が存在しない場合は空スライスを返す。
// 個々のスプリットのパース失敗はそのスプリットの除外にとどめ、決して失敗しない。
func ExtractTimeSplits(node *ext.Extension) []model.ValueTimeSplit {
	if node == nil {
		return nil
	}

	raw := node.Children["valueTimeSplit"]
	splits := make([]model.ValueTimeSplit, 0, len(raw))

	for _, ts := range raw {
		split := model.ValueTimeSplit{
			StartTime:        floatOr(ts.Attrs["startTime"], 0),
			Duration:         floatOr(ts.Attrs["duration"], 0),
			RemotePercentage: floatOr(ts.Attrs["remotePercentage"], 0),
		}

		if remotes := ts.Children["remoteItem"]; len(remotes) > 0 {
			split.RemoteItem = &model.RemoteItem{
				FeedGUID: remotes[0].Attrs["feedGuid"],
				ItemGUID: remotes[0].Attrs["itemGuid"],
			}
		}

		for _, r := range ts.Children["valueRecipient"] {
			split.ValueRecipients = append(split.ValueRecipients, extractRecipient(r))
		}

		splits = append(splits, split)
	}

	return splits
}

// HasValueRecipients はエピソードがpodcast:value要素を持つかを返す。
// 受取人リストが空でもvalue要素が存在すればtrueとなる。
func HasValueRecipients(item *model.Item) bool {
	return item != nil && item.Value != nil
}

// extractRecipient はvalueRecipientノードを受取人モデルに変換する。
// name/addressは省略時に空文字列、typeはnode、splitは0となる。
// feeフラグはリテラル文字列 "true" のみを真として解釈する。
func extractRecipient(node ext.Extension) model.ValueRecipient {
	return model.ValueRecipient{
		Name:        node.Attrs["name"],
		Type:        attrOr(node.Attrs, "type", defaultRecipientType),
		Address:     node.Attrs["address"],
		Split:       floatOr(node.Attrs["split"], 0),
		Fee:         node.Attrs["fee"] == "true",
		CustomKey:   node.Attrs["customKey"],
		CustomValue: node.Attrs["customValue"],
	}
}

// attrOr は属性値が空の場合にデフォルト値を返す。
func attrOr(attrs map[string]string, key, def string) string {
	if v := attrs[key]; v != "" {
		return v
	}
	return def
}

// floatOr は文字列をfloat64として解釈し、失敗時はデフォルト値を返す。
func floatOr(s string, def float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
