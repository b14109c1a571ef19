package value

import (
	"testing"

	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/hitoshi/podcheck/internal/model"
)

// valueNode はテスト用のpodcast:value拡張ノードを構築する。
func valueNode(attrs map[string]string, children map[string][]ext.Extension) *ext.Extension {
	if attrs == nil {
		attrs = map[string]string{}
	}
	if children == nil {
		children = map[string][]ext.Extension{}
	}
	return &ext.Extension{
		Name:     "value",
		Attrs:    attrs,
		Children: children,
	}
}

func recipientNode(attrs map[string]string) ext.Extension {
	return ext.Extension{
		Name:     "valueRecipient",
		Attrs:    attrs,
		Children: map[string][]ext.Extension{},
	}
}

func TestExtractValueBlock_Nil(t *testing.T) {
	if got := ExtractValueBlock(nil); got != nil {
		t.Errorf("nilノードはnilを返すべき, got %+v", got)
	}
}

func TestExtractValueBlock_TwoRecipients(t *testing.T) {
	node := valueNode(
		map[string]string{"type": "lightning", "method": "keysend"},
		map[string][]ext.Extension{
			"valueRecipient": {
				recipientNode(map[string]string{"name": "Alice", "address": "02ab", "split": "60"}),
				recipientNode(map[string]string{"name": "Bob", "address": "02cd", "split": "40"}),
			},
		},
	)

	block := ExtractValueBlock(node)
	if block == nil {
		t.Fatal("ValueBlockがnil")
	}
	if block.Type != "lightning" || block.Method != "keysend" {
		t.Errorf("type/method = %s/%s, want lightning/keysend", block.Type, block.Method)
	}
	if len(block.Recipients) != 2 {
		t.Fatalf("受取人数 = %d, want 2", len(block.Recipients))
	}
	if block.Recipients[0].Name != "Alice" || block.Recipients[0].Split != 60 {
		t.Errorf("受取人1 = %+v, want Alice/60", block.Recipients[0])
	}
	if block.Recipients[1].Name != "Bob" || block.Recipients[1].Split != 40 {
		t.Errorf("受取人2 = %+v, want Bob/40", block.Recipients[1])
	}
}

func TestExtractValueBlock_DefaultTypeAndMethod(t *testing.T) {
	block := ExtractValueBlock(valueNode(nil, nil))
	if block.Type != "lightning" {
		t.Errorf("type省略時 = %q, want \"lightning\"", block.Type)
	}
	if block.Method != "keysend" {
		t.Errorf("method省略時 = %q, want \"keysend\"", block.Method)
	}
	if block.Recipients == nil || len(block.Recipients) != 0 {
		t.Errorf("受取人なしの場合は空スライスを返すべき, got %+v", block.Recipients)
	}
}

func TestExtractValueBlock_RecipientDefaults(t *testing.T) {
	node := valueNode(nil, map[string][]ext.Extension{
		"valueRecipient": {
			recipientNode(map[string]string{"split": "not-a-number"}),
		},
	})

	block := ExtractValueBlock(node)
	r := block.Recipients[0]
	if r.Name != "" {
		t.Errorf("name省略時 = %q, want \"\"", r.Name)
	}
	if r.Type != "node" {
		t.Errorf("type省略時 = %q, want \"node\"", r.Type)
	}
	if r.Split != 0 {
		t.Errorf("split不正値 = %v, want 0", r.Split)
	}
}

func TestExtractTimeSplits_Empty(t *testing.T) {
	splits := ExtractTimeSplits(valueNode(nil, nil))
	if len(splits) != 0 {
		t.Errorf("valueTimeSplitなしの場合は空リスト, got %d件", len(splits))
	}
}

func TestExtractTimeSplits_RemoteItem(t *testing.T) {
	node := valueNode(nil, map[string][]ext.Extension{
		"valueTimeSplit": {
			{
				Name: "valueTimeSplit",
				Attrs: map[string]string{
					"startTime":        "60",
					"duration":         "90",
					"remotePercentage": "30",
				},
				Children: map[string][]ext.Extension{
					"remoteItem": {
						{
							Name:  "remoteItem",
							Attrs: map[string]string{"feedGuid": "abc-123", "itemGuid": "item-9"},
						},
					},
				},
			},
		},
	})

	splits := ExtractTimeSplits(node)
	if len(splits) != 1 {
		t.Fatalf("スプリット数 = %d, want 1", len(splits))
	}
	s := splits[0]
	if s.StartTime != 60 || s.Duration != 90 || s.RemotePercentage != 30 {
		t.Errorf("属性 = %+v, want startTime=60 duration=90 remotePercentage=30", s)
	}
	if s.RemoteItem == nil || s.RemoteItem.FeedGUID != "abc-123" || s.RemoteItem.ItemGUID != "item-9" {
		t.Errorf("remoteItem = %+v, want feedGuid=abc-123 itemGuid=item-9", s.RemoteItem)
	}
}

func TestExtractTimeSplits_InlineRecipientsWithFee(t *testing.T) {
	node := valueNode(nil, map[string][]ext.Extension{
		"valueTimeSplit": {
			{
				Name:  "valueTimeSplit",
				Attrs: map[string]string{"startTime": "0", "duration": "120"},
				Children: map[string][]ext.Extension{
					"valueRecipient": {
						recipientNode(map[string]string{"name": "Carol", "split": "95", "fee": "false"}),
						recipientNode(map[string]string{"name": "Service", "split": "5", "fee": "true"}),
					},
				},
			},
		},
	})

	splits := ExtractTimeSplits(node)
	if len(splits) != 1 {
		t.Fatalf("スプリット数 = %d, want 1", len(splits))
	}
	rs := splits[0].ValueRecipients
	if len(rs) != 2 {
		t.Fatalf("インライン受取人数 = %d, want 2", len(rs))
	}
	if rs[0].Fee {
		t.Errorf("fee=\"false\" はfalseとして解釈されるべき")
	}
	if !rs[1].Fee {
		t.Errorf("fee=\"true\" はtrueとして解釈されるべき")
	}
}

func TestExtractTimeSplits_InvalidNumbersDefaultToZero(t *testing.T) {
	node := valueNode(nil, map[string][]ext.Extension{
		"valueTimeSplit": {
			{
				Name:     "valueTimeSplit",
				Attrs:    map[string]string{"startTime": "xx", "remotePercentage": ""},
				Children: map[string][]ext.Extension{},
			},
		},
	})

	splits := ExtractTimeSplits(node)
	if len(splits) != 1 {
		t.Fatalf("スプリット数 = %d, want 1", len(splits))
	}
	if splits[0].StartTime != 0 || splits[0].RemotePercentage != 0 || splits[0].Duration != 0 {
		t.Errorf("不正な数値は0にデフォルトされるべき, got %+v", splits[0])
	}
}

func TestHasValueRecipients(t *testing.T) {
	withValue := &model.Item{Value: &model.ValueBlock{}}
	if !HasValueRecipients(withValue) {
		t.Error("value要素を持つエピソードはtrueを返すべき")
	}
	if HasValueRecipients(&model.Item{}) {
		t.Error("value要素を持たないエピソードはfalseを返すべき")
	}
	if HasValueRecipients(nil) {
		t.Error("nilエピソードはfalseを返すべき")
	}
}
