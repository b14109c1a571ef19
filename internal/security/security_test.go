package security

import (
	"strings"
	"testing"
)

func TestValidateURL_AllowedURLs(t *testing.T) {
	guard := NewSSRFGuard()

	allowed := []string{
		"https://example.com/feed.xml",
		"http://podcast.example.org/rss",
		"https://feeds.rssblue.com/thats-the-spirit",
		"https://8.8.8.8/feed.xml",
	}
	for _, rawURL := range allowed {
		if err := guard.ValidateURL(rawURL); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", rawURL, err)
		}
	}
}

func TestValidateURL_BlockedURLs(t *testing.T) {
	guard := NewSSRFGuard()

	blocked := []struct {
		rawURL string
		reason string
	}{
		{"", "空URL"},
		{"ftp://example.com/feed.xml", "非httpスキーム"},
		{"file:///etc/passwd", "fileスキーム"},
		{"javascript:alert(1)", "javascriptスキーム"},
		{"https://localhost/feed.xml", "localhost"},
		{"https://127.0.0.1/feed.xml", "ループバックIP"},
		{"https://10.0.0.5/feed.xml", "プライベートIP"},
		{"https://172.16.1.1/feed.xml", "プライベートIP"},
		{"https://192.168.1.1/feed.xml", "プライベートIP"},
		{"https://169.254.169.254/latest/meta-data/", "メタデータIP"},
		{"https://[::1]/feed.xml", "IPv6ループバック"},
		{"https://[fe80::1]/feed.xml", "IPv6リンクローカル"},
	}
	for _, tc := range blocked {
		if err := guard.ValidateURL(tc.rawURL); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error (%s)", tc.rawURL, tc.reason)
		}
	}
}

func TestSanitize_RemovesDangerousContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		deny  []string
	}{
		{
			name:  "scriptタグの除去",
			input: `<p>ok</p><script>alert('xss')</script>`,
			deny:  []string{"<script", "alert"},
		},
		{
			name:  "iframeタグの除去",
			input: `<p>ok</p><iframe src="https://evil.example"></iframe>`,
			deny:  []string{"<iframe"},
		},
		{
			name:  "on*イベント属性の除去",
			input: `<p onclick="alert(1)">ok</p>`,
			deny:  []string{"onclick"},
		},
		{
			name:  "httpスキームのimg srcの除去",
			input: `<img src="http://example.com/a.jpg" alt="a">`,
			deny:  []string{"http://example.com/a.jpg"},
		},
		{
			name:  "javascriptスキームのimg srcの除去",
			input: `<img src="javascript:alert(1)">`,
			deny:  []string{"javascript"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			output := sanitizer.Sanitize(tc.input)
			for _, denied := range tc.deny {
				if strings.Contains(output, denied) {
					t.Errorf("出力に %q が残っている: %q", denied, output)
				}
			}
		})
	}
}

func TestSanitize_PreservesAllowedContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p>Episode notes with <strong>bold</strong> and <em>emphasis</em>.</p><ul><li>item</li></ul>`
	output := sanitizer.Sanitize(input)
	for _, want := range []string{"<p>", "<strong>bold</strong>", "<em>emphasis</em>", "<li>item</li>"} {
		if !strings.Contains(output, want) {
			t.Errorf("許可タグ %q が保持されていない: %q", want, output)
		}
	}
}

func TestSanitize_LinkHardening(t *testing.T) {
	sanitizer := NewContentSanitizer()

	output := sanitizer.Sanitize(`<a href="https://example.com/episode">link</a>`)
	if !strings.Contains(output, `target="_blank"`) {
		t.Errorf("target=\"_blank\" が付与されていない: %q", output)
	}
	if !strings.Contains(output, "noopener") || !strings.Contains(output, "noreferrer") {
		t.Errorf("rel属性が付与されていない: %q", output)
	}
}

func TestSanitize_EmptyAndIdempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("空入力の出力 = %q, want \"\"", got)
	}

	input := `<p>ok <strong>bold</strong></p>`
	once := sanitizer.Sanitize(input)
	twice := sanitizer.Sanitize(once)
	if once != twice {
		t.Errorf("冪等でない: %q != %q", once, twice)
	}
}
