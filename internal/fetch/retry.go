package fetch

import (
	"context"
	"fmt"
	"time"
)

// StatusClass はHTTPステータスコードの再試行分類。
type StatusClass int

const (
	// StatusOK は成功（2xx）。
	StatusOK StatusClass = iota
	// StatusRetryable は再試行可能なステータス（429/5xx）。
	StatusRetryable
	// StatusFatal は再試行しないステータス（401/404を含む429以外の4xx）。
	StatusFatal
)

// ClassifyHTTPStatus はHTTPステータスコードを再試行分類に変換する。
func ClassifyHTTPStatus(statusCode int) StatusClass {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return StatusOK
	case statusCode == 429:
		return StatusRetryable
	case statusCode >= 500:
		return StatusRetryable
	default:
		return StatusFatal
	}
}

// StatusError は再試行されずに打ち切られたHTTPステータスを表す。
// 呼び出し元は401/404等をコードで判別できる。
type StatusError struct {
	Code int
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPステータス %d", e.Code)
}

// RetryPolicy は指数バックオフ付きの再試行ポリシー。
// ディレクトリAPIクライアントとリモートフィードフェッチの両方で共有する。
type RetryPolicy struct {
	// MaxAttempts は初回を含む最大試行回数。
	MaxAttempts int
	// BaseDelay は初回再試行までの遅延。
	BaseDelay time.Duration
	// Multiplier は遅延の増加倍率。
	Multiplier float64
}

// DefaultRetryPolicy は既定の再試行ポリシーを返す。
// 最大3回、初回500ms、2倍ずつ増加。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2,
	}
}

// Delay はn回目（0始まり）の再試行前の遅延を計算する。
func (p RetryPolicy) Delay(retry int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < retry; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return delay
}

// Do はfnを再試行ポリシーに従って実行する。
// fnはHTTPステータスコード（トランスポートエラー時は0）とエラーを返す。
// トランスポートエラーと429/5xxは上限まで再試行し、
// 401/404を含むその他の4xxは即座に*StatusErrorとして返す。
// コンテキストのキャンセルは遅延待機を中断する。
func (p RetryPolicy) Do(ctx context.Context, fn func() (int, error)) error {
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay(attempt - 1)):
			}
		}

		status, err := fn()
		if err != nil {
			lastErr = err
			continue
		}

		switch ClassifyHTTPStatus(status) {
		case StatusOK:
			return nil
		case StatusFatal:
			return &StatusError{Code: status}
		case StatusRetryable:
			lastErr = &StatusError{Code: status}
		}
	}

	return lastErr
}
