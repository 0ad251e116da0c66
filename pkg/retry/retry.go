package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy 可配置的连接重试策略
// 取代散落各服务的手写固定间隔重连循环：次数、退避、抖动集中在一处，
// Sleep 可注入以便测试时不真实等待
type Policy struct {
	MaxAttempts int                        // 最大尝试次数（含首次）
	Backoff     func(attempt int) time.Duration // 第 attempt 次失败后的等待时长（attempt 从 1 开始）
	Jitter      time.Duration              // 叠加在退避上的随机抖动上限
	Sleep       func(d time.Duration)      // 为空时使用 time.Sleep
}

// ConstantBackoff 固定间隔退避
func ConstantBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff 指数退避，base * 2^(attempt-1)，封顶 max
func ExponentialBackoff(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base << (attempt - 1)
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

// Do 按策略执行 fn，直到成功、尝试耗尽或 ctx 取消
func (p Policy) Do(ctx context.Context, name string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := time.Duration(0)
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if p.Jitter > 0 {
			wait += time.Duration(rand.Int63n(int64(p.Jitter)))
		}
		if wait > 0 {
			sleep(wait)
		}
	}

	return fmt.Errorf("%s 重试 %d 次后仍失败: %w", name, attempts, lastErr)
}
