package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EventShiftCreated 派单条目建立事件名。
const EventShiftCreated = "SHIFT_CREATED"

// ShiftCreatedEvent 派单条目建立时发布的事件体。
type ShiftCreatedEvent struct {
	Key       string    // 建立的缓存键
	Email     string    // 成员邮箱,用作消息分区键
	Timestamp time.Time // 建立时间
	Entry     string    // 条目 JSON 快照
}

// Publisher 变更事件发布接口。实现必须自行消化失败:
// 事件属旁路通知,不得反向影响缓存写入。
type Publisher interface {
	PublishShiftCreated(ctx context.Context, event ShiftCreatedEvent)
}

// StreamAppender Redis Stream 追加原语,由 pkg/redis 客户端实现。
type StreamAppender interface {
	XAdd(ctx context.Context, stream string, values map[string]interface{}) error
}

// streamPublisher 基于 Redis Stream 的发布实现。
type streamPublisher struct {
	appender StreamAppender
	stream   string
	logger   *zap.Logger
}

// NewStreamPublisher 创建 Redis Stream 发布器。
func NewStreamPublisher(appender StreamAppender, stream string, logger *zap.Logger) Publisher {
	return &streamPublisher{appender: appender, stream: stream, logger: logger}
}

func (p *streamPublisher) PublishShiftCreated(ctx context.Context, event ShiftCreatedEvent) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := p.appender.XAdd(ctx, p.stream, map[string]interface{}{
		"event":     EventShiftCreated,
		"timestamp": event.Timestamp.UnixMilli(),
		"key":       event.Email,
		"data":      event.Entry,
	})
	if err != nil {
		p.logger.Warn("发布派单建立事件失败",
			zap.String("stream", p.stream),
			zap.String("cache_key", event.Key),
			zap.Error(err))
		return
	}
	p.logger.Debug("派单建立事件已发布",
		zap.String("stream", p.stream),
		zap.String("cache_key", event.Key))
}

// nopPublisher 事件开关关闭时使用的空实现。
type nopPublisher struct{}

// NewNopPublisher 创建不发布任何事件的实现。
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishShiftCreated(context.Context, ShiftCreatedEvent) {}
