package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeAppender struct {
	stream string
	values map[string]interface{}
	err    error
}

func (a *fakeAppender) XAdd(_ context.Context, stream string, values map[string]interface{}) error {
	a.stream = stream
	a.values = values
	return a.err
}

func TestStreamPublisher(t *testing.T) {
	appender := &fakeAppender{}
	p := NewStreamPublisher(appender, "shift.created", zap.NewNop())

	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	p.PublishShiftCreated(context.Background(), ShiftCreatedEvent{
		Key:       "Department:DEVOPS:acc1:zhang@example.com",
		Email:     "zhang@example.com",
		Timestamp: ts,
		Entry:     `{"accountId":"acc1"}`,
	})

	if appender.stream != "shift.created" {
		t.Errorf("流名称不符: %s", appender.stream)
	}
	if appender.values["event"] != EventShiftCreated {
		t.Errorf("事件名不符: %v", appender.values["event"])
	}
	if appender.values["key"] != "zhang@example.com" {
		t.Errorf("分区键应为邮箱: %v", appender.values["key"])
	}
	if appender.values["timestamp"] != ts.UnixMilli() {
		t.Errorf("时间戳不符: %v", appender.values["timestamp"])
	}
}

func TestStreamPublisherSwallowsFailure(t *testing.T) {
	appender := &fakeAppender{err: errors.New("连接中断")}
	p := NewStreamPublisher(appender, "shift.created", zap.NewNop())

	// 发布失败只记录日志,不得 panic 或反向传播
	p.PublishShiftCreated(context.Background(), ShiftCreatedEvent{Key: "k", Email: "e"})
}
