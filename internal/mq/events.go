package mq

import (
	"time"
)

// 事件类型，同时用作 topic 交换机的路由键
const (
	EventArticleCreated = "article.created"
	EventArticleUpdated = "article.updated"
	EventArticleDeleted = "article.deleted"
	EventCommentCreated = "comment.created"
	EventCommentDeleted = "comment.deleted"
	EventUserRegistered = "user.registered"
)

// Event 领域事件
type Event struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Payload     interface{} `json:"payload,omitempty"`
}

// NewEvent 创建事件，ID 由发布者在发送时补齐
func NewEvent(eventType, aggregateID string, payload interface{}) Event {
	return Event{
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}
