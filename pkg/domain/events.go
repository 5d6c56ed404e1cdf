package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFrameEnter EventType = "frame_enter"
	EventFrameLeave EventType = "frame_leave"
	EventSubmit     EventType = "submit"
	EventPromotion  EventType = "promotion"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// FrameEvent represents a push onto, or pop from, the navigation stack.
type FrameEvent struct {
	EventBase
	Component string `json:"component"`
	Depth     int    `json:"depth"`
}

// SubmitEvent represents a save action passing through the form bridge.
type SubmitEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Kind   Kind   `json:"kind"`
	Err    error  `json:"-"`
}

// PromotionOutcome values.
const (
	PromotionConfirmed = "confirmed"
	PromotionDeclined  = "declined"
	PromotionFailed    = "failed"
)

// PromotionEvent represents the end of a promotion attempt.
type PromotionEvent struct {
	EventBase
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
}

// LifecycleHooks defines callbacks for editor observability.
type LifecycleHooks struct {
	OnFrameEnter func(context.Context, *FrameEvent)
	OnFrameLeave func(context.Context, *FrameEvent)
	OnSubmit     func(context.Context, *SubmitEvent)
	OnPromotion  func(context.Context, *PromotionEvent)
}
