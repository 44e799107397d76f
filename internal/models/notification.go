package models

// NotificationKind classifies in-app notifications.
type NotificationKind string

const (
	NotificationBudgetExceeded    NotificationKind = "BUDGET_EXCEEDED"
	NotificationRecurringExecuted NotificationKind = "RECURRING_EXECUTED"
	NotificationGoalCompleted     NotificationKind = "GOAL_COMPLETED"
)

// Notification is a persisted in-app alert for a user.
type Notification struct {
	Base
	UserID  uint             `gorm:"not null;index" json:"user_id"`
	Message string           `gorm:"not null" json:"message"`
	Kind    NotificationKind `gorm:"not null" json:"kind"`
	IsRead  bool             `gorm:"default:false" json:"is_read"`
}
