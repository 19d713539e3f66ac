package app

import (
	"time"

	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// StatsLoadedMsg carries a fresh snapshot read from the stats file.
type StatsLoadedMsg struct {
	Stats      *models.StatsCache
	Err        error
	Title      string
	Summary    models.MonthSummary
	Projection *models.MonthProjection
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "stats"
}

// ManualRefreshDoneMsg is sent once a user-requested refresh cycle finished.
type ManualRefreshDoneMsg struct {
	Title string
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
