package core

import (
	"context"
)

// View is the interface that all UI implementations must satisfy
type View interface {
	// Initialize sets up the view
	Initialize(presenter Presenter) error

	// Run starts the view's main loop (blocking)
	Run(ctx context.Context) error

	// Stop gracefully stops the view
	Stop() error

	// UpdateState updates the view with new state
	UpdateState(update StateUpdate)

	// ShowNotification displays a notification
	ShowNotification(notification *Notification)

	// GetCurrentView returns the current active view type
	GetCurrentView() ViewModelType
}

// Presenter handles the business logic and prepares view models.
// It is the bridge between the domain stores and the views.
type Presenter interface {
	// Initialize sets up the presenter and opens the event stream
	Initialize(ctx context.Context) error

	// HandleEvent processes a user event
	HandleEvent(event *Event) error

	// GetViewModel returns the current view model for a view type
	GetViewModel(viewType ViewModelType) (ViewModel, error)

	// Subscribe registers a callback for state updates
	Subscribe(callback func(StateUpdate))

	// SubscribeNotifications registers a callback for notifications
	SubscribeNotifications(callback func(*Notification))

	// Refresh forces a rebuild of all view models
	Refresh() error

	// Shutdown cleans up resources
	Shutdown() error
}

// ViewFactory creates views of different types
type ViewFactory interface {
	// CreateView creates a view of the specified type
	CreateView(viewType string, presenter Presenter) (View, error)

	// AvailableTypes returns the list of available view types
	AvailableTypes() []string
}
