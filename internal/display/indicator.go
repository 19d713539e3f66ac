package display

import "sync"

// Indicator holds the status indicator title and the list of listeners
// interested in refresh notifications.
type Indicator struct {
	mu          sync.RWMutex
	title       string
	subscribers []chan string
	closed      bool
}

// NewIndicator creates an Indicator showing DefaultTitle.
func NewIndicator() *Indicator {
	return &Indicator{title: DefaultTitle}
}

// Title returns the current indicator text.
func (i *Indicator) Title() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.title
}

// SetIndicatorText replaces the indicator text.
func (i *Indicator) SetIndicatorText(text string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.title = text
	return nil
}

// NotifyRefresh broadcasts EventStatsUpdated. Listeners whose buffer is full
// miss the event.
func (i *Indicator) NotifyRefresh() {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for _, sub := range i.subscribers {
		select {
		case sub <- EventStatsUpdated:
		default:
		}
	}
}

// Subscribe returns a channel receiving event names. The channel is closed
// by Unsubscribe or Close.
func (i *Indicator) Subscribe() <-chan string {
	ch := make(chan string, 16)

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		close(ch)
		return ch
	}
	i.subscribers = append(i.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (i *Indicator) Unsubscribe(ch <-chan string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for idx, sub := range i.subscribers {
		if sub == ch {
			i.subscribers = append(i.subscribers[:idx], i.subscribers[idx+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes all subscriber channels.
func (i *Indicator) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return
	}
	i.closed = true

	for _, sub := range i.subscribers {
		close(sub)
	}
	i.subscribers = nil
}
