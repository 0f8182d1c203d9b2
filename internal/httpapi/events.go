package httpapi

import (
	"settingsd/internal/store"
	"settingsd/internal/watch"
	"settingsd/pkg/types"
)

// SettingsMark tags every event the store's transport dispatches into
// the watch registry.
const SettingsMark = "settings-event"

// fanout bridges store events to the watch registry and the websocket
// hub. Publish is called on the mutating goroutine and must stay
// non-blocking: registry dispatch is a bounded scan and hub broadcast
// drops on full subscriber buffers.
type fanout struct {
	reg *watch.Registry
	hub *EventHub
}

// Fanout returns an EventPublisher delivering store events to reg and
// hub; either may be nil.
func Fanout(reg *watch.Registry, hub *EventHub) store.EventPublisher {
	return fanout{reg: reg, hub: hub}
}

func (f fanout) Publish(e types.Event) {
	eventsPublishedTotal.WithLabelValues(e.Name).Inc()
	if f.reg != nil && f.reg.Dispatch(e.Path, e, SettingsMark) {
		watchersResolvedTotal.Inc()
	}
	if f.hub != nil {
		f.hub.Broadcast(e)
	}
}
