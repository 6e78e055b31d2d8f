package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// session
	"session.started": {},
	"session.won":     {},
	"session.lost":    {},
	"session.aborted": {},
	"session.expired": {},

	// module
	"module.generated":  {},
	"module.progressed": {},
	"module.solved":     {},
	"module.strike":     {},

	// timer
	"timer.started": {},
	"timer.expired": {},

	// settlement
	"settlement.reported": {},
	"settlement.failed":   {},

	// panel
	"panel.connected":    {},
	"panel.disconnected": {},
	"panel.action":       {},
	"panel.error":        {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
