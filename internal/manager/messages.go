package manager

// User-visible messages.
const (
	MsgNoSettings    = "No settings available to display."
	MsgSelectSetting = "Select the setting you want to update"
	MsgActiveFormat  = "Active: %s"
	MsgNoMatch       = "Selected value does not match any defined option"
	MsgCurrent       = "Currently selected"
	MsgUpdatedFormat = "%s: %s"
)

// Outcome reports how a selection flow ended.
type Outcome uint8

const (
	// OutcomeNoDefinitions means there was nothing to show.
	OutcomeNoDefinitions Outcome = iota
	// OutcomeCancelled means the user dismissed one of the lists.
	OutcomeCancelled
	// OutcomeUnchanged means the chosen option was already in effect.
	OutcomeUnchanged
	// OutcomeUpdated means the setting was written.
	OutcomeUpdated
	// OutcomeFailed means the UI or the store failed.
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNoDefinitions:
		return "no-definitions"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeUpdated:
		return "updated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
