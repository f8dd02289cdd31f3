package holiday

// ExtensionData is the unit handed to the host for display
type ExtensionData struct {
	Visible       bool    `json:"visible"`
	Status        *string `json:"status"`
	ExpandedTitle *string `json:"expanded_title"`
	ExpandedBody  *string `json:"expanded_body"`
	Icon          string  `json:"icon,omitempty"`
	ClickTarget   string  `json:"click_target,omitempty"`
}

// Publication wraps a result for display. Visibility is derived from the result.
func Publication(r Result, icon string) ExtensionData {
	return ExtensionData{
		Visible:       r.Visible(),
		Status:        r.Status,
		ExpandedTitle: r.ExpandedTitle,
		ExpandedBody:  r.ExpandedBody,
		Icon:          icon,
	}
}

// Unpublished hides the extension
func Unpublished() ExtensionData {
	return ExtensionData{Visible: false}
}

// NotConfigured is the call to action shown while no calendar is selected
func NotConfigured(message, icon, clickTarget string) ExtensionData {
	return ExtensionData{
		Visible:     true,
		Status:      StringPtr(message),
		Icon:        icon,
		ClickTarget: clickTarget,
	}
}

// Result extracts the three text fields
func (d ExtensionData) Result() Result {
	return Result{Status: d.Status, ExpandedTitle: d.ExpandedTitle, ExpandedBody: d.ExpandedBody}
}
