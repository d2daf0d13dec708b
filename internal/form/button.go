package form

import "fmt"

// ButtonState is the visual state of the fetch button.
type ButtonState int

const (
	Idle ButtonState = iota
	Loading
	Success
	Warning
	Error
)

func (s ButtonState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("ButtonState(%d)", int(s))
}

// Button labels.
const (
	LabelIdle              = "Magic"
	LabelSuccess           = "Success!"
	LabelError             = "Error!"
	LabelInvalidIdentifier = "Invalid Identifier!"
	LabelInvalidDOI        = "DOI Invalid!"
	LabelInventoryWarning  = "Warning!"
)

// Button tracks the fetch button and the error and warning containers next to it.
type Button struct {
	State ButtonState `json:"state"`
	Label string      `json:"label"`

	// ErrorVisible mirrors the error container below the button.
	ErrorVisible bool `json:"error_visible"`

	// WarningText is the inventory warning shown above the form, empty when hidden.
	WarningText string `json:"warning,omitempty"`
}

// NewButton returns an idle button.
func NewButton() *Button {
	return &Button{State: Idle, Label: LabelIdle}
}

// Start switches to the loading state and hides the inventory warning.
func (b *Button) Start() {
	b.State = Loading
	b.WarningText = ""
}

// Succeed marks a completed fetch. A warning set by the inventory check
// during the same fetch is kept.
func (b *Button) Succeed() {
	b.ErrorVisible = false
	if b.State == Warning {
		return
	}
	b.State = Success
	b.Label = LabelSuccess
}

// Warn shows a warning label. An empty message uses "Invalid Identifier!".
func (b *Button) Warn(message string) {
	if message == "" {
		message = LabelInvalidIdentifier
	}
	b.State = Warning
	b.Label = message
}

// InventoryWarning shows the "already in the inventory" message.
func (b *Button) InventoryWarning(text string) {
	if text == "" {
		b.WarningText = ""
		return
	}
	b.WarningText = text
	b.Warn(LabelInventoryWarning)
}

// Fail marks a failed fetch and reveals the error container.
func (b *Button) Fail() {
	b.State = Error
	b.Label = LabelError
	b.ErrorVisible = true
}
