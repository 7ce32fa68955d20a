package model

type PopupType string

const (
	PopupHidden  PopupType = "hidden"
	PopupSuccess PopupType = "success"
	PopupError   PopupType = "error"
)

// FailureMessage is shown whenever the status update or notification write fails.
const FailureMessage = "Failed to update appointment."

type Popup struct {
	Type    PopupType `json:"type"`
	Message string    `json:"message"`
}

func HiddenPopup() Popup { return Popup{Type: PopupHidden} }

func SuccessPopup(msg string) Popup { return Popup{Type: PopupSuccess, Message: msg} }

func ErrorPopup(msg string) Popup { return Popup{Type: PopupError, Message: msg} }
