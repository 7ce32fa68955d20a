package handler

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope of every JSON body the API writes.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: StatusSuccess,
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  StatusError,
		Message: message,
	}
}

// NewFailureResponse is an error that still carries a payload, e.g. the
// result of an action that failed part way.
func NewFailureResponse(message string, data interface{}) *Response {
	return &Response{
		Status:  StatusError,
		Message: message,
		Data:    data,
	}
}
