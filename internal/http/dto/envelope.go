package dto

// Envelope is the body of every response. Callers must check Success; handled failures are
// returned with HTTP 200.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func Fail(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

func InternalError(err string) Envelope {
	return Envelope{Success: false, Message: "Internal server error", Error: err}
}
