package errors

// Canonical failure messages rendered in the error envelope.
const (
	MsgBadRequest    = "Bad Request"
	MsgNotFound      = "Not Found"
	MsgUnprocessable = "Unprocessable Entity"
	MsgInternalError = "Error in API"
)
