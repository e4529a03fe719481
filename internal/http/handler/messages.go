package handler

const (
	jsonKeyError   = "error"
	jsonKeyMessage = "message"

	paramID = "id"

	msgContentTypeJSONRequired = "Content-Type must be application/json"
	msgInvalidRequestBody      = "invalid request body"
	msgInvalidUserID           = "invalid user id"
	msgPasswordProcessFail     = "failed to process password"
	msgUserDeleted             = "user deleted"
)
