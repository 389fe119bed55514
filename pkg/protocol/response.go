package protocol

import "strings"

// Device to operator replies.
const (
	RespAuthOK           = "AUTH_OK"
	RespAuthFail         = "AUTH_FAIL"
	RespNotAuthenticated = "NOT_AUTHENTICATED"
	RespPong             = "PONG"
	RespOK               = "OK"
	RespUnknownCommand   = "UNKNOWN_COMMAND"
	RespStopped          = "STOPPED"
	RespSafetyStop       = "SAFETY_STOP"

	errorPrefix = "ERROR: "
)

// ErrorResponse formats an "ERROR: <reason>" reply.
func ErrorResponse(reason string) string {
	return errorPrefix + reason
}

// IsErrorResponse reports whether reply is an ERROR reply and returns its reason.
func IsErrorResponse(reply string) (string, bool) {
	if !strings.HasPrefix(reply, errorPrefix) {
		return "", false
	}
	return strings.TrimPrefix(reply, errorPrefix), true
}
