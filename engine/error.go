package engine

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

var ErrRegistry = errx.NewRegistry("ENGINE")

var (
	// Session errors
	CodeSessionNotFound = ErrRegistry.Register("SESSION_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Session not found")
	CodeSessionNotLive  = ErrRegistry.Register("SESSION_NOT_LIVE", errx.TypeBusiness, http.StatusConflict, "Session is no longer live")
	CodeSessionLocked   = ErrRegistry.Register("SESSION_LOCKED", errx.TypeConflict, http.StatusConflict, "Another message for this contact is being processed")

	// Matching errors
	CodeNoMatchingFlow = ErrRegistry.Register("NO_MATCHING_FLOW", errx.TypeBusiness, http.StatusNotFound, "No matching flow found")

	// Execution errors
	CodeNodeExecutionFailed = ErrRegistry.Register("NODE_EXECUTION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Node execution failed")
	CodeInvalidNodeConfig   = ErrRegistry.Register("INVALID_NODE_CONFIG", errx.TypeValidation, http.StatusBadRequest, "Invalid node configuration")
	CodeUnsupportedNodeType = ErrRegistry.Register("UNSUPPORTED_NODE_TYPE", errx.TypeInternal, http.StatusInternalServerError, "No handler for node type")
	CodeHopLimitExceeded    = ErrRegistry.Register("HOP_LIMIT_EXCEEDED", errx.TypeInternal, http.StatusInternalServerError, "Flow exceeded the hop limit")
	CodeGatewaySendFailed   = ErrRegistry.Register("GATEWAY_SEND_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to send outbound message")
	CodeAPICallFailed       = ErrRegistry.Register("API_CALL_FAILED", errx.TypeExternal, http.StatusBadGateway, "External API call failed")
)

// Error constructor functions
func ErrSessionNotFound() *errx.Error {
	return ErrRegistry.New(CodeSessionNotFound)
}

func ErrSessionNotLive() *errx.Error {
	return ErrRegistry.New(CodeSessionNotLive)
}

func ErrSessionLocked() *errx.Error {
	return ErrRegistry.New(CodeSessionLocked)
}

func ErrNoMatchingFlow() *errx.Error {
	return ErrRegistry.New(CodeNoMatchingFlow)
}

func ErrNodeExecutionFailed() *errx.Error {
	return ErrRegistry.New(CodeNodeExecutionFailed)
}

func ErrInvalidNodeConfig() *errx.Error {
	return ErrRegistry.New(CodeInvalidNodeConfig)
}

func ErrUnsupportedNodeType() *errx.Error {
	return ErrRegistry.New(CodeUnsupportedNodeType)
}

func ErrHopLimitExceeded() *errx.Error {
	return ErrRegistry.New(CodeHopLimitExceeded)
}

func ErrGatewaySendFailed() *errx.Error {
	return ErrRegistry.New(CodeGatewaySendFailed)
}

func ErrAPICallFailed() *errx.Error {
	return ErrRegistry.New(CodeAPICallFailed)
}
