package flow

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

var ErrRegistry = errx.NewRegistry("FLOW")

var (
	// Flow errors
	CodeFlowNotFound      = ErrRegistry.Register("FLOW_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Flow not found")
	CodeFlowAlreadyExists = ErrRegistry.Register("FLOW_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Flow already exists")
	CodeInvalidFlow       = ErrRegistry.Register("INVALID_FLOW", errx.TypeValidation, http.StatusBadRequest, "Invalid flow")
	CodeFlowNotRunnable   = ErrRegistry.Register("FLOW_NOT_RUNNABLE", errx.TypeBusiness, http.StatusForbidden, "Flow is not active")
	CodeDuplicateDefault  = ErrRegistry.Register("DUPLICATE_DEFAULT_FLOW", errx.TypeConflict, http.StatusConflict, "An active default flow already exists")

	// Node errors
	CodeNodeNotFound       = ErrRegistry.Register("NODE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Node not found")
	CodeInvalidNode        = ErrRegistry.Register("INVALID_NODE", errx.TypeValidation, http.StatusBadRequest, "Invalid node")
	CodeUnknownNodeType    = ErrRegistry.Register("UNKNOWN_NODE_TYPE", errx.TypeValidation, http.StatusBadRequest, "Unknown node type")
	CodeMissingStartNode   = ErrRegistry.Register("MISSING_START_NODE", errx.TypeValidation, http.StatusBadRequest, "Flow has no start node")
	CodeDuplicateStart     = ErrRegistry.Register("DUPLICATE_START_NODE", errx.TypeConflict, http.StatusConflict, "Flow already has a start node")
	CodeStartNodeProtected = ErrRegistry.Register("START_NODE_PROTECTED", errx.TypeBusiness, http.StatusConflict, "Start node cannot be deleted")

	// Connection errors
	CodeConnectionNotFound = ErrRegistry.Register("CONNECTION_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Connection not found")
	CodeInvalidConnection  = ErrRegistry.Register("INVALID_CONNECTION", errx.TypeValidation, http.StatusBadRequest, "Invalid connection")
	CodeDuplicateHandle    = ErrRegistry.Register("DUPLICATE_HANDLE", errx.TypeConflict, http.StatusConflict, "Source node already has a connection for this handle")
)

// Error constructor functions
func ErrFlowNotFound() *errx.Error {
	return ErrRegistry.New(CodeFlowNotFound)
}

func ErrFlowAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeFlowAlreadyExists)
}

func ErrInvalidFlow() *errx.Error {
	return ErrRegistry.New(CodeInvalidFlow)
}

func ErrFlowNotRunnable() *errx.Error {
	return ErrRegistry.New(CodeFlowNotRunnable)
}

func ErrDuplicateDefault() *errx.Error {
	return ErrRegistry.New(CodeDuplicateDefault)
}

func ErrNodeNotFound() *errx.Error {
	return ErrRegistry.New(CodeNodeNotFound)
}

func ErrInvalidNode() *errx.Error {
	return ErrRegistry.New(CodeInvalidNode)
}

func ErrUnknownNodeType() *errx.Error {
	return ErrRegistry.New(CodeUnknownNodeType)
}

func ErrMissingStartNode() *errx.Error {
	return ErrRegistry.New(CodeMissingStartNode)
}

func ErrDuplicateStart() *errx.Error {
	return ErrRegistry.New(CodeDuplicateStart)
}

func ErrStartNodeProtected() *errx.Error {
	return ErrRegistry.New(CodeStartNodeProtected)
}

func ErrConnectionNotFound() *errx.Error {
	return ErrRegistry.New(CodeConnectionNotFound)
}

func ErrInvalidConnection() *errx.Error {
	return ErrRegistry.New(CodeInvalidConnection)
}

func ErrDuplicateHandle() *errx.Error {
	return ErrRegistry.New(CodeDuplicateHandle)
}
