// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uacore

import (
	"errors"
	"fmt"
)

// StatusCode severity levels.
const (
	StatusSeverityGood      uint32 = 0x00000000
	StatusSeverityUncertain uint32 = 0x40000000
	StatusSeverityBad       uint32 = 0x80000000
	StatusSeverityMask      uint32 = 0xC0000000
)

// Common OPC UA Status Codes.
const (
	StatusGood                          StatusCode = 0x00000000
	StatusUncertain                     StatusCode = 0x40000000
	StatusBad                           StatusCode = 0x80000000
	StatusBadUnexpectedError            StatusCode = 0x80010000
	StatusBadInternalError              StatusCode = 0x80020000
	StatusBadTimeout                    StatusCode = 0x800A0000
	StatusBadShutdown                   StatusCode = 0x800C0000
	StatusBadNothingToDo                StatusCode = 0x800F0000
	StatusBadTooManyOperations          StatusCode = 0x80100000
	StatusBadSessionIdInvalid           StatusCode = 0x80250000
	StatusBadSessionClosed              StatusCode = 0x80260000
	StatusBadSubscriptionIdInvalid      StatusCode = 0x80280000
	StatusBadNodeIdInvalid              StatusCode = 0x80330000
	StatusBadNodeIdUnknown              StatusCode = 0x80340000
	StatusBadAttributeIdInvalid         StatusCode = 0x80350000
	StatusBadIndexRangeInvalid          StatusCode = 0x80360000
	StatusBadNotReadable                StatusCode = 0x803A0000
	StatusBadNotWritable                StatusCode = 0x803B0000
	StatusBadOutOfRange                 StatusCode = 0x803C0000
	StatusBadNotSupported               StatusCode = 0x803D0000
	StatusBadNotFound                   StatusCode = 0x803E0000
	StatusBadReferenceTypeIdInvalid     StatusCode = 0x804C0000
	StatusBadBrowseDirectionInvalid     StatusCode = 0x804D0000
	StatusBadNodeNotInView              StatusCode = 0x804E0000
	StatusBadNodeIdExists               StatusCode = 0x805E0000
	StatusBadNodeClassInvalid           StatusCode = 0x805F0000
	StatusBadBrowseNameInvalid          StatusCode = 0x80600000
	StatusBadBrowseNameDuplicated       StatusCode = 0x80610000
	StatusBadTypeDefinitionInvalid      StatusCode = 0x80630000
	StatusUncertainReferenceOutOfServer StatusCode = 0x406C0000
	StatusBadTooManyMatches             StatusCode = 0x806D0000
	StatusBadQueryTooComplex            StatusCode = 0x806E0000
	StatusBadNoMatch                    StatusCode = 0x806F0000
	StatusBadTypeMismatch               StatusCode = 0x80740000
	StatusBadTooManySubscriptions       StatusCode = 0x80770000
	StatusBadTooManyPublishRequests     StatusCode = 0x80780000
	StatusBadNoSubscription             StatusCode = 0x80790000
	StatusBadSequenceNumberUnknown      StatusCode = 0x807A0000
	StatusBadMessageNotAvailable        StatusCode = 0x807B0000
	StatusBadInvalidArgument            StatusCode = 0x80AB0000
	StatusBadConnectionClosed           StatusCode = 0x80AE0000
	StatusBadInvalidState               StatusCode = 0x80AF0000
)

// statusCodeInfo contains name and description for a status code.
type statusCodeInfo struct {
	name        string
	description string
}

// statusCodeMap maps status codes to their info.
var statusCodeMap = map[StatusCode]statusCodeInfo{
	StatusGood:                          {"Good", "The operation completed successfully"},
	StatusBadUnexpectedError:            {"BadUnexpectedError", "An unexpected error occurred"},
	StatusBadInternalError:              {"BadInternalError", "An internal error occurred"},
	StatusBadTimeout:                    {"BadTimeout", "The operation timed out"},
	StatusBadShutdown:                   {"BadShutdown", "The operation was cancelled because the application is shutting down"},
	StatusBadNothingToDo:                {"BadNothingToDo", "No processing could be done because there was nothing to do"},
	StatusBadTooManyOperations:          {"BadTooManyOperations", "The request could not be processed because it specified too many operations"},
	StatusBadSessionIdInvalid:           {"BadSessionIdInvalid", "The session ID is not valid"},
	StatusBadSessionClosed:              {"BadSessionClosed", "The session was closed by the client"},
	StatusBadSubscriptionIdInvalid:      {"BadSubscriptionIdInvalid", "The subscription ID is not valid"},
	StatusBadNodeIdInvalid:              {"BadNodeIdInvalid", "The node ID format is not valid"},
	StatusBadNodeIdUnknown:              {"BadNodeIdUnknown", "The node ID refers to a node that does not exist"},
	StatusBadAttributeIdInvalid:         {"BadAttributeIdInvalid", "The attribute ID is not valid for this node"},
	StatusBadIndexRangeInvalid:          {"BadIndexRangeInvalid", "The index range is invalid"},
	StatusBadNotReadable:                {"BadNotReadable", "The access level does not allow reading the value"},
	StatusBadNotWritable:                {"BadNotWritable", "The access level does not allow writing the value"},
	StatusBadOutOfRange:                 {"BadOutOfRange", "The value was out of range"},
	StatusBadNotSupported:               {"BadNotSupported", "The requested operation is not supported"},
	StatusBadNotFound:                   {"BadNotFound", "A requested item was not found"},
	StatusBadReferenceTypeIdInvalid:     {"BadReferenceTypeIdInvalid", "The reference type ID is not valid"},
	StatusBadBrowseDirectionInvalid:     {"BadBrowseDirectionInvalid", "The browse direction is not valid"},
	StatusBadNodeNotInView:              {"BadNodeNotInView", "The node is not part of the view"},
	StatusBadNodeIdExists:               {"BadNodeIdExists", "The requested node ID is already used by another node"},
	StatusBadNodeClassInvalid:           {"BadNodeClassInvalid", "The node class is not valid"},
	StatusBadBrowseNameInvalid:          {"BadBrowseNameInvalid", "The browse name is invalid"},
	StatusBadBrowseNameDuplicated:       {"BadBrowseNameDuplicated", "The browse name is not unique among nodes that share the same relationship with the parent"},
	StatusBadTypeDefinitionInvalid:      {"BadTypeDefinitionInvalid", "The type definition node ID does not reference an appropriate type node"},
	StatusUncertainReferenceOutOfServer: {"UncertainReferenceOutOfServer", "One of the references to follow in the relative path references to a node in the address space in another server"},
	StatusBadTooManyMatches:             {"BadTooManyMatches", "The requested operation has too many matches to return"},
	StatusBadQueryTooComplex:            {"BadQueryTooComplex", "The requested operation requires too many resources in the server"},
	StatusBadNoMatch:                    {"BadNoMatch", "The requested operation has no match to return"},
	StatusBadTypeMismatch:               {"BadTypeMismatch", "The value provided does not match the expected data type"},
	StatusBadTooManySubscriptions:       {"BadTooManySubscriptions", "Too many subscriptions"},
	StatusBadTooManyPublishRequests:     {"BadTooManyPublishRequests", "Too many publish requests have been queued"},
	StatusBadNoSubscription:             {"BadNoSubscription", "There is no subscription available for this session"},
	StatusBadSequenceNumberUnknown:      {"BadSequenceNumberUnknown", "The sequence number is unknown to the server"},
	StatusBadMessageNotAvailable:        {"BadMessageNotAvailable", "The requested notification message is no longer available"},
	StatusBadInvalidArgument:            {"BadInvalidArgument", "One or more arguments are invalid"},
	StatusBadConnectionClosed:           {"BadConnectionClosed", "The connection was closed"},
	StatusBadInvalidState:               {"BadInvalidState", "The operation cannot be completed because the object is closed or in an invalid state"},
}

// String returns the string representation of the status code.
func (s StatusCode) String() string {
	if info, ok := statusCodeMap[s]; ok {
		return info.name
	}
	return fmt.Sprintf("StatusCode(0x%08X)", uint32(s))
}

// Description returns a human-readable description of the status code.
func (s StatusCode) Description() string {
	if info, ok := statusCodeMap[s]; ok {
		return info.description
	}
	switch {
	case s.IsGood():
		return "The operation completed successfully"
	case s.IsUncertain():
		return "The operation completed with uncertain result"
	case s.IsBad():
		return "The operation failed"
	default:
		return "Unknown status"
	}
}

// Error returns a formatted error string with code, name, and description.
func (s StatusCode) Error() string {
	if info, ok := statusCodeMap[s]; ok {
		return fmt.Sprintf("%s (0x%08X): %s", info.name, uint32(s), info.description)
	}
	return fmt.Sprintf("StatusCode 0x%08X", uint32(s))
}

// IsGood returns true if the status code indicates success.
func (s StatusCode) IsGood() bool {
	return (uint32(s) & StatusSeverityMask) == StatusSeverityGood
}

// IsUncertain returns true if the status code indicates uncertainty.
func (s StatusCode) IsUncertain() bool {
	return (uint32(s) & StatusSeverityMask) == StatusSeverityUncertain
}

// IsBad returns true if the status code indicates failure.
func (s StatusCode) IsBad() bool {
	return (uint32(s) & StatusSeverityMask) == StatusSeverityBad
}

// UAError represents an OPC UA protocol error surfaced as a Go error.
type UAError struct {
	ServiceID  ServiceID
	StatusCode StatusCode
	Message    string
}

// Error implements the error interface.
func (e *UAError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("uacore: %s (%s): %s", e.StatusCode, e.ServiceID, e.Message)
	}
	return fmt.Sprintf("uacore: %s (%s)", e.StatusCode, e.ServiceID)
}

// Is checks if the error matches the target.
func (e *UAError) Is(target error) bool {
	t, ok := target.(*UAError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// NewUAError creates a new OPC UA error.
func NewUAError(svc ServiceID, sc StatusCode, msg string) *UAError {
	return &UAError{
		ServiceID:  svc,
		StatusCode: sc,
		Message:    msg,
	}
}

// Common errors. Construction-time failures signal a corrupt address space
// load and must abort the load.
var (
	// ErrInvalidNodeID indicates an unparseable NodeID string.
	ErrInvalidNodeID = errors.New("uacore: invalid node ID")

	// ErrDuplicateNodeID indicates a node was registered twice under one NodeID.
	ErrDuplicateNodeID = errors.New("uacore: duplicate node ID")

	// ErrUnknownNodeClass indicates a node carries a class the registry cannot index.
	ErrUnknownNodeClass = errors.New("uacore: unknown node class")

	// ErrMissingNodeID indicates a node was constructed without a NodeID.
	ErrMissingNodeID = errors.New("uacore: missing node ID")

	// ErrMissingBrowseName indicates a node was constructed without a browse name.
	ErrMissingBrowseName = errors.New("uacore: missing browse name")

	// ErrMissingInverseName indicates a reference type without an inverse name.
	ErrMissingInverseName = errors.New("uacore: reference type missing inverse name")

	// ErrInvalidReference indicates a malformed reference.
	ErrInvalidReference = errors.New("uacore: invalid reference")

	// ErrDuplicateSubscription indicates a subscription ID registered twice.
	ErrDuplicateSubscription = errors.New("uacore: subscription already registered")

	// ErrUnknownSubscription indicates a subscription ID that is not registered.
	ErrUnknownSubscription = errors.New("uacore: subscription not registered")

	// ErrEngineTerminated indicates the publish engine has been terminated.
	ErrEngineTerminated = errors.New("uacore: publish engine terminated")
)

// IsStatusCode checks if an error has a specific status code.
func IsStatusCode(err error, code StatusCode) bool {
	var uaErr *UAError
	if errors.As(err, &uaErr) {
		return uaErr.StatusCode == code
	}
	return false
}

// IsNodeIDUnknown checks if the error indicates an unknown node ID.
func IsNodeIDUnknown(err error) bool {
	return IsStatusCode(err, StatusBadNodeIdUnknown)
}

// IsAttributeInvalid checks if the error indicates an invalid attribute.
func IsAttributeInvalid(err error) bool {
	return IsStatusCode(err, StatusBadAttributeIdInvalid)
}
