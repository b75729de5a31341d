package xbdm

import "strconv"

// StatusCode is a 16-bit XBDM response code. The named constants cover the
// codes a development kit is known to send; any other value still round-trips
// through StatusCode unchanged.
type StatusCode uint16

// Named status codes recognized by the protocol.
const (
	StatusOK                       StatusCode = 200
	StatusConnected                StatusCode = 201
	StatusMultilineResponseFollows StatusCode = 202
	StatusBinaryResponseFollows    StatusCode = 203
	StatusSendBinaryData           StatusCode = 204
	StatusConnectionDedicated      StatusCode = 205

	StatusUnexpectedError           StatusCode = 400
	StatusMaxConnectionsExceeded    StatusCode = 401
	StatusFileNotFound              StatusCode = 402
	StatusNoSuchModule              StatusCode = 403
	StatusMemoryNotMapped           StatusCode = 404
	StatusNoSuchThread              StatusCode = 405
	StatusUnknown406                StatusCode = 406
	StatusUnknownCommand            StatusCode = 407
	StatusNotStopped                StatusCode = 408
	StatusFileMustBeCopied          StatusCode = 409
	StatusFileAlreadyExists         StatusCode = 410
	StatusDirectoryNotEmpty         StatusCode = 411
	StatusFilenameInvalid           StatusCode = 412
	StatusFileCannotBeCreated       StatusCode = 413
	StatusAccessDenied              StatusCode = 414
	StatusNoRoomOnDevice            StatusCode = 415
	StatusNotDebuggable             StatusCode = 416
	StatusTypeInvalid               StatusCode = 417
	StatusDataNotAvailable          StatusCode = 418
	StatusBoxNotLocked              StatusCode = 420
	StatusKeyExchangeRequired       StatusCode = 421
	StatusDedicatedConnectionRequired StatusCode = 422
)

var statusMessages = map[StatusCode]string{
	StatusOK:                       "OK",
	StatusConnected:                "connected",
	StatusMultilineResponseFollows: "multiline response follows",
	StatusBinaryResponseFollows:    "binary response follows",
	StatusSendBinaryData:          "send binary data",
	StatusConnectionDedicated:     "connection dedicated",

	StatusUnexpectedError:        "unexpected error",
	StatusMaxConnectionsExceeded: "max number of connections exceeded",
	StatusFileNotFound:           "file not found",
	StatusNoSuchModule:           "no such module",
	StatusMemoryNotMapped:        "memory not mapped",
	StatusNoSuchThread:           "no such thread",
	// 406 deliberately has no canonical message.
	StatusUnknownCommand:              "unknown command",
	StatusNotStopped:                  "not stopped",
	StatusFileMustBeCopied:            "file must be copied",
	StatusFileAlreadyExists:           "file already exists",
	StatusDirectoryNotEmpty:           "directory not empty",
	StatusFilenameInvalid:             "filename is invalid",
	StatusFileCannotBeCreated:         "file cannot be created",
	StatusAccessDenied:                "access denied",
	StatusNoRoomOnDevice:              "no room on device",
	StatusNotDebuggable:               "not debuggable",
	StatusTypeInvalid:                 "type invalid",
	StatusDataNotAvailable:            "data not available",
	StatusBoxNotLocked:                "box not locked",
	StatusKeyExchangeRequired:         "key exchange required",
	StatusDedicatedConnectionRequired: "dedicated connection required",
}

// FromU16 converts a raw 16-bit wire value into a StatusCode. Every value
// round-trips: FromU16(c.ToU16()) == c for all c.
func FromU16(n uint16) StatusCode { return StatusCode(n) }

// ToU16 returns the raw wire value of the status code.
func (c StatusCode) ToU16() uint16 { return uint16(c) }

// DefaultMessage returns the canonical human-readable message for a known
// code, or ok=false when the code has no canonical message (this is true for
// 406 as well as for any code outside the closed table).
func (c StatusCode) DefaultMessage() (msg string, ok bool) {
	msg, ok = statusMessages[c]
	return
}

// IsSuccess reports whether the code denotes success (< 400).
func (c StatusCode) IsSuccess() bool { return c.ToU16() < 400 }

// IsFailure reports whether the code denotes failure (>= 400).
func (c StatusCode) IsFailure() bool { return c.ToU16() >= 400 }

// String renders the code as a plain decimal integer, matching the wire
// representation.
func (c StatusCode) String() string { return strconv.FormatUint(uint64(c), 10) }

// Contains reports whether c equals the expected code, satisfying
// ExpectedCodes for a bare StatusCode.
func (c StatusCode) Contains(other StatusCode) bool { return c == other }

// ExpectedCodes unifies a single expected status code and a set of expected
// status codes behind one interface, so Session.Execute can accept either.
type ExpectedCodes interface {
	Contains(c StatusCode) bool
}

// StatusCodes is a set of status codes, any one of which is acceptable.
type StatusCodes []StatusCode

// Contains reports whether code appears in the set.
func (s StatusCodes) Contains(code StatusCode) bool {
	for _, c := range s {
		if c == code {
			return true
		}
	}
	return false
}
