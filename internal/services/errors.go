package services

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/appear/aiq/internal/rest"
)

// Kind classifies a service failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindRemote
	KindIO
	KindSizeLimit
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindRemote:
		return "remote"
	case KindIO:
		return "io"
	case KindSizeLimit:
		return "size_limit"
	default:
		return "unknown"
	}
}

// User facing messages.
const (
	MsgOrgRequired       = "Organization Name is required."
	MsgUsernameRequired  = "Username is required."
	MsgPasswordRequired  = "Password is required."
	MsgCannotConnect     = "Could not connect to AIQ platform."
	MsgOrgNotFound       = "Organization not found."
	MsgNotAuthorized     = "Client doesn't seem to be authorized."
	MsgSessionExpired    = "Session is expired. Please login again. See 'aiq login -h'."
	MsgNameRequired      = "Application name is required."
	MsgBadAPILevel       = "Api level should be numeric and be in the range 1-65535."
	MsgBadMock           = `Mock argument should be "true" or "false".`
	MsgIconOutside       = `"iconPath" should be relative to the application folder.`
	MsgIconMissing       = `Wrong "iconPath" was given.`
	MsgInvalidPath       = "Invalid path."
	MsgNoSolutions       = "Current organization doesn't have solutions to which you have access."
	MsgInterrupted       = "Was interrupted."
	MsgAppIDRequired     = "Application ID is required."
	MsgWorkspaceUnusable = "Workspace Path is not writable or doesn't exist."
	MsgJSAPIDownload     = "Error during retrieving the latest AIQ JS API."
	MsgNoAccessToken     = "AIQ platform did not issue an access token."
	MsgBadServerURL      = "Server URL should be an absolute URL, for example https://api.appeariq.com/api."
)

const (
	codeNotFound     = "not_found"
	codeInvalidToken = "invalid_token"
)

// Error is the single error type returned by Services operations.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func authError(msg string) error {
	return &Error{Kind: KindAuth, Message: msg}
}

func ioError(msg string, err error) error {
	return &Error{Kind: KindIO, Message: msg, Err: err}
}

func appNotFound(id string) string {
	return fmt.Sprintf("Application with ID: %s was not found.", id)
}

func folderExists(path string) string {
	return fmt.Sprintf("Folder [%s] already exists.", path)
}

// remoteError maps a REST failure to a user facing message. Codes present in
// remaps win over the shared invalid_token remap.
func remoteError(err error, remaps map[string]string) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, rest.ErrAborted) {
		return &Error{Kind: KindRemote, Message: rest.ErrAborted.Error() + ".", Err: err}
	}
	var transportErr *rest.TransportError
	if errors.As(err, &transportErr) {
		return &Error{Kind: KindRemote, Message: MsgCannotConnect, Err: err}
	}

	code := rest.CodeOf(err)
	if msg, ok := remaps[code]; ok && code != "" {
		return &Error{Kind: KindRemote, Code: code, Message: msg, Err: err}
	}
	if code == codeInvalidToken {
		return &Error{Kind: KindAuth, Code: code, Message: MsgSessionExpired, Err: err}
	}
	return &Error{Kind: KindRemote, Code: code, Message: err.Error(), Err: err}
}

func escapeID(id string) string {
	return url.PathEscape(id)
}
