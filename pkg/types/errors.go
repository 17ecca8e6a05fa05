package types

import (
	"errors"
	"fmt"
	"strings"
)

// Document errors. Each typed error below matches its sentinel with errors.Is.
var (
	ErrUnsupportedDocumentType = errors.New("unsupported document type")
	ErrMissingUUID             = errors.New("uuid not found")
	ErrMissingRouteName        = errors.New("route path name not found")
	ErrInvalidPath             = errors.New("invalid route path")
	ErrPersisterNotFound       = errors.New("persister not found")
)

// Source and configuration errors.
var (
	ErrDriverEmpty         = errors.New("driver must not be empty")
	ErrDriverUnknown       = errors.New("unknown driver")
	ErrDSNEmpty            = errors.New("dsn must not be empty")
	ErrWorkspaceMissing    = errors.New("workspace is missing in dsn")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrUnsupportedSource   = errors.New("unsupported source scheme")
	ErrInvalidColumnType   = errors.New("invalid column type")
	ErrInvalidRelatedID    = errors.New("invalid related id")
	ErrNoActiveTransaction = errors.New("no active transaction")
	ErrTransactionActive   = errors.New("transaction already active")
)

// UnsupportedDocumentTypeError reports a document whose mixin types do not
// include the persister's type tag.
type UnsupportedDocumentTypeError struct {
	Types []string
}

func (e *UnsupportedDocumentTypeError) Error() string {
	return fmt.Sprintf(`unsupported document type(s) "%s"`, strings.Join(e.Types, `", "`))
}

func (e *UnsupportedDocumentTypeError) Unwrap() error { return ErrUnsupportedDocumentType }

// MissingRouteNameError reports a locale with a routePath but no routePathName.
type MissingRouteNameError struct {
	UUID   string
	Locale Locale
}

func (e *MissingRouteNameError) Error() string {
	return fmt.Sprintf("route path name not found for uuid %q and locale %q", e.UUID, e.Locale)
}

func (e *MissingRouteNameError) Unwrap() error { return ErrMissingRouteName }

// InvalidPathError reports that no route path could be resolved from the
// attribute named by routePathName.
type InvalidPathError struct {
	Attribute string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("path not found: invalid path attribute name %q", e.Attribute)
}

func (e *InvalidPathError) Unwrap() error { return ErrInvalidPath }

// PersisterNotFoundError reports an unregistered document type.
type PersisterNotFoundError struct {
	Type string
}

func (e *PersisterNotFoundError) Error() string {
	return fmt.Sprintf("persister for type %q not found", e.Type)
}

func (e *PersisterNotFoundError) Unwrap() error { return ErrPersisterNotFound }
