package eventstore

// Sentinel errors for ingest event store operations. These enable consistent
// classification and error handling for event-sourcing stage failures.

import (
	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = coreerrors.New(coreerrors.KindIo, coreerrors.SeverityFatal, "could not open event store database")

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = coreerrors.New(coreerrors.KindDb, coreerrors.SeverityFatal, "failed to initialize event store schema")

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = coreerrors.New(coreerrors.KindDb, coreerrors.SeverityFatal, "failed to append event to store")

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = coreerrors.New(coreerrors.KindDb, coreerrors.SeverityFatal, "failed to query events from store")

	// ErrEventScanFailed indicates scanning event rows failed.
	ErrEventScanFailed = coreerrors.New(coreerrors.KindDb, coreerrors.SeverityFatal, "failed to scan event rows")

	// ErrMarshalPayloadFailed indicates JSON marshaling of event payload failed.
	ErrMarshalPayloadFailed = coreerrors.New(coreerrors.KindIo, coreerrors.SeverityFatal, "failed to marshal event payload")

	// ErrUnmarshalPayloadFailed indicates JSON unmarshaling of event payload failed.
	ErrUnmarshalPayloadFailed = coreerrors.New(coreerrors.KindIo, coreerrors.SeverityFatal, "failed to unmarshal event payload")
)
