package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrDocumentNotFound is returned when a document addressed by
	// (collection, id) does not exist.
	ErrDocumentNotFound = errors.New("document was not found")

	// ErrDocumentNotSaved is returned when a write completes without error
	// but no row was affected.
	ErrDocumentNotSaved = errors.New("document was not saved")

	// ErrStoreUnavailable marks failures the database reports as transient
	// (connection loss, serialization failure, deadlock). The operation may
	// succeed if attempted again.
	ErrStoreUnavailable = errors.New("store is temporarily unavailable")

	// ErrRateLimiterUnavailable is returned when the rate-limit counter
	// cannot be read or incremented.
	ErrRateLimiterUnavailable = errors.New("rate limiter is unavailable")

	// ErrPresenceUnavailable is returned when heartbeats cannot be written
	// or listed.
	ErrPresenceUnavailable = errors.New("presence store is unavailable")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrMarshallingPayload is returned when a JSON document payload cannot
	// be encoded for or decoded from a jsonb column.
	ErrMarshallingPayload = errors.New("failed to marshal document payload")
)
