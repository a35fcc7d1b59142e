package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known
// failure conditions. Callers should use [errors.Is] to match against these
// values.
var (
	// ErrLoginAlreadyExists is returned when registering a user fails
	// because the login is already taken.
	ErrLoginAlreadyExists = errors.New("login already exists")

	// ErrNoUserWasFound is returned when a query expected to match at
	// least one user record produces an empty result set.
	ErrNoUserWasFound = errors.New("no user was found")

	// ErrListNotFound is returned when an operation targets a packing list
	// that does not exist.
	ErrListNotFound = errors.New("packing list was not found")

	// ErrListAlreadyExists is returned when creating a list with an
	// entity id that is already taken.
	ErrListAlreadyExists = errors.New("packing list already exists")

	// ErrOpAlreadyApplied is returned when the operation's op_id is found
	// in the applied-ops ledger. The previously computed snapshot is
	// returned alongside, so callers treat this as an idempotent success.
	ErrOpAlreadyApplied = errors.New("operation already applied")
)

// Client-side queue sentinel errors.
var (
	// ErrQueueEntryNotFound is returned when no queue row matches the
	// given op_id.
	ErrQueueEntryNotFound = errors.New("queue entry was not found")

	// ErrDequeueNotHead is returned when a dequeue targets an entry that
	// is not the oldest one for its entity. Removing anything but the head
	// is a programming error in the sync driver.
	ErrDequeueNotHead = errors.New("dequeue must target the oldest queued operation")

	// ErrSnapshotNotFound is returned when no cached canonical snapshot
	// exists for the entity.
	ErrSnapshotNotFound = errors.New("cached snapshot was not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain
// logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised
	// SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open
	// transaction fails. The transaction is considered rolled back.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrPreparingStatement is returned when a SQL statement cannot be
	// prepared.
	ErrPreparingStatement = errors.New("failed to prepare statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails.
	ErrScanningRows = errors.New("failed to scan rows")
)
