package bplus

import "errors"

// Named errors returned by the public tree operations. Callers are
// expected to match these with errors.Is — every wrapping path below uses
// %w so that still works through FindKey/InsertEntry/scan failures.
var (
	// ErrBadOpcodes is returned when a scan is driven with an operator
	// combination the tree does not support: a lower-bound op other than
	// GT/GTE, or an upper-bound op other than LT/LTE.
	ErrBadOpcodes = errors.New("bplus: unsupported scan opcodes")

	// ErrBadScanRange is returned when the requested range is internally
	// inconsistent (lowVal > highVal).
	ErrBadScanRange = errors.New("bplus: low key exceeds high key")

	// ErrNoSuchKeyFound is returned by a point lookup that runs off the
	// end of the tree without matching the key.
	ErrNoSuchKeyFound = errors.New("bplus: no such key found")

	// ErrScanNotInitialized is returned by ScanNext/EndScan when no
	// StartScan has been issued yet (or a previous scan already ended).
	ErrScanNotInitialized = errors.New("bplus: scan not initialized")

	// ErrIndexScanCompleted is returned by ScanNext once every entry in
	// the requested range has already been returned.
	ErrIndexScanCompleted = errors.New("bplus: index scan completed")

	// ErrBadIndexInfo is returned when the requested relation/attribute
	// pair does not match the index file actually on disk.
	ErrBadIndexInfo = errors.New("bplus: index metadata does not match request")
)

// ErrEndOfFile is the sentinel the relation-scanner collaborator (§6)
// returns from ScanNext once it has yielded every row; the bulk-load
// driver in lifecycle.go catches it to end construction. It is never
// returned from a public BPlusTree method itself.
var ErrEndOfFile = errors.New("bplus: relation scan exhausted")
