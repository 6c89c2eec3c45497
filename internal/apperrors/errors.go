package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAssetNotFound indicates that an asset with the given market code
	// does not exist. Deals referencing unknown assets are skipped on import.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrNoHistory indicates that an account has no derived history rows at
	// or before the requested date.
	ErrNoHistory = errors.New("no account history")

	// ErrNoSnapshots indicates that an account has no holdings snapshots,
	// i.e. its ledger has never been reconstructed or is empty.
	ErrNoSnapshots = errors.New("no holdings snapshots")
)

// Import errors.
var (
	// ErrUnbalancedCash indicates a cash deal whose amount and money differ.
	// This rejects the whole import: a cash quantity and its money value are
	// the same number by definition, so a mismatch means a corrupt export.
	ErrUnbalancedCash = errors.New("cash record is not balanced")

	// ErrMalformedRecord indicates an import row with the wrong column count
	// or unparseable fields.
	ErrMalformedRecord = errors.New("malformed deal record")
)
