// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

// ConstError turns a plain string into an error value that can be declared
// as a constant, so the sentinels below can live in one const block instead
// of a set of package-level errors.New(...) variables.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

// Sentinel errors for the fixed error taxonomy of the state store. Each
// constant is wrapped with call-site context using fmt.Errorf("...: %w", ...)
// where it is raised.
const (
	// ErrKeyTooLong is returned when a backend key exceeds MaxKeyLength.
	ErrKeyTooLong = ConstError("key exceeds maximum backend key length")

	// ErrPathTooLong is returned when a raised or split trie path would
	// exceed 64 nibbles.
	ErrPathTooLong = ConstError("nibble path exceeds maximum trie depth")

	// ErrAccountNotFound is returned by operations that require an account
	// to already exist (e.g. staging storage for an absent account).
	ErrAccountNotFound = ConstError("account does not exist")

	// ErrWrongVersion is returned when an existing store's on-disk version
	// does not match the version this code expects.
	ErrWrongVersion = ConstError("incompatible database version")

	// ErrForeignFiles is returned by Delete when a database directory
	// contains entries other than the durable store's own files.
	ErrForeignFiles = ConstError("refusing to delete directory containing foreign files")

	// ErrNodeDecode is returned when a persisted internal node cannot be
	// parsed back from its on-disk form.
	ErrNodeDecode = ConstError("failed to decode internal trie node")
)
