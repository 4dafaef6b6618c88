// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package statedb

import (
	"fmt"

	"github.com/Fantom-foundation/go-state-store/common"
	"github.com/Fantom-foundation/go-state-store/common/amount"
)

// EmptyCodeHash is the Keccak-256 hash of the empty byte string, the
// code_hash value meaning "no code" and never stored on disk (spec §6.4).
var EmptyCodeHash = common.Keccak256(nil)

// Account is an externally-owned or contract account record.
type Account struct {
	Nonce    uint64
	Balance  amount.Amount
	CodeHash common.Hash
}

// encodeAccount implements the account on-disk codec (spec §4.1):
// nonce_len(1B) ‖ big-endian nonce ‖ balance_len(1B) ‖ big-endian balance ‖
// [32-byte code_hash if not the empty-code hash].
func encodeAccount(a Account) []byte {
	res := make([]byte, 0, 1+8+1+32+32)

	var nonceBuf [8]byte
	for i := 0; i < 8; i++ {
		nonceBuf[i] = byte(a.Nonce >> (8 * (7 - i)))
	}
	nonceLen := 8
	for nonceLen > 0 && nonceBuf[8-nonceLen] == 0 {
		nonceLen--
	}
	res = append(res, byte(nonceLen))
	res = append(res, nonceBuf[8-nonceLen:]...)

	balanceBuf := a.Balance.Bytes32()
	balanceLen := 32
	for balanceLen > 0 && balanceBuf[32-balanceLen] == 0 {
		balanceLen--
	}
	res = append(res, byte(balanceLen))
	res = append(res, balanceBuf[32-balanceLen:]...)

	if a.CodeHash != EmptyCodeHash {
		res = append(res, a.CodeHash[:]...)
	}
	return res
}

// decodeAccount is the inverse of encodeAccount.
func decodeAccount(data []byte) (Account, error) {
	if len(data) < 1 {
		return Account{}, fmt.Errorf("account record too short")
	}
	nonceLen := int(data[0])
	if len(data) < 1+nonceLen+1 {
		return Account{}, fmt.Errorf("account record truncated in nonce field")
	}
	var nonce uint64
	for _, b := range data[1 : 1+nonceLen] {
		nonce = nonce<<8 | uint64(b)
	}

	pos := 1 + nonceLen
	balanceLen := int(data[pos])
	pos++
	if len(data) < pos+balanceLen {
		return Account{}, fmt.Errorf("account record truncated in balance field")
	}
	balance := amount.NewFromBytes(data[pos : pos+balanceLen]...)
	pos += balanceLen

	codeHash := EmptyCodeHash
	if pos != len(data) {
		if len(data)-pos != common.HashSize {
			return Account{}, fmt.Errorf("account record has malformed code hash tail")
		}
		copy(codeHash[:], data[pos:])
	}

	return Account{Nonce: nonce, Balance: balance, CodeHash: codeHash}, nil
}
