// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package rlp implements the subset of Ethereum's Recursive-Length Prefix
// encoding this store needs for trie-node hashing and account leaf values:
// https://ethereum.org/en/developers/docs/data-structures-and-encoding/rlp
//
// An RLP item is either a byte string or a list of items; this package
// models that with an Item interface and a handful of concrete types rather
// than a reflection-based general encoder, since the walker and state
// manager only ever need to emit strings, lists, and a few integer forms.
package rlp

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// Item is anything this package can append to an encoding buffer.
type Item interface {
	appendTo(buf *buffer)
	size() int
}

// buffer accumulates the bytes of an in-progress encoding. Unlike a plain
// byte slice passed around by value, its methods take a pointer receiver so
// nested appendTo calls share one growing backing array.
type buffer struct {
	data []byte
}

func (b *buffer) byte(c byte) {
	b.data = append(b.data, c)
}

func (b *buffer) bytes(data []byte) {
	b.data = append(b.data, data...)
}

// Encode serializes item into a freshly allocated byte slice.
func Encode(item Item) []byte {
	return EncodeInto(make([]byte, 0, item.size()), item)
}

// EncodeInto serializes item, appending to dst.
func EncodeInto(dst []byte, item Item) []byte {
	buf := &buffer{data: dst}
	item.appendTo(buf)
	return buf.data
}

// header byte ranges, per the RLP specification.
const (
	singleByteLimit = 0x80 // values below this encode as themselves
	shortStringBase = 0x80
	shortStringMax  = 0xb7 // short strings: length < 56
	longStringMax   = 0xc0 // long strings: length >= 56
	shortListBase   = 0xc0
	shortListMax    = 0xf7 // short lists: total payload length < 56
)

// appendHeader writes the length header for a string or list payload of n
// bytes, using base as the short-form starting byte (0x80 for strings, 0xc0
// for lists).
func appendHeader(buf *buffer, base byte, n int) {
	if n < 56 {
		buf.byte(base + byte(n))
		return
	}
	lenBytes := trimmedBigEndian(uint64(n))
	buf.byte(base + 55 + byte(len(lenBytes)))
	buf.bytes(lenBytes)
}

func headerSize(n int) int {
	if n < 56 {
		return 1
	}
	return 1 + len(trimmedBigEndian(uint64(n)))
}

// trimmedBigEndian renders v as big-endian bytes with no leading zero byte.
// v == 0 renders as a single zero byte.
func trimmedBigEndian(v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	i := 0
	for i < 7 && tmp[i] == 0 {
		i++
	}
	return tmp[i:]
}

// String is a (possibly empty) RLP byte string.
type String struct {
	Str []byte
}

func (s String) appendTo(buf *buffer) {
	if len(s.Str) == 1 && s.Str[0] < singleByteLimit {
		buf.bytes(s.Str)
		return
	}
	appendHeader(buf, shortStringBase, len(s.Str))
	buf.bytes(s.Str)
}

func (s String) size() int {
	if len(s.Str) == 1 && s.Str[0] < singleByteLimit {
		return 1
	}
	return len(s.Str) + headerSize(len(s.Str))
}

// List composes a sequence of items into a single RLP item.
type List struct {
	Items []Item
}

func (l List) appendTo(buf *buffer) {
	appendHeader(buf, shortListBase, l.payloadSize())
	for _, item := range l.Items {
		item.appendTo(buf)
	}
}

func (l List) payloadSize() int {
	sum := 0
	for _, item := range l.Items {
		sum += item.size()
	}
	return sum
}

func (l List) size() int {
	n := l.payloadSize()
	return n + headerSize(n)
}

// Encoded embeds an already-RLP-encoded fragment verbatim, letting callers
// splice precomputed or externally sourced encodings into a larger item.
type Encoded struct {
	Data []byte
}

func (e Encoded) appendTo(buf *buffer) {
	buf.bytes(e.Data)
}

func (e Encoded) size() int {
	return len(e.Data)
}

// Uint64 encodes an unsigned integer as the RLP string of its minimal
// big-endian representation.
type Uint64 struct {
	Value uint64
}

func (u Uint64) minimalBytes() []byte {
	if u.Value == 0 {
		return nil
	}
	return trimmedBigEndian(u.Value)
}

func (u Uint64) appendTo(buf *buffer) {
	String{Str: u.minimalBytes()}.appendTo(buf)
}

func (u Uint64) size() int {
	return String{Str: u.minimalBytes()}.size()
}

// BigInt encodes a non-negative big.Int the same way Uint64 does, using
// big.Int's own minimal big-endian byte representation.
type BigInt struct {
	Value *big.Int
}

func (i BigInt) appendTo(buf *buffer) {
	String{Str: i.minimalBytes()}.appendTo(buf)
}

func (i BigInt) size() int {
	return String{Str: i.minimalBytes()}.size()
}

func (i BigInt) minimalBytes() []byte {
	if i.Value.Sign() == 0 {
		return nil
	}
	return i.Value.Bytes()
}

// Decode parses a single RLP item from the front of data. It does not
// tolerate trailing bytes beyond the one item decoded.
func Decode(data []byte) (Item, error) {
	item, n, err := decodeItem(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("rlp: %d trailing byte(s) after decoded item", len(data)-n)
	}
	return item, nil
}

// decodeItem decodes the single item starting at the front of data and
// reports how many bytes it consumed.
func decodeItem(data []byte) (Item, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("rlp: cannot decode an empty input")
	}

	switch prefix := data[0]; {
	case prefix < singleByteLimit:
		return String{Str: data[0:1]}, 1, nil

	case prefix <= shortStringMax:
		n := int(prefix - shortStringBase)
		if len(data) < n+1 {
			return nil, 0, fmt.Errorf("rlp: short string wants %d byte(s), got %d", n+1, len(data))
		}
		return String{Str: data[1 : n+1]}, n + 1, nil

	case prefix < longStringMax:
		n, headerLen, err := decodeLength(data, prefix-shortStringMax)
		if err != nil {
			return nil, 0, err
		}
		if len(data) < headerLen+n {
			return nil, 0, fmt.Errorf("rlp: long string wants %d byte(s), got %d", headerLen+n, len(data))
		}
		return String{Str: data[headerLen : headerLen+n]}, headerLen + n, nil

	case prefix <= shortListMax:
		n := int(prefix - shortListBase)
		if len(data) < n+1 {
			return nil, 0, fmt.Errorf("rlp: short list wants %d byte(s), got %d", n+1, len(data))
		}
		items, err := decodeItems(data[1 : n+1])
		return List{Items: items}, n + 1, err

	default:
		n, headerLen, err := decodeLength(data, prefix-shortListMax)
		if err != nil {
			return nil, 0, err
		}
		if len(data) < headerLen+n {
			return nil, 0, fmt.Errorf("rlp: long list wants %d byte(s), got %d", headerLen+n, len(data))
		}
		items, err := decodeItems(data[headerLen : headerLen+n])
		return List{Items: items}, headerLen + n, err
	}
}

// decodeLength reads a long-form length field: lenOfLen bytes following the
// prefix byte, encoding the payload length in big-endian. It returns the
// payload length and the total header size (1 prefix byte + lenOfLen).
func decodeLength(data []byte, lenOfLen byte) (length int, headerLen int, err error) {
	headerLen = int(lenOfLen) + 1
	if len(data) < headerLen {
		return 0, 0, fmt.Errorf("rlp: length field wants %d byte(s), got %d", headerLen, len(data))
	}
	var n uint64
	for _, b := range data[1:headerLen] {
		n = n<<8 | uint64(b)
	}
	return int(n), headerLen, nil
}

// decodeItems decodes consecutive items filling all of data.
func decodeItems(data []byte) ([]Item, error) {
	var items []Item
	for len(data) > 0 {
		item, n, err := decodeItem(data)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		data = data[n:]
	}
	return items, nil
}
