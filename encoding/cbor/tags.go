/*
 * Cairo - Type descriptors for StarkNet smart contract values
 *
 * Copyright Flow Foundation
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cbor

// CBOR tag numbers of encoded Cairo types.
//
// The content of every tag is a CBOR array:
//
//	felt:        []
//	tuple:       [[type, ...]]
//	named tuple: [[[id, type], ...]]
//	array:       [type]
//	struct:      [name, [[id, type], ...]]
//	enum:        [name, [[id, type], ...]]
//	option:      [type / null]
//	uint:        [bits]
//
// A CBOR null in a type position denotes an unresolved type.
const (
	CBORTagFeltType uint64 = 220 + iota
	CBORTagTupleType
	CBORTagNamedTupleType
	CBORTagArrayType
	CBORTagStructType
	CBORTagEnumType
	CBORTagOptionType
	CBORTagUintType
)
