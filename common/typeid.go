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

package common

import (
	"strconv"
	"strings"
)

// TypeID is the canonical textual identifier of a Cairo type.
type TypeID string

const FeltTypeID TypeID = "felt"

// UnresolvedTypeID stands in for a type which is not known yet,
// e.g. the payload type of an unresolved option.
const UnresolvedTypeID TypeID = "?"

// FormatTupleTypeID returns the ID of a tuple with the given element type IDs,
// e.g. `(felt, u8)`. A single-element tuple keeps a trailing comma: `(felt,)`.
func FormatTupleTypeID[T ~string](elementTypeIDs []T) T {
	var builder strings.Builder
	builder.WriteByte('(')
	for i, elementTypeID := range elementTypeIDs {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(string(elementTypeID))
	}
	if len(elementTypeIDs) == 1 {
		builder.WriteByte(',')
	}
	builder.WriteByte(')')
	return T(builder.String())
}

// FormatNamedTupleTypeID returns the ID of a named tuple,
// e.g. `(x: felt, y: felt)`.
// The identifiers and type IDs are paired by index.
func FormatNamedTupleTypeID[T ~string](identifiers []string, typeIDs []T) T {
	var builder strings.Builder
	builder.WriteByte('(')
	for i, identifier := range identifiers {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(identifier)
		builder.WriteString(": ")
		builder.WriteString(string(typeIDs[i]))
	}
	builder.WriteByte(')')
	return T(builder.String())
}

func FormatArrayTypeID[T ~string](elementTypeID T) T {
	return T("Array<" + string(elementTypeID) + ">")
}

// FormatOptionTypeID returns the ID of an option.
// An empty payload type ID denotes an unresolved payload type.
func FormatOptionTypeID[T ~string](payloadTypeID T) T {
	if payloadTypeID == "" {
		payloadTypeID = T(UnresolvedTypeID)
	}
	return T("Option<" + string(payloadTypeID) + ">")
}

func FormatUintTypeID[T ~string](bits uint) T {
	return T("u" + strconv.FormatUint(uint64(bits), 10))
}
