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

package common_utils

import (
	"fmt"
	"math/rand"

	"github.com/onflow/cairo"
)

// RandomType returns a pseudo-random type tree nested at most maxDepth levels deep.
// Member names are unique within each composite.
func RandomType(r *rand.Rand, maxDepth int) cairo.Type {
	if maxDepth <= 1 {
		return randomLeafType(r)
	}

	childDepth := maxDepth - 1

	switch r.Intn(8) {
	case 0:
		return cairo.TheFeltType

	case 1:
		types := make([]cairo.Type, r.Intn(4))
		for i := range types {
			types[i] = RandomType(r, childDepth)
		}
		return cairo.NewTupleType(types)

	case 2:
		return cairo.NewNamedTupleType(randomFields(r, childDepth))

	case 3:
		return cairo.NewArrayType(RandomType(r, childDepth))

	case 4:
		return cairo.NewStructType(
			fmt.Sprintf("S%d", r.Intn(3)),
			randomFields(r, childDepth),
		)

	case 5:
		variants := make([]cairo.Variant, r.Intn(4))
		for i := range variants {
			variants[i] = cairo.NewVariant(
				fmt.Sprintf("V%d", i),
				RandomType(r, childDepth),
			)
		}
		return cairo.NewEnumType(fmt.Sprintf("E%d", r.Intn(3)), variants)

	case 6:
		if r.Intn(4) == 0 {
			return cairo.NewUnresolvedOptionType()
		}
		return cairo.NewOptionType(RandomType(r, childDepth))

	default:
		return randomLeafType(r)
	}
}

func randomLeafType(r *rand.Rand) cairo.Type {
	if r.Intn(2) == 0 {
		return cairo.TheFeltType
	}
	return cairo.NewUintType(uint(r.Intn(257)))
}

func randomFields(r *rand.Rand, maxDepth int) []cairo.Field {
	fields := make([]cairo.Field, r.Intn(4))
	// shuffled names, so declaration order differs from sorted order
	names := r.Perm(len(fields))
	for i := range fields {
		fields[i] = cairo.NewField(
			fmt.Sprintf("f%d", names[i]),
			RandomType(r, maxDepth),
		)
	}
	return fields
}
