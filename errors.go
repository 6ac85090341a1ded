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

package cairo

import (
	"fmt"
	"math/big"

	"github.com/onflow/cairo/errors"
)

// RangeError is reported for a value outside of the range of a felt or an unsigned integer type.
type RangeError struct {
	Type  Type
	Value *big.Int
}

var _ errors.UserError = RangeError{}

func NewRangeError(typ Type, value *big.Int) RangeError {
	return RangeError{
		Type:  typ,
		Value: value,
	}
}

func (RangeError) IsUserError() {}

func (e RangeError) Error() string {
	value := "<nil>"
	if e.Value != nil {
		value = e.Value.String()
	}

	var upperBound *big.Int
	switch typ := e.Type.(type) {
	case *UintType:
		upperBound = typ.Max()
	case FeltType:
		upperBound = new(big.Int).Sub(feltPrime, big.NewInt(1))
	}

	if upperBound == nil {
		return fmt.Sprintf("value %s is out of range for type %s", value, typeID(e.Type))
	}

	return fmt.Sprintf(
		"value %s is out of range for type %s: expected value in [0, %s]",
		value,
		typeID(e.Type),
		upperBound,
	)
}
