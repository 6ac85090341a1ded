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

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/onflow/cairo"
	"github.com/onflow/cairo/errors"
)

// CBOREncMode
//
// See https://github.com/fxamacker/cbor:
// "For best performance, reuse EncMode and DecMode after creating them."
var CBOREncMode = func() cbor.EncMode {
	options := cbor.CoreDetEncOptions()
	encMode, err := options.EncMode()
	if err != nil {
		panic(err)
	}
	return encMode
}()

// An Encoder converts Cairo types into CBOR-encoded bytes.
type Encoder struct {
	w io.Writer
}

// Encode returns the CBOR-encoded representation of the given type.
func Encode(typ cairo.Type) ([]byte, error) {
	var w bytes.Buffer
	enc := NewEncoder(&w)

	err := enc.Encode(typ)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// MustEncode returns the CBOR-encoded representation of the given type, or panics
// if the type cannot be represented as CBOR.
func MustEncode(typ cairo.Type) []byte {
	b, err := Encode(typ)
	if err != nil {
		panic(err)
	}
	return b
}

// NewEncoder initializes an Encoder that will write CBOR-encoded bytes to the
// given io.Writer.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the CBOR-encoded representation of the given type to this
// encoder's io.Writer.
func (e *Encoder) Encode(typ cairo.Type) (err error) {
	// capture panics that occur during preparation
	defer func() {
		if r := recover(); r != nil {
			panicErr, isError := r.(error)
			if !isError {
				panic(r)
			}

			err = fmt.Errorf("failed to encode type: %w", panicErr)
		}
	}()

	if typ == nil {
		return errors.NewDefaultUserError("cannot encode unresolved type")
	}

	b, err := CBOREncMode.Marshal(prepare(typ))
	if err != nil {
		return err
	}

	_, err = e.w.Write(b)
	return err
}

// prepare traverses the given type and constructs the tagged representation
// that can be marshalled to CBOR.
func prepare(typ cairo.Type) any {
	switch typ := typ.(type) {
	case nil:
		return nil

	case cairo.FeltType:
		return cbor.Tag{
			Number:  CBORTagFeltType,
			Content: []any{},
		}

	case *cairo.TupleType:
		types := make([]any, len(typ.Types))
		for i, elementType := range typ.Types {
			types[i] = prepare(elementType)
		}
		return cbor.Tag{
			Number:  CBORTagTupleType,
			Content: []any{types},
		}

	case *cairo.NamedTupleType:
		return cbor.Tag{
			Number:  CBORTagNamedTupleType,
			Content: []any{prepareFields(typ.Fields)},
		}

	case *cairo.ArrayType:
		return cbor.Tag{
			Number:  CBORTagArrayType,
			Content: []any{prepare(typ.ElementType)},
		}

	case *cairo.StructType:
		return cbor.Tag{
			Number: CBORTagStructType,
			Content: []any{
				typ.Name,
				prepareFields(typ.Fields),
			},
		}

	case *cairo.EnumType:
		variants := make([]any, len(typ.Variants))
		for i, variant := range typ.Variants {
			variants[i] = []any{
				variant.Identifier,
				prepare(variant.Type),
			}
		}
		return cbor.Tag{
			Number: CBORTagEnumType,
			Content: []any{
				typ.Name,
				variants,
			},
		}

	case *cairo.OptionType:
		return cbor.Tag{
			Number:  CBORTagOptionType,
			Content: []any{prepare(typ.Type)},
		}

	case *cairo.UintType:
		return cbor.Tag{
			Number:  CBORTagUintType,
			Content: []any{uint64(typ.Bits)},
		}

	default:
		panic(errors.NewUnexpectedError("unsupported type: %T", typ))
	}
}

func prepareFields(fields []cairo.Field) []any {
	members := make([]any, len(fields))
	for i, field := range fields {
		members[i] = []any{
			field.Identifier,
			prepare(field.Type),
		}
	}
	return members
}
