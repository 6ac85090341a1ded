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

package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"

	"github.com/onflow/cairo"
	"github.com/onflow/cairo/errors"
)

// An Encoder converts Cairo types into JSON-encoded bytes.
type Encoder struct {
	w      io.Writer
	indent bool
}

type EncoderOption func(*Encoder)

// WithIndent returns a new Encoder option
// which makes the encoder produce indented, human-readable JSON.
func WithIndent() EncoderOption {
	return func(encoder *Encoder) {
		encoder.indent = true
	}
}

// Encode returns the JSON-encoded representation of the given type.
func Encode(typ cairo.Type, options ...EncoderOption) ([]byte, error) {
	var w bytes.Buffer
	enc := NewEncoder(&w, options...)

	err := enc.Encode(typ)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// MustEncode returns the JSON-encoded representation of the given type, or panics
// if the type cannot be represented as JSON.
func MustEncode(typ cairo.Type, options ...EncoderOption) []byte {
	b, err := Encode(typ, options...)
	if err != nil {
		panic(err)
	}
	return b
}

// NewEncoder initializes an Encoder that will write JSON-encoded bytes to the
// given io.Writer.
func NewEncoder(w io.Writer, options ...EncoderOption) *Encoder {
	encoder := &Encoder{w: w}
	for _, option := range options {
		option(encoder)
	}
	return encoder
}

// Encode writes the JSON-encoded representation of the given type to this
// encoder's io.Writer.
//
// This function returns an error if the given type is not supported
// by this encoder.
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

	preparedType := prepare(typ)

	b, err := json.Marshal(preparedType)
	if err != nil {
		return err
	}

	if e.indent {
		b = pretty.Pretty(b)
	} else {
		b = append(b, '\n')
	}

	_, err = e.w.Write(b)
	return err
}

// JSON struct definitions

type jsonValue any

type jsonSimpleType struct {
	Kind string `json:"kind"`
}

type jsonTupleType struct {
	Kind  string      `json:"kind"`
	Types []jsonValue `json:"types"`
}

type jsonMember struct {
	ID   string    `json:"id"`
	Type jsonValue `json:"type"`
}

type jsonNamedTupleType struct {
	Kind   string       `json:"kind"`
	Fields []jsonMember `json:"fields"`
}

type jsonArrayType struct {
	Kind string    `json:"kind"`
	Type jsonValue `json:"type"`
}

type jsonStructType struct {
	Kind   string       `json:"kind"`
	Name   string       `json:"name"`
	Fields []jsonMember `json:"fields"`
}

type jsonEnumType struct {
	Kind     string       `json:"kind"`
	Name     string       `json:"name"`
	Variants []jsonMember `json:"variants"`
}

type jsonOptionType struct {
	Kind string    `json:"kind"`
	Type jsonValue `json:"type"`
}

type jsonUintType struct {
	Kind string `json:"kind"`
	Bits uint   `json:"bits"`
}

const (
	feltKind       = "Felt"
	tupleKind      = "Tuple"
	namedTupleKind = "NamedTuple"
	arrayKind      = "Array"
	structKind     = "Struct"
	enumKind       = "Enum"
	optionKind     = "Option"
	uintKind       = "Uint"
)

// prepare traverses the given type and constructs a struct representation
// that can be marshalled to JSON.
//
// An unresolved type (nil) is represented by the empty string.
func prepare(typ cairo.Type) jsonValue {
	switch typ := typ.(type) {
	case nil:
		return ""
	case cairo.FeltType:
		return jsonSimpleType{Kind: feltKind}
	case *cairo.TupleType:
		return prepareTupleType(typ)
	case *cairo.NamedTupleType:
		return jsonNamedTupleType{
			Kind:   namedTupleKind,
			Fields: prepareFields(typ.Fields),
		}
	case *cairo.ArrayType:
		return jsonArrayType{
			Kind: arrayKind,
			Type: prepare(typ.ElementType),
		}
	case *cairo.StructType:
		return jsonStructType{
			Kind:   structKind,
			Name:   typ.Name,
			Fields: prepareFields(typ.Fields),
		}
	case *cairo.EnumType:
		return prepareEnumType(typ)
	case *cairo.OptionType:
		return jsonOptionType{
			Kind: optionKind,
			Type: prepare(typ.Type),
		}
	case *cairo.UintType:
		return jsonUintType{
			Kind: uintKind,
			Bits: typ.Bits,
		}
	default:
		panic(errors.NewUnexpectedError("unsupported type: %T", typ))
	}
}

func prepareTupleType(typ *cairo.TupleType) jsonValue {
	types := make([]jsonValue, len(typ.Types))
	for i, elementType := range typ.Types {
		types[i] = prepare(elementType)
	}

	return jsonTupleType{
		Kind:  tupleKind,
		Types: types,
	}
}

func prepareFields(fields []cairo.Field) []jsonMember {
	members := make([]jsonMember, len(fields))
	for i, field := range fields {
		members[i] = jsonMember{
			ID:   field.Identifier,
			Type: prepare(field.Type),
		}
	}
	return members
}

func prepareEnumType(typ *cairo.EnumType) jsonValue {
	variants := make([]jsonMember, len(typ.Variants))
	for i, variant := range typ.Variants {
		variants[i] = jsonMember{
			ID:   variant.Identifier,
			Type: prepare(variant.Type),
		}
	}

	return jsonEnumType{
		Kind:     enumKind,
		Name:     typ.Name,
		Variants: variants,
	}
}
