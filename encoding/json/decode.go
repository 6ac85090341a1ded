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
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/onflow/cairo"
	"github.com/onflow/cairo/errors"
)

type pathElement interface {
	Append(w io.Writer)
}

type indexPathElement int

var _ pathElement = indexPathElement(0)

func (e indexPathElement) Append(w io.Writer) {
	_, _ = fmt.Fprintf(w, "[%d]", int(e))
}

type propertyPathElement string

var _ pathElement = propertyPathElement("")

func (e propertyPathElement) Append(w io.Writer) {
	_, _ = fmt.Fprintf(w, ".%s", e)
}

// DefaultMaxDepth is the default maximum nesting of decoded types.
const DefaultMaxDepth = 256

// MaxUintBits is the largest bit width accepted for unsigned integer types.
const MaxUintBits = 1 << 16

// A Decoder decodes JSON-encoded representations of Cairo types.
type Decoder struct {
	dec    *json.Decoder
	logger zerolog.Logger
	// requireResolvedTypes controls if unresolved types
	// (e.g. the payload type of an unresolved option) are rejected
	requireResolvedTypes bool
	maxDepth             int
	depth                int
	pathContext          []pathElement
}

type Option func(*Decoder)

// WithMaxDepth returns a new Decoder option
// which limits how deeply types may be nested.
func WithMaxDepth(maxDepth int) Option {
	return func(decoder *Decoder) {
		decoder.maxDepth = maxDepth
	}
}

// WithLogger returns a new Decoder option
// which traces decoded structs and enums to the given logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(decoder *Decoder) {
		decoder.logger = logger
	}
}

// WithRequireResolvedTypes returns a new Decoder option
// which rejects unresolved types, e.g. options with an unknown payload type.
func WithRequireResolvedTypes() Option {
	return func(decoder *Decoder) {
		decoder.requireResolvedTypes = true
	}
}

// Decode returns a Cairo type decoded from its JSON-encoded representation.
//
// This function returns an error if the bytes represent JSON that is malformed
// or does not describe a Cairo type.
func Decode(b []byte, options ...Option) (cairo.Type, error) {
	r := bytes.NewReader(b)
	dec := NewDecoder(r, options...)

	typ, err := dec.Decode()
	if err != nil {
		return nil, err
	}

	return typ, nil
}

// NewDecoder initializes a Decoder that will decode JSON-encoded bytes from the
// given io.Reader.
func NewDecoder(r io.Reader, options ...Option) *Decoder {
	decoder := &Decoder{
		dec:         json.NewDecoder(r),
		logger:      zerolog.Nop(),
		maxDepth:    DefaultMaxDepth,
		pathContext: make([]pathElement, 0, 8),
	}

	for _, option := range options {
		option(decoder)
	}

	return decoder
}

// Decode reads JSON-encoded bytes from the io.Reader and decodes them to a
// Cairo type.
//
// This function returns an error if the bytes represent JSON that is malformed
// or does not describe a Cairo type.
func (d *Decoder) Decode() (typ cairo.Type, err error) {
	jsonMap := make(map[string]any)

	err = d.dec.Decode(&jsonMap)
	if err != nil {
		return nil, errors.NewDefaultUserError("failed to decode JSON: %w", err)
	}

	d.depth = 0
	d.pathContext = d.pathContext[:0]

	// capture panics that occur during decoding
	defer func() {
		if r := recover(); r != nil {
			panicErr, isError := r.(error)
			if !isError {
				panic(r)
			}

			if errors.IsInternalError(panicErr) {
				err = panicErr
				return
			}

			format := "failed to decode JSON-Cairo type: %w"

			path := d.getPathString()
			if path != "" {
				format += fmt.Sprintf(" (at %s)", path)
			}

			err = errors.NewDefaultUserError(format, panicErr)
		}
	}()

	typ = d.decodeType(jsonMap)
	return typ, nil
}

const (
	kindKey     = "kind"
	typeKey     = "type"
	typesKey    = "types"
	fieldsKey   = "fields"
	variantsKey = "variants"
	nameKey     = "name"
	idKey       = "id"
	bitsKey     = "bits"
)

func (d *Decoder) pushPath(element pathElement) {
	d.pathContext = append(d.pathContext, element)
}

func (d *Decoder) popPath() {
	if len(d.pathContext) > 0 {
		d.pathContext = d.pathContext[:len(d.pathContext)-1]
	}
}

func (d *Decoder) getPathString() string {
	if len(d.pathContext) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, element := range d.pathContext {
		element.Append(&builder)
	}
	return builder.String()
}

func (d *Decoder) decodeType(valueJSON any) cairo.Type {
	if valueJSON == "" {
		if d.requireResolvedTypes {
			panic(errors.NewDefaultUserError("unresolved type"))
		}
		return nil
	}

	d.depth++
	defer func() {
		d.depth--
	}()

	if d.depth > d.maxDepth {
		panic(errors.NewDefaultUserError("maximum type nesting depth of %d exceeded", d.maxDepth))
	}

	obj := toObject(valueJSON)
	kind := get(d, obj, kindKey, toString)

	switch kind {
	case feltKind:
		return cairo.TheFeltType

	case tupleKind:
		return d.decodeTupleType(obj)

	case namedTupleKind:
		fields := get(d, obj, fieldsKey, d.decodeFields)
		return cairo.NewNamedTupleType(fields)

	case arrayKind:
		elementType := get(d, obj, typeKey, d.decodeType)
		return cairo.NewArrayType(elementType)

	case structKind:
		return d.decodeStructType(obj)

	case enumKind:
		return d.decodeEnumType(obj)

	case optionKind:
		payloadType := get(d, obj, typeKey, d.decodeType)
		if payloadType == nil {
			return cairo.NewUnresolvedOptionType()
		}
		return cairo.NewOptionType(payloadType)

	case uintKind:
		bits := get(d, obj, bitsKey, toBits)
		return cairo.NewUintType(bits)
	}

	panic(errors.NewDefaultUserError("invalid kind: %s", kind))
}

func (d *Decoder) decodeTupleType(obj jsonObject) cairo.Type {
	types := get(d, obj, typesKey, func(valueJSON any) []cairo.Type {
		typesJSON := toSlice(valueJSON)
		if len(typesJSON) == 0 {
			return nil
		}

		types := make([]cairo.Type, len(typesJSON))
		for i, typeJSON := range typesJSON {
			d.pushPath(indexPathElement(i))
			types[i] = d.decodeType(typeJSON)
			d.popPath()
		}
		return types
	})

	return cairo.NewTupleType(types)
}

func (d *Decoder) decodeStructType(obj jsonObject) cairo.Type {
	name := get(d, obj, nameKey, toString)
	fields := get(d, obj, fieldsKey, d.decodeFields)

	d.logger.Debug().
		Str("kind", structKind).
		Str("name", name).
		Int("fields", len(fields)).
		Msg("decoded type")

	return cairo.NewStructType(name, fields)
}

func (d *Decoder) decodeEnumType(obj jsonObject) cairo.Type {
	name := get(d, obj, nameKey, toString)

	identifiers, types := get(d, obj, variantsKey, d.decodeMembers).unzip()

	var variants []cairo.Variant
	if len(identifiers) > 0 {
		variants = make([]cairo.Variant, len(identifiers))
		for i, identifier := range identifiers {
			variants[i] = cairo.NewVariant(identifier, types[i])
		}
	}

	d.logger.Debug().
		Str("kind", enumKind).
		Str("name", name).
		Int("variants", len(variants)).
		Msg("decoded type")

	return cairo.NewEnumType(name, variants)
}

func (d *Decoder) decodeFields(valueJSON any) []cairo.Field {
	identifiers, types := d.decodeMembers(valueJSON).unzip()
	if len(identifiers) == 0 {
		return nil
	}

	fields := make([]cairo.Field, len(identifiers))
	for i, identifier := range identifiers {
		fields[i] = cairo.NewField(identifier, types[i])
	}
	return fields
}

type member struct {
	typ        cairo.Type
	identifier string
}

type members []member

func (m members) unzip() ([]string, []cairo.Type) {
	identifiers := make([]string, len(m))
	types := make([]cairo.Type, len(m))
	for i, entry := range m {
		identifiers[i] = entry.identifier
		types[i] = entry.typ
	}
	return identifiers, types
}

// decodeMembers decodes a list of named members in declaration order.
// Member names must be unique.
func (d *Decoder) decodeMembers(valueJSON any) members {
	membersJSON := toSlice(valueJSON)

	result := make(members, len(membersJSON))
	seen := make(map[string]struct{}, len(membersJSON))

	for i, memberJSON := range membersJSON {
		d.pushPath(indexPathElement(i))

		obj := toObject(memberJSON)
		identifier := get(d, obj, idKey, toString)

		if _, ok := seen[identifier]; ok {
			panic(errors.NewDefaultUserError("duplicate member: %s", identifier))
		}
		seen[identifier] = struct{}{}

		result[i] = member{
			identifier: identifier,
			typ:        get(d, obj, typeKey, d.decodeType),
		}

		d.popPath()
	}

	return result
}

// JSON types

type jsonObject map[string]any

func get[T any](d *Decoder, obj jsonObject, key string, f func(valueJSON any) T) T {
	v, ok := obj[key]
	if !ok {
		panic(errors.NewDefaultUserError("missing property: %s", key))
	}

	d.pushPath(propertyPathElement(key))
	result := f(v)
	d.popPath()
	return result
}

// JSON conversion helpers

func toBits(valueJSON any) uint {
	v, ok := valueJSON.(float64)
	if !ok {
		panic(errors.NewDefaultUserError("expected JSON number, got %v", valueJSON))
	}

	if v < 0 || v > MaxUintBits || v != math.Trunc(v) {
		panic(errors.NewDefaultUserError(
			"invalid bit width: expected integer in [0, %d], got %v",
			MaxUintBits,
			v,
		))
	}

	return uint(v)
}

func toString(valueJSON any) string {
	v, ok := valueJSON.(string)
	if !ok {
		panic(errors.NewDefaultUserError("expected JSON string, got %v", valueJSON))
	}

	return v
}

func toSlice(valueJSON any) []any {
	v, ok := valueJSON.([]any)
	if !ok {
		panic(errors.NewDefaultUserError("expected JSON array, got %v", valueJSON))
	}

	return v
}

func toObject(valueJSON any) jsonObject {
	v, ok := valueJSON.(map[string]any)
	if !ok {
		panic(errors.NewDefaultUserError("expected JSON object, got %v", valueJSON))
	}

	return v
}
