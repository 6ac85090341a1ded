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
	"math"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/onflow/cairo"
	"github.com/onflow/cairo/errors"
)

// CBORDecMode
//
// See https://github.com/fxamacker/cbor:
// "For best performance, reuse EncMode and DecMode after creating them."
//
// Type descriptions may come from untrusted sources,
// so indefinite lengths are rejected and sizes are bounded.
// Type nesting is additionally bounded by the Decoder's maximum depth.
var CBORDecMode = func() cbor.DecMode {
	decMode, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		MaxArrayElements: 1_000_000,
		MaxMapPairs:      1_000_000,
		MaxNestedLevels:  math.MaxInt16,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return decMode
}()

// DefaultMaxDepth is the default maximum nesting of decoded types.
const DefaultMaxDepth = 256

// MaxUintBits is the largest bit width accepted for unsigned integer types.
const MaxUintBits = 1 << 16

var cborNull = []byte{0xf6}

// CBOR major types, see RFC 8949, section 3.1
const (
	cborTypePositiveInt byte = 0x00
	cborTypeTextString  byte = 0x60
	cborTypeArray       byte = 0x80
)

type pathElement interface {
	Append(w io.Writer)
}

type indexPathElement int

func (e indexPathElement) Append(w io.Writer) {
	_, _ = fmt.Fprintf(w, "[%d]", int(e))
}

// Decoder decodes CBOR-encoded representations of Cairo types.
type Decoder struct {
	dec                  *cbor.Decoder
	logger               zerolog.Logger
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

// Decode returns a Cairo type decoded from its CBOR-encoded representation.
func Decode(b []byte, options ...Option) (cairo.Type, error) {
	dec := NewDecoder(bytes.NewReader(b), options...)

	typ, err := dec.Decode()
	if err != nil {
		return nil, err
	}

	return typ, nil
}

// NewDecoder initializes a Decoder that will decode CBOR-encoded bytes from the
// given io.Reader.
func NewDecoder(r io.Reader, options ...Option) *Decoder {
	decoder := &Decoder{
		dec:         CBORDecMode.NewDecoder(r),
		logger:      zerolog.Nop(),
		maxDepth:    DefaultMaxDepth,
		pathContext: make([]pathElement, 0, 8),
	}

	for _, option := range options {
		option(decoder)
	}

	return decoder
}

// Decode reads CBOR-encoded bytes from the io.Reader and decodes them to a
// Cairo type.
func (d *Decoder) Decode() (typ cairo.Type, err error) {
	var raw cbor.RawMessage

	err = d.dec.Decode(&raw)
	if err != nil {
		return nil, errors.NewDefaultUserError("failed to decode CBOR: %w", err)
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

			format := "failed to decode CBOR-Cairo type: %w"

			path := d.getPathString()
			if path != "" {
				format += fmt.Sprintf(" (at %s)", path)
			}

			err = errors.NewDefaultUserError(format, panicErr)
		}
	}()

	if bytes.Equal(raw, cborNull) {
		panic(errors.NewDefaultUserError("unresolved top-level type"))
	}

	typ = d.decodeType(raw)
	return typ, nil
}

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

func (d *Decoder) decodeType(raw cbor.RawMessage) cairo.Type {
	if bytes.Equal(raw, cborNull) {
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

	var tag cbor.RawTag
	unmarshal(raw, &tag)

	switch tag.Number {
	case CBORTagFeltType:
		d.decodeContent(tag.Content, 0)
		return cairo.TheFeltType

	case CBORTagTupleType:
		content := d.decodeContent(tag.Content, 1)
		return cairo.NewTupleType(d.decodeTypes(content[0]))

	case CBORTagNamedTupleType:
		content := d.decodeContent(tag.Content, 1)
		return cairo.NewNamedTupleType(d.decodeFields(content[0]))

	case CBORTagArrayType:
		content := d.decodeContent(tag.Content, 1)
		return cairo.NewArrayType(d.decodeElement(0, content[0]))

	case CBORTagStructType:
		return d.decodeStructType(tag.Content)

	case CBORTagEnumType:
		return d.decodeEnumType(tag.Content)

	case CBORTagOptionType:
		content := d.decodeContent(tag.Content, 1)
		payloadType := d.decodeElement(0, content[0])
		if payloadType == nil {
			return cairo.NewUnresolvedOptionType()
		}
		return cairo.NewOptionType(payloadType)

	case CBORTagUintType:
		content := d.decodeContent(tag.Content, 1)
		var bits uint64
		unmarshalExpecting(content[0], cborTypePositiveInt, "unsigned integer", &bits)
		if bits > MaxUintBits {
			panic(errors.NewDefaultUserError(
				"invalid bit width: expected integer in [0, %d], got %d",
				MaxUintBits,
				bits,
			))
		}
		return cairo.NewUintType(uint(bits))
	}

	panic(errors.NewDefaultUserError("invalid type tag: %d", tag.Number))
}

// decodeContent decodes the array content of a type tag
// and checks it has the expected number of elements.
func (d *Decoder) decodeContent(raw cbor.RawMessage, expectedCount int) []cbor.RawMessage {
	content := unmarshalArray(raw)

	if len(content) != expectedCount {
		panic(errors.NewDefaultUserError(
			"invalid type content: expected %d elements, got %d",
			expectedCount,
			len(content),
		))
	}

	return content
}

// decodeElement decodes the type at the given position of the tag content.
func (d *Decoder) decodeElement(index int, raw cbor.RawMessage) cairo.Type {
	d.pushPath(indexPathElement(index))
	typ := d.decodeType(raw)
	d.popPath()
	return typ
}

func (d *Decoder) decodeTypes(raw cbor.RawMessage) []cairo.Type {
	d.pushPath(indexPathElement(0))
	defer d.popPath()

	elements := unmarshalArray(raw)

	if len(elements) == 0 {
		return nil
	}

	types := make([]cairo.Type, len(elements))
	for i, element := range elements {
		types[i] = d.decodeElement(i, element)
	}
	return types
}

func (d *Decoder) decodeStructType(raw cbor.RawMessage) cairo.Type {
	content := d.decodeContent(raw, 2)

	name := d.decodeName(content[0])

	d.pushPath(indexPathElement(1))
	fields := d.decodeFields(content[1])
	d.popPath()

	d.logger.Debug().
		Str("kind", "Struct").
		Str("name", name).
		Int("fields", len(fields)).
		Msg("decoded type")

	return cairo.NewStructType(name, fields)
}

func (d *Decoder) decodeEnumType(raw cbor.RawMessage) cairo.Type {
	content := d.decodeContent(raw, 2)

	name := d.decodeName(content[0])

	d.pushPath(indexPathElement(1))
	identifiers, types := d.decodeMembers(content[1])
	d.popPath()

	var variants []cairo.Variant
	if len(identifiers) > 0 {
		variants = make([]cairo.Variant, len(identifiers))
		for i, identifier := range identifiers {
			variants[i] = cairo.NewVariant(identifier, types[i])
		}
	}

	d.logger.Debug().
		Str("kind", "Enum").
		Str("name", name).
		Int("variants", len(variants)).
		Msg("decoded type")

	return cairo.NewEnumType(name, variants)
}

func (d *Decoder) decodeName(raw cbor.RawMessage) string {
	d.pushPath(indexPathElement(0))
	defer d.popPath()

	var name string
	unmarshalExpecting(raw, cborTypeTextString, "text string", &name)
	return name
}

func (d *Decoder) decodeFields(raw cbor.RawMessage) []cairo.Field {
	identifiers, types := d.decodeMembers(raw)
	if len(identifiers) == 0 {
		return nil
	}

	fields := make([]cairo.Field, len(identifiers))
	for i, identifier := range identifiers {
		fields[i] = cairo.NewField(identifier, types[i])
	}
	return fields
}

// decodeMembers decodes a list of [id, type] pairs in declaration order.
// Member names must be unique.
func (d *Decoder) decodeMembers(raw cbor.RawMessage) ([]string, []cairo.Type) {
	members := unmarshalArray(raw)

	identifiers := make([]string, len(members))
	types := make([]cairo.Type, len(members))
	seen := make(map[string]struct{}, len(members))

	for i, member := range members {
		d.pushPath(indexPathElement(i))

		pair := d.decodeContent(member, 2)

		identifier := d.decodeName(pair[0])
		if _, ok := seen[identifier]; ok {
			panic(errors.NewDefaultUserError("duplicate member: %s", identifier))
		}
		seen[identifier] = struct{}{}

		identifiers[i] = identifier
		types[i] = d.decodeElement(1, pair[1])

		d.popPath()
	}

	return identifiers, types
}

// unmarshalArray decodes an array of raw elements.
// Unmarshalling null into a slice succeeds, so the major type is checked first.
func unmarshalArray(raw cbor.RawMessage) []cbor.RawMessage {
	var elements []cbor.RawMessage
	unmarshalExpecting(raw, cborTypeArray, "array", &elements)
	return elements
}

func unmarshalExpecting(raw cbor.RawMessage, majorType byte, description string, v any) {
	if len(raw) == 0 || raw[0]&0xe0 != majorType {
		panic(errors.NewDefaultUserError("expected CBOR %s, got %s", description, describe(raw)))
	}
	unmarshal(raw, v)
}

func describe(raw cbor.RawMessage) string {
	switch {
	case len(raw) == 0:
		return "nothing"
	case bytes.Equal(raw, cborNull):
		return "null"
	}
	return fmt.Sprintf("major type %d", raw[0]>>5)
}

func unmarshal(raw cbor.RawMessage, v any) {
	err := CBORDecMode.Unmarshal(raw, v)
	if err != nil {
		panic(errors.NewDefaultUserError("%w", err))
	}
}
