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
	"math/big"
	"sync"

	"github.com/onflow/cairo/common"
)

// Type is the closed set of Cairo value shapes.
//
// The implementations are FeltType, *TupleType, *NamedTupleType, *ArrayType,
// *StructType, *EnumType, *OptionType and *UintType.
// Values are immutable after construction and may be shared between goroutines.
//
// Types must be compared with Equal, not with reflect.DeepEqual:
// composite types lazily build lookup indices, which are not part of their identity.
// ID is not an identity either, e.g. a struct's ID is just its name.
type Type interface {
	isType()
	ID() string
	Equal(other Type) bool
}

func typeID(t Type) string {
	if t == nil {
		return string(common.UnresolvedTypeID)
	}
	return t.ID()
}

func typesEqual(t, other Type) bool {
	return common.DeepEquals[Type](t, other)
}

// FeltType

// FeltType is used as a value, e.g. TheFeltType. *FeltType is not a valid Type.
type FeltType struct{}

var TheFeltType = FeltType{}

var _ Type = FeltType{}

// feltPrime is the order of the field, P = 2^251 + 17 * 2^192 + 1
var feltPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	p.Add(p, new(big.Int).Lsh(big.NewInt(17), 192))
	return p.Add(p, big.NewInt(1))
}()

// FeltPrime returns the order of the field felts are elements of.
func FeltPrime() *big.Int {
	return new(big.Int).Set(feltPrime)
}

func (FeltType) isType() {}

func (FeltType) ID() string {
	return string(common.FeltTypeID)
}

func (FeltType) Equal(other Type) bool {
	_, ok := other.(FeltType)
	return ok
}

// CheckRange reports whether the value is a valid field element, i.e. 0 <= value < P.
func (FeltType) CheckRange(value *big.Int) bool {
	return value != nil &&
		value.Sign() >= 0 &&
		value.Cmp(feltPrime) < 0
}

func (t FeltType) ValidateRange(value *big.Int) error {
	if !t.CheckRange(value) {
		return NewRangeError(t, value)
	}
	return nil
}

// TupleType

type TupleType struct {
	Types []Type
}

var _ Type = &TupleType{}

func NewTupleType(types []Type) *TupleType {
	return &TupleType{Types: types}
}

func (*TupleType) isType() {}

func (t *TupleType) ID() string {
	typeIDs := make([]string, len(t.Types))
	for i, elementType := range t.Types {
		typeIDs[i] = typeID(elementType)
	}
	return common.FormatTupleTypeID(typeIDs)
}

func (t *TupleType) Equal(other Type) bool {
	otherType, ok := other.(*TupleType)
	if !ok {
		return false
	}

	if len(t.Types) != len(otherType.Types) {
		return false
	}

	for i, elementType := range t.Types {
		if !typesEqual(elementType, otherType.Types[i]) {
			return false
		}
	}

	return true
}

// Field

// Field is a named member of a named tuple or a struct.
type Field struct {
	Type       Type
	Identifier string
}

func NewField(identifier string, typ Type) Field {
	return Field{
		Identifier: identifier,
		Type:       typ,
	}
}

func fieldsEqual(fields, otherFields []Field) bool {
	if len(fields) != len(otherFields) {
		return false
	}

	for i, field := range fields {
		otherField := otherFields[i]
		if field.Identifier != otherField.Identifier ||
			!typesEqual(field.Type, otherField.Type) {

			return false
		}
	}

	return true
}

func fieldsID(fields []Field) string {
	identifiers := make([]string, len(fields))
	typeIDs := make([]string, len(fields))
	for i, field := range fields {
		identifiers[i] = field.Identifier
		typeIDs[i] = typeID(field.Type)
	}
	return common.FormatNamedTupleTypeID(identifiers, typeIDs)
}

// memberIndex lazily maps member names to their position.
// The member slice stays the source of truth for order,
// and for duplicate names the first declaration wins.
type memberIndex struct {
	indices map[string]int
	once    sync.Once
}

func (m *memberIndex) lookup(name string, count int, identifierAt func(int) string) (int, bool) {
	m.once.Do(func() {
		m.indices = make(map[string]int, count)
		for i := 0; i < count; i++ {
			identifier := identifierAt(i)
			if _, ok := m.indices[identifier]; !ok {
				m.indices[identifier] = i
			}
		}
	})
	index, ok := m.indices[name]
	return index, ok
}

// NamedTupleType

type NamedTupleType struct {
	Fields       []Field
	fieldIndices memberIndex
}

var _ Type = &NamedTupleType{}

func NewNamedTupleType(fields []Field) *NamedTupleType {
	return &NamedTupleType{Fields: fields}
}

func (*NamedTupleType) isType() {}

// ID returns e.g. `(x: felt, y: u8)`.
// The ID of an empty named tuple is `()`, the same as the one of an empty tuple.
func (t *NamedTupleType) ID() string {
	return fieldsID(t.Fields)
}

func (t *NamedTupleType) Equal(other Type) bool {
	otherType, ok := other.(*NamedTupleType)
	if !ok {
		return false
	}

	return fieldsEqual(t.Fields, otherType.Fields)
}

// FieldIndex returns the position of the field with the given name.
func (t *NamedTupleType) FieldIndex(name string) (int, bool) {
	return t.fieldIndices.lookup(name, len(t.Fields), func(i int) string {
		return t.Fields[i].Identifier
	})
}

func (t *NamedTupleType) FieldByName(name string) (Field, bool) {
	index, ok := t.FieldIndex(name)
	if !ok {
		return Field{}, false
	}
	return t.Fields[index], true
}

// ArrayType

type ArrayType struct {
	ElementType Type
}

var _ Type = &ArrayType{}

func NewArrayType(elementType Type) *ArrayType {
	return &ArrayType{ElementType: elementType}
}

func (*ArrayType) isType() {}

func (t *ArrayType) ID() string {
	return common.FormatArrayTypeID(typeID(t.ElementType))
}

func (t *ArrayType) Element() Type {
	return t.ElementType
}

func (t *ArrayType) Equal(other Type) bool {
	otherType, ok := other.(*ArrayType)
	if !ok {
		return false
	}

	return typesEqual(t.ElementType, otherType.ElementType)
}

// StructType

// StructType is nominal: two structs with the same members
// but different names are different types.
type StructType struct {
	Name         string
	Fields       []Field
	fieldIndices memberIndex
}

var _ Type = &StructType{}

func NewStructType(name string, fields []Field) *StructType {
	return &StructType{
		Name:   name,
		Fields: fields,
	}
}

func (*StructType) isType() {}

func (t *StructType) ID() string {
	return t.Name
}

func (t *StructType) Equal(other Type) bool {
	otherType, ok := other.(*StructType)
	if !ok {
		return false
	}

	return t.Name == otherType.Name &&
		fieldsEqual(t.Fields, otherType.Fields)
}

func (t *StructType) FieldIndex(name string) (int, bool) {
	return t.fieldIndices.lookup(name, len(t.Fields), func(i int) string {
		return t.Fields[i].Identifier
	})
}

func (t *StructType) FieldByName(name string) (Field, bool) {
	index, ok := t.FieldIndex(name)
	if !ok {
		return Field{}, false
	}
	return t.Fields[index], true
}

// Variant

// Variant is a case of an enum and the type of its payload.
type Variant struct {
	Type       Type
	Identifier string
}

func NewVariant(identifier string, typ Type) Variant {
	return Variant{
		Identifier: identifier,
		Type:       typ,
	}
}

// EnumType

// EnumType is a tagged sum type.
// The position of a variant in Variants is its discriminant.
type EnumType struct {
	Name           string
	Variants       []Variant
	variantIndices memberIndex
}

var _ Type = &EnumType{}

func NewEnumType(name string, variants []Variant) *EnumType {
	return &EnumType{
		Name:     name,
		Variants: variants,
	}
}

func (*EnumType) isType() {}

func (t *EnumType) ID() string {
	return t.Name
}

func (t *EnumType) Equal(other Type) bool {
	otherType, ok := other.(*EnumType)
	if !ok {
		return false
	}

	if t.Name != otherType.Name ||
		len(t.Variants) != len(otherType.Variants) {

		return false
	}

	for i, variant := range t.Variants {
		otherVariant := otherType.Variants[i]
		if variant.Identifier != otherVariant.Identifier ||
			!typesEqual(variant.Type, otherVariant.Type) {

			return false
		}
	}

	return true
}

// VariantIndex returns the discriminant of the variant with the given name.
func (t *EnumType) VariantIndex(name string) (int, bool) {
	return t.variantIndices.lookup(name, len(t.Variants), func(i int) string {
		return t.Variants[i].Identifier
	})
}

func (t *EnumType) VariantByName(name string) (Variant, bool) {
	index, ok := t.VariantIndex(name)
	if !ok {
		return Variant{}, false
	}
	return t.Variants[index], true
}

// OptionType

// OptionType is an optional value of the payload type Type.
//
// A nil Type means the payload type is not resolved yet.
// It does NOT mean an option of nothing.
type OptionType struct {
	Type Type
}

var _ Type = &OptionType{}

func NewOptionType(typ Type) *OptionType {
	return &OptionType{Type: typ}
}

// NewUnresolvedOptionType returns an option whose payload type is not known yet.
func NewUnresolvedOptionType() *OptionType {
	return &OptionType{}
}

func (*OptionType) isType() {}

func (t *OptionType) ID() string {
	if !t.Resolved() {
		return common.FormatOptionTypeID("")
	}
	return common.FormatOptionTypeID(t.Type.ID())
}

func (t *OptionType) Equal(other Type) bool {
	otherType, ok := other.(*OptionType)
	if !ok {
		return false
	}

	return typesEqual(t.Type, otherType.Type)
}

// Resolved reports whether the payload type is known.
func (t *OptionType) Resolved() bool {
	return t.Type != nil
}

// PayloadType returns the payload type, if it is resolved.
func (t *OptionType) PayloadType() (Type, bool) {
	return t.Type, t.Resolved()
}

// UintType

// UintType is an unsigned integer of a fixed width,
// its values are in the range [0, 2^Bits - 1].
type UintType struct {
	Bits uint
}

var _ Type = &UintType{}

func NewUintType(bits uint) *UintType {
	return &UintType{Bits: bits}
}

var U8Type = NewUintType(8)
var U16Type = NewUintType(16)
var U32Type = NewUintType(32)
var U64Type = NewUintType(64)
var U128Type = NewUintType(128)
var U256Type = NewUintType(256)

func (*UintType) isType() {}

func (t *UintType) ID() string {
	return common.FormatUintTypeID[string](t.Bits)
}

func (t *UintType) Equal(other Type) bool {
	otherType, ok := other.(*UintType)
	if !ok {
		return false
	}

	return t.Bits == otherType.Bits
}

// CheckRange reports whether 0 <= value < 2^Bits.
// A nil value is never in range.
func (t *UintType) CheckRange(value *big.Int) bool {
	if value == nil || value.Sign() < 0 {
		return false
	}
	// for non-negative values, value < 2^n iff value needs at most n bits
	return uint(value.BitLen()) <= t.Bits
}

func (t *UintType) CheckRangeInt64(value int64) bool {
	return t.CheckRange(big.NewInt(value))
}

// Max returns the largest value in range, 2^Bits - 1.
func (t *UintType) Max() *big.Int {
	one := big.NewInt(1)
	limit := new(big.Int).Lsh(one, t.Bits)
	return limit.Sub(limit, one)
}

// ValidateRange returns a RangeError if the value is not in range.
func (t *UintType) ValidateRange(value *big.Int) error {
	if !t.CheckRange(value) {
		return NewRangeError(t, value)
	}
	return nil
}
