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
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/onflow/cairo/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newPointType(name string) *StructType {
	return NewStructType(
		name,
		[]Field{
			NewField("x", TheFeltType),
			NewField("y", TheFeltType),
		},
	)
}

func TestType_ID(t *testing.T) {

	t.Parallel()

	type testCase struct {
		ty       Type
		expected string
	}

	stringerTests := []testCase{
		{TheFeltType, "felt"},
		{U8Type, "u8"},
		{U256Type, "u256"},
		{NewUintType(0), "u0"},
		{NewTupleType(nil), "()"},
		{NewTupleType([]Type{TheFeltType}), "(felt,)"},
		{NewTupleType([]Type{TheFeltType, U8Type}), "(felt, u8)"},
		{
			NewNamedTupleType([]Field{
				NewField("a", TheFeltType),
				NewField("b", NewArrayType(U64Type)),
			}),
			"(a: felt, b: Array<u64>)",
		},
		{NewArrayType(TheFeltType), "Array<felt>"},
		{NewArrayType(NewArrayType(U8Type)), "Array<Array<u8>>"},
		{newPointType("Point"), "Point"},
		{
			NewEnumType("Direction", []Variant{
				NewVariant("North", NewTupleType(nil)),
			}),
			"Direction",
		},
		{NewOptionType(U128Type), "Option<u128>"},
		{NewOptionType(newPointType("Point")), "Option<Point>"},
		{NewUnresolvedOptionType(), "Option<?>"},
		{NewArrayType(nil), "Array<?>"},
	}

	test := func(ty Type, expected string) {

		id := ty.ID()

		t.Run(id, func(t *testing.T) {

			t.Parallel()

			assert.Equal(t, expected, id)
		})
	}

	for _, testCase := range stringerTests {
		test(testCase.ty, testCase.expected)
	}
}

func TestType_Equal(t *testing.T) {

	t.Parallel()

	t.Run("felt", func(t *testing.T) {
		t.Parallel()

		assert.True(t, TheFeltType.Equal(FeltType{}))
		assert.False(t, TheFeltType.Equal(U8Type))
		assert.False(t, TheFeltType.Equal(nil))
		assert.False(t, TheFeltType.Equal(&FeltType{}))
	})

	t.Run("empty tuples", func(t *testing.T) {
		t.Parallel()

		tuple := NewTupleType(nil)
		namedTuple := NewNamedTupleType(nil)

		// same ID, different types
		assert.Equal(t, tuple.ID(), namedTuple.ID())
		assert.False(t, tuple.Equal(namedTuple))
		assert.False(t, namedTuple.Equal(tuple))
		assert.True(t, namedTuple.Equal(NewNamedTupleType([]Field{})))
	})

	t.Run("uint", func(t *testing.T) {
		t.Parallel()

		assert.True(t, U8Type.Equal(NewUintType(8)))
		assert.False(t, U8Type.Equal(U16Type))
		assert.False(t, U8Type.Equal(TheFeltType))
	})

	t.Run("tuple", func(t *testing.T) {
		t.Parallel()

		tuple := NewTupleType([]Type{TheFeltType, U8Type})

		assert.True(t, tuple.Equal(NewTupleType([]Type{TheFeltType, NewUintType(8)})))
		assert.False(t, tuple.Equal(NewTupleType([]Type{U8Type, TheFeltType})))
		assert.False(t, tuple.Equal(NewTupleType([]Type{TheFeltType})))
		assert.False(t, tuple.Equal(NewNamedTupleType([]Field{
			NewField("0", TheFeltType),
			NewField("1", U8Type),
		})))
	})

	t.Run("named tuple, order sensitive", func(t *testing.T) {
		t.Parallel()

		xy := NewNamedTupleType([]Field{
			NewField("x", TheFeltType),
			NewField("y", U8Type),
		})
		yx := NewNamedTupleType([]Field{
			NewField("y", U8Type),
			NewField("x", TheFeltType),
		})

		assert.True(t, xy.Equal(NewNamedTupleType([]Field{
			NewField("x", TheFeltType),
			NewField("y", U8Type),
		})))
		assert.False(t, xy.Equal(yx))
	})

	t.Run("struct, order sensitive", func(t *testing.T) {
		t.Parallel()

		xy := newPointType("Point")
		yx := NewStructType(
			"Point",
			[]Field{
				NewField("y", TheFeltType),
				NewField("x", TheFeltType),
			},
		)

		assert.True(t, xy.Equal(newPointType("Point")))
		assert.False(t, xy.Equal(yx))
	})

	t.Run("struct, nominal", func(t *testing.T) {
		t.Parallel()

		assert.False(t, newPointType("Point").Equal(newPointType("Vector")))
	})

	t.Run("struct, member types", func(t *testing.T) {
		t.Parallel()

		other := NewStructType(
			"Point",
			[]Field{
				NewField("x", TheFeltType),
				NewField("y", U8Type),
			},
		)

		assert.False(t, newPointType("Point").Equal(other))
	})

	t.Run("enum", func(t *testing.T) {
		t.Parallel()

		enum := NewEnumType("Result", []Variant{
			NewVariant("Ok", U64Type),
			NewVariant("Err", TheFeltType),
		})

		assert.True(t, enum.Equal(NewEnumType("Result", []Variant{
			NewVariant("Ok", U64Type),
			NewVariant("Err", TheFeltType),
		})))
		assert.False(t, enum.Equal(NewEnumType("Result", []Variant{
			NewVariant("Err", TheFeltType),
			NewVariant("Ok", U64Type),
		})))
		assert.False(t, enum.Equal(NewEnumType("Outcome", []Variant{
			NewVariant("Ok", U64Type),
			NewVariant("Err", TheFeltType),
		})))
		assert.False(t, enum.Equal(NewStructType("Result", nil)))
	})

	t.Run("array", func(t *testing.T) {
		t.Parallel()

		assert.True(t, NewArrayType(U8Type).Equal(NewArrayType(NewUintType(8))))
		assert.False(t, NewArrayType(U8Type).Equal(NewArrayType(TheFeltType)))
		assert.False(t, NewArrayType(U8Type).Equal(NewOptionType(U8Type)))
	})

	t.Run("option", func(t *testing.T) {
		t.Parallel()

		assert.True(t, NewOptionType(U8Type).Equal(NewOptionType(U8Type)))
		assert.True(t, NewUnresolvedOptionType().Equal(NewUnresolvedOptionType()))
		assert.False(t, NewUnresolvedOptionType().Equal(NewOptionType(U8Type)))
		assert.False(t, NewOptionType(U8Type).Equal(NewUnresolvedOptionType()))
		assert.False(t, NewOptionType(U8Type).Equal(U8Type))
	})

	t.Run("nested", func(t *testing.T) {
		t.Parallel()

		newNested := func(innerName string) Type {
			return NewArrayType(
				NewOptionType(
					NewTupleType([]Type{
						newPointType(innerName),
						U256Type,
					}),
				),
			)
		}

		assert.True(t, newNested("Point").Equal(newNested("Point")))
		assert.False(t, newNested("Point").Equal(newNested("Vector")))
	})
}

func TestOrderPreserved(t *testing.T) {

	t.Parallel()

	names := []string{"c", "a", "b"}

	fields := make([]Field, len(names))
	variants := make([]Variant, len(names))
	for i, name := range names {
		fields[i] = NewField(name, TheFeltType)
		variants[i] = NewVariant(name, TheFeltType)
	}

	namedTuple := NewNamedTupleType(fields)
	structType := NewStructType("S", fields)
	enumType := NewEnumType("E", variants)

	for i, name := range names {
		assert.Equal(t, name, namedTuple.Fields[i].Identifier)
		assert.Equal(t, name, structType.Fields[i].Identifier)
		assert.Equal(t, name, enumType.Variants[i].Identifier)

		index, ok := enumType.VariantIndex(name)
		require.True(t, ok)
		assert.Equal(t, i, index)

		index, ok = structType.FieldIndex(name)
		require.True(t, ok)
		assert.Equal(t, i, index)

		index, ok = namedTuple.FieldIndex(name)
		require.True(t, ok)
		assert.Equal(t, i, index)
	}

	assert.Equal(t, "(c: felt, a: felt, b: felt)", namedTuple.ID())
}

func TestMemberLookup(t *testing.T) {

	t.Parallel()

	t.Run("struct", func(t *testing.T) {
		t.Parallel()

		point := newPointType("Point")

		field, ok := point.FieldByName("y")
		require.True(t, ok)
		assert.Equal(t, NewField("y", TheFeltType), field)

		_, ok = point.FieldByName("z")
		assert.False(t, ok)
	})

	t.Run("named tuple", func(t *testing.T) {
		t.Parallel()

		tuple := NewNamedTupleType([]Field{
			NewField("amount", U256Type),
		})

		field, ok := tuple.FieldByName("amount")
		require.True(t, ok)
		assert.Equal(t, U256Type, field.Type)

		_, ok = tuple.FieldByName("missing")
		assert.False(t, ok)
	})

	t.Run("enum", func(t *testing.T) {
		t.Parallel()

		enum := NewEnumType("Option", []Variant{
			NewVariant("Some", TheFeltType),
			NewVariant("None", NewTupleType(nil)),
		})

		variant, ok := enum.VariantByName("None")
		require.True(t, ok)
		assert.True(t, variant.Type.Equal(NewTupleType(nil)))

		_, ok = enum.VariantByName("Other")
		assert.False(t, ok)
	})

	t.Run("duplicate names, first wins", func(t *testing.T) {
		t.Parallel()

		structType := NewStructType("S", []Field{
			NewField("a", TheFeltType),
			NewField("a", U8Type),
		})

		index, ok := structType.FieldIndex("a")
		require.True(t, ok)
		assert.Equal(t, 0, index)
	})

	t.Run("lookup does not affect equality", func(t *testing.T) {
		t.Parallel()

		looked := newPointType("Point")
		fresh := newPointType("Point")

		_, ok := looked.FieldIndex("x")
		require.True(t, ok)

		assert.True(t, looked.Equal(fresh))
		assert.True(t, fresh.Equal(looked))
	})

	t.Run("concurrent", func(t *testing.T) {
		t.Parallel()

		enum := NewEnumType("E", []Variant{
			NewVariant("A", TheFeltType),
			NewVariant("B", U8Type),
			NewVariant("C", U16Type),
		})

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				index, ok := enum.VariantIndex("C")
				assert.True(t, ok)
				assert.Equal(t, 2, index)
			}()
		}
		wg.Wait()
	})
}

func TestOptionType(t *testing.T) {

	t.Parallel()

	t.Run("resolved", func(t *testing.T) {
		t.Parallel()

		point := newPointType("Point")
		option := NewOptionType(point)

		payload, ok := option.PayloadType()
		require.True(t, ok)
		assert.True(t, option.Resolved())
		assert.Same(t, point, payload)
	})

	t.Run("unresolved", func(t *testing.T) {
		t.Parallel()

		option := NewUnresolvedOptionType()

		payload, ok := option.PayloadType()
		assert.False(t, ok)
		assert.Nil(t, payload)
		assert.False(t, option.Resolved())

		for _, ty := range []Type{
			TheFeltType,
			U8Type,
			NewTupleType(nil),
			NewOptionType(TheFeltType),
		} {
			assert.False(t, option.Equal(ty))
		}
	})
}

func TestUintType_CheckRange(t *testing.T) {

	t.Parallel()

	t.Run("u8", func(t *testing.T) {
		t.Parallel()

		assert.True(t, U8Type.CheckRangeInt64(0))
		assert.True(t, U8Type.CheckRangeInt64(255))
		assert.False(t, U8Type.CheckRangeInt64(256))
		assert.False(t, U8Type.CheckRangeInt64(-1))
	})

	t.Run("zero bits", func(t *testing.T) {
		t.Parallel()

		zero := NewUintType(0)
		assert.True(t, zero.CheckRangeInt64(0))
		assert.False(t, zero.CheckRangeInt64(1))
		assert.False(t, zero.CheckRangeInt64(-1))
		assert.Equal(t, 0, zero.Max().Sign())
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()

		assert.False(t, U8Type.CheckRange(nil))
	})

	t.Run("u256 bounds", func(t *testing.T) {
		t.Parallel()

		maxValue := U256Type.Max()
		assert.True(t, U256Type.CheckRange(maxValue))
		assert.False(t, U256Type.CheckRange(new(big.Int).Add(maxValue, big.NewInt(1))))
		assert.Equal(t, 256, maxValue.BitLen())
	})

	t.Run("property", func(t *testing.T) {
		t.Parallel()

		properties := gopter.NewProperties(nil)

		properties.Property("in range iff 0 <= v < 2^bits", prop.ForAll(
			func(bits uint, v int64) bool {
				limit := new(big.Int).Lsh(big.NewInt(1), bits)
				value := big.NewInt(v)
				expected := value.Sign() >= 0 && value.Cmp(limit) < 0
				return NewUintType(bits).CheckRange(value) == expected
			},
			gen.UIntRange(0, 80),
			gen.Int64(),
		))

		properties.Property("max is in range, max + 1 is not", prop.ForAll(
			func(bits uint) bool {
				uintType := NewUintType(bits)
				maxValue := uintType.Max()
				return uintType.CheckRange(maxValue) &&
					!uintType.CheckRange(new(big.Int).Add(maxValue, big.NewInt(1)))
			},
			gen.UIntRange(0, 512),
		))

		properties.Property("negative values are never in range", prop.ForAll(
			func(bits uint, v int64) bool {
				return !NewUintType(bits).CheckRange(big.NewInt(v))
			},
			gen.UIntRange(0, 512),
			gen.Int64Range(-1<<62, -1),
		))

		properties.TestingRun(t)
	})
}

func TestUintType_ValidateRange(t *testing.T) {

	t.Parallel()

	require.NoError(t, U8Type.ValidateRange(big.NewInt(200)))

	err := U8Type.ValidateRange(big.NewInt(256))
	require.Error(t, err)
	assert.True(t, errors.IsUserError(err))

	var rangeErr RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Same(t, U8Type, rangeErr.Type)
	assert.Equal(t,
		"value 256 is out of range for type u8: expected value in [0, 255]",
		err.Error(),
	)

	err = U8Type.ValidateRange(nil)
	require.Error(t, err)
	assert.Equal(t,
		"value <nil> is out of range for type u8: expected value in [0, 255]",
		err.Error(),
	)
}

func TestFeltType_CheckRange(t *testing.T) {

	t.Parallel()

	prime := FeltPrime()
	last := new(big.Int).Sub(prime, big.NewInt(1))

	assert.True(t, TheFeltType.CheckRange(big.NewInt(0)))
	assert.True(t, TheFeltType.CheckRange(last))
	assert.False(t, TheFeltType.CheckRange(prime))
	assert.False(t, TheFeltType.CheckRange(big.NewInt(-1)))
	assert.False(t, TheFeltType.CheckRange(nil))

	// P = 2^251 + 17 * 2^192 + 1
	assert.Equal(t,
		"3618502788666131213697322783095070105623107215331596699973092056135872020481",
		prime.String(),
	)

	// the returned prime is a copy
	prime.SetInt64(0)
	assert.NotEqual(t, int64(0), FeltPrime().Int64())

	err := TheFeltType.ValidateRange(big.NewInt(-1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range for type felt")
}

func TestTreeDepth(t *testing.T) {

	t.Parallel()

	var depth func(ty Type) int
	depth = func(ty Type) int {
		maxDepth := func(types ...Type) int {
			result := 0
			for _, child := range types {
				if d := depth(child); d > result {
					result = d
				}
			}
			return result + 1
		}

		switch ty := ty.(type) {
		case nil:
			return 0
		case FeltType, *UintType:
			return 1
		case *TupleType:
			return maxDepth(ty.Types...)
		case *NamedTupleType:
			children := make([]Type, len(ty.Fields))
			for i, field := range ty.Fields {
				children[i] = field.Type
			}
			return maxDepth(children...)
		case *StructType:
			children := make([]Type, len(ty.Fields))
			for i, field := range ty.Fields {
				children[i] = field.Type
			}
			return maxDepth(children...)
		case *EnumType:
			children := make([]Type, len(ty.Variants))
			for i, variant := range ty.Variants {
				children[i] = variant.Type
			}
			return maxDepth(children...)
		case *ArrayType:
			return maxDepth(ty.ElementType)
		case *OptionType:
			return maxDepth(ty.Type)
		default:
			panic(errors.NewUnreachableError())
		}
	}

	var ty Type = TheFeltType
	for i := 1; i <= 50; i++ {
		assert.Equal(t, i, depth(ty))
		switch i % 3 {
		case 0:
			ty = NewArrayType(ty)
		case 1:
			ty = NewOptionType(ty)
		default:
			ty = NewStructType("S", []Field{NewField("inner", ty)})
		}
	}
}
