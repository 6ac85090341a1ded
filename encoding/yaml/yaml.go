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

// Package yaml encodes and decodes Cairo types as YAML documents.
//
// The document shape is the one of the JSON encoding,
// which allows type descriptions to be written by hand, e.g.
//
//	kind: Struct
//	name: Point
//	fields:
//	  - id: x
//	    type:
//	      kind: Felt
package yaml

import (
	goyaml "github.com/goccy/go-yaml"

	"github.com/onflow/cairo"
	"github.com/onflow/cairo/encoding/json"
	"github.com/onflow/cairo/errors"
)

// Encode returns the YAML-encoded representation of the given type.
func Encode(typ cairo.Type) ([]byte, error) {
	b, err := json.Encode(typ)
	if err != nil {
		return nil, err
	}

	result, err := goyaml.JSONToYAML(b)
	if err != nil {
		return nil, errors.NewUnexpectedErrorFromCause(err)
	}

	return result, nil
}

// Decode returns a Cairo type decoded from its YAML-encoded representation.
// The options of the JSON decoder apply.
func Decode(b []byte, options ...json.Option) (cairo.Type, error) {
	jsonBytes, err := goyaml.YAMLToJSON(b)
	if err != nil {
		return nil, errors.NewDefaultUserError("failed to decode YAML: %w", err)
	}

	return json.Decode(jsonBytes, options...)
}
