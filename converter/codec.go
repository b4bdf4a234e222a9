// The MIT License
//
// Copyright (c) 2020 Temporal Technologies Inc.  All rights reserved.
//
// Copyright (c) 2020 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package converter encodes and decodes the arguments and results carried
// across the wire between workflows, activities, and the remote service.
// No codec is installed process-wide: callers thread a Codec explicitly
// through proxy descriptors and the runtime, so two workflows in the same
// process can use different wire formats if they need to.
package converter

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors returned by DefaultCodec, named so callers can match on
// them with errors.Is rather than string-matching a message.
var (
	ErrUnableToEncodeArgs   = errors.New("converter: unable to encode call arguments")
	ErrUnableToDecodeArgs   = errors.New("converter: unable to decode call arguments")
	ErrUnableToEncodeResult = errors.New("converter: unable to encode call result")
	ErrUnableToDecodeResult = errors.New("converter: unable to decode call result")
)

// Codec is the pluggable wire format for call arguments and results. The
// framework default (DefaultCodec) is a textual, self-describing format;
// any deterministic, self-describing codec satisfies this interface.
type Codec interface {
	// EncodeArgs packs positional and keyword arguments into bytes.
	EncodeArgs(positional []interface{}, keyword map[string]interface{}) ([]byte, error)
	// DecodeArgs unpacks bytes produced by EncodeArgs.
	DecodeArgs(data []byte) (positional []interface{}, keyword map[string]interface{}, err error)
	// EncodeResult packs a single result value into bytes.
	EncodeResult(value interface{}) ([]byte, error)
	// DecodeResult unpacks bytes produced by EncodeResult into valuePtr.
	DecodeResult(data []byte, valuePtr interface{}) error
}

// jsonCodec is the framework default Codec, encoding everything as JSON.
// Arguments are carried as a 2-element [positional, keyword] array,
// mirroring the source format's envelope.
type jsonCodec struct{}

// DefaultCodec returns the framework's default Codec: JSON arguments
// encoded as a [positional, keyword] pair, and a bare JSON value for
// results.
func DefaultCodec() Codec { return jsonCodec{} }

func (jsonCodec) EncodeArgs(positional []interface{}, keyword map[string]interface{}) ([]byte, error) {
	if positional == nil {
		positional = []interface{}{}
	}
	if keyword == nil {
		keyword = map[string]interface{}{}
	}
	data, err := json.Marshal([2]interface{}{positional, keyword})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToEncodeArgs, err)
	}
	return data, nil
}

func (jsonCodec) DecodeArgs(data []byte) ([]interface{}, map[string]interface{}, error) {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnableToDecodeArgs, err)
	}
	var positional []interface{}
	if err := json.Unmarshal(pair[0], &positional); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnableToDecodeArgs, err)
	}
	var keyword map[string]interface{}
	if err := json.Unmarshal(pair[1], &keyword); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnableToDecodeArgs, err)
	}
	return positional, keyword, nil
}

func (jsonCodec) EncodeResult(value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToEncodeResult, err)
	}
	return data, nil
}

func (jsonCodec) DecodeResult(data []byte, valuePtr interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, valuePtr); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToDecodeResult, err)
	}
	return nil
}
