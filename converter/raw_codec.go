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

package converter

import "fmt"

// rawCodec passes a single []byte positional argument, or a single []byte
// result, straight through with no re-encoding - the equivalent of the
// "raw" metadata-encoding special case other SDKs in this ecosystem give
// []byte payloads, so a caller moving pre-serialized blobs (images,
// protobuf, etc.) through a call doesn't pay a JSON round-trip for bytes
// that are opaque to the framework anyway.
type rawCodec struct{}

// RawPassthroughCodec returns a Codec for activities/workflows whose sole
// argument and result type is []byte.
func RawPassthroughCodec() Codec { return rawCodec{} }

func (rawCodec) EncodeArgs(positional []interface{}, keyword map[string]interface{}) ([]byte, error) {
	if len(keyword) != 0 {
		return nil, fmt.Errorf("%w: raw codec does not support keyword arguments", ErrUnableToEncodeArgs)
	}
	if len(positional) != 1 {
		return nil, fmt.Errorf("%w: raw codec expects exactly one positional argument", ErrUnableToEncodeArgs)
	}
	b, ok := positional[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: raw codec expects a []byte argument", ErrUnableToEncodeArgs)
	}
	return b, nil
}

func (rawCodec) DecodeArgs(data []byte) ([]interface{}, map[string]interface{}, error) {
	return []interface{}{data}, nil, nil
}

func (rawCodec) EncodeResult(value interface{}) ([]byte, error) {
	b, ok := value.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: raw codec expects a []byte result", ErrUnableToEncodeResult)
	}
	return b, nil
}

func (rawCodec) DecodeResult(data []byte, valuePtr interface{}) error {
	ptr, ok := valuePtr.(*[]byte)
	if !ok {
		return fmt.Errorf("%w: raw codec expects a *[]byte destination", ErrUnableToDecodeResult)
	}
	*ptr = data
	return nil
}
