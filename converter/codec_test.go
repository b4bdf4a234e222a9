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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCodecArgsRoundTrip(t *testing.T) {
	c := DefaultCodec()
	data, err := c.EncodeArgs([]interface{}{1, "two", 3.5}, map[string]interface{}{"k": "v"})
	require.NoError(t, err)

	positional, keyword, err := c.DecodeArgs(data)
	require.NoError(t, err)
	require.Equal(t, []interface{}{float64(1), "two", 3.5}, positional)
	require.Equal(t, map[string]interface{}{"k": "v"}, keyword)
}

func TestDefaultCodecResultRoundTrip(t *testing.T) {
	c := DefaultCodec()
	data, err := c.EncodeResult(42)
	require.NoError(t, err)

	var out int
	require.NoError(t, c.DecodeResult(data, &out))
	require.Equal(t, 42, out)
}

func TestDefaultCodecDecodeResultEmptyIsNoop(t *testing.T) {
	c := DefaultCodec()
	var out int
	require.NoError(t, c.DecodeResult(nil, &out))
	require.Zero(t, out)
}

func TestDefaultCodecDecodeArgsBadPayload(t *testing.T) {
	c := DefaultCodec()
	_, _, err := c.DecodeArgs([]byte("not json"))
	require.ErrorIs(t, err, ErrUnableToDecodeArgs)
}

func TestRawPassthroughCodecRoundTrip(t *testing.T) {
	c := RawPassthroughCodec()
	payload := []byte{0x01, 0x02, 0x03}

	data, err := c.EncodeArgs([]interface{}{payload}, nil)
	require.NoError(t, err)
	require.Equal(t, payload, data)

	positional, keyword, err := c.DecodeArgs(data)
	require.NoError(t, err)
	require.Empty(t, keyword)
	require.Equal(t, payload, positional[0])

	encodedResult, err := c.EncodeResult(payload)
	require.NoError(t, err)
	var out []byte
	require.NoError(t, c.DecodeResult(encodedResult, &out))
	require.Equal(t, payload, out)
}

func TestRawPassthroughCodecRejectsKeywordArgs(t *testing.T) {
	c := RawPassthroughCodec()
	_, err := c.EncodeArgs([]interface{}{[]byte("x")}, map[string]interface{}{"k": "v"})
	require.ErrorIs(t, err, ErrUnableToEncodeArgs)
}
