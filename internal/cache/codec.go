// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/staranto/covcache/internal/analysis"
)

// FormatVersion is embedded in every entry. Entries written with any other
// version are treated as undecodable and recomputed.
const FormatVersion = 1

// envelope is the on-disk form of an entry. Kind names the result shape held
// in Data.
type envelope struct {
	Format int                `json:"format"`
	Kind   analysis.Operation `json:"kind"`
	Data   json.RawMessage    `json:"data"`
}

// Encode serializes r into an entry blob.
func Encode(r analysis.Result) ([]byte, error) {
	if r == nil {
		return nil, errors.New("cannot encode a nil result")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", r.Operation(), err)
	}
	return json.Marshal(envelope{
		Format: FormatVersion,
		Kind:   r.Operation(),
		Data:   data,
	})
}

// Decode restores the result stored in blob. It only ever constructs the shape
// belonging to want; any other content is a *DecodeError.
func Decode(key Key, blob []byte, want analysis.Operation) (analysis.Result, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil, &DecodeError{Key: key, Reason: "empty entry"}
	}
	if !gjson.ValidBytes(blob) {
		return nil, &DecodeError{Key: key, Reason: "truncated or malformed entry"}
	}

	hdr := gjson.GetManyBytes(blob, "format", "kind", "data")
	format, kind, data := hdr[0], hdr[1], hdr[2]

	if format.Type != gjson.Number || format.Int() != FormatVersion {
		return nil, &DecodeError{Key: key, Reason: fmt.Sprintf("format %q, want %d", format.Raw, FormatVersion)}
	}
	if kind.String() != string(want) {
		return nil, &DecodeError{Key: key, Reason: fmt.Sprintf("entry holds %q, want %q", kind.String(), want)}
	}
	if !data.Exists() {
		return nil, &DecodeError{Key: key, Reason: "entry has no data"}
	}

	raw := []byte(data.Raw)
	fail := func(err error) (analysis.Result, error) {
		return nil, &DecodeError{Key: key, Reason: fmt.Sprintf("invalid %s data", want), Err: err}
	}

	switch want {
	case analysis.OpClasses:
		var v analysis.Classes
		if err := decodeInto(data, raw, &v); err != nil {
			return fail(err)
		}
		return v, nil
	case analysis.OpTraits:
		var v analysis.Traits
		if err := decodeInto(data, raw, &v); err != nil {
			return fail(err)
		}
		return v, nil
	case analysis.OpFunctions:
		var v analysis.Functions
		if err := decodeInto(data, raw, &v); err != nil {
			return fail(err)
		}
		return v, nil
	case analysis.OpLinesOfCode:
		var v analysis.LinesOfCode
		if data.Type == gjson.Null {
			return fail(errors.New("null line counts"))
		}
		if err := decodeInto(data, raw, &v); err != nil {
			return fail(err)
		}
		return v, nil
	case analysis.OpIgnoredLines:
		var v analysis.IgnoredLines
		if err := decodeInto(data, raw, &v); err != nil {
			return fail(err)
		}
		return v, nil
	}

	return nil, &DecodeError{Key: key, Reason: fmt.Sprintf("unknown operation %q", want)}
}

// decodeInto strictly unmarshals raw into v. The value must be null, an
// object or an array, and unknown fields are rejected.
func decodeInto(data gjson.Result, raw []byte, v any) error {
	if data.Type != gjson.Null && data.Type != gjson.JSON {
		return fmt.Errorf("unexpected %s value", data.Type)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	return nil
}
