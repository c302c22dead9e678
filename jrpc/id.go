package jrpc

import (
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ID is a JSON-RPC request id: a non-negative integer or a string (§3).
// Comparisons use the string form throughout this library (Key), which
// sidesteps numeric/string ambiguity across peers that round-trip ids
// through JSON differently.
type ID struct {
	s       string
	isInt   bool
	n       int64
	isEmpty bool
}

// NewStringID builds a string id.
func NewStringID(s string) ID { return ID{s: s} }

// NewIntID builds an integer id.
func NewIntID(n int64) ID { return ID{n: n, isInt: true} }

// Key returns the string form used for map lookups and equality.
func (id ID) Key() string {
	if id.isEmpty {
		return ""
	}
	if id.isInt {
		return strconv.FormatInt(id.n, 10)
	}
	return id.s
}

// IsZero reports whether this is the zero-value ID (no id at all, distinct
// from a notification's absent id, which never constructs an ID in the
// first place — IsZero exists for map-default detection).
func (id ID) IsZero() bool { return id == ID{} }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.isInt {
		return json.Marshal(id.n)
	}
	return json.Marshal(id.s)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(err, "jrpc: invalid id")
	}
	switch t := v.(type) {
	case string:
		*id = ID{s: t}
	case float64:
		*id = ID{n: int64(t), isInt: true}
	case nil:
		*id = ID{isEmpty: true}
	default:
		return errors.Newf("jrpc: invalid id type %T", v)
	}
	return nil
}
