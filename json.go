package cnext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/james-card/cnext/descriptor"
	"github.com/james-card/cnext/hashtable"
	"github.com/james-card/cnext/vector"
)

// ErrBadJSON is returned when input text is not the expected JSON shape.
var ErrBadJSON = errors.New("cnext: malformed JSON")

// JSONToVector builds a vector from a JSON array. Elements map to
// descriptor types: strings to String, integral numbers to Int64, other
// numbers to Float64, booleans to Bool, null to a nil Pointer, arrays to
// nested vectors, and objects to nested hash tables. Slot keys are nil;
// the result is keyed by the String descriptor for later keyed use.
func JSONToVector(data []byte) (*vector.Vector, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%w: expected array, got %v", ErrBadJSON, tok)
	}
	return decodeArray(dec)
}

// JSONToHashTable builds a hash table from a JSON object, with string keys
// and values mapped the same way as JSONToVector.
func JSONToHashTable(data []byte) (*hashtable.HashTable, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object, got %v", ErrBadJSON, tok)
	}
	return decodeObject(dec)
}

// decodeArray consumes array elements up to and including the closing
// bracket, the opening bracket having been consumed already.
func decodeArray(dec *json.Decoder) (*vector.Vector, error) {
	v, err := vector.New(descriptor.String)
	if err != nil {
		return nil, err
	}
	for index := uint64(0); dec.More(); index++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
		}
		value, typ, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}
		if typ.Composite {
			_, err = v.SetOwned(index, nil, value, typ)
		} else {
			_, err = v.Set(index, nil, value, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	return v, nil
}

// decodeObject consumes object members up to and including the closing
// brace, the opening brace having been consumed already.
func decodeObject(dec *json.Decoder) (*hashtable.HashTable, error) {
	t, err := hashtable.New(descriptor.String)
	if err != nil {
		return nil, err
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string object key %v", ErrBadJSON, keyTok)
		}
		valueTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
		}
		value, typ, err := decodeValue(dec, valueTok)
		if err != nil {
			return nil, err
		}
		if typ.Composite {
			_, err = t.AddOwned(key, value, typ)
		} else {
			_, err = t.Add(key, value, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	return t, nil
}

// decodeValue maps one JSON value, already started at tok, to a Go value
// and its descriptor.
func decodeValue(dec *json.Decoder, tok json.Token) (any, *descriptor.Type, error) {
	switch t := tok.(type) {
	case string:
		return t, descriptor.String, nil
	case bool:
		return t, descriptor.Bool, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, descriptor.Int64, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bad number %q", ErrBadJSON, t.String())
		}
		return f, descriptor.Float64, nil
	case nil:
		return nil, descriptor.Pointer, nil
	case json.Delim:
		switch t {
		case '[':
			v, err := decodeArray(dec)
			if err != nil {
				return nil, nil, err
			}
			return v, vector.TypeDescriptor, nil
		case '{':
			ht, err := decodeObject(dec)
			if err != nil {
				return nil, nil, err
			}
			return ht, hashtable.TypeDescriptor, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: unexpected token %v", ErrBadJSON, tok)
}
