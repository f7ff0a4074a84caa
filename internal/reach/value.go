package reach

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

var (
	ErrMalformed    = errors.New("malformed JSON")
	ErrMissingField = errors.New("missing field")
	ErrWrongType    = errors.New("unexpected type")
	ErrIndexRange   = errors.New("parameter index out of range")
)

// FieldError is a structural problem in a data file.
type FieldError struct {
	File string
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.File, e.Path, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// value is a gjson result that remembers where it came from so failures can
// name the offending field.
type value struct {
	gjson.Result
	file string
	path string
}

func parseDocument(file string, data []byte) (value, error) {
	if !gjson.ValidBytes(data) {
		return value{}, &FieldError{File: file, Err: ErrMalformed}
	}
	return value{Result: gjson.ParseBytes(data), file: file}, nil
}

func (v value) fail(err error) error {
	return &FieldError{File: v.file, Path: v.path, Err: err}
}

func (v value) wrongType(want string) error {
	return v.fail(fmt.Errorf("%w: want %s, got %s", ErrWrongType, want, v.Type))
}

func (v value) field(name string) value {
	path := name
	if v.path != "" {
		path = v.path + "." + name
	}
	return value{Result: v.Get(name), file: v.file, path: path}
}

func (v value) index(i int) value {
	return value{Result: v.Get(strconv.Itoa(i)), file: v.file, path: v.path + "[" + strconv.Itoa(i) + "]"}
}

// null reports an explicit JSON null, as opposed to an absent field.
func (v value) null() bool {
	return v.Exists() && v.Type == gjson.Null
}

func (v value) str() (string, error) {
	if !v.Exists() {
		return "", v.fail(ErrMissingField)
	}
	if v.Type != gjson.String {
		return "", v.wrongType("string")
	}
	return v.Str, nil
}

func (v value) int() (int64, error) {
	if !v.Exists() {
		return 0, v.fail(ErrMissingField)
	}
	if v.Type != gjson.Number {
		return 0, v.wrongType("number")
	}
	return v.Int(), nil
}

func (v value) object() error {
	if !v.Exists() {
		return v.fail(ErrMissingField)
	}
	if !v.IsObject() {
		return v.wrongType("object")
	}
	return nil
}

func (v value) array() ([]value, error) {
	if !v.Exists() {
		return nil, v.fail(ErrMissingField)
	}
	if !v.IsArray() {
		return nil, v.wrongType("array")
	}
	elems := v.Array()
	out := make([]value, len(elems))
	for i, e := range elems {
		out[i] = value{Result: e, file: v.file, path: v.path + "[" + strconv.Itoa(i) + "]"}
	}
	return out, nil
}

// each calls fn for every non-null element of the array v.
func (v value) each(fn func(value) error) error {
	elems, err := v.array()
	if err != nil {
		return err
	}
	for _, e := range elems {
		if e.null() {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// name reads the string at v into the set under k.
func (v value) name(set *Set, k Kind) error {
	s, err := v.str()
	if err != nil {
		return err
	}
	set.Add(k, s)
	return nil
}
