package protocol

import (
	"strconv"
)

// Value is the set of scalar types that can cross the wire.
type Value interface {
	string | []byte | bool |
		int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// Kind names a wire value type in descriptors and errors.
type Kind string

const (
	KindVoid    Kind = ""
	KindString  Kind = "string"
	KindBytes   Kind = "bytes"
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindInt8    Kind = "int8"
	KindInt16   Kind = "int16"
	KindInt32   Kind = "int32"
	KindInt64   Kind = "int64"
	KindUint    Kind = "uint"
	KindUint8   Kind = "uint8"
	KindUint16  Kind = "uint16"
	KindUint32  Kind = "uint32"
	KindUint64  Kind = "uint64"
	KindFloat32 Kind = "float32"
	KindFloat64 Kind = "float64"
)

func (k Kind) String() string {
	if k == KindVoid {
		return "void"
	}
	return string(k)
}

// KindOf returns the Kind of T.
func KindOf[T Value]() Kind {
	var zero T
	switch any(zero).(type) {
	case string:
		return KindString
	case []byte:
		return KindBytes
	case bool:
		return KindBool
	case int:
		return KindInt
	case int8:
		return KindInt8
	case int16:
		return KindInt16
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	case uint:
		return KindUint
	case uint8:
		return KindUint8
	case uint16:
		return KindUint16
	case uint32:
		return KindUint32
	case uint64:
		return KindUint64
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	}
	return KindVoid
}

// Encode returns the token for v: the canonical strconv text of a scalar,
// percent-escaped.
func Encode[T Value](v T) string {
	switch x := any(v).(type) {
	case string:
		return Escape(x)
	case []byte:
		return Escape(string(x))
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return Escape(strconv.FormatFloat(float64(x), 'g', -1, 32))
	case float64:
		return Escape(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return ""
}

// Decode unescapes token and parses the text as T.
func Decode[T Value](token string) (T, error) {
	var out T
	text, err := Unescape(token)
	if err != nil {
		return out, err
	}

	switch p := any(&out).(type) {
	case *string:
		*p = text
	case *[]byte:
		*p = []byte(text)
	case *bool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = v
	case *int:
		v, err := strconv.ParseInt(text, 10, strconv.IntSize)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = int(v)
	case *int8:
		v, err := strconv.ParseInt(text, 10, 8)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = int8(v)
	case *int16:
		v, err := strconv.ParseInt(text, 10, 16)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = int16(v)
	case *int32:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = int32(v)
	case *int64:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = v
	case *uint:
		v, err := strconv.ParseUint(text, 10, strconv.IntSize)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = uint(v)
	case *uint8:
		v, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = uint8(v)
	case *uint16:
		v, err := strconv.ParseUint(text, 10, 16)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = uint16(v)
	case *uint32:
		v, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = uint32(v)
	case *uint64:
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = v
	case *float32:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = float32(v)
	case *float64:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return out, parseError[T](token, err)
		}
		*p = v
	}
	return out, nil
}

func parseError[T Value](token string, err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		err = ne.Err
	}
	return &ParseError{Token: token, Kind: KindOf[T](), Err: err}
}
