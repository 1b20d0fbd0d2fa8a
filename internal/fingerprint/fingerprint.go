// Package fingerprint canonicalizes derived-data generation requests into
// comparable keys for manifest lookups.
//
// A fingerprint covers the derived-data kind plus the full parameter mapping.
// Two parameter mappings that are equal as sets of key-value pairs produce the
// same fingerprint regardless of insertion or declaration order. Only
// primitive values (and nested slices/maps of primitives) are representable;
// anything carrying identity or live state is rejected so a fingerprint can
// never silently depend on process-local data.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// scheme versions the canonical serialization. Bump it if the encoding
// changes; old manifest entries then simply miss, forcing regeneration
// instead of false matches.
const scheme = "fp1"

// InvalidParameterError reports a parameter value that cannot take part in a
// canonical fingerprint.
type InvalidParameterError struct {
	Key  string
	Type string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("parameter %q has unrepresentable type %s", e.Key, e.Type)
}

// Compute returns the canonical fingerprint for a derived-data kind and its
// generation parameters. The kind is part of the key: identical parameters
// for different kinds never collide.
func Compute(kind string, params map[string]any) (string, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return "", &InvalidParameterError{Key: "kind", Type: "empty string"}
	}

	var b strings.Builder
	b.WriteString("kind=")
	b.WriteString(strconv.Quote(kind))
	b.WriteByte(';')
	if err := writeMap(&b, "", params); err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(b.String()))
	return scheme + ":" + hex.EncodeToString(sum[:]), nil
}

func writeMap(b *strings.Builder, prefix string, params map[string]any) error {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(key))
		b.WriteByte(':')
		if err := writeValue(b, joinKey(prefix, key), params[key]); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func writeValue(b *strings.Builder, key string, value any) error {
	switch v := value.(type) {
	case nil:
		b.WriteString("null")
		return nil
	case bool:
		b.WriteString(strconv.FormatBool(v))
		return nil
	case string:
		b.WriteString(strconv.Quote(v))
		return nil
	case map[string]any:
		return writeMap(b, key, v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		writeInteger(b, rv.Int())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			b.WriteString("u" + strconv.FormatUint(rv.Uint(), 10))
			return nil
		}
		writeInteger(b, int64(rv.Uint()))
		return nil
	case reflect.Float32, reflect.Float64:
		writeFloat(b, rv.Float())
		return nil
	case reflect.Slice, reflect.Array:
		b.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			element := rv.Index(i).Interface()
			if err := writeValue(b, fmt.Sprintf("%s[%d]", key, i), element); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil
	default:
		return &InvalidParameterError{Key: key, Type: fmt.Sprintf("%T", value)}
	}
}

// writeInteger keeps whole numbers in one canonical spelling so that, for
// example, int32(5) and int64(5) fingerprint identically.
func writeInteger(b *strings.Builder, v int64) {
	b.WriteString(strconv.FormatInt(v, 10))
}

// writeFloat collapses float values that are exact integers onto the integer
// spelling: a parameter written as 5 in one scenario file and 5.0 in another
// describes the same generation request.
func writeFloat(b *strings.Builder, v float64) {
	if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1e15 {
		writeInteger(b, int64(v))
		return
	}
	b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
