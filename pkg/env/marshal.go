package env

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const maskedValue = "********"

var durationType = reflect.TypeOf(time.Duration(0))

type options struct {
	maskSecrets bool
}

type Option func(*options)

// WithMaskedSecrets replaces values of fields tagged `mask:"true"`.
func WithMaskedSecrets() Option {
	return func(o *options) {
		o.maskSecrets = true
	}
}

// MarshalEnv renders a pointer to an env-tagged struct as .env lines.
// Zero values are skipped so defaults keep applying on the next parse.
func MarshalEnv(c any, opts ...Option) (string, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return "", fmt.Errorf("expected pointer to struct, got %T", c)
	}
	v = v.Elem()
	t := v.Type()

	var lines []string
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("env")
		if tag == "" || !field.IsExported() {
			continue
		}

		// "KEY,required,notEmpty" -> KEY
		key := strings.Split(tag, ",")[0]
		if key == "" {
			continue
		}

		val := v.Field(i)
		if isZeroValue(val) {
			continue
		}

		strVal := formatValue(val)
		if o.maskSecrets && field.Tag.Get("mask") == "true" {
			strVal = maskedValue
		}
		lines = append(lines, fmt.Sprintf("%s=%s", key, quote(strVal)))
	}

	result := strings.Join(lines, "\n")
	if result != "" {
		result += "\n"
	}
	return result, nil
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	case reflect.Bool:
		// false is meaningful for flags with a true default
		return false
	default:
		return v.IsZero()
	}
}

func formatValue(v reflect.Value) string {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// quote wraps values godotenv would otherwise split or strip.
func quote(s string) string {
	if strings.ContainsAny(s, " #\"'\t") {
		return strconv.Quote(s)
	}
	return s
}
