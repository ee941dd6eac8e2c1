package output

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// TextFormatter renders data as aligned "key: value" lines.
// Structs and maps are flattened into dotted keys.
type TextFormatter struct{}

type field struct {
	key   string
	value string
}

// Format formats data as text.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct && v.Kind() != reflect.Map {
		_, err := fmt.Fprintln(w, scalar(v))
		return err
	}

	fields := flatten("", v, nil)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f.key, f.value)
	}
	return tw.Flush()
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

func flatten(prefix string, v reflect.Value, out []field) []field {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return append(out, field{key: prefix, value: ""})
		}
		v = v.Elem()
	}

	switch {
	case v.Kind() == reflect.Struct && v.Type() != timeType:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			name := fieldName(sf)
			if name == "-" {
				continue
			}
			out = flatten(join(prefix, name), v.Field(i), out)
		}
		return out

	case v.Kind() == reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			out = flatten(join(prefix, fmt.Sprint(k.Interface())), v.MapIndex(k), out)
		}
		return out

	default:
		return append(out, field{key: prefix, value: scalar(v)})
	}
}

func scalar(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}

	switch {
	case v.Type() == durationType:
		return time.Duration(v.Int()).String()
	case v.Type() == timeType:
		return v.Interface().(time.Time).Format(time.RFC3339)
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return fmt.Sprintf("%x", v.Bytes())
		}
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = scalar(v.Index(i))
		}
		return strings.Join(parts, ", ")
	case reflect.String:
		if v.Len() == 0 {
			return `""`
		}
		return v.String()
	default:
		return fmt.Sprint(v.Interface())
	}
}

// fieldName prefers the yaml tag, then json, then the Go name.
func fieldName(sf reflect.StructField) string {
	for _, tag := range []string{"yaml", "json"} {
		if name, _, _ := strings.Cut(sf.Tag.Get(tag), ","); name != "" {
			return name
		}
	}
	return strings.ToLower(sf.Name)
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
