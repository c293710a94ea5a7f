package codec

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
)

// Metadata keys written alongside object members.
const (
	KeyID     = "$id"
	KeyRef    = "$ref"
	KeyType   = "$type"
	KeyValue  = "$value"
	KeyValues = "$values"
)

// ContentType is the media type of encoded payloads.
const ContentType = "application/json; charset=utf-8"

// Codec encodes and decodes JSON according to a fixed Policy.
// It is safe for concurrent use.
type Codec struct {
	policy Policy
	types  *registry
}

// New creates a codec with its own type registry.
func New(p Policy) (*Codec, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Codec{policy: p, types: newRegistry()}, nil
}

var (
	defaultOnce  sync.Once
	defaultCodec *Codec
)

// Default returns the process-wide codec using DefaultPolicy.
func Default() *Codec {
	defaultOnce.Do(func() {
		c, err := New(DefaultPolicy())
		if err != nil {
			panic(err)
		}
		defaultCodec = c
	})
	return defaultCodec
}

// Policy returns the codec policy.
func (c *Codec) Policy() Policy {
	return c.policy
}

// RegisterType binds a "$type" name to t. Pointer types register their
// element type. Registration is normally done once at init.
func (c *Codec) RegisterType(name string, t reflect.Type) error {
	return c.types.add(name, t)
}

// Register binds a "$type" name to T.
func Register[T any](c *Codec, name string) error {
	return c.RegisterType(name, reflect.TypeFor[T]())
}

// MustRegister is like Register but panics on error. Intended for init.
func MustRegister[T any](c *Codec, name string) {
	if err := Register[T](c, name); err != nil {
		panic(err)
	}
}

// Marshal encodes v using its dynamic type as the declared type.
func (c *Codec) Marshal(v any) ([]byte, error) {
	e := newEncoder(c)
	rv := reflect.ValueOf(v)
	var declared reflect.Type
	if rv.IsValid() {
		declared = rv.Type()
	}
	if err := e.encode(rv, declared); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// Encode encodes v with T as the declared type, so "$type" metadata is
// written at the top level when T is an interface.
func Encode[T any](c *Codec, v T) ([]byte, error) {
	e := newEncoder(c)
	rv := reflect.ValueOf(&v).Elem()
	if err := e.encode(rv, rv.Type()); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// Unmarshal decodes data into the value pointed to by v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &DeserializationError{Msg: fmt.Sprintf("target must be a non-nil pointer, got %T", v)}
	}
	tree, err := parse(data)
	if err != nil {
		return err
	}
	return newDecoder(c).run(tree, rv.Elem())
}

// Decode decodes data into a new value of type T.
func Decode[T any](c *Codec, data []byte) (T, error) {
	var out T
	err := c.Unmarshal(data, &out)
	return out, err
}

// DeserializationError reports malformed or type-incompatible content.
type DeserializationError struct {
	// Path locates the offending value, e.g. "$.tasks[2].guid".
	Path string
	Msg  string
	Err  error
}

func (e *DeserializationError) Error() string {
	var b strings.Builder
	b.WriteString("codec: deserialize")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// --- type inspection shared by encoder and decoder ---

var (
	marshalerType       = reflect.TypeFor[json.Marshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	unmarshalerType     = reflect.TypeFor[json.Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// isEncodeLeaf reports whether t marshals itself.
func isEncodeLeaf(t reflect.Type) bool {
	return t.Implements(marshalerType) || t.Implements(textMarshalerType)
}

// isDecodeLeaf reports whether *t unmarshals itself.
func isDecodeLeaf(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return pt.Implements(unmarshalerType) || pt.Implements(textUnmarshalerType)
}

// taggable reports whether t can carry "$type" metadata.
func taggable(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name() != "" && t.PkgPath() != ""
}

type field struct {
	name      string
	key       []byte
	index     []int
	typ       reflect.Type
	omitEmpty bool
}

var fieldCache sync.Map // reflect.Type -> []field

// fieldsOf lists the JSON members of struct type t, flattening embedded
// structs. Shallower fields win over deeper ones with the same name.
func fieldsOf(t reflect.Type) []field {
	if f, ok := fieldCache.Load(t); ok {
		return f.([]field)
	}

	var (
		out   []field
		depth = map[string]int{}
	)
	var walk func(t reflect.Type, index []int, level int)
	walk = func(t reflect.Type, index []int, level int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			idx := append(append([]int(nil), index...), i)

			ft := sf.Type
			if sf.Anonymous && name == "" {
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct && !isEncodeLeaf(ft) {
					walk(ft, idx, level+1)
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			if name == "" {
				name = sf.Name
			}
			if d, seen := depth[name]; seen && d <= level {
				continue
			}
			depth[name] = level
			key, _ := json.Marshal(name)

			f := field{
				name:      name,
				key:       key,
				index:     idx,
				typ:       sf.Type,
				omitEmpty: strings.Contains(opts, "omitempty"),
			}
			replaced := false
			for j := range out {
				if out[j].name == name {
					out[j] = f
					replaced = true
					break
				}
			}
			if !replaced {
				out = append(out, f)
			}
		}
	}
	walk(t, nil, 0)
	sort.Slice(out, func(i, j int) bool { return lessIndex(out[i].index, out[j].index) })

	fieldCache.Store(t, out)
	return out
}

func lessIndex(a, b []int) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// lookupField finds a member by exact name, then case-insensitively.
func lookupField(fields []field, name string) (field, bool) {
	for _, f := range fields {
		if f.name == name {
			return f, true
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.name, name) {
			return f, true
		}
	}
	return field{}, false
}
