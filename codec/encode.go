package codec

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
)

// errSkip asks the enclosing container to omit the current member.
var errSkip = errors.New("codec: skip member")

type refKey struct {
	ptr uintptr
	typ reflect.Type
}

type encoder struct {
	c      *Codec
	buf    bytes.Buffer
	ids    map[refKey]int
	active map[refKey]bool
	next   int
}

func newEncoder(c *Codec) *encoder {
	return &encoder{
		c:      c,
		ids:    make(map[refKey]int),
		active: make(map[refKey]bool),
	}
}

// encode writes v. declared is the static type of the slot holding v and
// decides whether "$type" metadata is needed.
func (e *encoder) encode(v reflect.Value, declared reflect.Type) error {
	if !v.IsValid() {
		e.buf.WriteString("null")
		return nil
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.encode(v.Elem(), v.Type())
	}

	typeName := e.typeName(v.Type(), declared)

	if isEncodeLeaf(v.Type()) || (v.CanAddr() && isEncodeLeaf(reflect.PointerTo(v.Type()))) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.wrapped(typeName, func() error { return e.leaf(v) })
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		elem := v.Elem()
		if elem.Kind() == reflect.Struct && elem.Type().Size() > 0 {
			return e.structObject(elem, typeName, &refKey{ptr: v.Pointer(), typ: v.Type()})
		}
		return e.encode(elem, declared)
	case reflect.Struct:
		return e.structObject(v, typeName, nil)
	case reflect.Map:
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.mapObject(v, typeName)
	case reflect.Slice:
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return e.wrapped(typeName, func() error { return e.leaf(v) })
		}
		return e.wrappedList(typeName, func() error { return e.array(v) })
	case reflect.Array:
		return e.wrappedList(typeName, func() error { return e.array(v) })
	case reflect.String:
		return e.wrapped(typeName, func() error { return e.leaf(reflect.ValueOf(v.String())) })
	case reflect.Bool:
		return e.wrapped(typeName, func() error {
			e.buf.WriteString(strconv.FormatBool(v.Bool()))
			return nil
		})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.wrapped(typeName, func() error {
			e.buf.WriteString(strconv.FormatInt(v.Int(), 10))
			return nil
		})
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.wrapped(typeName, func() error {
			e.buf.WriteString(strconv.FormatUint(v.Uint(), 10))
			return nil
		})
	case reflect.Float32, reflect.Float64:
		return e.wrapped(typeName, func() error { return e.leaf(reflect.ValueOf(v.Float())) })
	default:
		return fmt.Errorf("codec: unsupported type %s", v.Type())
	}
}

// typeName returns the "$type" to write for a value of type t stored in a
// slot of type declared, or "" for none.
func (e *encoder) typeName(t, declared reflect.Type) string {
	switch e.c.policy.TypeNames {
	case TypeNamesAuto:
		if declared == nil || declared.Kind() != reflect.Interface {
			return ""
		}
	case TypeNamesAll:
	default:
		return ""
	}
	if name, ok := e.c.types.registered(t); ok {
		return name
	}
	if !taggable(t) {
		return ""
	}
	return e.c.types.nameOf(t)
}

// wrapped writes {"$type": name, "$value": ...} around fn's output when a
// type name is required.
func (e *encoder) wrapped(typeName string, fn func() error) error {
	return e.wrapWith(KeyValue, typeName, fn)
}

// wrappedList is wrapped for collections, which carry "$values".
func (e *encoder) wrappedList(typeName string, fn func() error) error {
	return e.wrapWith(KeyValues, typeName, fn)
}

func (e *encoder) wrapWith(key, typeName string, fn func() error) error {
	if typeName == "" {
		return fn()
	}
	e.buf.WriteString(`{"` + KeyType + `":`)
	e.writeString(typeName)
	e.buf.WriteString(`,"` + key + `":`)
	if err := fn(); err != nil {
		return err
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) leaf(v reflect.Value) error {
	var x any
	if v.Kind() != reflect.Pointer && v.CanAddr() {
		x = v.Addr().Interface()
	} else {
		x = v.Interface()
	}
	data, err := json.Marshal(x)
	if err != nil {
		return fmt.Errorf("codec: encode %s: %w", v.Type(), err)
	}
	e.buf.Write(data)
	return nil
}

func (e *encoder) writeString(s string) {
	data, _ := json.Marshal(s)
	e.buf.Write(data)
}

// enter registers an identity-bearing value. It returns done=true when the
// value was written as a reference (or must be skipped) instead.
func (e *encoder) enter(key refKey) (id int, done bool, err error) {
	if e.active[key] {
		switch e.c.policy.Cycles {
		case CycleError:
			return 0, true, fmt.Errorf("codec: cycle detected at %s", key.typ)
		case CycleIgnore:
			return 0, true, errSkip
		}
	}
	if e.c.policy.PreserveReferences {
		if id, ok := e.ids[key]; ok {
			e.buf.WriteString(`{"` + KeyRef + `":"` + strconv.Itoa(id) + `"}`)
			return 0, true, nil
		}
		e.next++
		e.ids[key] = e.next
		id = e.next
	}
	e.active[key] = true
	return id, false, nil
}

func (e *encoder) leave(key refKey) {
	delete(e.active, key)
}

// openObject writes "{" plus metadata members and returns whether a
// member has been written.
func (e *encoder) openObject(id int, typeName string) bool {
	e.buf.WriteByte('{')
	wrote := false
	if id > 0 {
		e.buf.WriteString(`"` + KeyID + `":"` + strconv.Itoa(id) + `"`)
		wrote = true
	}
	if typeName != "" {
		if wrote {
			e.buf.WriteByte(',')
		}
		e.buf.WriteString(`"` + KeyType + `":`)
		e.writeString(typeName)
		wrote = true
	}
	return wrote
}

// member writes one "key":value pair, rolling back if the value is skipped.
func (e *encoder) member(wrote *bool, key []byte, v reflect.Value, declared reflect.Type) error {
	mark := e.buf.Len()
	if *wrote {
		e.buf.WriteByte(',')
	}
	e.buf.Write(key)
	e.buf.WriteByte(':')
	if err := e.encode(v, declared); err != nil {
		if errors.Is(err, errSkip) {
			e.buf.Truncate(mark)
			return nil
		}
		return err
	}
	*wrote = true
	return nil
}

func (e *encoder) structObject(v reflect.Value, typeName string, key *refKey) error {
	var id int
	if key != nil {
		var (
			done bool
			err  error
		)
		id, done, err = e.enter(*key)
		if done {
			return err
		}
		defer e.leave(*key)
	}

	wrote := e.openObject(id, typeName)
	for _, f := range fieldsOf(v.Type()) {
		fv, ok := fieldByIndex(v, f.index)
		if !ok || (f.omitEmpty && isEmptyValue(fv)) {
			continue
		}
		if err := e.member(&wrote, f.key, fv, f.typ); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) mapObject(v reflect.Value, typeName string) error {
	key := refKey{ptr: v.Pointer(), typ: v.Type()}
	id, done, err := e.enter(key)
	if done {
		return err
	}
	defer e.leave(key)

	type entry struct {
		name string
		val  reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		name, err := mapKeyString(iter.Key())
		if err != nil {
			return err
		}
		entries = append(entries, entry{name: name, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	elemType := v.Type().Elem()
	wrote := e.openObject(id, typeName)
	for _, en := range entries {
		k, _ := json.Marshal(en.name)
		if err := e.member(&wrote, k, en.val, elemType); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) array(v reflect.Value) error {
	elemType := v.Type().Elem()
	e.buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		mark := e.buf.Len()
		if err := e.encode(v.Index(i), elemType); err != nil {
			if !errors.Is(err, errSkip) {
				return err
			}
			e.buf.Truncate(mark)
			e.buf.WriteString("null")
		}
	}
	e.buf.WriteByte(']')
	return nil
}

func mapKeyString(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if tm, ok := k.Interface().(interface{ MarshalText() ([]byte, error) }); ok {
		b, err := tm.MarshalText()
		if err != nil {
			return "", fmt.Errorf("codec: encode map key: %w", err)
		}
		return string(b), nil
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("codec: unsupported map key type %s", k.Type())
}

// fieldByIndex follows index through embedded structs, reporting false if
// it passes through a nil embedded pointer.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
