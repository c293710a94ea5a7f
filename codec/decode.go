package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"

	json "github.com/goccy/go-json"
)

var anyType = reflect.TypeFor[any]()

// parse reads data into a generic tree. Numbers are kept as json.Number so
// integer precision survives until the target type is known.
func parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, &DeserializationError{Path: "$", Msg: "malformed JSON", Err: err}
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &DeserializationError{Path: "$", Msg: "unexpected data after top-level value"}
	}
	return tree, nil
}

type decoder struct {
	c *Codec
	// nodes holds every object carrying "$id", so a "$ref" can be resolved
	// before its target has been reached in document order.
	nodes map[string]map[string]any
	// refs holds decoded instances by "$id".
	refs map[string]reflect.Value
}

func newDecoder(c *Codec) *decoder {
	return &decoder{
		c:     c,
		nodes: make(map[string]map[string]any),
		refs:  make(map[string]reflect.Value),
	}
}

func (d *decoder) run(tree any, v reflect.Value) error {
	if err := d.index(tree, "$"); err != nil {
		return err
	}
	return d.decode(tree, v, "$")
}

func (d *decoder) index(node any, path string) error {
	switch n := node.(type) {
	case map[string]any:
		if id, ok := n[KeyID].(string); ok {
			if _, dup := d.nodes[id]; dup {
				return &DeserializationError{Path: path, Msg: fmt.Sprintf("duplicate %s %q", KeyID, id)}
			}
			d.nodes[id] = n
		}
		for k, val := range n {
			if err := d.index(val, path+"."+k); err != nil {
				return err
			}
		}
	case []any:
		for i, val := range n {
			if err := d.index(val, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
	}
	return nil
}

// decode stores node into v, which must be settable.
func (d *decoder) decode(node any, v reflect.Value, path string) error {
	if node == nil {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}
	if obj, ok := node.(map[string]any); ok {
		if ref, ok := obj[KeyRef]; ok {
			return d.resolveRef(ref, v, path)
		}
		if id, ok := obj[KeyID].(string); ok {
			if target, seen := d.refs[id]; seen {
				return assign(target, v, path)
			}
		}
	}

	t := v.Type()
	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer && isDecodeLeaf(t) {
		return d.viaJSON(unwrap(node), v, path)
	}

	switch t.Kind() {
	case reflect.Interface:
		obj, _ := node.(map[string]any)
		if name, ok := obj[KeyType].(string); ok {
			nv, err := d.typed(obj, name, t, path)
			if err != nil {
				return err
			}
			v.Set(nv)
			return nil
		}
		if t.NumMethod() > 0 {
			return &DeserializationError{Path: path, Msg: fmt.Sprintf("missing %s for interface %s", KeyType, t)}
		}
		g, err := d.generic(node, path)
		if err != nil {
			return err
		}
		if g == nil {
			v.Set(reflect.Zero(t))
		} else {
			v.Set(reflect.ValueOf(g))
		}
		return nil

	case reflect.Pointer:
		p := reflect.New(t.Elem())
		if err := d.decode(node, p.Elem(), path); err != nil {
			return err
		}
		v.Set(p)
		return nil

	case reflect.Struct:
		obj, ok := node.(map[string]any)
		if !ok {
			return mismatch(node, t, path)
		}
		if id, ok := obj[KeyID].(string); ok && v.CanAddr() {
			d.refs[id] = v.Addr()
		}
		fields := fieldsOf(t)
		for k, val := range obj {
			if isMetaKey(k) {
				continue
			}
			f, ok := lookupField(fields, k)
			if !ok {
				continue
			}
			fv, ok := settableField(v, f.index)
			if !ok {
				continue
			}
			if err := d.decode(val, fv, path+"."+k); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		obj, ok := node.(map[string]any)
		if !ok {
			return mismatch(node, t, path)
		}
		m := reflect.MakeMapWithSize(t, len(obj))
		v.Set(m)
		if id, ok := obj[KeyID].(string); ok {
			d.refs[id] = m
		}
		for k, val := range obj {
			if isMetaKey(k) {
				continue
			}
			kv, err := mapKey(t.Key(), k)
			if err != nil {
				return &DeserializationError{Path: path, Msg: "invalid map key", Err: err}
			}
			ev := reflect.New(t.Elem()).Elem()
			if err := d.decode(val, ev, path+"["+strconv.Quote(k)+"]"); err != nil {
				return err
			}
			m.SetMapIndex(kv, ev)
		}
		return nil

	case reflect.Slice:
		if obj, ok := node.(map[string]any); ok {
			if id, ok := obj[KeyID].(string); ok && v.CanAddr() {
				d.refs[id] = v.Addr()
			}
		}
		node = unwrap(node)
		if t.Elem().Kind() == reflect.Uint8 {
			if _, ok := node.(string); ok {
				return d.viaJSON(node, v, path)
			}
		}
		arr, ok := node.([]any)
		if !ok {
			return mismatch(node, t, path)
		}
		v.Set(reflect.MakeSlice(t, len(arr), len(arr)))
		for i, el := range arr {
			if err := d.decode(el, v.Index(i), path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
		return nil

	case reflect.Array:
		arr, ok := unwrap(node).([]any)
		if !ok {
			return mismatch(node, t, path)
		}
		for i := 0; i < v.Len(); i++ {
			if i >= len(arr) {
				v.Index(i).Set(reflect.Zero(t.Elem()))
				continue
			}
			if err := d.decode(arr[i], v.Index(i), path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
		return nil
	}

	return decodeScalar(unwrap(node), v, path)
}

// typed builds a value of the registered type name for an interface slot.
// Objects carrying "$id" become pointers when the pointer type fits, so
// their identity can be shared.
func (d *decoder) typed(obj map[string]any, name string, iface reflect.Type, path string) (reflect.Value, error) {
	rt, ok := d.c.types.lookup(name)
	if !ok {
		return reflect.Value{}, &DeserializationError{Path: path, Msg: fmt.Sprintf("unknown %s %q", KeyType, name)}
	}
	pt := reflect.PointerTo(rt)
	_, hasID := obj[KeyID]

	var asPointer bool
	switch {
	case hasID && rt.Kind() == reflect.Struct && pt.AssignableTo(iface):
		asPointer = true
	case rt.AssignableTo(iface):
	case pt.AssignableTo(iface):
		asPointer = true
	default:
		return reflect.Value{}, &DeserializationError{Path: path, Msg: fmt.Sprintf("type %q (%s) is not assignable to %s", name, rt, iface)}
	}

	p := reflect.New(rt)
	if err := d.decode(obj, p.Elem(), path); err != nil {
		return reflect.Value{}, err
	}
	if asPointer {
		return p, nil
	}
	return p.Elem(), nil
}

// generic decodes node for an empty interface slot without type metadata.
func (d *decoder) generic(node any, path string) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if ref, ok := n[KeyRef]; ok {
			id, err := refID(ref, path)
			if err != nil {
				return nil, err
			}
			if target, ok := d.refs[id]; ok {
				return target.Interface(), nil
			}
			def, ok := d.nodes[id]
			if !ok {
				return nil, dangling(id, path)
			}
			return d.generic(def, path)
		}
		id, hasID := n[KeyID].(string)
		if hasID {
			if target, ok := d.refs[id]; ok {
				return target.Interface(), nil
			}
		}
		if name, ok := n[KeyType].(string); ok {
			v, err := d.typed(n, name, anyType, path)
			if err != nil {
				return nil, err
			}
			return v.Interface(), nil
		}
		if inner, ok := n[KeyValues]; ok {
			g, err := d.generic(inner, path)
			if err == nil && hasID {
				d.refs[id] = reflect.ValueOf(g)
			}
			return g, err
		}
		if inner, ok := n[KeyValue]; ok {
			return d.generic(inner, path)
		}
		m := make(map[string]any, len(n))
		if hasID {
			d.refs[id] = reflect.ValueOf(m)
		}
		for k, val := range n {
			if isMetaKey(k) {
				continue
			}
			g, err := d.generic(val, path+"."+k)
			if err != nil {
				return nil, err
			}
			m[k] = g
		}
		return m, nil
	case []any:
		out := make([]any, len(n))
		for i, el := range n {
			g, err := d.generic(el, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			out[i] = g
		}
		return out, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, &DeserializationError{Path: path, Msg: "invalid number", Err: err}
		}
		return f, nil
	}
	return node, nil
}

func (d *decoder) resolveRef(ref any, v reflect.Value, path string) error {
	id, err := refID(ref, path)
	if err != nil {
		return err
	}
	if target, ok := d.refs[id]; ok {
		return assign(target, v, path)
	}
	def, ok := d.nodes[id]
	if !ok {
		return dangling(id, path)
	}
	// Forward reference: decode the target here; its own occurrence will
	// then resolve to the same instance.
	return d.decode(def, v, path)
}

// viaJSON hands a subtree to the JSON library for types that decode
// themselves.
func (d *decoder) viaJSON(node any, v reflect.Value, path string) error {
	data, err := json.Marshal(node)
	if err != nil {
		return &DeserializationError{Path: path, Msg: "re-encode subtree", Err: err}
	}
	if !v.CanAddr() {
		tmp := reflect.New(v.Type())
		if err := json.Unmarshal(data, tmp.Interface()); err != nil {
			return &DeserializationError{Path: path, Msg: fmt.Sprintf("decode %s", v.Type()), Err: err}
		}
		v.Set(tmp.Elem())
		return nil
	}
	if err := json.Unmarshal(data, v.Addr().Interface()); err != nil {
		return &DeserializationError{Path: path, Msg: fmt.Sprintf("decode %s", v.Type()), Err: err}
	}
	return nil
}

func decodeScalar(node any, v reflect.Value, path string) error {
	t := v.Type()
	switch t.Kind() {
	case reflect.String:
		s, ok := node.(string)
		if !ok {
			return mismatch(node, t, path)
		}
		v.SetString(s)
	case reflect.Bool:
		b, ok := node.(bool)
		if !ok {
			return mismatch(node, t, path)
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := node.(json.Number)
		if !ok {
			return mismatch(node, t, path)
		}
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil || v.OverflowInt(i) {
			return &DeserializationError{Path: path, Msg: fmt.Sprintf("number %s does not fit %s", n, t)}
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := node.(json.Number)
		if !ok {
			return mismatch(node, t, path)
		}
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil || v.OverflowUint(u) {
			return &DeserializationError{Path: path, Msg: fmt.Sprintf("number %s does not fit %s", n, t)}
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		n, ok := node.(json.Number)
		if !ok {
			return mismatch(node, t, path)
		}
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil || v.OverflowFloat(f) {
			return &DeserializationError{Path: path, Msg: fmt.Sprintf("number %s does not fit %s", n, t)}
		}
		v.SetFloat(f)
	default:
		return &DeserializationError{Path: path, Msg: fmt.Sprintf("unsupported type %s", t)}
	}
	return nil
}

// assign stores a previously decoded instance into v, dereferencing it
// when v holds values rather than pointers.
func assign(target, v reflect.Value, path string) error {
	switch {
	case target.Type().AssignableTo(v.Type()):
		v.Set(target)
	case target.Kind() == reflect.Pointer && target.Elem().Type().AssignableTo(v.Type()):
		v.Set(target.Elem())
	default:
		return &DeserializationError{Path: path, Msg: fmt.Sprintf("reference to %s is not assignable to %s", target.Type(), v.Type())}
	}
	return nil
}

// settableField walks index, allocating nil embedded pointers on the way.
// It reports false when an unexported embedded pointer blocks the path.
func settableField(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, v.CanSet()
}

func mapKey(t reflect.Type, s string) (reflect.Value, error) {
	if t.Kind() == reflect.String {
		return reflect.ValueOf(s).Convert(t), nil
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		kv := reflect.New(t)
		if err := kv.Interface().(interface{ UnmarshalText([]byte) error }).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, err
		}
		return kv.Elem(), nil
	}
	kv := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || kv.OverflowInt(i) {
			return reflect.Value{}, fmt.Errorf("key %q does not fit %s", s, t)
		}
		kv.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil || kv.OverflowUint(u) {
			return reflect.Value{}, fmt.Errorf("key %q does not fit %s", s, t)
		}
		kv.SetUint(u)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported map key type %s", t)
	}
	return kv, nil
}

// unwrap returns the payload of a {"$type": .., "$value": ..} wrapper or
// of a {"$values": [..]} collection.
func unwrap(node any) any {
	if obj, ok := node.(map[string]any); ok {
		if inner, ok := obj[KeyValues]; ok {
			return inner
		}
		if inner, ok := obj[KeyValue]; ok {
			return inner
		}
	}
	return node
}

func isMetaKey(k string) bool {
	return k == KeyID || k == KeyRef || k == KeyType || k == KeyValue || k == KeyValues
}

func refID(ref any, path string) (string, error) {
	id, ok := ref.(string)
	if !ok {
		return "", &DeserializationError{Path: path, Msg: fmt.Sprintf("%s must be a string", KeyRef)}
	}
	return id, nil
}

func dangling(id, path string) error {
	return &DeserializationError{Path: path, Msg: fmt.Sprintf("dangling %s %q", KeyRef, id)}
}

func mismatch(node any, t reflect.Type, path string) error {
	var kind string
	switch node.(type) {
	case map[string]any:
		kind = "object"
	case []any:
		kind = "array"
	case string:
		kind = "string"
	case bool:
		kind = "bool"
	case json.Number:
		kind = "number"
	default:
		kind = fmt.Sprintf("%T", node)
	}
	return &DeserializationError{Path: path, Msg: fmt.Sprintf("cannot decode %s into %s", kind, t)}
}
