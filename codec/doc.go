// Package codec encodes and decodes JSON carrying object identity and type
// metadata in the "$id", "$ref" and "$type" convention used by the WebApi
// backend.
//
// Pointer targets and maps are tagged with "$id" on first occurrence and
// written as {"$ref": id} afterwards, so shared instances and cycles survive
// a round trip. Values stored behind an interface carry the registered
// "$type" name of their dynamic type.
//
//	c := codec.Default()
//	codec.MustRegister[TaskEntry](c, "TaskEntry")
//	data, err := c.Marshal(task)
//	task, err := codec.Decode[api.Task](c, data)
//
// A Codec's Policy is fixed at creation. Scalars and types implementing
// json.Marshaler or encoding.TextMarshaler are delegated to goccy/go-json.
package codec
