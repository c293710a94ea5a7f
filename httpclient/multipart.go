package httpclient

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
)

// MultipartBody is a multipart/form-data request body. It is streamed to
// the server as it is written, so large files are never buffered whole.
// Files are written first, then Fields, each in slice order.
type MultipartBody struct {
	Files  []FileField
	Fields []FormField
}

// FileField is a file part.
type FileField struct {
	// FieldName is the form field name (e.g., "entity").
	FieldName string
	// FileName is the file name sent to the server.
	FileName string
	// ContentType is the MIME type. Defaults to application/octet-stream.
	ContentType string
	// Data is the file content. Used if Reader is nil.
	Data []byte
	// Reader streams the file content.
	Reader io.Reader
}

// FormField is a non-file part.
type FormField struct {
	Name string
	// ContentType is sent as the part Content-Type when set.
	ContentType string
	Value       []byte
}

// encode starts writing the body into a pipe and returns its read end
// with the multipart content type. Closing the reader stops the writer.
func (m *MultipartBody) encode() (io.ReadCloser, string, error) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)
	contentType := w.FormDataContentType()

	go func() {
		pw.CloseWithError(m.write(w))
	}()
	return pr, contentType, nil
}

func (m *MultipartBody) write(w *multipart.Writer) error {
	for _, f := range m.Files {
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			`form-data; name="`+escapeQuotes(f.FieldName)+`"; filename="`+escapeQuotes(f.FileName)+`"`)
		header.Set("Content-Type", ct)
		part, err := w.CreatePart(header)
		if err != nil {
			return err
		}
		src := f.Reader
		if src == nil {
			src = bytes.NewReader(f.Data)
		}
		if _, err := io.Copy(part, src); err != nil {
			return err
		}
	}

	for _, f := range m.Fields {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+escapeQuotes(f.Name)+`"`)
		if f.ContentType != "" {
			header.Set("Content-Type", f.ContentType)
		}
		part, err := w.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.Value); err != nil {
			return err
		}
	}

	return w.Close()
}

// escapeQuotes replaces special characters in header values.
func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, b := range []byte(s) {
		if b == '"' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	return buf.String()
}
