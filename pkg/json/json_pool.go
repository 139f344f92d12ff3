// Package json provides JSON serialization backed by goccy/go-json with
// pooled buffers. HTML characters are never escaped, so encoded metadata
// stays byte-for-byte readable by other JSON tools.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// NewEncoder returns an encoder writing to w that does not escape HTML
func NewEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// Marshal encodes v without HTML escaping and without a trailing newline
func Marshal(v interface{}) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}

	// Remove trailing newline added by Encode
	data := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	// Copy since the buffer goes back to the pool
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// MarshalToWriter encodes v to w with indentation, followed by a newline
func MarshalToWriter(w io.Writer, v interface{}, indent string) error {
	enc := NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}
