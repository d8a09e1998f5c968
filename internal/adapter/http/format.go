package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/vmihailenco/msgpack/v5"
)

// formatter writes API responses as JSON, or MessagePack when the request
// carries format=msgpack.
type formatter struct{}

func newFormatter() *formatter {
	return &formatter{}
}

func (f *formatter) write(w http.ResponseWriter, r *http.Request, status int, data any) error {
	if r.URL.Query().Get("format") == "msgpack" {
		return f.writeMsgPack(w, status, data)
	}
	sharedobs.WriteJSON(w, status, data)
	return nil
}

// writeMsgPack re-encodes the JSON form of data so both formats share field
// names and value shapes: decimals stay strings, dates stay YYYY-MM-DD.
func (f *formatter) writeMsgPack(w http.ResponseWriter, status int, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(normalizeNumbers(generic)); err != nil {
		return fmt.Errorf("encode msgpack: %w", err)
	}

	w.Header().Set("Content-Type", "application/x-msgpack")
	w.WriteHeader(status)
	_, err = w.Write(buf.Bytes())
	return err
}

// normalizeNumbers turns json.Number into int64 where integral and float64
// otherwise.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// writeError writes the standard error body with the request's correlation id.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	sharedobs.WriteJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r),
		},
	})
}
