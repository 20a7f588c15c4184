package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Count is a single key/count pair.
type Count struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Counts is a key -> count mapping that remembers the order keys were first
// seen in. It decodes from a plain JSON object and keeps the object's key order.
type Counts []Count

// UnmarshalJSON decodes {"k": n, ...}. A repeated key keeps its first position
// and takes the last value.
func (c *Counts) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*c = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("analytics: counts must be a JSON object")
	}

	out := Counts{}
	pos := map[string]int{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)

		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("analytics: count for %q: %w", key, err)
		}
		v, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return fmt.Errorf("analytics: count for %q: %w", key, err)
			}
			v = int64(f)
		}

		if i, seen := pos[key]; seen {
			out[i].Count = v
			continue
		}
		pos[key] = len(out)
		out = append(out, Count{Key: key, Count: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}

// MarshalJSON writes the counts back as an object in the same key order.
func (c Counts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		fmt.Fprintf(&buf, ":%d", kv.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c Counts) Total() int64 {
	var total int64
	for _, kv := range c {
		total += kv.Count
	}
	return total
}
