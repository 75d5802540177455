package vendors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrMalformed = errors.New("malformed vendor directory")

// EncodeDirectory writes vs as a JSON object keyed by vendor path, keeping
// the slice order in the output.
func EncodeDirectory(w io.Writer, vs []VendorConfig) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range vs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(v.Path)
		if err != nil {
			return err
		}
		if v.Domains == nil {
			v.Domains = []string{}
		}
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(b)
	}
	buf.WriteByte('}')
	_, err := w.Write(buf.Bytes())
	return err
}

// DecodeDirectory parses the directory object. encoding/json would lose key
// order, so the object is walked with gjson and each value decoded on its own.
func DecodeDirectory(b []byte) ([]VendorConfig, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	root := gjson.ParseBytes(b)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected object, got %s", ErrMalformed, root.Type)
	}
	var (
		out []VendorConfig
		err error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			err = fmt.Errorf("%w: entry %q is not an object", ErrMalformed, key.String())
			return false
		}
		var v VendorConfig
		if e := json.Unmarshal([]byte(value.Raw), &v); e != nil {
			err = fmt.Errorf("%w: entry %q: %v", ErrMalformed, key.String(), e)
			return false
		}
		if v.Path == "" {
			v.Path = key.String()
		}
		for i, d := range v.Domains {
			v.Domains[i] = strings.ToLower(strings.TrimSpace(d))
		}
		out = append(out, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
