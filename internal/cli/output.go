package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
)

func (s *session) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.stdout, string(b))
	return nil
}

// printRaw indents the payload as the server sent it, falling back to v.
func (s *session) printRaw(raw []byte, v any) error {
	if len(raw) == 0 {
		return s.print(v)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return s.print(v)
	}
	fmt.Fprintln(s.stdout, buf.String())
	return nil
}
