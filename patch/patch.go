package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Op is a patch operation.
type Op string

const (
	Set     Op = "set"
	Add     Op = "add"
	Replace Op = "replace"
	Remove  Op = "remove"
)

// Known reports whether o is one of the defined operations.
func (o Op) Known() bool {
	switch o {
	case Set, Add, Replace, Remove:
		return true
	}
	return false
}

// Patch is one mutation instruction. Value is the raw JSON value and is
// empty when the line carried none.
type Patch struct {
	Op    Op              `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

func (p Patch) String() string {
	if len(p.Value) == 0 {
		return fmt.Sprintf("%s %s", p.Op, p.Path)
	}
	return fmt.Sprintf("%s %s %s", p.Op, p.Path, p.Value)
}

var (
	errNotObject = errors.New("patch is not a JSON object")
	errNoOp      = errors.New("patch has no op")
	errNoPath    = errors.New("patch has no path")
)

// Parse decodes one patch line. The line must be a JSON object with a
// non-empty op and path. Operations outside the defined set are accepted
// here and ignored by Apply.
func Parse(line []byte) (Patch, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return Patch{}, errNotObject
	}
	var p Patch
	if err := json.Unmarshal(line, &p); err != nil {
		return Patch{}, err
	}
	if p.Op == "" {
		return Patch{}, errNoOp
	}
	if p.Path == "" {
		return Patch{}, errNoPath
	}
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(line string) Patch {
	p, err := Parse([]byte(line))
	if err != nil {
		panic(fmt.Sprintf("patch.MustParse(%q): %v", line, err))
	}
	return p
}
