package naming

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// NameComponent is one component of a binding name.
type NameComponent struct {
	ID   string
	Kind string
}

func (nc NameComponent) String() string {
	if nc.Kind == "" {
		return nc.ID
	}
	return nc.ID + "." + nc.Kind
}

func (nc NameComponent) compare(other NameComponent) int {
	if c := strings.Compare(nc.ID, other.ID); c != 0 {
		return c
	}
	return strings.Compare(nc.Kind, other.Kind)
}

// ParseName splits a "/"-separated path of "id[.kind]" components. The kind
// is the part after the last dot.
func ParseName(path string) ([]NameComponent, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	var result []NameComponent
	for _, s := range strings.Split(path, "/") {
		if s == "" {
			return nil, fmt.Errorf("%w: empty component in %q", ErrInvalidName, path)
		}
		var nc NameComponent
		if i := strings.LastIndexByte(s, '.'); i > 0 {
			nc = NameComponent{s[:i], s[i+1:]}
		} else {
			nc = NameComponent{ID: s}
		}
		result = append(result, nc)
	}
	return result, nil
}

type BindingType uint8

const (
	// NoObject only appears in the sentinel returned by an exhausted
	// enumerator.
	NoObject BindingType = iota
	ObjectBinding
	ContextBinding
)

func (bt BindingType) String() string {
	switch bt {
	case NoObject:
		return "nobject"
	case ObjectBinding:
		return "object"
	case ContextBinding:
		return "context"
	default:
		return fmt.Sprintf("BindingType(%d)", uint8(bt))
	}
}

// BindingValue is what a name is bound to. Ref is opaque to this package
// except for context bindings, where it holds the sub-container's ObjectKey.
type BindingValue struct {
	Type BindingType
	Ref  string
}

// Binding is one entry of a container as seen by enumeration.
type Binding struct {
	Name []NameComponent
	Type BindingType
	Ref  string
}

func (b Binding) IsSentinel() bool {
	return len(b.Name) == 0 && b.Type == NoObject
}

func (b Binding) String() string {
	if b.IsSentinel() {
		return "<none>"
	}
	parts := make([]string, len(b.Name))
	for i, nc := range b.Name {
		parts[i] = nc.String()
	}
	return fmt.Sprintf("%s -> %v:%s", strings.Join(parts, "/"), b.Type, b.Ref)
}

// ContainerRecord is the persisted binding table of one container.
type ContainerRecord struct {
	Bindings map[NameComponent]BindingValue
}

func NewRecord() *ContainerRecord {
	return &ContainerRecord{Bindings: make(map[NameComponent]BindingValue)}
}

func (rec *ContainerRecord) Len() int {
	if rec == nil {
		return 0
	}
	return len(rec.Bindings)
}

func (rec *ContainerRecord) Clone() *ContainerRecord {
	result := NewRecord()
	if rec != nil {
		maps.Copy(result.Bindings, rec.Bindings)
	}
	return result
}

func (rec *ContainerRecord) Equal(other *ContainerRecord) bool {
	if rec.Len() != other.Len() {
		return false
	}
	if rec.Len() == 0 {
		return true
	}
	return maps.Equal(rec.Bindings, other.Bindings)
}

// sortedBindings returns the table as enumeration bindings ordered by name.
func (rec *ContainerRecord) sortedBindings() []Binding {
	if rec.Len() == 0 {
		return nil
	}
	names := slices.SortedFunc(maps.Keys(rec.Bindings), NameComponent.compare)
	result := make([]Binding, len(names))
	for i, nc := range names {
		bv := rec.Bindings[nc]
		result[i] = Binding{Name: []NameComponent{nc}, Type: bv.Type, Ref: bv.Ref}
	}
	return result
}

// Codec converts container records to and from the opaque payload stored
// inside an envelope.
type Codec interface {
	EncodeRecord(rec *ContainerRecord) ([]byte, error)
	DecodeRecord(data []byte) (*ContainerRecord, error)
}

// MsgPackCodec encodes a record as a msgpack array of bindings sorted by
// name, so equal records produce identical bytes.
type MsgPackCodec struct{}

type persistedRecord struct {
	Bindings []persistedBinding `msgpack:"b"`
}

type persistedBinding struct {
	ID   string      `msgpack:"i"`
	Kind string      `msgpack:"k,omitempty"`
	Type BindingType `msgpack:"t"`
	Ref  string      `msgpack:"r"`
}

func (MsgPackCodec) EncodeRecord(rec *ContainerRecord) ([]byte, error) {
	var pr persistedRecord
	for _, b := range rec.sortedBindings() {
		pr.Bindings = append(pr.Bindings, persistedBinding{
			ID:   b.Name[0].ID,
			Kind: b.Name[0].Kind,
			Type: b.Type,
			Ref:  b.Ref,
		})
	}

	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.ResetDict(&buf, nil)
	enc.SetSortMapKeys(true)
	err := enc.Encode(&pr)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode container record using MsgPack: %w", err)
	}
	return buf.Bytes(), nil
}

func (MsgPackCodec) DecodeRecord(data []byte) (*ContainerRecord, error) {
	var pr persistedRecord
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.ResetDict(&r, nil)
	err := dec.Decode(&pr)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(data, 0, err, "failed to decode msgpack container record")
	}
	if r.Len() != 0 {
		return nil, dataErrf(data, len(data)-r.Len(), nil, "trailing bytes after container record")
	}

	rec := NewRecord()
	for _, pb := range pr.Bindings {
		if pb.Type != ObjectBinding && pb.Type != ContextBinding {
			return nil, dataErrf(data, 0, nil, "invalid binding type %d for %q", pb.Type, pb.ID)
		}
		nc := NameComponent{pb.ID, pb.Kind}
		if _, dup := rec.Bindings[nc]; dup {
			return nil, dataErrf(data, 0, nil, "duplicate binding %v", nc)
		}
		rec.Bindings[nc] = BindingValue{pb.Type, pb.Ref}
	}
	return rec, nil
}
