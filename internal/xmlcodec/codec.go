package xmlcodec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"webshopsync/internal/entity"
)

// Codec converts one entity kind to and from the webshop's XML.
type Codec[T any] interface {
	Kind() entity.Kind
	Marshal(v T) ([]byte, error)
	MarshalList(items []T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
	UnmarshalList(data []byte) ([]T, error)
	// Validate checks the document shape without building the entity.
	Validate(data []byte) error
	ValidateList(data []byte) error
}

// codec binds an entity type T to its wire struct W.
type codec[T any, W any] struct {
	kind     entity.Kind
	schema   *schema
	toWire   func(T) W
	fromWire func(W, *fieldParser) T
}

func (c *codec[T, W]) Kind() entity.Kind {
	return c.kind
}

func (c *codec[T, W]) Marshal(v T) ([]byte, error) {
	out, err := xml.Marshal(c.toWire(v))
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", c.kind, err)
	}
	return out, nil
}

func (c *codec[T, W]) MarshalList(items []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	start := xml.StartElement{Name: xml.Name{Local: c.kind.ListElement()}}
	if err := enc.EncodeToken(start); err != nil {
		return nil, fmt.Errorf("marshal %s list: %w", c.kind, err)
	}
	for _, it := range items {
		if err := enc.Encode(c.toWire(it)); err != nil {
			return nil, fmt.Errorf("marshal %s list: %w", c.kind, err)
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return nil, fmt.Errorf("marshal %s list: %w", c.kind, err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("marshal %s list: %w", c.kind, err)
	}
	return buf.Bytes(), nil
}

func (c *codec[T, W]) Validate(data []byte) error {
	root, err := parseTree(data)
	if err != nil {
		return c.malformed(err)
	}
	return c.schema.check(c.kind, "", root)
}

func (c *codec[T, W]) ValidateList(data []byte) error {
	root, err := parseTree(data)
	if err != nil {
		return c.malformed(err)
	}
	return c.schema.checkList(c.kind, root)
}

func (c *codec[T, W]) Unmarshal(data []byte) (T, error) {
	var zero T
	if err := c.Validate(data); err != nil {
		return zero, err
	}

	var w W
	if err := newDecoder(data).Decode(&w); err != nil {
		return zero, c.malformed(err)
	}

	p := &fieldParser{kind: c.kind, path: c.kind.Element()}
	v := c.fromWire(w, p)
	if p.err != nil {
		return zero, p.err
	}
	return v, nil
}

func (c *codec[T, W]) UnmarshalList(data []byte) ([]T, error) {
	if err := c.ValidateList(data); err != nil {
		return nil, err
	}

	d := newDecoder(data)
	items := []T{}
	depth := 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, c.malformed(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth != 2 || t.Name.Local != c.kind.Element() {
				continue
			}
			var w W
			if err := d.DecodeElement(&w, &t); err != nil {
				return nil, c.malformed(err)
			}
			depth--

			path := fmt.Sprintf("%s/%s[%d]", c.kind.ListElement(), c.kind.Element(), len(items)+1)
			p := &fieldParser{kind: c.kind, path: path}
			v := c.fromWire(w, p)
			if p.err != nil {
				return nil, p.err
			}
			items = append(items, v)
		case xml.EndElement:
			depth--
		}
	}
	return items, nil
}

func (c *codec[T, W]) malformed(err error) error {
	return &ValidationError{Kind: c.kind, Reason: "malformed document", Err: err}
}
