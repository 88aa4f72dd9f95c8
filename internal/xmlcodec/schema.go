package xmlcodec

import (
	"fmt"

	"webshopsync/internal/entity"
)

// schema is the documented shape of one record element. Scalars may appear
// at most once and never carry children; repeated elements are checked
// against their own schema. Anything else is ignored.
type schema struct {
	element  string
	required []string
	scalars  []string
	repeated map[string]*schema
}

func (s *schema) check(kind entity.Kind, path string, n *node) error {
	if path == "" {
		path = n.name
	}
	if n.name != s.element {
		return &ValidationError{Kind: kind, Path: path, Reason: fmt.Sprintf("expected <%s>, got <%s>", s.element, n.name)}
	}

	for _, name := range s.required {
		if n.count(name) == 0 {
			return &ValidationError{Kind: kind, Path: path + "/" + name, Reason: "required element missing"}
		}
	}

	for _, name := range s.scalars {
		if c := n.count(name); c > 1 {
			return &ValidationError{Kind: kind, Path: path + "/" + name, Reason: fmt.Sprintf("expected a single value, found %d", c)}
		}
	}

	index := make(map[string]int)
	for _, ch := range n.children {
		if s.isScalar(ch.name) && len(ch.children) > 0 {
			return &ValidationError{Kind: kind, Path: path + "/" + ch.name, Reason: "expected a scalar, found nested elements"}
		}
		sub, ok := s.repeated[ch.name]
		if !ok {
			continue
		}
		index[ch.name]++
		subPath := fmt.Sprintf("%s/%s[%d]", path, ch.name, index[ch.name])
		if err := sub.check(kind, subPath, ch); err != nil {
			return err
		}
	}
	return nil
}

func (s *schema) isScalar(name string) bool {
	for _, sc := range s.scalars {
		if sc == name {
			return true
		}
	}
	return false
}

// checkList validates a <kind>_list document: every child named like the
// record element must satisfy the record schema.
func (s *schema) checkList(kind entity.Kind, n *node) error {
	list := kind.ListElement()
	if n.name != list {
		return &ValidationError{Kind: kind, Path: n.name, Reason: fmt.Sprintf("expected <%s>, got <%s>", list, n.name)}
	}
	i := 0
	for _, ch := range n.children {
		if ch.name != s.element {
			continue
		}
		i++
		if err := s.check(kind, fmt.Sprintf("%s/%s[%d]", list, ch.name, i), ch); err != nil {
			return err
		}
	}
	return nil
}
