package webshoptest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"webshopsync/internal/entity"
	"webshopsync/internal/xmlcodec"
)

const (
	errNotFound = "error: id not found"
)

// kindTable is the storage of one kind, answering in webshop text.
type kindTable interface {
	get(id int64) string
	listSince(since time.Time, max int) string
	update(doc string, now time.Time) string
	delete(id int64, now time.Time) string
	purgeTest() int
}

type table[T any] struct {
	kind   entity.Kind
	codec  xmlcodec.Codec[T]
	idElem string
	rows   map[int64]*T
	nextID int64

	key    func(*T) *int64
	stamps func(*T) *entity.Stamps
	test   func(*T) bool
	// match finds the stored row an incoming record updates. Defaults to
	// lookup by key.
	match func(*T) (int64, bool)
	// guard refuses a delete with an error text.
	guard func(id int64) string
}

func newTable[T any](codec xmlcodec.Codec[T], idElem string, key func(*T) *int64, stamps func(*T) *entity.Stamps, test func(*T) bool) *table[T] {
	return &table[T]{
		kind:   codec.Kind(),
		codec:  codec,
		idElem: idElem,
		rows:   make(map[int64]*T),
		nextID: 1000,
		key:    key,
		stamps: stamps,
		test:   test,
	}
}

func (t *table[T]) find(id int64) (*T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) get(id int64) string {
	row, ok := t.rows[id]
	if !ok {
		return errNotFound
	}
	return t.render(row)
}

func (t *table[T]) render(row *T) string {
	out, err := t.codec.Marshal(*row)
	if err != nil {
		return "error: " + err.Error()
	}
	return string(out)
}

func (t *table[T]) listSince(since time.Time, max int) string {
	var hits []T
	for _, id := range t.ids() {
		row := t.rows[id]
		s := t.stamps(row)
		if s.UpdatedDttm != nil && !s.UpdatedDttm.Before(since) {
			hits = append(hits, *row)
		}
	}
	if max > 0 && len(hits) > max {
		return "error: result_set_to_big"
	}

	out, err := t.codec.MarshalList(hits)
	if err != nil {
		return "error: " + err.Error()
	}
	return string(out)
}

// update stores the record. Records without an identifier get the next
// one; missing created/updated stamps are filled in.
func (t *table[T]) update(doc string, now time.Time) string {
	open := "<" + t.kind.Element() + ">"
	if !strings.HasPrefix(doc, open) {
		return fmt.Sprintf("error: expected %s document", t.kind.Element())
	}
	provisional := !strings.HasPrefix(doc, open+"<"+t.idElem+">")
	if provisional {
		doc = open + fmt.Sprintf("<%s>%d</%s>", t.idElem, t.nextID+1, t.idElem) + strings.TrimPrefix(doc, open)
	}

	row, err := t.codec.Unmarshal([]byte(doc))
	if err != nil {
		return "error: " + err.Error()
	}

	existingID, exists := t.lookup(&row, provisional)
	switch {
	case exists:
		*t.key(&row) = existingID
		prev := t.stamps(t.rows[existingID])
		if t.stamps(&row).CreatedDttm == nil {
			t.stamps(&row).CreatedDttm = prev.CreatedDttm
		}
	case provisional || t.match != nil:
		t.nextID++
		*t.key(&row) = t.nextID
	}

	s := t.stamps(&row)
	if s.CreatedDttm == nil {
		s.CreatedDttm = &now
	}
	if s.UpdatedDttm == nil {
		s.UpdatedDttm = &now
	}

	stored := row
	t.rows[*t.key(&stored)] = &stored
	return t.render(&stored)
}

func (t *table[T]) lookup(row *T, provisional bool) (int64, bool) {
	if t.match != nil {
		return t.match(row)
	}
	if provisional {
		return 0, false
	}
	id := *t.key(row)
	_, ok := t.rows[id]
	return id, ok
}

func (t *table[T]) delete(id int64, now time.Time) string {
	row, ok := t.rows[id]
	if !ok || t.stamps(row).Deleted() {
		return errNotFound
	}
	if t.guard != nil {
		if msg := t.guard(id); msg != "" {
			return msg
		}
	}
	t.stamps(row).DeletedDttm = &now
	t.stamps(row).UpdatedDttm = &now
	return "ok"
}

func (t *table[T]) purgeTest() int {
	n := 0
	for id, row := range t.rows {
		if t.test(row) {
			delete(t.rows, id)
			n++
		}
	}
	return n
}

func (t *table[T]) ids() []int64 {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
