package reconcile

import (
	"fmt"
	"sort"
	"strconv"

	"webshopsync/internal/entity"
)

// Mismatch is one difference between the children a product was sent with
// and the children the webshop returned.
type Mismatch struct {
	Collection string
	Key        string
	Detail     string
}

func (m Mismatch) String() string {
	if m.Key == "" {
		return fmt.Sprintf("%s: %s", m.Collection, m.Detail)
	}
	return fmt.Sprintf("%s[%s]: %s", m.Collection, m.Key, m.Detail)
}

// Compare checks a fetched product against the one that was sent. Songs
// are matched by position and ID (by title when the sent song had no ID
// yet), pictures by file name, categories by ID. Order only matters for
// songs.
func Compare(want, got entity.Product) []Mismatch {
	var out []Mismatch
	out = append(out, compareSongs(want.Songs, got.Songs)...)
	out = append(out, compareSets("product_pictures", want.PictureNames(), got.PictureNames())...)
	out = append(out, compareSets("product_categories", categoryKeys(want), categoryKeys(got))...)
	return out
}

func compareSongs(want, got []entity.Song) []Mismatch {
	var out []Mismatch
	if len(want) != len(got) {
		out = append(out, Mismatch{
			Collection: "songs",
			Detail:     fmt.Sprintf("sent %d, stored %d", len(want), len(got)),
		})
	}

	n := min(len(want), len(got))
	for i := 0; i < n; i++ {
		w, g := want[i], got[i]
		pos := strconv.Itoa(i)
		switch {
		case w.ID != 0 && w.ID != g.ID:
			out = append(out, Mismatch{Collection: "songs", Key: pos, Detail: fmt.Sprintf("sent id %d, stored id %d", w.ID, g.ID)})
		case w.ID == 0 && w.Title != g.Title:
			out = append(out, Mismatch{Collection: "songs", Key: pos, Detail: fmt.Sprintf("sent %q, stored %q", w.Title, g.Title)})
		}
	}
	return out
}

func compareSets(collection string, want, got []string) []Mismatch {
	have := make(map[string]int, len(got))
	for _, k := range got {
		have[k]++
	}
	sent := make(map[string]int, len(want))
	for _, k := range want {
		sent[k]++
	}

	var out []Mismatch
	if len(want) != len(got) {
		out = append(out, Mismatch{
			Collection: collection,
			Detail:     fmt.Sprintf("sent %d, stored %d", len(want), len(got)),
		})
	}
	for _, k := range sortedKeys(sent) {
		if have[k] == 0 {
			out = append(out, Mismatch{Collection: collection, Key: k, Detail: "missing"})
		}
	}
	for _, k := range sortedKeys(have) {
		if sent[k] == 0 {
			out = append(out, Mismatch{Collection: collection, Key: k, Detail: "unexpected"})
		}
	}
	return out
}

func categoryKeys(p entity.Product) []string {
	keys := make([]string, 0, len(p.ProductCategories))
	for _, c := range p.ProductCategories {
		keys = append(keys, strconv.FormatInt(c.ID, 10))
	}
	return keys
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
