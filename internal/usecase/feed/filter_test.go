package feed

import (
	"reflect"
	"testing"

	"tiktroq/internal/domain"
)

func sampleListings() []domain.Listing {
	return []domain.Listing{
		{ID: "p1", Title: "iPhone 13 Pro contre console PS5", Description: "Excellent état", Category: domain.CategoryElectronics, Hashtags: []string{"#iPhone13", "#PS5"}, Status: domain.StatusApproved},
		{ID: "p2", Title: "Cours de guitare", Description: "Contre cours d'anglais", Category: domain.CategoryServices, Hashtags: []string{"#CoursGuitare"}, Status: domain.StatusApproved},
		{ID: "p3", Title: "Vélo de ville", Description: "Bon état", Category: domain.CategorySport, Hashtags: []string{"#Vélo", "#Échange"}, Status: domain.StatusPending},
		{ID: "p4", Title: "Lampe", Description: "Lampe de bureau contre console", Category: domain.CategoryHome, Status: domain.StatusApproved},
	}
}

func ids(listings []domain.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestFilterByCategoryKeepsOrder(t *testing.T) {
	listings := []domain.Listing{
		{ID: "a", Category: domain.CategoryObjects},
		{ID: "b", Category: domain.CategoryServices},
		{ID: "c", Category: domain.CategoryObjects},
	}
	got := ids(Filter(listings, domain.CategoryObjects, ""))
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("ожидали [a c], получили %v", got)
	}
}

func TestFilterCategoryIsCaseSensitive(t *testing.T) {
	listings := []domain.Listing{{ID: "a", Category: domain.CategoryObjects}}
	if got := Filter(listings, domain.Category("objets"), ""); len(got) != 0 {
		t.Fatalf("категория должна сравниваться с учётом регистра")
	}
}

func TestFilterByQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "title", query: "GUITARE", want: []string{"p2"}},
		{name: "description", query: "console", want: []string{"p1", "p4"}},
		{name: "hashtag", query: "#ps5", want: []string{"p1"}},
		{name: "hashtag with accent", query: "échange", want: []string{"p3"}},
		{name: "whitespace only", query: "   ", want: []string{"p1", "p2", "p3", "p4"}},
		{name: "trimmed", query: "  lampe ", want: []string{"p4"}},
		{name: "no match", query: "voiture", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sampleListings(), domain.CategoryAll, tt.query))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ожидали %v, получили %v", tt.want, got)
			}
		})
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	listings := sampleListings()
	for _, category := range append(domain.Categories(), domain.CategoryAll) {
		for _, q := range []string{"", "console", "#", "état"} {
			once := Filter(listings, category, q)
			twice := Filter(once, category, q)
			if !reflect.DeepEqual(ids(once), ids(twice)) {
				t.Fatalf("фильтр не идемпотентен для %s/%q", category, q)
			}
		}
	}
}

func TestFilterEmptyResultIsNotNil(t *testing.T) {
	got := Filter(nil, domain.CategoryAll, "")
	if got == nil || len(got) != 0 {
		t.Fatalf("ожидали пустой срез")
	}
}

func TestVisibleDropsUnapproved(t *testing.T) {
	got := ids(Visible(sampleListings()))
	if !reflect.DeepEqual(got, []string{"p1", "p2", "p4"}) {
		t.Fatalf("получили %v", got)
	}
}

func TestCursorClamps(t *testing.T) {
	c := Cursor{Index: 0, Len: 3}
	c = c.Prev()
	if c.Index != 0 {
		t.Fatalf("курсор не должен уходить в минус")
	}
	c = c.Next().Next().Next()
	if c.Index != 2 {
		t.Fatalf("курсор должен остановиться на последнем элементе, получили %d", c.Index)
	}
	empty := Cursor{Len: 0}.Next()
	if empty.Index != 0 {
		t.Fatalf("пустая лента должна держать курсор на нуле")
	}
}

func TestCursorAt(t *testing.T) {
	for _, tc := range []struct{ at, len, want int }{{-4, 3, 0}, {1, 3, 1}, {9, 3, 2}, {5, 0, 0}} {
		if got := (Cursor{Len: tc.len}).At(tc.at).Index; got != tc.want {
			t.Fatalf("At(%d) при len=%d: ожидали %d, получили %d", tc.at, tc.len, tc.want, got)
		}
	}
}
