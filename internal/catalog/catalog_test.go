package catalog

import "testing"

func testCatalog() *Catalog {
	return New([]Product{
		{ID: "sku_mug", Title: "Ceramic Coffee Mug"},
		{ID: "sku_grinder", Title: "Burr Coffee Grinder"},
		{ID: "sku_lamp", Title: "Desk Lamp"},
	})
}

func TestSearchMatchesTitle(t *testing.T) {
	got := testCatalog().Search("coffee")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(got), got)
	}
}

func TestSearchMatchesID(t *testing.T) {
	got := testCatalog().Search("sku_lamp")
	if len(got) != 1 || got[0].ID != "sku_lamp" {
		t.Fatalf("got %v, want [sku_lamp]", got)
	}
}

func TestSearchAllKeywordsMustMatch(t *testing.T) {
	got := testCatalog().Search("coffee grinder")
	if len(got) != 1 || got[0].ID != "sku_grinder" {
		t.Fatalf("got %v, want [sku_grinder]", got)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	got := testCatalog().Search("DESK lamp")
	if len(got) != 1 || got[0].ID != "sku_lamp" {
		t.Fatalf("got %v, want [sku_lamp]", got)
	}
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	c := testCatalog()
	got := c.Search("  ")
	if len(got) != len(c.Products()) {
		t.Fatalf("len = %d, want full catalog", len(got))
	}
}

func TestSearchNoMatchFallsBackToAll(t *testing.T) {
	c := testCatalog()
	got := c.Search("quantum flux capacitor")
	if len(got) != len(c.Products()) {
		t.Fatalf("len = %d, want full catalog", len(got))
	}
}

func TestGet(t *testing.T) {
	c := testCatalog()
	p, ok := c.Get("sku_mug")
	if !ok || p.Title != "Ceramic Coffee Mug" {
		t.Fatalf("Get(sku_mug) = %v, %v", p, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) reported ok")
	}
}
