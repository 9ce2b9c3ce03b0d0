package recipes

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		raw  string
		want Order
	}{
		{raw: "", want: OrderDefault},
		{raw: "with_photo", want: OrderWithPhoto},
		{raw: "without_photo", want: OrderWithoutPhoto},
		{raw: "new", want: OrderNewest},
		{raw: "old", want: OrderOldest},
		{raw: "NEW", want: OrderDefault},
		{raw: "random", want: OrderDefault},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseOrder(tt.raw); got != tt.want {
				t.Errorf("ParseOrder(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPaginateStrict(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		raw        string
		wantNumber int
		wantErr    error
	}{
		{name: "empty value is first page", count: 12, raw: "", wantNumber: 1},
		{name: "middle page", count: 12, raw: "2", wantNumber: 2},
		{name: "last keyword", count: 12, raw: "last", wantNumber: 3},
		{name: "beyond range", count: 12, raw: "4", wantErr: ErrPageNotFound},
		{name: "zero", count: 12, raw: "0", wantErr: ErrPageNotFound},
		{name: "not a number", count: 12, raw: "abc", wantErr: ErrPageNotFound},
		{name: "empty listing has one page", count: 0, raw: "1", wantNumber: 1},
		{name: "empty listing second page", count: 0, raw: "2", wantErr: ErrPageNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate(tt.count, 5, tt.raw, PageStrict)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Paginate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Paginate() unexpected error: %v", err)
			}
			if page.Number != tt.wantNumber {
				t.Errorf("Number = %d, want %d", page.Number, tt.wantNumber)
			}
		})
	}
}

func TestPaginateClamp(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantNumber int
	}{
		{name: "garbage falls back to first", raw: "abc", wantNumber: 1},
		{name: "beyond range clamps to last", raw: "99", wantNumber: 4},
		{name: "negative clamps to last", raw: "-1", wantNumber: 4},
		{name: "in range", raw: "2", wantNumber: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate(10, 3, tt.raw, PageClamp)
			if err != nil {
				t.Fatalf("Paginate() unexpected error: %v", err)
			}
			if page.Number != tt.wantNumber {
				t.Errorf("Number = %d, want %d", page.Number, tt.wantNumber)
			}
		})
	}
}

func TestPageInfoNavigation(t *testing.T) {
	page, err := Paginate(12, 5, "2", PageStrict)
	if err != nil {
		t.Fatalf("Paginate() unexpected error: %v", err)
	}

	if !page.HasNext || !page.HasPrevious {
		t.Errorf("HasNext = %v, HasPrevious = %v, want both true", page.HasNext, page.HasPrevious)
	}
	if page.Offset() != 5 {
		t.Errorf("Offset() = %d, want 5", page.Offset())
	}
	if got := page.Pages(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Pages() = %v, want [1 2 3]", got)
	}
	if got := page.URL(3); got != "?page=3" {
		t.Errorf("URL(3) = %q, want ?page=3", got)
	}

	ordered := page.WithQuery(url.Values{"order": {"new"}})
	if got := ordered.URL(1); got != "?order=new&page=1" {
		t.Errorf("URL(1) = %q, want ?order=new&page=1", got)
	}
}

func TestScope(t *testing.T) {
	tests := []struct {
		name        string
		scope       Scope
		pageSize    int
		policy      PagePolicy
		allowsEmpty bool
		order       Order
		title       string
	}{
		{name: "home", scope: HomeScope(), pageSize: 5, policy: PageStrict, allowsEmpty: true, order: OrderWithPhoto, title: "Home page"},
		{name: "category", scope: CategoryScope("soups"), pageSize: 5, policy: PageStrict, allowsEmpty: false, order: OrderDefault, title: "Category - Soups"},
		{name: "tag", scope: TagScope("vegan"), pageSize: 5, policy: PageStrict, allowsEmpty: false, order: OrderDefault, title: "Tag: Soups"},
		{name: "about", scope: AboutScope(), pageSize: 3, policy: PageClamp, allowsEmpty: true, order: OrderDefault, title: "About"},
		{name: "author", scope: AuthorScope("u1"), pageSize: 5, policy: PageStrict, allowsEmpty: true, order: OrderNewest, title: "My recipes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scope.PageSize(); got != tt.pageSize {
				t.Errorf("PageSize() = %d, want %d", got, tt.pageSize)
			}
			if got := tt.scope.PagePolicy(); got != tt.policy {
				t.Errorf("PagePolicy() = %v, want %v", got, tt.policy)
			}
			if got := tt.scope.AllowsEmpty(); got != tt.allowsEmpty {
				t.Errorf("AllowsEmpty() = %v, want %v", got, tt.allowsEmpty)
			}
			if got := tt.scope.EffectiveOrder(OrderWithPhoto); got != tt.order {
				t.Errorf("EffectiveOrder() = %q, want %q", got, tt.order)
			}
			if got := ListingTitle(tt.scope, "Soups"); got != tt.title {
				t.Errorf("ListingTitle() = %q, want %q", got, tt.title)
			}
		})
	}
}

func TestSelection(t *testing.T) {
	if !Selection(HomeScope(), 0).IsAll() {
		t.Error("home listing should select all categories")
	}

	category := Selection(CategoryScope("soups"), 2)
	if category.IsAll() || !category.Is(2) || category.Is(3) {
		t.Errorf("category selection = %+v, want category 2 only", category)
	}

	tag := Selection(TagScope("vegan"), 0)
	if tag.IsAll() || tag.Is(0) {
		t.Errorf("tag selection = %+v, want nothing selected", tag)
	}
}

func TestNewFilterForm(t *testing.T) {
	form := NewFilterForm(OrderOldest)

	selected := 0
	for _, o := range form.Options {
		if o.Selected {
			selected++
			if o.Value != string(OrderOldest) {
				t.Errorf("selected option = %q, want %q", o.Value, OrderOldest)
			}
		}
	}
	if selected != 1 {
		t.Errorf("selected options = %d, want 1", selected)
	}
}

func TestRecipeRequestIDs(t *testing.T) {
	req := RecipeRequest{Cat: "2", Tags: []string{"3", "1", "3", "x"}}

	if req.CatID() != 2 {
		t.Errorf("CatID() = %d, want 2", req.CatID())
	}
	got := req.TagIDs()
	if len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Errorf("TagIDs() = %v, want [3 1]", got)
	}
}
