package breadcrumbs

import (
	"encoding/json"
	"testing"
)

type flatCall struct {
	title  string
	isLast bool
	key    string
}

func collectFlat(crumbs []*CrumbData[string]) []flatCall {
	var calls []flatCall
	ForEachFlatCrumb(crumbs, func(unit CrumbContent[string], isLast bool, key string) {
		calls = append(calls, flatCall{unit.Title, isLast, key})
	})
	return calls
}

func TestBuildCrumb_Raw(t *testing.T) {
	m := Match[string]{ID: "home", Pathname: "/"}
	crumb := BuildCrumb(m, Raw("Home"))

	if crumb.ID != "home" || crumb.Pathname != "/" {
		t.Errorf("crumb = %+v", crumb)
	}
	if !crumb.ActivePath.IsZero() {
		t.Error("raw data must not set an active path")
	}
	unit, ok := crumb.Content.Last()
	if !ok || crumb.Content.IsList() {
		t.Fatalf("expected single content, got %+v", crumb.Content)
	}
	if unit.Title != "Home" || unit.URL != "/" {
		t.Errorf("unit = %+v, want {Home /}", unit)
	}
}

func TestBuildCrumb_Shaped(t *testing.T) {
	m := Match[string]{ID: "products", Pathname: "/products"}
	crumb := BuildCrumb(m, Shaped(CrumbPath[string]{
		ActivePath: ActivePathTo("/products"),
		Content:    List(CrumbContent[string]{Title: "A"}, CrumbContent[string]{Title: "B"}),
	}))

	if crumb.Pathname != "/products" {
		t.Errorf("Pathname = %q, want /products", crumb.Pathname)
	}
	if p, ok := crumb.ActivePath.Get(); !ok || p != "/products" {
		t.Errorf("ActivePath = %q, %v", p, ok)
	}
	if len(crumb.Content.Units()) != 2 || !crumb.Content.IsList() {
		t.Errorf("Content = %+v", crumb.Content)
	}
}

func TestBuildCrumb_ShapedOverridesPathname(t *testing.T) {
	m := Match[string]{ID: "user", Pathname: "/users/42"}
	crumb := BuildCrumb(m, Shaped(CrumbPath[string]{Pathname: "/users"}))
	if crumb.Pathname != "/users" {
		t.Errorf("Pathname = %q, want /users", crumb.Pathname)
	}
	if !crumb.Content.IsZero() {
		t.Error("content should be absent")
	}
}

func TestDataOf(t *testing.T) {
	t.Run("plain value is raw", func(t *testing.T) {
		d := DataOf("Home")
		if _, ok := d.Path(); ok || d.Raw() != "Home" {
			t.Errorf("DataOf(Home) = %+v", d)
		}
	})

	t.Run("record without content is raw", func(t *testing.T) {
		rec := map[string]any{"activePath": "/ignored"}
		d := DataOf(rec)
		if _, ok := d.Path(); ok {
			t.Fatal("record without content key must stay raw")
		}
		crumb := BuildCrumb(Match[any]{ID: "x", Pathname: "/x"}, d)
		if !crumb.ActivePath.IsZero() {
			t.Error("raw record must not set active path")
		}
	})

	t.Run("record with content is shaped", func(t *testing.T) {
		d := DataOf(map[string]any{
			"activePath": nil,
			"content":    map[string]any{"title": "Products", "url": "/products"},
		})
		p, ok := d.Path()
		if !ok {
			t.Fatal("expected shaped data")
		}
		if !p.ActivePath.IsNull() {
			t.Error("activePath null should be preserved")
		}
		unit, _ := p.Content.Last()
		if unit.Title != "Products" || unit.URL != "/products" {
			t.Errorf("unit = %+v", unit)
		}
	})

	t.Run("list content", func(t *testing.T) {
		d := DataOf(map[string]any{
			"pathname": "/list",
			"content":  []any{map[string]any{"title": "A"}, "B"},
		})
		p, _ := d.Path()
		if p.Pathname != "/list" || !p.Content.IsList() || len(p.Content.Units()) != 2 {
			t.Fatalf("path = %+v", p)
		}
		if p.Content.Units()[1].Title != "B" {
			t.Errorf("non-record unit should become its title, got %+v", p.Content.Units()[1])
		}
	})

	t.Run("null content is shaped without content", func(t *testing.T) {
		p, ok := DataOf(map[string]any{"content": nil}).Path()
		if !ok || !p.Content.IsZero() {
			t.Errorf("path = %+v, %v", p, ok)
		}
	})
}

func TestLastCrumbTitle(t *testing.T) {
	tests := []struct {
		name   string
		crumbs []*CrumbData[string]
		want   string
		wantOK bool
	}{
		{
			name:   "empty",
			crumbs: nil,
		},
		{
			name: "single content",
			crumbs: []*CrumbData[string]{
				{ID: "home", Pathname: "/", Content: Single(CrumbContent[string]{Title: "Home"})},
				{ID: "products", Pathname: "/products", Content: Single(CrumbContent[string]{Title: "Products"})},
			},
			want:   "Products",
			wantOK: true,
		},
		{
			name: "list content",
			crumbs: []*CrumbData[string]{
				{ID: "home", Pathname: "/", Content: Single(CrumbContent[string]{Title: "Home"})},
				{ID: "products", Pathname: "/products", Content: List(CrumbContent[string]{Title: "A"}, CrumbContent[string]{Title: "B"})},
			},
			want:   "B",
			wantOK: true,
		},
		{
			name: "last crumb without content",
			crumbs: []*CrumbData[string]{
				{ID: "home", Pathname: "/", Content: Single(CrumbContent[string]{Title: "Home"})},
				{ID: "products", Pathname: "/products"},
			},
		},
		{
			name: "empty list",
			crumbs: []*CrumbData[string]{
				{ID: "products", Pathname: "/products", Content: List[string]()},
			},
		},
		{
			name: "falsy title is still a title",
			crumbs: []*CrumbData[string]{
				{ID: "home", Pathname: "/", Content: Single(CrumbContent[string]{Title: ""})},
			},
			want:   "",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LastCrumbTitle(tt.crumbs)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("LastCrumbTitle() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestForEachFlatCrumb(t *testing.T) {
	t.Run("single content", func(t *testing.T) {
		calls := collectFlat([]*CrumbData[string]{
			{ID: "home", Pathname: "/", Content: Single(CrumbContent[string]{Title: "1"})},
			{ID: "products", Pathname: "/products", Content: Single(CrumbContent[string]{Title: "2"})},
		})
		want := []flatCall{{"1", false, "/"}, {"2", true, "/products"}}
		assertCalls(t, calls, want)
	})

	t.Run("nested content", func(t *testing.T) {
		calls := collectFlat([]*CrumbData[string]{
			{ID: "home", Pathname: "/", Content: Single(CrumbContent[string]{Title: "1"})},
			{ID: "products", Pathname: "/products", Content: List(
				CrumbContent[string]{Title: "2"},
				CrumbContent[string]{Title: "3"},
			)},
		})
		want := []flatCall{{"1", false, "/"}, {"2", false, "/products-0"}, {"3", true, "/products-1"}}
		assertCalls(t, calls, want)
	})

	t.Run("skips crumbs without content", func(t *testing.T) {
		calls := collectFlat([]*CrumbData[string]{
			{ID: "a", Pathname: "/a"},
			{ID: "b", Pathname: "/b", Content: Single(CrumbContent[string]{Title: "b"})},
		})
		assertCalls(t, calls, []flatCall{{"b", true, "/b"}})
	})

	t.Run("trailing crumb without content", func(t *testing.T) {
		// The last crumb decides lastness even when it has nothing to show.
		calls := collectFlat([]*CrumbData[string]{
			{ID: "a", Pathname: "/a", Content: Single(CrumbContent[string]{Title: "a"})},
			{ID: "b", Pathname: "/b"},
		})
		assertCalls(t, calls, []flatCall{{"a", false, "/a"}})
	})

	t.Run("only the final unit is last", func(t *testing.T) {
		crumbs := make([]*CrumbData[string], 0, 5)
		for _, p := range []string{"/a", "/b", "/c", "/d", "/e"} {
			crumbs = append(crumbs, &CrumbData[string]{
				ID:       p,
				Pathname: p,
				Content:  List(CrumbContent[string]{Title: p + "1"}, CrumbContent[string]{Title: p + "2"}),
			})
		}
		lasts := 0
		calls := collectFlat(crumbs)
		for i, c := range calls {
			if c.isLast {
				lasts++
				if i != len(calls)-1 {
					t.Errorf("unit %d marked last", i)
				}
			}
		}
		if lasts != 1 || len(calls) != 10 {
			t.Errorf("calls = %d, lasts = %d", len(calls), lasts)
		}
	})
}

func assertCalls(t *testing.T, got, want []flatCall) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d calls %+v, want %d %+v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCrumbData_JSON(t *testing.T) {
	tests := []struct {
		name  string
		crumb CrumbData[string]
		want  string
	}{
		{
			name:  "single content",
			crumb: CrumbData[string]{ID: "home", Pathname: "/", Content: Single(CrumbContent[string]{Title: "Home", URL: "/"})},
			want:  `{"id":"home","pathname":"/","content":{"url":"/","title":"Home"}}`,
		},
		{
			name:  "list content and null active path",
			crumb: CrumbData[string]{ID: "p", Pathname: "/p", ActivePath: NullActivePath(), Content: List(CrumbContent[string]{Title: "A"})},
			want:  `{"id":"p","pathname":"/p","activePath":null,"content":[{"title":"A"}]}`,
		},
		{
			name:  "no content",
			crumb: CrumbData[string]{ID: "x", Pathname: "/x", ActivePath: ActivePathTo("/y")},
			want:  `{"id":"x","pathname":"/x","activePath":"/y"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.crumb)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}

			var back CrumbData[string]
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if back.ActivePath != tt.crumb.ActivePath {
				t.Errorf("ActivePath round trip = %+v, want %+v", back.ActivePath, tt.crumb.ActivePath)
			}
			if back.Content.IsList() != tt.crumb.Content.IsList() || len(back.Content.Units()) != len(tt.crumb.Content.Units()) {
				t.Errorf("Content round trip = %+v", back.Content)
			}
		})
	}
}
