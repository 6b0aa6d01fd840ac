package candidates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const menuHTML = `
<html>
	<head><script>var x = "<li>Not a meal</li>";</script></head>
	<body>
		<nav><ul><li>Home</li><li>About</li></ul></nav>
		<h1>Family Dinners</h1>
		<ul>
			<li>Chicken   Curry</li>
			<li>Beef Tacos</li>
			<li>
				Pasta dishes
				<ul><li>Carbonara</li></ul>
			</li>
			<li> </li>
		</ul>
		<footer><ul><li>Copyright 2024</li></ul></footer>
	</body>
</html>`

func TestExtractListItems(t *testing.T) {
	items, err := ExtractListItems(strings.NewReader(menuHTML))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []string{"Chicken Curry", "Beef Tacos", "Carbonara"}
	if !slices.Equal(items, want) {
		t.Errorf("Expected %v, got %v", want, items)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("FromURL", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(menuHTML))
		}))
		defer ts.Close()

		src := newTestSource(t)
		added, err := src.Import(ctx, NewHTTPFetcher(), "weekday_dinner", ts.URL)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if added != 3 {
			t.Errorf("Expected 3 items imported, got %d", added)
		}

		// Importing the same page again adds nothing.
		added, err = src.Import(ctx, NewHTTPFetcher(), "weekday_dinner", ts.URL)
		if err != nil {
			t.Fatalf("Second import failed: %v", err)
		}
		if added != 0 {
			t.Errorf("Expected 0 items on re-import, got %d", added)
		}
	})

	t.Run("FromFile", func(t *testing.T) {
		page := filepath.Join(t.TempDir(), "menu.html")
		if err := os.WriteFile(page, []byte(menuHTML), 0644); err != nil {
			t.Fatalf("Failed to write page: %v", err)
		}

		src := newTestSource(t)
		if _, err := src.Import(ctx, NewHTTPFetcher(), "weekend_dinner", page); err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if got := src.Candidates("weekend_dinner"); len(got) != 3 {
			t.Errorf("Expected 3 candidates, got %v", got)
		}
	})

	t.Run("HTTPError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		src := newTestSource(t)
		if _, err := src.Import(ctx, NewHTTPFetcher(), "weekday_dinner", ts.URL); err == nil {
			t.Fatal("Expected an error for a 404 page, got nil")
		}
	})

	t.Run("NoItems", func(t *testing.T) {
		page := filepath.Join(t.TempDir(), "empty.html")
		os.WriteFile(page, []byte("<html><body><p>Nothing</p></body></html>"), 0644)

		src := newTestSource(t)
		if _, err := src.Import(ctx, NewHTTPFetcher(), "weekday_dinner", page); err == nil {
			t.Fatal("Expected an error for a page without list items, got nil")
		}
	})
}
