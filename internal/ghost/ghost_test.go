package ghost

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meal-rotation/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func TestFetchTitles(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("key") != "test_key" {
				t.Errorf("Expected key 'test_key', got '%s'", q.Get("key"))
			}
			if q.Get("filter") != "tag:weekend-dinner" {
				t.Errorf("Expected tag filter, got '%s'", q.Get("filter"))
			}
			fmt.Fprintln(w, `{
				"posts": [
					{"id": "1", "title": "Sunday Roast"},
					{"id": "2", "title": "  "},
					{"id": "3", "title": "Paella "}
				],
				"meta": {"pagination": {"page": 1, "pages": 1, "total": 3}}
			}`)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL + "/", GhostContentKey: "test_key"})
		titles, err := client.FetchTitles(t.Context(), "weekend-dinner")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(titles) != 2 || titles[0] != "Sunday Roast" || titles[1] != "Paella" {
			t.Errorf("Expected [Sunday Roast Paella], got %v", titles)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL, GhostContentKey: "test_key"})
		if _, err := client.FetchTitles(t.Context(), "x"); err == nil {
			t.Fatal("Expected an error for non-200 status code, got nil")
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		client := NewClient(&config.Config{GhostURL: "http://ghost.invalid"})
		if _, err := client.FetchTitles(t.Context(), "x"); err == nil {
			t.Fatal("Expected an error without a content key, got nil")
		}
	})
}

func TestCreatePost(t *testing.T) {
	secret := []byte("0123456789abcdef")
	adminKey := "key-id:" + hex.EncodeToString(secret)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(auth, "Ghost ")
		if !ok {
			t.Errorf("Expected a Ghost authorization header, got '%s'", auth)
		}
		token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
			if tok.Header["kid"] != "key-id" {
				return nil, fmt.Errorf("unexpected kid %v", tok.Header["kid"])
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("/v3/admin/"))
		if err != nil || !token.Valid {
			t.Errorf("Expected a valid admin token, got %v", err)
		}

		var body struct {
			Posts []map[string]string `json:"posts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if body.Posts[0]["status"] != "draft" {
			t.Errorf("Expected a draft, got '%s'", body.Posts[0]["status"])
		}

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"posts": [{"id": "p1", "title": %q, "url": "https://blog.test/p1/"}]}`, body.Posts[0]["title"])
	}))
	defer server.Close()

	client := NewClient(&config.Config{GhostURL: server.URL, GhostAdminKey: adminKey})
	post, err := client.CreatePost(t.Context(), "Week 2817", "<p>plan</p>", false)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.ID != "p1" || post.Title != "Week 2817" {
		t.Errorf("Expected post p1 'Week 2817', got %+v", post)
	}
}

func TestCreateAdminTokenInvalidKey(t *testing.T) {
	for _, key := range []string{"", "no-colon", "id:not-hex"} {
		client := NewClient(&config.Config{GhostAdminKey: key})
		if _, err := client.createAdminToken(); err == nil {
			t.Errorf("Expected an error for admin key '%s', got nil", key)
		}
	}
}
