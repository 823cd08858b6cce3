package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, staticToken("tok-123"), zerolog.Nop())
}

func TestClient_GetCourse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/courses/abc123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.Header.Get("Idempotency-Key") != "" {
			t.Errorf("reads must not carry an idempotency key")
		}
		_, _ = io.WriteString(w, `{"_id":"abc123","title":"Go in Practice","price":"49.99","description":"d","thumbnail":"t.png"}`)
	})

	course, err := c.GetCourse(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if course.ID != "abc123" || course.Title != "Go in Practice" || course.Price != "49.99" {
		t.Fatalf("unexpected course: %+v", course)
	}
}

func TestClient_LoginDecodesAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body ports.LoginInput
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Email != "ada@example.com" {
			t.Errorf("unexpected email %q", body.Email)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Errorf("writes must carry an idempotency key")
		}
		_, _ = io.WriteString(w, `{"token":"jwt","user":{"_id":"u1","fullName":"Ada","email":"ada@example.com","userType":"student","plan":"free","enrolls":["c1"]}}`)
	})

	auth, err := c.Login(context.Background(), ports.LoginInput{Email: "ada@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if auth.Token != "jwt" || auth.User.ID != "u1" || !auth.User.IsEnrolled("c1") {
		t.Fatalf("unexpected auth: %+v", auth)
	}
}

func TestClient_APIErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Course not found"}`)
	})

	_, err := c.GetCourse(context.Background(), "missing")
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Course not found" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("404 should match ErrNotFound")
	}
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	err := c.Enroll(context.Background(), "u1", "c1")
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "" {
		t.Fatalf("expected empty-message api error, got %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, nil, zerolog.Nop())
	_, err := c.ListCourses(context.Background())
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestClient_CreateCourseMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("title") != "Go" || r.FormValue("educator") != "e1" {
			t.Errorf("unexpected fields: %v", r.MultipartForm.Value)
		}
		if r.FormValue("languages") != `["en","es"]` || r.FormValue("topics") != `[]` {
			t.Errorf("lists must be JSON encoded: %q %q", r.FormValue("languages"), r.FormValue("topics"))
		}
		f, hdr, err := r.FormFile("thumbnail")
		if err != nil {
			t.Errorf("thumbnail missing: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "cover.png" || string(data) != "png-bytes" {
			t.Errorf("unexpected file %q %q", hdr.Filename, data)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"_id":"c9","title":"Go"}`)
	})

	course, err := c.CreateCourse(context.Background(), ports.CreateCourseInput{
		Title:       "Go",
		Description: "Learn Go",
		Price:       "10",
		Educator:    "e1",
		Languages:   []string{"en", "es"},
		Thumbnail:   &ports.Upload{Field: "thumbnail", Filename: "cover.png", ContentType: "image/png", Body: strings.NewReader("png-bytes")},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if course.ID != "c9" {
		t.Fatalf("unexpected course %+v", course)
	}
}

func TestClient_CreateModuleJSONWithoutFiles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON body, got %q", ct)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["courseId"] != "c1" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"_id":"m1","title":"Intro"}`)
	})

	m, err := c.CreateModule(context.Background(), ports.CreateModuleInput{
		Title: "Intro", Description: "d", CourseID: "c1",
		Resources: domain.Resources{Video: "intro.mp4"},
	})
	if err != nil || m.ID != "m1" {
		t.Fatalf("CreateModule: %v %+v", err, m)
	}
}

func TestClient_PaymentIntentRequiresClientSecret(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	if _, err := c.CreatePaymentIntent(context.Background(), 200); !errors.Is(err, domain.ErrMissingClientSecret) {
		t.Fatalf("expected ErrMissingClientSecret, got %v", err)
	}
}

func TestClient_ListEnrolledCourses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/u1/enrolls" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"enrolledCourses":[{"_id":"c1","title":"A"},{"_id":"c2","title":"B"}]}`)
	})
	courses, err := c.ListEnrolledCourses(context.Background(), "u1")
	if err != nil || len(courses) != 2 {
		t.Fatalf("unexpected result %v %+v", err, courses)
	}
}

func TestClient_AssetURL(t *testing.T) {
	c := NewClient("http://api.local/", 0, nil, zerolog.Nop())
	if got := c.AssetURL(AssetThumbnails, "cover one.png"); got != "http://api.local/uploads/thumbnails/cover%20one.png" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := c.AssetURL(AssetProfiles, ""); got != "" {
		t.Fatalf("empty name should give empty url, got %q", got)
	}
	if got := c.AssetURL(AssetProfiles, "https://cdn/x.png"); got != "https://cdn/x.png" {
		t.Fatalf("absolute urls pass through, got %q", got)
	}
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	c := NewClient(srv.URL, time.Second, nil, zerolog.Nop())
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("any status means reachable: %v", err)
	}

	srv.Close()
	if err := c.Ping(context.Background()); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport after shutdown, got %v", err)
	}
}

func TestClient_UpdateEducatorEncodesProfileFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/educators/user/u2" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("qualifications") != `["PhD"]` || r.FormValue("specialties") != `[]` {
			t.Errorf("lists must be JSON encoded: %v", r.MultipartForm.Value)
		}
		if r.FormValue("social_links") != `{"github":"grace"}` || r.FormValue("password") != "" {
			t.Errorf("unexpected fields: %v", r.MultipartForm.Value)
		}
		_, _ = io.WriteString(w, `{"_id":"e1","fullName":"Grace"}`)
	})

	ed, err := c.UpdateEducatorByUser(context.Background(), "u2", ports.ProfileInput{
		FullName:       "Grace",
		Email:          "grace@example.com",
		Qualifications: []string{"PhD"},
		SocialLinks:    map[string]string{"github": "grace"},
	})
	if err != nil {
		t.Fatalf("UpdateEducatorByUser: %v", err)
	}
	if ed.ID != "e1" {
		t.Fatalf("unexpected educator %+v", ed)
	}
}
