package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/wishlist"
)

func newCourseHandler(cat *stubCatalog, enr *stubEnrollment, rev *stubReviews, auth *stubAuthoring, sess domain.Session, wl *wishlist.Store) *CourseHandler {
	if wl == nil {
		wl = wishlist.New()
	}
	return NewCourseHandler(cat, enr, rev, auth, fixedSession(sess), wl)
}

func TestCourseHandler_ListPassesFilter(t *testing.T) {
	cat := &stubCatalog{coursesFn: func(_ context.Context, f ports.CatalogFilter) ([]domain.Course, error) {
		if f.Topic != "tech" || f.Search != "go" {
			t.Fatalf("unexpected filter %+v", f)
		}
		return nil, nil
	}}
	h := newCourseHandler(cat, nil, nil, nil, domain.Session{}, nil)

	c, rec := newContext(http.MethodGet, "/v1/courses?topic=tech&q=go", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp courseListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Courses == nil || resp.Total != 0 {
		t.Fatalf("empty list must render as [], got %s", rec.Body.String())
	}
}

func TestCourseHandler_GetReportsEnrollmentAndWishlist(t *testing.T) {
	cat := &stubCatalog{courseFn: func(_ context.Context, id string) (*domain.Course, error) {
		return &domain.Course{ID: id, Title: "Go"}, nil
	}}
	wl := wishlist.New()
	wl.Add(domain.Course{ID: "c1"})
	sess := domain.Session{User: &domain.User{ID: "u1", Enrolls: []string{"c1"}}, Token: "tok"}
	h := newCourseHandler(cat, nil, nil, nil, sess, wl)

	c, rec := newContext(http.MethodGet, "/v1/courses/c1", "")
	c.SetParamNames("id")
	c.SetParamValues("c1")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp courseDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Enrolled || !resp.Wishlisted || resp.Course.Title != "Go" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCourseHandler_GetAnonymous(t *testing.T) {
	cat := &stubCatalog{courseFn: func(_ context.Context, id string) (*domain.Course, error) {
		return &domain.Course{ID: id}, nil
	}}
	h := newCourseHandler(cat, nil, nil, nil, domain.Session{}, nil)

	c, rec := newContext(http.MethodGet, "/v1/courses/c1", "")
	c.SetParamNames("id")
	c.SetParamValues("c1")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp courseDetailResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Enrolled {
		t.Fatalf("anonymous users are enrolled in nothing")
	}
}

func TestCourseHandler_GetNotFound(t *testing.T) {
	cat := &stubCatalog{courseFn: func(context.Context, string) (*domain.Course, error) {
		return nil, &domain.APIError{Status: 404, Message: "Course not found"}
	}}
	h := newCourseHandler(cat, nil, nil, nil, domain.Session{}, nil)

	c, _ := newContext(http.MethodGet, "/v1/courses/x", "")
	if err := h.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCourseHandler_PostReview(t *testing.T) {
	rev := &stubReviews{postFn: func(_ context.Context, courseID, text string) (*domain.Review, error) {
		if courseID != "c1" || text != "Great" {
			t.Fatalf("unexpected args %s %s", courseID, text)
		}
		return &domain.Review{ID: "r1", ReviewText: text}, nil
	}}
	h := newCourseHandler(nil, nil, rev, nil, domain.Session{}, nil)

	c, rec := newContext(http.MethodPost, "/v1/courses/c1/reviews", `{"reviewText":"Great"}`)
	c.SetParamNames("id")
	c.SetParamValues("c1")
	if err := h.PostReview(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestCourseHandler_Checkout(t *testing.T) {
	enr := &stubEnrollment{checkoutFn: func(_ context.Context, id string) (*ports.CheckoutResult, error) {
		return &ports.CheckoutResult{CourseID: id, AmountCents: 4999, ClientSecret: "pi_secret"}, nil
	}}
	h := newCourseHandler(nil, enr, nil, nil, domain.Session{}, nil)

	c, rec := newContext(http.MethodPost, "/v1/courses/c1/checkout", "")
	c.SetParamNames("id")
	c.SetParamValues("c1")
	if err := h.Checkout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["clientSecret"] != "pi_secret" || resp["amountCents"] != float64(4999) {
		t.Fatalf("unexpected response %v", resp)
	}
}

func TestCourseHandler_EnrollError(t *testing.T) {
	enr := &stubEnrollment{enrollFn: func(context.Context, string) error { return domain.ErrTransport }}
	h := newCourseHandler(nil, enr, nil, nil, domain.Session{}, nil)

	c, _ := newContext(http.MethodPost, "/v1/courses/c1/enroll", "")
	if err := h.Enroll(c); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCourseHandler_CreateMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("title", "Go")
	_ = mw.WriteField("description", "Learn Go")
	_ = mw.WriteField("languages", "en, es")
	_ = mw.WriteField("topics", "tech")
	fw, _ := mw.CreateFormFile("thumbnail", "cover.png")
	_, _ = fw.Write([]byte("png-bytes"))
	_ = mw.Close()

	auth := &stubAuthoring{createCourseFn: func(_ context.Context, in ports.CreateCourseInput) (*domain.Course, error) {
		if in.Title != "Go" || len(in.Languages) != 2 || in.Languages[1] != "es" {
			t.Fatalf("unexpected input %+v", in)
		}
		if in.Thumbnail == nil || in.Thumbnail.Filename != "cover.png" {
			t.Fatalf("thumbnail missing: %+v", in.Thumbnail)
		}
		data, _ := io.ReadAll(in.Thumbnail.Body)
		if string(data) != "png-bytes" {
			t.Fatalf("unexpected thumbnail body %q", data)
		}
		return &domain.Course{ID: "c9", Title: in.Title}, nil
	}}
	h := newCourseHandler(nil, nil, nil, auth, domain.Session{}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/courses", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestCourseHandler_CreateRequiresMultipart(t *testing.T) {
	h := newCourseHandler(nil, nil, nil, &stubAuthoring{}, domain.Session{}, nil)

	c, _ := newContext(http.MethodPost, "/v1/courses", `{"title":"Go"}`)
	var he *echo.HTTPError
	if err := h.Create(c); !errors.As(err, &he) || he.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %v", err)
	}
}

func TestModuleHandler_CreateJSON(t *testing.T) {
	auth := &stubAuthoring{createModuleFn: func(_ context.Context, in ports.CreateModuleInput) (*domain.Module, error) {
		if in.CourseID != "c1" || in.Resources.Video != "intro.mp4" || in.HasFiles() {
			t.Fatalf("unexpected input %+v", in)
		}
		return &domain.Module{ID: "m1"}, nil
	}}
	h := NewModuleHandler(&stubCatalog{}, auth)

	c, rec := newContext(http.MethodPost, "/v1/modules", `{"title":"Intro","description":"d","course":"c1","resources":{"video":"intro.mp4"}}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestEducatorHandler_GetIncludesCourses(t *testing.T) {
	cat := &stubCatalog{
		educatorFn: func(_ context.Context, id string) (*domain.Educator, error) {
			return &domain.Educator{ID: id, FullName: "Grace"}, nil
		},
		educatorCoursesFn: func(_ context.Context, id string) ([]domain.Course, error) {
			return []domain.Course{{ID: "c1"}}, nil
		},
	}
	h := NewEducatorHandler(cat)

	c, rec := newContext(http.MethodGet, "/v1/educators/e1", "")
	c.SetParamNames("id")
	c.SetParamValues("e1")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp educatorDetailResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Educator.FullName != "Grace" || len(resp.Courses) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestProfileHandler_RequiresSession(t *testing.T) {
	h := NewProfileHandler(&stubProfile{}, &stubEnrollment{})
	c, _ := newContext(http.MethodGet, "/v1/profile", "")
	if err := h.Get(c); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestProfileHandler_UpdateJSON(t *testing.T) {
	prof := &stubProfile{updateFn: func(_ context.Context, in ports.ProfileInput) (*ports.Profile, error) {
		if in.FullName != "Ada King" || in.SocialLinks["github"] != "ada" {
			t.Fatalf("unexpected input %+v", in)
		}
		return &ports.Profile{User: &domain.User{ID: "u1", FullName: in.FullName}}, nil
	}}
	h := NewProfileHandler(prof, &stubEnrollment{})

	c, rec := newContext(http.MethodPut, "/v1/profile", `{"fullName":"Ada King","email":"ada@example.com","social_links":{"github":"ada"}}`)
	withSession(c, domain.User{ID: "u1"})
	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
