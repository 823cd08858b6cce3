// Package remote calls the e-learning REST API over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// Asset folders served by the API under /uploads.
const (
	AssetThumbnails = "thumbnails"
	AssetResources  = "resources"
	AssetEducators  = "educators"
	AssetProfiles   = "profiles"
)

// Client implements ports.RemoteAPI.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        zerolog.Logger
}

var _ ports.RemoteAPI = (*Client)(nil)

// NewClient constructs an API client. tokens may be nil for anonymous use.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log,
	}
}

// AssetURL returns the public URL of an uploaded file, or "" for no name.
func (c *Client) AssetURL(folder, name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return c.baseURL + "/uploads/" + folder + "/" + url.PathEscape(name)
}

// Ping reports whether the API host answers at all. Any HTTP status counts
// as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	_ = resp.Body.Close()
	return nil
}

// --- auth ---

func (c *Client) Login(ctx context.Context, in ports.LoginInput) (*domain.Auth, error) {
	var out domain.Auth
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", in, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// --- courses ---

func (c *Client) ListCourses(ctx context.Context) ([]domain.Course, error) {
	var out []domain.Course
	if err := c.doJSON(ctx, http.MethodGet, "/api/courses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	var out domain.Course
	if err := c.doJSON(ctx, http.MethodGet, "/api/courses/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCourseModules(ctx context.Context, courseID string) (*domain.ModuleList, error) {
	var out domain.ModuleList
	if err := c.doJSON(ctx, http.MethodGet, "/api/courses/"+url.PathEscape(courseID)+"/modules", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEducatorCourses(ctx context.Context, educatorID string) ([]domain.Course, error) {
	var out []domain.Course
	if err := c.doJSON(ctx, http.MethodGet, "/api/courses/educator/"+url.PathEscape(educatorID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCourse(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error) {
	languages, err := json.Marshal(nonNil(in.Languages))
	if err != nil {
		return nil, err
	}
	topics, err := json.Marshal(nonNil(in.Topics))
	if err != nil {
		return nil, err
	}
	fields := [][2]string{
		{"title", in.Title},
		{"description", in.Description},
		{"price", in.Price},
		{"educator", in.Educator},
		{"languages", string(languages)},
		{"topics", string(topics)},
	}
	var out domain.Course
	if err := c.doMultipart(ctx, http.MethodPost, "/api/courses", fields, []*ports.Upload{in.Thumbnail}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AttachModule(ctx context.Context, courseID, moduleID string) error {
	path := fmt.Sprintf("/api/courses/%s/modules/%s", url.PathEscape(courseID), url.PathEscape(moduleID))
	return c.doJSON(ctx, http.MethodPut, path, struct{}{}, nil)
}

// --- modules ---

func (c *Client) GetModule(ctx context.Context, id string) (*domain.Module, error) {
	var out domain.Module
	if err := c.doJSON(ctx, http.MethodGet, "/api/modules/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateModule posts JSON when the module has no files and multipart
// otherwise. Multipart modules reference their course by the "course" field
// and must be attached with AttachModule.
func (c *Client) CreateModule(ctx context.Context, in ports.CreateModuleInput) (*domain.Module, error) {
	var out domain.Module
	if in.HasFiles() {
		fields := [][2]string{
			{"title", in.Title},
			{"description", in.Description},
			{"course", in.CourseID},
		}
		if err := c.doMultipart(ctx, http.MethodPost, "/api/modules", fields, []*ports.Upload{in.Doc, in.Video}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}

	body := struct {
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Resources   domain.Resources `json:"resources"`
		CourseID    string           `json:"courseId"`
	}{in.Title, in.Description, in.Resources, in.CourseID}
	if err := c.doJSON(ctx, http.MethodPost, "/api/modules", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- reviews ---

func (c *Client) ListCourseReviews(ctx context.Context, courseID string) (*domain.ReviewList, error) {
	var out domain.ReviewList
	if err := c.doJSON(ctx, http.MethodGet, "/api/reviews/course/"+url.PathEscape(courseID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReview(ctx context.Context, in ports.ReviewInput) (*domain.Review, error) {
	var out domain.Review
	if err := c.doJSON(ctx, http.MethodPost, "/api/reviews", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- users ---

func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEnrolledCourses(ctx context.Context, userID string) ([]domain.Course, error) {
	var out struct {
		EnrolledCourses []domain.Course `json:"enrolledCourses"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/enrolls", nil, &out); err != nil {
		return nil, err
	}
	return out.EnrolledCourses, nil
}

type enrollmentBody struct {
	UserID   string `json:"userId"`
	CourseID string `json:"courseId"`
}

func (c *Client) Enroll(ctx context.Context, userID, courseID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/users/enroll", enrollmentBody{userID, courseID}, nil)
}

func (c *Client) Unroll(ctx context.Context, userID, courseID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/users/unroll", enrollmentBody{userID, courseID}, nil)
}

func (c *Client) UpdateUser(ctx context.Context, userID string, in ports.ProfileInput) (*domain.User, error) {
	var out domain.User
	fields, err := profileFields(in, false)
	if err != nil {
		return nil, err
	}
	if err := c.doMultipart(ctx, http.MethodPut, "/api/users/"+url.PathEscape(userID), fields, []*ports.Upload{in.ProfileImage}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- educators ---

func (c *Client) ListEducators(ctx context.Context) ([]domain.Educator, error) {
	var out []domain.Educator
	if err := c.doJSON(ctx, http.MethodGet, "/api/educators", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetEducator(ctx context.Context, id string) (*domain.Educator, error) {
	var out domain.Educator
	if err := c.doJSON(ctx, http.MethodGet, "/api/educators/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetEducatorByUser(ctx context.Context, userID string) (*domain.Educator, error) {
	var out domain.Educator
	if err := c.doJSON(ctx, http.MethodGet, "/api/educators/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEducatorByUser(ctx context.Context, userID string, in ports.ProfileInput) (*domain.Educator, error) {
	var out domain.Educator
	fields, err := profileFields(in, true)
	if err != nil {
		return nil, err
	}
	uploads := []*ports.Upload{in.ProfileImage, in.BackgroundImage}
	if err := c.doMultipart(ctx, http.MethodPut, "/api/educators/user/"+url.PathEscape(userID), fields, uploads, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- payments ---

func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64) (string, error) {
	var out struct {
		ClientSecret string `json:"clientSecret"`
	}
	body := struct {
		Amount int64 `json:"amount"`
	}{amountCents}
	if err := c.doJSON(ctx, http.MethodPost, "/api/payments/create-payment-intent", body, &out); err != nil {
		return "", err
	}
	if out.ClientSecret == "" {
		return "", domain.ErrMissingClientSecret
	}
	return out.ClientSecret, nil
}

// --- transport ---

func profileFields(in ports.ProfileInput, educator bool) ([][2]string, error) {
	fields := [][2]string{
		{"fullName", in.FullName},
		{"email", in.Email},
	}
	if in.Password != "" {
		fields = append(fields, [2]string{"password", in.Password})
	}
	if !educator {
		return fields, nil
	}
	qualifications, err := json.Marshal(nonNil(in.Qualifications))
	if err != nil {
		return nil, err
	}
	specialties, err := json.Marshal(nonNil(in.Specialties))
	if err != nil {
		return nil, err
	}
	links := in.SocialLinks
	if links == nil {
		links = map[string]string{}
	}
	socialLinks, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}
	return append(fields,
		[2]string{"description", in.Description},
		[2]string{"contact_email", in.ContactEmail},
		[2]string{"qualifications", string(qualifications)},
		[2]string{"social_links", string(socialLinks)},
		[2]string{"specialties", string(specialties)},
	), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) doMultipart(ctx context.Context, method, path string, fields [][2]string, uploads []*ports.Upload, out any) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	for _, up := range uploads {
		if up == nil || up.Body == nil {
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, up.Field, up.Filename))
		ct := up.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := writer.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, up.Body); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.tokens != nil {
		addAuthHeader(req, c.tokens.Token())
	}
	if req.Method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
		req.Header.Set("Cache-Control", "no-cache")
	}

	began := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(began)).
		Msg("remote call")

	if resp.StatusCode >= 300 {
		var errResp struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&errResp)
		msg := strings.TrimSpace(errResp.Message)
		if msg == "" {
			msg = strings.TrimSpace(errResp.Error)
		}
		return &domain.APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s (status %d): %w", req.Method, req.URL.Path, resp.StatusCode, err)
	}
	return nil
}

func addAuthHeader(req *http.Request, token string) {
	if strings.TrimSpace(token) == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
