package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/query"
)

// uploads tracks the multipart files opened for one request. The handler
// closes them after the service call returned.
type uploads []io.Closer

func (u uploads) Close() {
	for _, f := range u {
		_ = f.Close()
	}
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// --- Request → Service input ---

func formUpload(c echo.Context, field string, files *uploads) (*ports.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid upload: "+field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid upload: "+field)
	}
	*files = append(*files, f)
	return &ports.Upload{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Body:        f,
	}, nil
}

// formList accepts repeated fields as well as one comma separated value.
func formList(params url.Values, name string) []string {
	var out []string
	for _, v := range params[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func toCreateCourseInput(c echo.Context, files *uploads) (ports.CreateCourseInput, error) {
	if !isMultipart(c) {
		return ports.CreateCourseInput{}, echo.NewHTTPError(http.StatusUnsupportedMediaType, "course creation expects multipart/form-data")
	}
	params, err := c.FormParams()
	if err != nil {
		return ports.CreateCourseInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	thumb, err := formUpload(c, "thumbnail", files)
	if err != nil {
		return ports.CreateCourseInput{}, err
	}
	return ports.CreateCourseInput{
		Title:       params.Get("title"),
		Description: params.Get("description"),
		Price:       params.Get("price"),
		Educator:    params.Get("educator"),
		Languages:   formList(params, "languages"),
		Topics:      formList(params, "topics"),
		Thumbnail:   thumb,
	}, nil
}

func toCreateModuleInput(c echo.Context, files *uploads) (ports.CreateModuleInput, error) {
	if !isMultipart(c) {
		var req createModuleRequest
		if err := c.Bind(&req); err != nil {
			return ports.CreateModuleInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		return ports.CreateModuleInput{
			Title:       req.Title,
			Description: req.Description,
			CourseID:    req.CourseID,
			Resources:   req.Resources,
		}, nil
	}

	params, err := c.FormParams()
	if err != nil {
		return ports.CreateModuleInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	in := ports.CreateModuleInput{
		Title:       params.Get("title"),
		Description: params.Get("description"),
		CourseID:    params.Get("course"),
	}
	if in.Doc, err = formUpload(c, "doc", files); err != nil {
		return in, err
	}
	if in.Video, err = formUpload(c, "video", files); err != nil {
		return in, err
	}
	return in, nil
}

func toProfileInput(c echo.Context, files *uploads) (ports.ProfileInput, error) {
	if !isMultipart(c) {
		var req profileRequest
		if err := c.Bind(&req); err != nil {
			return ports.ProfileInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		return ports.ProfileInput{
			FullName:       req.FullName,
			Email:          req.Email,
			Password:       req.Password,
			Description:    req.Description,
			ContactEmail:   req.ContactEmail,
			Qualifications: req.Qualifications,
			SocialLinks:    req.SocialLinks,
			Specialties:    req.Specialties,
		}, nil
	}

	params, err := c.FormParams()
	if err != nil {
		return ports.ProfileInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	in := ports.ProfileInput{
		FullName:       params.Get("fullName"),
		Email:          params.Get("email"),
		Password:       params.Get("password"),
		Description:    params.Get("description"),
		ContactEmail:   params.Get("contact_email"),
		Qualifications: formList(params, "qualifications"),
		Specialties:    formList(params, "specialties"),
	}
	if raw := params.Get("social_links"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.SocialLinks); err != nil {
			return in, echo.NewHTTPError(http.StatusBadRequest, "social_links must be a JSON object")
		}
	}
	if in.ProfileImage, err = formUpload(c, "profile_image", files); err != nil {
		return in, err
	}
	if in.BackgroundImage, err = formUpload(c, "background_image", files); err != nil {
		return in, err
	}
	return in, nil
}

// --- Service result → HTTP response ---

func toSessionResponse(sess domain.Session, exp time.Time, hasExp bool) sessionResponse {
	resp := sessionResponse{
		Authenticated: sess.Authenticated(),
		User:          sess.User,
		Educator:      sess.Educator,
	}
	if hasExp {
		t := exp.UTC()
		resp.ExpiresAt = &t
	}
	return resp
}

func toQueryEntry(s query.Snapshot) queryEntryResponse {
	resp := queryEntryResponse{
		Key:       s.Key.String(),
		Status:    s.Status.String(),
		Fetching:  s.Fetching,
		Stale:     s.Stale,
		Observers: s.Observers,
		Waiters:   s.Waiters,
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt.UTC()
		resp.UpdatedAt = &t
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	return resp
}

func toQueryEvent(s query.Snapshot) queryEventResponse {
	return queryEventResponse{queryEntryResponse: toQueryEntry(s), Data: s.Data}
}
