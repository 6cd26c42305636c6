package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/logger/handlers/slogdiscard"
	"polaroida/internal/middleware"
	photoservice "polaroida/internal/services/photo_service"
	profileservice "polaroida/internal/services/profile_service"
	userservice "polaroida/internal/services/user_service"
	"polaroida/internal/storage"
	httprouters "polaroida/internal/transport/http"
	"polaroida/internal/transport/http/dto"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

type MockUserService struct{ mock.Mock }

func (m *MockUserService) RegisterNewUser(ctx context.Context, input dto.UserRegisterInput) (uuid.UUID, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (models.User, *models.TokenPair, error) {
	args := m.Called(ctx, email, password)
	tokens, _ := args.Get(1).(*models.TokenPair)
	return args.Get(0).(models.User), tokens, args.Error(2)
}

func (m *MockUserService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	tokens, _ := args.Get(0).(*models.TokenPair)
	return tokens, args.Error(1)
}

func (m *MockUserService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	return m.Called(ctx, userID, refreshToken).Error(0)
}

type MockPhotoService struct{ mock.Mock }

func (m *MockPhotoService) Ingest(ctx context.Context, input dto.PhotoUploadInput) (*photoservice.IngestResult, error) {
	args := m.Called(ctx, input)
	res, _ := args.Get(0).(*photoservice.IngestResult)
	return res, args.Error(1)
}

func (m *MockPhotoService) List(ctx context.Context, ownerID uuid.UUID, tag string) ([]models.Photo, error) {
	args := m.Called(ctx, ownerID, tag)
	photos, _ := args.Get(0).([]models.Photo)
	return photos, args.Error(1)
}

func (m *MockPhotoService) Get(ctx context.Context, ownerID, photoID uuid.UUID) (*models.Photo, error) {
	args := m.Called(ctx, ownerID, photoID)
	p, _ := args.Get(0).(*models.Photo)
	return p, args.Error(1)
}

func (m *MockPhotoService) UpdateCaption(ctx context.Context, ownerID, photoID uuid.UUID, upd models.PhotoUpdate) (*models.Photo, error) {
	args := m.Called(ctx, ownerID, photoID, upd)
	p, _ := args.Get(0).(*models.Photo)
	return p, args.Error(1)
}

func (m *MockPhotoService) Delete(ctx context.Context, ownerID, photoID uuid.UUID) error {
	return m.Called(ctx, ownerID, photoID).Error(0)
}

type MockProfileService struct{ mock.Mock }

func (m *MockProfileService) Get(ctx context.Context, userID uuid.UUID, email string) (models.Profile, error) {
	args := m.Called(ctx, userID, email)
	return args.Get(0).(models.Profile), args.Error(1)
}

func (m *MockProfileService) UpdateUITheme(ctx context.Context, userID uuid.UUID, value string) (models.ProfileChange, error) {
	args := m.Called(ctx, userID, value)
	return args.Get(0).(models.ProfileChange), args.Error(1)
}

func (m *MockProfileService) UpdateFrame(ctx context.Context, userID uuid.UUID, value string) (models.ProfileChange, error) {
	args := m.Called(ctx, userID, value)
	return args.Get(0).(models.ProfileChange), args.Error(1)
}

type MockJournalService struct{ mock.Mock }

func (m *MockJournalService) Filename() string {
	return m.Called().String(0)
}

func (m *MockJournalService) Render(ctx context.Context, ownerID uuid.UUID, w io.Writer) error {
	args := m.Called(ctx, ownerID, w)
	if args.Error(0) == nil {
		_, _ = w.Write([]byte("%PDF-1.3 test"))
	}
	return args.Error(0)
}

type testEnv struct {
	e        *echo.Echo
	users    *MockUserService
	photos   *MockPhotoService
	profiles *MockProfileService
	journal  *MockJournalService
	routers  *httprouters.Routers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}

	env := &testEnv{
		e:        e,
		users:    new(MockUserService),
		photos:   new(MockPhotoService),
		profiles: new(MockProfileService),
		journal:  new(MockJournalService),
	}
	env.routers = httprouters.NewRouter(slogdiscard.NewDiscardLogger(), env.users, env.photos, nil, env.profiles, nil, env.journal)

	t.Cleanup(func() {
		env.users.AssertExpectations(t)
		env.photos.AssertExpectations(t)
		env.profiles.AssertExpectations(t)
		env.journal.AssertExpectations(t)
	})

	return env
}

func (env *testEnv) do(req *http.Request, principal *middleware.Principal, h echo.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	if principal != nil {
		middleware.SetPrincipal(c, *principal)
	}
	_ = h(c)
	return rec
}

func multipartRequest(t *testing.T, fields map[string]string, filename string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestUploadPhoto(t *testing.T) {
	principal := &middleware.Principal{UserID: uuid.New(), Email: "a@b.c"}

	t.Run("no principal", func(t *testing.T) {
		env := newTestEnv(t)
		env.photos.On("Ingest", mock.Anything, mock.MatchedBy(func(in dto.PhotoUploadInput) bool {
			return in.OwnerID == uuid.Nil
		})).Return(nil, photoservice.ErrUnauthorized).Once()

		rec := env.do(multipartRequest(t, nil, "a.jpg"), nil, env.routers.UploadPhoto)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no file", func(t *testing.T) {
		env := newTestEnv(t)
		env.photos.On("Ingest", mock.Anything, mock.MatchedBy(func(in dto.PhotoUploadInput) bool {
			return in.File == nil
		})).Return(nil, photoservice.ErrNoFile).Once()

		rec := env.do(multipartRequest(t, map[string]string{"caption": "hi"}, ""), principal, env.routers.UploadPhoto)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No file provided")
	})

	t.Run("invalid album id rejected before ingest", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(multipartRequest(t, map[string]string{"album_id": "nope"}, "a.jpg"), principal, env.routers.UploadPhoto)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env.photos.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		photo := &models.Photo{ID: uuid.New(), LocationName: "New York", Tags: []string{"sunset", "ocean"}}
		env.photos.On("Ingest", mock.Anything, mock.MatchedBy(func(in dto.PhotoUploadInput) bool {
			return in.OwnerID == principal.UserID && in.File != nil && in.Lat == "40.7128" && in.Tags == "#sunset #ocean"
		})).Return(&photoservice.IngestResult{Photo: photo, Message: "Photo uploaded successfully"}, nil).Once()

		rec := env.do(multipartRequest(t, map[string]string{
			"lat":  "40.7128",
			"lng":  "-74.006",
			"tags": "#sunset #ocean",
		}, "a.jpg"), principal, env.routers.UploadPhoto)

		require.Equal(t, http.StatusOK, rec.Code)

		var body dto.PhotoUploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, "New York", body.Photo.LocationName)
		assert.Equal(t, "Photo uploaded successfully", body.Message)
	})

	for _, tc := range []struct {
		name string
		err  error
	}{
		{"upload failure", fmt.Errorf("wrap: %w", photoservice.ErrUploadFailed)},
		{"persist failure", fmt.Errorf("wrap: %w", photoservice.ErrPersistFailed)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.photos.On("Ingest", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			rec := env.do(multipartRequest(t, nil, "a.jpg"), principal, env.routers.UploadPhoto)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestListPhotos(t *testing.T) {
	env := newTestEnv(t)
	principal := &middleware.Principal{UserID: uuid.New()}

	env.photos.On("List", mock.Anything, principal.UserID, "sunset").
		Return([]models.Photo{{ID: uuid.New()}, {ID: uuid.New()}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/photos?tag=sunset", nil)
	rec := env.do(req, principal, env.routers.ListPhotos)

	require.Equal(t, http.StatusOK, rec.Code)

	var photos []models.Photo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &photos))
	assert.Len(t, photos, 2)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/photos", nil), nil, env.routers.ListPhotos)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeletePhoto(t *testing.T) {
	env := newTestEnv(t)
	principal := &middleware.Principal{UserID: uuid.New()}
	photoID := uuid.New()

	env.photos.On("Delete", mock.Anything, principal.UserID, photoID).Return(storage.ErrPhotoNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(photoID.String())
	middleware.SetPrincipal(c, *principal)

	require.NoError(t, env.routers.DeletePhoto(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePhotoCaption_PartialBody(t *testing.T) {
	env := newTestEnv(t)
	principal := &middleware.Principal{UserID: uuid.New()}
	photoID := uuid.New()

	env.photos.On("UpdateCaption", mock.Anything, principal.UserID, photoID, mock.MatchedBy(func(upd models.PhotoUpdate) bool {
		return upd.Caption != nil && *upd.Caption == "x" && upd.LocationName == nil
	})).Return(&models.Photo{ID: photoID, Caption: "x", LocationName: "New York"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"caption":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(photoID.String())
	middleware.SetPrincipal(c, *principal)

	require.NoError(t, env.routers.UpdatePhotoCaption(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"location_name":"New York"`)
}

func TestComposeStyle(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/filters/compose",
		strings.NewReader(`{"filter":"bw","brightness":10,"contrast":-5,"warmth":0,"vignette":40}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := env.do(req, nil, env.routers.ComposeStyle)

	require.Equal(t, http.StatusOK, rec.Code)

	var body dto.ComposeStyleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "grayscale(100%) contrast(110%) brightness(100%) brightness(110%) contrast(95%) saturate(100%)", body.Filter)
	assert.Contains(t, body.VignetteOverlay, "rgba(0,0,0,0.4)")
}

func TestUpdateProfileFrame(t *testing.T) {
	principal := &middleware.Principal{UserID: uuid.New()}

	t.Run("confirmed", func(t *testing.T) {
		env := newTestEnv(t)
		env.profiles.On("UpdateFrame", mock.Anything, principal.UserID, "mint").
			Return(models.ProfileChange{State: models.UpdateConfirmed, Effective: "mint"}, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"frame_style":"mint"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := env.do(req, principal, env.routers.UpdateProfileFrame)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"state":"confirmed"`)
	})

	t.Run("reverted", func(t *testing.T) {
		env := newTestEnv(t)
		env.profiles.On("UpdateFrame", mock.Anything, principal.UserID, "black").
			Return(models.ProfileChange{State: models.UpdateReverted, Effective: "classic"},
				fmt.Errorf("x: %w", profileservice.ErrUpdateReverted)).Once()

		req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"frame_style":"black"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := env.do(req, principal, env.routers.UpdateProfileFrame)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"state":"reverted"`)
		assert.Contains(t, rec.Body.String(), `"effective":"classic"`)
	})

	t.Run("unknown frame", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"frame_style":"neon"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := env.do(req, principal, env.routers.UpdateProfileFrame)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExportJournal(t *testing.T) {
	env := newTestEnv(t)
	principal := &middleware.Principal{UserID: uuid.New()}

	env.journal.On("Render", mock.Anything, principal.UserID, mock.Anything).Return(nil).Once()
	env.journal.On("Filename").Return("polaroida-journal-2024-03-09.pdf").Once()

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil), principal, env.routers.ExportJournal)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "polaroida-journal-2024-03-09.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestRegister(t *testing.T) {
	t.Run("conflict", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("RegisterNewUser", mock.Anything, mock.Anything).
			Return(uuid.Nil, fmt.Errorf("x: %w", userservice.ErrUserExist)).Once()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"password123"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := env.do(req, nil, env.routers.Register)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"short"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := env.do(req, nil, env.routers.Register)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("Login", mock.Anything, "a@b.co", "password123").
		Return(models.User{}, nil, fmt.Errorf("x: %w", userservice.ErrInvalidCredentials)).Once()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"password123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := env.do(req, nil, env.routers.Login)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
