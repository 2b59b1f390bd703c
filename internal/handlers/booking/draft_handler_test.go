package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"hellofixo-service/internal/domain/booking"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/validate"
	bookingUsecase "hellofixo-service/internal/service/booking"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	validate.RegisterBindings()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Next()
	}
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeDrafts struct {
	Drafts
	startErr   error
	submitErr  error
	contactErr error
	photoType  string
	photoBytes []byte
}

func (f *fakeDrafts) StartDraft(_ context.Context, userID string, req *booking.StartDraftRequest) (*bookingUsecase.DraftView, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &bookingUsecase.DraftView{Draft: &booking.Draft{ID: "d1", UserID: userID, CategorySlug: req.CategorySlug}}, nil
}

func (f *fakeDrafts) UpdateContact(_ context.Context, _, draftID string, req *booking.ContactRequest) (*bookingUsecase.DraftView, error) {
	if f.contactErr != nil {
		return nil, f.contactErr
	}
	return &bookingUsecase.DraftView{Draft: &booking.Draft{ID: draftID, Contact: booking.Contact{Name: req.Name, Phone: req.Phone}}}, nil
}

func (f *fakeDrafts) AttachPhoto(_ context.Context, _, draftID, contentType string, r io.Reader) (*bookingUsecase.DraftView, error) {
	f.photoType = contentType
	f.photoBytes, _ = io.ReadAll(r)
	return &bookingUsecase.DraftView{Draft: &booking.Draft{ID: draftID, MediaURL: "https://cdn/x.jpg"}}, nil
}

func (f *fakeDrafts) Submit(_ context.Context, _, _ string) (*booking.SubmitResponse, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &booking.SubmitResponse{BookingID: "b1", OrderID: "HF-1"}, nil
}

func draftRouter(f *fakeDrafts) *gin.Engine {
	h := NewDraftHandler(f, zap.NewNop())
	r := gin.New()
	g := r.Group("/bookings/drafts", asUser("u1"))
	g.POST("", h.Start)
	g.PUT("/:id/contact", h.UpdateContact)
	g.POST("/:id/photo", h.AttachPhoto)
	g.POST("/:id/submit", h.Submit)
	return r
}

func TestStartDraft(t *testing.T) {
	r := draftRouter(&fakeDrafts{})

	w := send(r, http.MethodPost, "/bookings/drafts", `{"category_slug":"ac-repair","problem_ids":[1],"pincode":"400001"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)

	w = send(r, http.MethodPost, "/bookings/drafts", `{"category_slug":"ac-repair","pincode":"40001"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartDraftUnserviceableIs422(t *testing.T) {
	err := fmt.Errorf("%w: not yet in Leh", xerrors.ErrUnprocessable)
	r := draftRouter(&fakeDrafts{startErr: err})

	w := send(r, http.MethodPost, "/bookings/drafts", `{"category_slug":"ac-repair","pincode":"194101"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "Leh")
}

func TestUpdateContactValidationErrorCarriesField(t *testing.T) {
	r := draftRouter(&fakeDrafts{contactErr: &booking.ValidationError{Field: "contact.phone", Message: "enter a valid 10-digit mobile number"}})

	w := send(r, http.MethodPut, "/bookings/drafts/d1/contact", `{"name":"Asha","phone":"12345"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var field booking.ValidationError
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &field))
	assert.Equal(t, "contact.phone", field.Field)
}

func TestAttachPhotoMultipart(t *testing.T) {
	f := &fakeDrafts{}
	r := draftRouter(f)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="leak.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/bookings/drafts/d1/photo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", f.photoType)
	assert.Equal(t, "jpeg-bytes", string(f.photoBytes))

	w = send(r, http.MethodPost, "/bookings/drafts/d1/photo", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmit(t *testing.T) {
	w := send(draftRouter(&fakeDrafts{}), http.MethodPost, "/bookings/drafts/d1/submit", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var res booking.SubmitResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	assert.Equal(t, "b1", res.BookingID)
	assert.Equal(t, "HF-1", res.OrderID)

	w = send(draftRouter(&fakeDrafts{submitErr: fmt.Errorf("%w: %v", xerrors.ErrConflict, bookingUsecase.ErrSubmitInProgress)}), http.MethodPost, "/bookings/drafts/d1/submit", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}
