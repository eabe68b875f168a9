package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/resident-registration/internal/application"
	"github.com/oksasatya/resident-registration/internal/domain"
	"github.com/oksasatya/resident-registration/internal/domain/entity"
	"github.com/oksasatya/resident-registration/pkg/response"
	"github.com/oksasatya/resident-registration/pkg/validation"
)

//go:generate mockgen -destination=mocks/registration_service_mock.go -package=mocks . RegistrationService

// RegistrationService is implemented by application.RegistrationService.
type RegistrationService interface {
	BeginRegistration(ctx context.Context, in application.RegistrationInput) (*application.Registration, error)
	ResendCode(ctx context.Context, email string) (*application.Registration, error)
	Verify(ctx context.Context, email, code string) (*entity.Resident, error)
}

const (
	// base64 inflates the image by 4/3; the rest covers text fields and
	// multipart framing
	maxRegistrationBody = entity.MaxIDImageBytes*4/3 + 64<<10
	maxVerifyBody       = 4 << 10
)

type RegistrationHandler struct {
	Svc    RegistrationService
	Logger *logrus.Logger
}

func NewRegistrationHandler(svc RegistrationService, logger *logrus.Logger) *RegistrationHandler {
	return &RegistrationHandler{Svc: svc, Logger: logger}
}

type registrationRequest struct {
	Email       string `json:"email" form:"email"`
	FirstName   string `json:"first_name" form:"first_name"`
	MiddleName  string `json:"middle_name" form:"middle_name"`
	LastName    string `json:"last_name" form:"last_name"`
	Suffix      string `json:"suffix" form:"suffix"`
	Age         int    `json:"age" form:"age"`
	Sex         string `json:"sex" form:"sex"`
	Birthday    string `json:"birthday" form:"birthday"`
	CivilStatus string `json:"civil_status" form:"civil_status"`
	Address     string `json:"address" form:"address"`
	ValidIDType string `json:"valid_id_type" form:"valid_id_type"`
	// base64 or data URI, JSON requests only
	IDImage string `json:"id_image" form:"-"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type registrationResponse struct {
	Email            string    `json:"email"`
	ExpiresAt        time.Time `json:"expires_at"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

type residentResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toRegistrationResponse(r *application.Registration) registrationResponse {
	return registrationResponse{Email: r.Email, ExpiresAt: r.CodeExpiresAt, SessionExpiresAt: r.StagingExpiresAt}
}

// Register handles POST /api/registrations.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var (
		req   registrationRequest
		image []byte
	)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRegistrationBody)
	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			badPayload(c, err)
			return
		}
		img, err := readFormImage(c)
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid id image", validationBody("id_image", map[string]string{"id_image": "could not be read"}))
			return
		}
		image = img
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			badPayload(c, err)
			return
		}
		img, err := decodeImage(req.IDImage)
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid id image", validationBody("id_image", map[string]string{"id_image": "must be base64 encoded"}))
			return
		}
		image = img
	}

	reg, err := h.Svc.BeginRegistration(c.Request.Context(), application.RegistrationInput{
		Email:       req.Email,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		Suffix:      req.Suffix,
		Age:         req.Age,
		Sex:         req.Sex,
		Birthday:    req.Birthday,
		CivilStatus: req.CivilStatus,
		Address:     req.Address,
		ValidIDType: req.ValidIDType,
		IDImage:     image,
	})
	if reg != nil && errors.Is(err, domain.ErrDelivery) {
		response.Accepted(c, toRegistrationResponse(reg), "registration saved but the verification code could not be sent, request a new code", errorBody(err))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toRegistrationResponse(reg), "verification code sent", nil)
}

// Resend handles POST /api/registrations/:email/resend.
func (h *RegistrationHandler) Resend(c *gin.Context) {
	reg, err := h.Svc.ResendCode(c.Request.Context(), c.Param("email"))
	if reg != nil && errors.Is(err, domain.ErrDelivery) {
		response.Accepted(c, toRegistrationResponse(reg), "a new code was issued but could not be sent", errorBody(err))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toRegistrationResponse(reg), "verification code resent", nil)
}

// Verify handles POST /api/registrations/:email/verify.
func (h *RegistrationHandler) Verify(c *gin.Context) {
	var req verifyRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxVerifyBody)
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	r, err := h.Svc.Verify(c.Request.Context(), c.Param("email"), req.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, residentResponse{ID: r.ID, Email: r.Profile.Email, CreatedAt: r.CreatedAt}, "email verified, account created", nil)
}

func (h *RegistrationHandler) fail(c *gin.Context, err error) {
	status, message := StatusFor(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.WithError(err).WithField("request_id", c.GetString(response.RequestIDKey)).Error("registration request failed")
	}
	response.Error[any](c, status, message, errorBody(err))
}

func badPayload(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "request body too large",
			validationBody("", map[string]string{"payload": "exceeds the upload limit"}))
		return
	}
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validationBody("", validation.ToDetails(err)))
}

func readFormImage(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("id_image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	// one byte over the cap so the size check still fires
	return io.ReadAll(io.LimitReader(f, entity.MaxIDImageBytes+1))
}

func decodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			s = payload
		}
	}
	return base64.StdEncoding.DecodeString(s)
}
