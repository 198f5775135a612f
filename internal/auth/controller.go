package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"authgate/internal/shared/config"
	"authgate/internal/shared/utils/response"
	"authgate/internal/tokens"
	"authgate/internal/users"
	"authgate/pkg/logger"
)

const refreshCookie = "refresh_token"

type Controller struct {
	service   Service
	config    *config.Config
	validator *validator.Validate
	logger    *logger.Logger
}

func NewController(service Service, cfg *config.Config) *Controller {
	v := validator.New()
	// Report validation errors under the json field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Controller{
		service:   service,
		config:    cfg,
		validator: v,
		logger:    logger.GetDefault(),
	}
}

func (c *Controller) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, fieldErrors(err))
		return
	}

	user, err := c.service.Register(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			response.RespondJSON(ctx, "error", http.StatusConflict, "User with this email already exists", nil,
				map[string]string{"email": "already in use"})
		default:
			c.logger.ErrorContext(ctx.Request.Context(), "registration failed", slog.String("error", err.Error()))
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to register user", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "User registered successfully", user, nil)
}

func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, fieldErrors(err))
		return
	}

	user, pair, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			// Identical response for unknown email and wrong password.
			c.logger.LogAuthFailure(ctx.Request.Context(), "invalid credentials", ctx.ClientIP())
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid email or password", nil, nil)
		default:
			c.logger.ErrorContext(ctx.Request.Context(), "login failed", slog.String("error", err.Error()))
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to login", nil, nil)
		}
		return
	}

	c.logger.LogAuthSuccess(ctx.Request.Context(), user.ID.String(), "password")
	c.setRefreshCookie(ctx, pair.RefreshToken)
	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", SessionResponse{
		AccessToken: pair.AccessToken,
		UserID:      user.ID.String(),
		ExpiresIn:   pair.ExpiresIn,
	}, nil)
}

func (c *Controller) Refresh(ctx *gin.Context) {
	token, err := ctx.Cookie(refreshCookie)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Refresh token cookie missing", nil, nil)
		return
	}

	accessToken, err := c.service.Refresh(ctx.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingToken):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Refresh token cookie missing", nil, nil)
		case errors.Is(err, tokens.ErrInvalidSignature),
			errors.Is(err, tokens.ErrExpired),
			errors.Is(err, tokens.ErrMalformed),
			errors.Is(err, tokens.ErrUnexpectedKind),
			errors.Is(err, users.ErrNotFound):
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid or expired refresh token", nil, nil)
		default:
			c.logger.ErrorContext(ctx.Request.Context(), "refresh failed", slog.String("error", err.Error()))
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to refresh token", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Token refreshed successfully", RefreshResponse{
		AccessToken: accessToken,
	}, nil)
}

func (c *Controller) VerifyGoogleToken(ctx *gin.Context) {
	var req VerifyGoogleTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, fieldErrors(err))
		return
	}

	user, pair, err := c.service.VerifyGoogleToken(ctx.Request.Context(), req.GoogleAccessToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrFederatedVerificationFailed):
			c.logger.LogAuthFailure(ctx.Request.Context(), "google token rejected", ctx.ClientIP())
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Google token verification failed", nil, nil)
		default:
			c.logger.ErrorContext(ctx.Request.Context(), "google login failed", slog.String("error", err.Error()))
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to verify Google token", nil, nil)
		}
		return
	}

	c.logger.LogAuthSuccess(ctx.Request.Context(), user.ID.String(), "google")
	c.setRefreshCookie(ctx, pair.RefreshToken)
	response.RespondJSON(ctx, "success", http.StatusOK, "Google login successful", SessionResponse{
		AccessToken: pair.AccessToken,
		UserID:      user.ID.String(),
		ExpiresIn:   pair.ExpiresIn,
	}, nil)
}

func (c *Controller) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(refreshCookie, "", -1, "/", "", c.config.IsProduction(), true)
	response.RespondJSON(ctx, "success", http.StatusOK, "Logged out successfully", nil, nil)
}

func (c *Controller) GetMe(ctx *gin.Context) {
	userID, exists := ctx.Get("user_id")
	if !exists {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	user, err := c.service.CurrentUser(ctx.Request.Context(), userID.(string))
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not found", nil, nil)
		default:
			c.logger.ErrorContext(ctx.Request.Context(), "current user lookup failed", slog.String("error", err.Error()))
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to load user", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "User data retrieved successfully", user, nil)
}

func (c *Controller) setRefreshCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(refreshCookie, token, int(c.config.JWT.RefreshTTL.Seconds()), "/", "", c.config.IsProduction(), true)
}

// fieldErrors flattens validator errors into a field->message map. Messages
// never echo submitted values.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = err.Error()
		return out
	}

	for _, fe := range verrs {
		switch {
		case fe.Field() == "password2" && fe.Tag() == "eqfield":
			out["password"] = "password and confirmation do not match"
		case fe.Tag() == "required":
			out[fe.Field()] = "this field is required"
		case fe.Tag() == "email":
			out[fe.Field()] = "must be a valid email address"
		case fe.Tag() == "min":
			out[fe.Field()] = "too short"
		case fe.Tag() == "max":
			out[fe.Field()] = "too long"
		default:
			out[fe.Field()] = "invalid value"
		}
	}

	return out
}
