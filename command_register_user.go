package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const commandTimeout = 10 * time.Second

type RegisterUserMessage struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password" mask:"filled"`
	Role     string `json:"role" form:"role"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks presence first so a partially filled form gets the
// generic message, then the format rules of the users table.
func (e RegisterUserMessage) Validate() error {
	if strings.TrimSpace(e.Email) == "" ||
		strings.TrimSpace(e.Username) == "" ||
		e.Password == "" ||
		strings.TrimSpace(e.Role) == "" {
		return goerrors.New(msgMissingFields, goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeValidation)
	}

	err := validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.EmailFormat),
		validation.Field(&e.Username, validation.Required, validation.Length(1, 64)),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&e.Role, validation.Required, validation.By(func(value any) error {
			if _, ok := ParseRole(value.(string)); !ok {
				return validation.NewError("validation_invalid_role", "must be one of "+roleNames())
			}
			return nil
		})),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "Invalid registration data.").
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeValidation)
	}
	return nil
}

// RegisterUserHandler runs the first phase of sign up. It returns the
// signed pending token and never writes to the store.
type RegisterUserHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	mailer   Mailer
	otp      OTPGenerator
	activity ActivitySink
	logger   Logger
}

// RegisterUserOption customizes the handler
type RegisterUserOption func(*RegisterUserHandler)

// WithRegisterOTPGenerator overrides the code source
func WithRegisterOTPGenerator(gen OTPGenerator) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		if gen != nil {
			h.otp = gen
		}
	}
}

func WithRegisterActivitySink(sink ActivitySink) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.activity = sink
	}
}

func WithRegisterLogger(logger Logger) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.logger = normalizeLogger(logger)
	}
}

func NewRegisterUserHandler(repo RepositoryManager, tokens TokenService, mailer Mailer, opts ...RegisterUserOption) *RegisterUserHandler {
	h := &RegisterUserHandler{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		otp:    GenerateOTP,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (string, error) {
	select {
	case <-ctx.Done():
		return "", goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	h.logger.Debug("register payload: %s", print.MaybeSecureJSON(event))

	if err := event.Validate(); err != nil {
		return "", err
	}

	email := normalizeEmail(event.Email)
	username := strings.TrimSpace(event.Username)
	role, _ := ParseRole(event.Role)

	exists, err := h.repo.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !exists {
		if exists, err = h.repo.Users().ExistsByUsername(ctx, username); err != nil {
			return "", err
		}
	}
	if exists {
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventRegistrationRejected,
			Email:     email,
			Role:      role,
			Reason:    "conflict",
		})
		return "", ErrUserAlreadyExists.Clone()
	}

	code, err := h.otp()
	if err != nil {
		return "", err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return "", err
	}

	pending := PendingUser{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}

	token, err := h.tokens.SignPending(pending, code)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign registration token").
			WithCode(goerrors.CodeInternal)
	}

	if err := h.mailer.SendVerificationCode(ctx, email, code); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return "", richErr
		}
		return "", goerrors.Wrap(err, goerrors.CategoryExternal, "failed to deliver verification code").
			WithCode(goerrors.CodeInternal).
			WithTextCode(TextCodeMailDelivery)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventRegistrationPending,
		Email:     email,
		Role:      role,
	})

	return token, nil
}
