package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyUserMessage struct {
	Token string `json:"-"`
	OTP   string `json:"otp" mask:"filled"`
}

func (e VerifyUserMessage) Type() string { return "user.verify" }

// VerifyUserHandler commits a pending registration once the code matches
type VerifyUserHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	activity ActivitySink
	logger   Logger
}

type VerifyUserOption func(*VerifyUserHandler)

func WithVerifyActivitySink(sink ActivitySink) VerifyUserOption {
	return func(h *VerifyUserHandler) {
		h.activity = sink
	}
}

func WithVerifyLogger(logger Logger) VerifyUserOption {
	return func(h *VerifyUserHandler) {
		h.logger = normalizeLogger(logger)
	}
}

func NewVerifyUserHandler(repo RepositoryManager, tokens TokenService, opts ...VerifyUserOption) *VerifyUserHandler {
	h := &VerifyUserHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *VerifyUserHandler) Execute(ctx context.Context, event VerifyUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyUserHandler) execute(ctx context.Context, event VerifyUserMessage) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if event.Token == "" {
		return nil, ErrPendingTokenMissing.Clone()
	}

	claims, err := h.tokens.ValidatePending(event.Token)
	if err != nil {
		if HasTextCode(err, TextCodeTokenExpired) {
			h.logger.Info("pending registration token expired")
		} else {
			h.logger.Warn("pending registration token rejected: %s", describeError(err))
		}
		return nil, goerrors.Wrap(err, ErrPendingTokenInvalid.Category, ErrPendingTokenInvalid.Message).
			WithCode(ErrPendingTokenInvalid.Code).
			WithTextCode(ErrPendingTokenInvalid.TextCode)
	}

	if !OTPMatches(claims.VerificationToken, strings.TrimSpace(event.OTP)) {
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventRegistrationRejected,
			Email:     claims.User.Email,
			Role:      claims.User.Role,
			Reason:    "otp_mismatch",
		})
		return nil, ErrOTPMismatch.Clone()
	}

	user, err := claims.User.ToUser()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive user id").
			WithCode(goerrors.CodeInternal)
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := h.repo.Users().RegisterTx(ctx, tx, user)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user verification transaction failed").
			WithCode(goerrors.CodeInternal)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventRegistrationVerified,
		Email:     user.Email,
		Role:      user.Role,
	})

	return user, nil
}
