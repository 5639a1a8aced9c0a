package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	goerrors "github.com/goliatone/go-errors"
)

// Service wires the stores, token service and controllers together
type Service struct {
	Repo     RepositoryManager
	Tokens   TokenService
	Auther   *Auther
	Auth     *AuthController
	Access   *AccessController
	Guard    GuardOptions
	Logger   Logger
	Activity ActivitySink

	otp       OTPGenerator
	tokenOpts []TokenServiceOption
	debug     bool
}

type ServiceOption func(*Service)

func WithServiceLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		s.Logger = normalizeLogger(logger)
	}
}

func WithServiceActivitySink(sink ActivitySink) ServiceOption {
	return func(s *Service) {
		s.Activity = sink
	}
}

func WithServiceOTPGenerator(gen OTPGenerator) ServiceOption {
	return func(s *Service) {
		s.otp = gen
	}
}

func WithServiceTokenOptions(opts ...TokenServiceOption) ServiceOption {
	return func(s *Service) {
		s.tokenOpts = append(s.tokenOpts, opts...)
	}
}

func WithServiceDebug(debug bool) ServiceOption {
	return func(s *Service) {
		s.debug = debug
	}
}

// NewService builds every component from cfg. It fails when the signing
// key is empty.
func NewService(cfg Config, repo RepositoryManager, mailer Mailer, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		Repo:   repo,
		Logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if err := repo.Validate(); err != nil {
		return nil, err
	}

	if mailer == nil {
		return nil, goerrors.New("mailer must not be nil", goerrors.CategoryInternal)
	}

	tokenOpts := append([]TokenServiceOption{WithTokenLogger(s.Logger)}, s.tokenOpts...)
	tokens, err := NewTokenService(cfg, tokenOpts...)
	if err != nil {
		return nil, err
	}
	s.Tokens = tokens

	s.Auther = NewAuthenticator(repo.Users(), tokens).
		WithLogger(s.Logger).
		WithActivitySink(s.Activity)

	register := NewRegisterUserHandler(repo, tokens, mailer,
		WithRegisterOTPGenerator(s.otp),
		WithRegisterLogger(s.Logger),
		WithRegisterActivitySink(s.Activity),
	)

	verify := NewVerifyUserHandler(repo, tokens,
		WithVerifyLogger(s.Logger),
		WithVerifyActivitySink(s.Activity),
	)

	jar := NewCookieJar(cfg)

	s.Auth = NewAuthController(
		WithControllerLogger(s.Logger),
		WithAuther(s.Auther),
		WithRegistration(register, verify),
		WithCookieJar(jar),
		WithControllerActivitySink(s.Activity),
		WithDebug(s.debug),
	)

	s.Access = NewAccessController(repo.Users(), s.Logger)

	s.Guard = GuardOptions{
		CookieName: jar.Name,
		ContextKey: DefaultContextKey,
		Logger:     s.Logger,
		Activity:   s.Activity,
	}

	return s, nil
}

// Mount registers /auth/* and the gated listings under api
func (s *Service) Mount(api fiber.Router, registerGuards ...fiber.Handler) {
	RegisterAuthRoutes(api.Group("/auth"), s.Auth, registerGuards...)
	RegisterAccessRoutes(api, s.Access, s.Tokens, s.Guard)
}

// NewRegisterLimiter caps registration attempts per client IP in a fixed
// window and answers 429 with the usual envelope.
func NewRegisterLimiter(limit int, window time.Duration) fiber.Handler {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "register:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return SendEnvelope(c, fiber.StatusTooManyRequests, MsgTooManyRequests)
		},
	})
}
