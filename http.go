package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultCookieName is the cookie carrying both pending and session tokens
const DefaultCookieName = "token"

// Envelope is the body of every response
type Envelope struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Users   []*User `json:"users,omitempty"`
}

// SendEnvelope writes a message only envelope
func SendEnvelope(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{
		Success: status < fiber.StatusBadRequest,
		Message: message,
	})
}

// CookieJar sets and clears the token cookie. Cookies are HTTP only,
// SameSite=Strict and carry no Max-Age so they live for the browser session.
type CookieJar struct {
	Name   string
	Secure bool
}

// NewCookieJar reads the cookie settings from cfg
func NewCookieJar(cfg Config) CookieJar {
	name := cfg.GetCookieName()
	if name == "" {
		name = DefaultCookieName
	}
	return CookieJar{Name: name, Secure: cfg.GetSecureCookies()}
}

func (j CookieJar) Set(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     j.Name,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   j.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (j CookieJar) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     j.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-(time.Hour * 2)),
		HTTPOnly: true,
		Secure:   j.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (j CookieJar) Get(c *fiber.Ctx) string {
	return c.Cookies(j.Name)
}

// NewErrorHandler renders any error that reaches fiber as an envelope.
// 5xx causes are logged with the request id and masked for the client.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	logger = normalizeLogger(logger)

	return func(c *fiber.Ctx, err error) error {
		status, message := ErrorStatus(err), ErrorMessage(err)

		if fe, ok := err.(*fiber.Error); ok {
			status, message = fe.Code, fe.Message
			if status >= fiber.StatusInternalServerError {
				message = MsgInternal
			}
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request %s %s failed [%s]: %s", c.Method(), c.Path(), requestID(c), describeError(err))
		} else {
			logger.Debug("request %s %s rejected with %d: %s", c.Method(), c.Path(), status, describeError(err))
		}

		return SendEnvelope(c, status, message)
	}
}

// handleError passes through go-errors values and wraps anything else as
// an internal failure, so handlers can return store errors unchanged.
func handleError(err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return err
	}
	if _, ok := err.(*fiber.Error); ok {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, MsgInternal).
		WithCode(goerrors.CodeInternal).
		WithTextCode(TextCodeInternal)
}
