package auth

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// OTPCode accepts the code as a JSON number or string
type OTPCode string

func (o *OTPCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = OTPCode(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		return err
	}
	*o = OTPCode(strconv.FormatInt(i, 10))
	return nil
}

type VerifyUserRequest struct {
	OTP OTPCode `json:"otp" form:"otp" mask:"filled"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password" mask:"filled"`
}

type AuthControllerRoutes struct {
	Register   string
	VerifyUser string
	Login      string
	Logout     string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	RegisterUser *RegisterUserHandler
	VerifyUser   *VerifyUserHandler
	Cookies      CookieJar
	Activity     ActivitySink
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:  defLogger{},
		Cookies: CookieJar{Name: DefaultCookieName},
		Routes: &AuthControllerRoutes{
			Register:   "/register",
			VerifyUser: "/verify-user",
			Login:      "/login",
			Logout:     "/logout",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Logger = normalizeLogger(logger)
		return ac
	}
}

func WithAuther(auther Authenticator) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Auther = auther
		return ac
	}
}

func WithRegistration(register *RegisterUserHandler, verify *VerifyUserHandler) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.RegisterUser = register
		ac.VerifyUser = verify
		return ac
	}
}

func WithCookieJar(jar CookieJar) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Cookies = jar
		return ac
	}
}

func WithControllerActivitySink(sink ActivitySink) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Activity = sink
		return ac
	}
}

func WithDebug(debug bool) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Debug = debug
		return ac
	}
}

// Register starts a sign up and hands out the pending token cookie
func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := RegisterUserMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}

	token, err := a.RegisterUser.Execute(c.UserContext(), payload)
	if err != nil {
		return handleError(err)
	}

	a.Cookies.Set(c, token)
	return SendEnvelope(c, fiber.StatusCreated, MsgRegistered)
}

// VerifyUserPost commits the pending registration when the code matches.
// The cookie survives a wrong code so the client can try again.
func (a *AuthController) VerifyUserPost(c *fiber.Ctx) error {
	token := a.Cookies.Get(c)
	if token == "" {
		return ErrPendingTokenMissing.Clone()
	}

	payload := VerifyUserRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}

	_, err := a.VerifyUser.Execute(c.UserContext(), VerifyUserMessage{
		Token: token,
		OTP:   string(payload.OTP),
	})
	if err != nil {
		return handleError(err)
	}

	a.Cookies.Clear(c)
	return SendEnvelope(c, fiber.StatusCreated, MsgVerified)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}

	if a.Debug {
		a.Logger.Debug("login request: %s", print.MaybeSecureJSON(payload))
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return handleError(err)
	}

	a.Cookies.Set(c, token)
	return SendEnvelope(c, fiber.StatusCreated, MsgLoggedIn)
}

// Logout only needs a cookie to be present, the token is not decoded
func (a *AuthController) Logout(c *fiber.Ctx) error {
	if a.Cookies.Get(c) == "" {
		return ErrSessionMissing.Clone()
	}

	a.Cookies.Clear(c)
	recordActivity(c.UserContext(), a.Activity, a.Logger, ActivityEvent{
		EventType: ActivityEventLogout,
	})
	return SendEnvelope(c, fiber.StatusOK, MsgLoggedOut)
}

// RegisterAuthRoutes mounts the auth endpoints on r. registerGuards run in
// front of the register endpoint only, typically a rate limiter.
func RegisterAuthRoutes(r fiber.Router, controller *AuthController, registerGuards ...fiber.Handler) {
	handlers := append([]fiber.Handler{}, registerGuards...)
	handlers = append(handlers, controller.Register)

	r.Post(controller.Routes.Register, handlers...).Name("auth.register")
	r.Post(controller.Routes.VerifyUser, controller.VerifyUserPost).Name("auth.verify-user")
	r.Post(controller.Routes.Login, controller.Login).Name("auth.login")
	r.Post(controller.Routes.Logout, controller.Logout).Name("auth.logout")
}

func badBody(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid request body.").
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeValidation)
}
