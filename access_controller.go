package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// AccessController serves the role gated listings
type AccessController struct {
	Users  Users
	Logger Logger
}

func NewAccessController(users Users, logger Logger) *AccessController {
	return &AccessController{Users: users, Logger: normalizeLogger(logger)}
}

// GetAllData lists every user
func (a *AccessController) GetAllData(c *fiber.Ctx) error {
	return a.respond(c, a.Users.ListAll)
}

// GetAllModerators lists users with the moderator role
func (a *AccessController) GetAllModerators(c *fiber.Ctx) error {
	return a.respond(c, func(ctx context.Context) ([]*User, error) {
		return a.Users.ListByRole(ctx, RoleModerator)
	})
}

// GetAllUsers lists users with the user role
func (a *AccessController) GetAllUsers(c *fiber.Ctx) error {
	return a.respond(c, func(ctx context.Context) ([]*User, error) {
		return a.Users.ListByRole(ctx, RoleUser)
	})
}

func (a *AccessController) respond(c *fiber.Ctx, list func(context.Context) ([]*User, error)) error {
	records, err := list(c.UserContext())
	if err != nil {
		return handleError(err)
	}

	if len(records) == 0 {
		return ErrNoUsersFound.Clone()
	}

	return c.Status(fiber.StatusOK).JSON(Envelope{
		Success: true,
		Message: MsgUsersRetrieved,
		Users:   records,
	})
}

// RegisterAccessRoutes mounts one gated group per role tier:
//
//	/admin/getAllData             admin
//	/moderator/getAllModerators   moderator, admin
//	/user/getAllUsers             user, admin, moderator
func RegisterAccessRoutes(r fiber.Router, controller *AccessController, tokens TokenService, opts GuardOptions) {
	r.Group("/admin", Protected(tokens, AdminOnly, opts)...).
		Get("/getAllData", controller.GetAllData).
		Name("access.admin.all")

	r.Group("/moderator", Protected(tokens, ModeratorsAndAdmin, opts)...).
		Get("/getAllModerators", controller.GetAllModerators).
		Name("access.moderator.moderators")

	r.Group("/user", Protected(tokens, AnyVerifiedRole, opts)...).
		Get("/getAllUsers", controller.GetAllUsers).
		Name("access.user.users")
}
