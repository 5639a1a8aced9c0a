package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

const pgUniqueViolation = "23505"

// Users is the credential store
type Users interface {
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ListAll(ctx context.Context) ([]*User, error)
	ListByRole(ctx context.Context, role UserRole) ([]*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository returns a bun backed Users store keyed by email
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (r *users) Register(ctx context.Context, user *User) (*User, error) {
	return r.RegisterTx(ctx, r.db, user)
}

// RegisterTx inserts user. The unique indexes on email and username decide
// races between concurrent verifications; a violation maps to
// ErrUserAlreadyExists.
func (r *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user == nil {
		return nil, goerrors.New("user must not be nil", goerrors.CategoryInternal)
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	record, err := r.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, goerrors.Wrap(err, ErrUserAlreadyExists.Category, ErrUserAlreadyExists.Message).
				WithCode(ErrUserAlreadyExists.Code).
				WithTextCode(ErrUserAlreadyExists.TextCode)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert user").
			WithCode(goerrors.CodeInternal)
	}

	return record, nil
}

func (r *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	user, err := r.Repository.GetByIdentifier(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound.Clone()
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find user by email").
			WithCode(goerrors.CodeInternal)
	}
	return user, nil
}

func (r *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", normalizeEmail(email))
}

func (r *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", strings.TrimSpace(username))
}

func (r *users) exists(ctx context.Context, column, value string) (bool, error) {
	_, total, err := r.Repository.List(ctx,
		whereColumn(column, value),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Column("id").Limit(1)
		},
	)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check user "+column).
			WithCode(goerrors.CodeInternal)
	}
	return total > 0, nil
}

// ListAll returns every user ordered by creation
func (r *users) ListAll(ctx context.Context) ([]*User, error) {
	return r.list(ctx)
}

// ListByRole returns the users holding role
func (r *users) ListByRole(ctx context.Context, role UserRole) ([]*User, error) {
	return r.list(ctx, whereColumn("user_role", string(role)))
}

func (r *users) list(ctx context.Context, criteria ...repository.SelectCriteria) ([]*User, error) {
	criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.ExcludeColumn("password_hash").Order("created_at ASC", "username ASC")
	})

	records, _, err := r.Repository.List(ctx, criteria...)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users").
			WithCode(goerrors.CodeInternal)
	}
	if records == nil {
		records = []*User{}
	}
	return records, nil
}

func whereColumn(column, value string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(column), value)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
