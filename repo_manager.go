package auth

import (
	"context"
	"database/sql"
	"log"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Users() Users
}

var _ RepositoryManager = (*mngr)(nil)

type mngr struct {
	db    *bun.DB
	users Users
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:    db,
		users: NewUsersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return goerrors.New("repository database should be initialized", goerrors.CategoryInternal)
	}

	if m.users == nil {
		return goerrors.New("repository users should be initialized", goerrors.CategoryInternal)
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// Migrate creates the users table and its unique indexes
func (m mngr) Migrate(ctx context.Context) error {
	if _, err := m.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create users table")
	}

	if _, err := m.db.NewCreateIndex().
		Model((*User)(nil)).
		Index("users_user_role_idx").
		Column("user_role").
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create users role index")
	}

	return nil
}

func (m mngr) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "database is not reachable").
			WithCode(goerrors.CodeInternal)
	}
	return nil
}

func (m mngr) Users() Users {
	return m.users
}
