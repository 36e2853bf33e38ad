package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"divyashree/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const userColumns = `
	id, name, email, phone, password_hash, role, is_email_verified,
	is_phone_verified, is_active, created_at, updated_at`

const addressColumns = `id, user_id, name, address, city, state, pincode, phone, is_default, created_at`

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.IsEmailVerified, &u.IsPhoneVerified, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user. Emails are stored lower-cased.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.pool.Exec(ctx, query, u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role,
		u.IsEmailVerified, u.IsPhoneVerified, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return model.ErrEmailTaken
		}
		r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug().Str("user_id", u.ID.String()).Msg("user created successfully")
	return nil
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET name = $2, phone = $3, updated_at = $4 WHERE id = $1
	`, u.ID, u.Name, u.Phone, u.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to update profile")
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) (bool, error) {
	tag, err := r.pool.Exec(ctx, "UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1", id, role)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to update role")
		return false, fmt.Errorf("failed to update role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	tag, err := r.pool.Exec(ctx, "UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1", id, active)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to update active flag")
		return false, fmt.Errorf("failed to update active flag: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns one page of users, newest first.
func (r *userRepository) List(ctx context.Context, f model.UserFilter) ([]model.User, int, error) {
	page, limit := model.ClampPage(f.Page, f.Limit)

	w := &where{}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		w.add("(name ILIKE ? OR email ILIKE ? OR phone ILIKE ?)", pattern, pattern, pattern)
	}
	if f.Role != "" {
		w.add("role = ?", f.Role)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users"+w.sql(), w.args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count users")
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := "SELECT " + userColumns + " FROM users" + w.sql() +
		" ORDER BY created_at DESC, id" +
		" LIMIT " + w.next(limit) + " OFFSET " + w.next(model.Offset(page, limit))

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query users")
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE role = 'user'").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func scanAddress(row rowScanner) (*model.Address, error) {
	var a model.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Address, &a.City, &a.State, &a.Pincode,
		&a.Phone, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAddresses returns the default address first, then newest first.
func (r *userRepository) ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+addressColumns+`
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}
	return addresses, nil
}

// lockAddressBook serialises address writes for one user so concurrent
// requests cannot both decide they own the default. NO KEY UPDATE leaves
// order inserts referencing the user unblocked.
func lockAddressBook(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx, "SELECT 1 FROM users WHERE id = $1 FOR NO KEY UPDATE", userID); err != nil {
		return fmt.Errorf("failed to lock address book: %w", err)
	}
	return nil
}

// AddAddress inserts an address. The user's first address, or one flagged
// as default, becomes the only default.
func (r *userRepository) AddAddress(ctx context.Context, a *model.Address) error {
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockAddressBook(ctx, tx, a.UserID); err != nil {
			return err
		}

		var existing int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM addresses WHERE user_id = $1", a.UserID).Scan(&existing); err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if existing == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if _, err := tx.Exec(ctx, "UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default", a.UserID); err != nil {
				return fmt.Errorf("failed to clear default address: %w", err)
			}
		}

		_, err := tx.Exec(ctx, `INSERT INTO addresses (`+addressColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			a.ID, a.UserID, a.Name, a.Address, a.City, a.State, a.Pincode, a.Phone, a.IsDefault, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert address: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", a.UserID.String()).Msg("failed to add address")
		return err
	}
	return nil
}

// UpdateAddress edits the fields of an address owned by the user. Setting
// IsDefault clears every other default in the same transaction; clearing
// it on the current default is ignored so a user always keeps one.
func (r *userRepository) UpdateAddress(ctx context.Context, a *model.Address) (bool, error) {
	found := false
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockAddressBook(ctx, tx, a.UserID); err != nil {
			return err
		}

		var wasDefault bool
		err := tx.QueryRow(ctx, "SELECT is_default FROM addresses WHERE id = $1 AND user_id = $2 FOR UPDATE", a.ID, a.UserID).Scan(&wasDefault)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to lock address: %w", err)
		}
		found = true

		if wasDefault {
			a.IsDefault = true
		}
		if a.IsDefault && !wasDefault {
			if _, err := tx.Exec(ctx, "UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default", a.UserID); err != nil {
				return fmt.Errorf("failed to clear default address: %w", err)
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE addresses SET name = $3, address = $4, city = $5, state = $6, pincode = $7,
				phone = $8, is_default = $9
			WHERE id = $1 AND user_id = $2
		`, a.ID, a.UserID, a.Name, a.Address, a.City, a.State, a.Pincode, a.Phone, a.IsDefault)
		if err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("address_id", a.ID.String()).Msg("failed to update address")
		return false, err
	}
	return found, nil
}

// DeleteAddress removes an address. Deleting the default promotes the most
// recently added remaining address.
func (r *userRepository) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	found := false
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockAddressBook(ctx, tx, userID); err != nil {
			return err
		}

		var wasDefault bool
		err := tx.QueryRow(ctx, "DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_default", addressID, userID).Scan(&wasDefault)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to delete address: %w", err)
		}
		found = true

		if !wasDefault {
			return nil
		}
		_, err = tx.Exec(ctx, `
			UPDATE addresses SET is_default = TRUE
			WHERE id = (
				SELECT id FROM addresses WHERE user_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT 1
			)
		`, userID)
		if err != nil {
			return fmt.Errorf("failed to promote default address: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("address_id", addressID.String()).Msg("failed to delete address")
		return false, err
	}
	return found, nil
}

// SetDefaultAddress clears the current default and sets the new one in one transaction.
func (r *userRepository) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	found := false
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockAddressBook(ctx, tx, userID); err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)", addressID, userID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to look up address: %w", err)
		}
		if !exists {
			return nil
		}
		found = true

		if _, err := tx.Exec(ctx, "UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default", userID); err != nil {
			return fmt.Errorf("failed to clear default address: %w", err)
		}
		if _, err := tx.Exec(ctx, "UPDATE addresses SET is_default = TRUE WHERE id = $1", addressID); err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("address_id", addressID.String()).Msg("failed to set default address")
		return false, err
	}
	return found, nil
}
