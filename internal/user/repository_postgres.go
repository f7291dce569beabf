package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sqlx.DB
}

type userRow struct {
	ID         int            `db:"id"`
	Name       string         `db:"name"`
	Age        int            `db:"age"`
	Email      string         `db:"email"`
	DOB        time.Time      `db:"dob"`
	ProfilePic sql.NullString `db:"profilePic"`
	Gender     string         `db:"gender"`
	Skills     []byte         `db:"skills"`
	Bio        string         `db:"bio"`
}

const (
	listUsersQuery = `
		SELECT id, name, age, email, dob, "profilePic", gender, skills, bio
		FROM users
		ORDER BY id
	`
	getUserByIDQuery = `
		SELECT id, name, age, email, dob, "profilePic", gender, skills, bio
		FROM users
		WHERE id = $1
	`
	insertUserQuery = `
		INSERT INTO users (name, age, email, dob, "profilePic", gender, skills, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	updateUserQuery = `
		UPDATE users
		SET name = $1,
			age = $2,
			email = $3,
			dob = $4,
			gender = $5,
			skills = $6,
			bio = $7
		WHERE id = $8
	`
	deleteUserQuery = `DELETE FROM users WHERE id = $1`
)

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, listUsersQuery); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, getUserByIDQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return row.toUser(), nil
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	skills, err := encodeSkills(user.Skills)
	if err != nil {
		return User{}, err
	}
	dob, err := time.Parse(dateLayout, user.DOB)
	if err != nil {
		return User{}, fmt.Errorf("insert user: dob: %w", err)
	}

	// a nil picture must reach the column as NULL, never as ""
	var pic any
	if user.ProfilePic != nil {
		pic = *user.ProfilePic
	}

	var id int
	err = r.db.QueryRowxContext(ctx, insertUserQuery,
		user.Name,
		user.Age,
		user.Email,
		dob,
		pic,
		user.Gender,
		skills,
		user.Bio,
	).Scan(&id)
	if err != nil {
		return User{}, mapError("insert user", err)
	}

	user.ID = id
	if user.Skills == nil {
		user.Skills = []string{}
	}
	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, userUpdate User) (User, error) {
	skills, err := encodeSkills(userUpdate.Skills)
	if err != nil {
		return User{}, err
	}
	dob, err := time.Parse(dateLayout, userUpdate.DOB)
	if err != nil {
		return User{}, fmt.Errorf("update user: dob: %w", err)
	}

	result, err := r.db.ExecContext(ctx, updateUserQuery,
		userUpdate.Name,
		userUpdate.Age,
		userUpdate.Email,
		dob,
		userUpdate.Gender,
		skills,
		userUpdate.Bio,
		id,
	)
	if err != nil {
		return User{}, mapError("update user", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if affected == 0 {
		return User{}, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, deleteUserQuery, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

func (row userRow) toUser() User {
	user := User{
		ID:     row.ID,
		Name:   row.Name,
		Age:    row.Age,
		Email:  row.Email,
		DOB:    row.DOB.Format(dateLayout),
		Gender: row.Gender,
		Skills: NormalizeSkills(row.Skills),
		Bio:    row.Bio,
	}
	if row.ProfilePic.Valid {
		pic := row.ProfilePic.String
		user.ProfilePic = &pic
	}
	return user
}

func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailExists
	}
	return fmt.Errorf("%s: %w", op, err)
}
