package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Virain6/money-management/internal/models"
)

const personColumns = "id, display_name, email"

// CreatePerson inserts a new person into the database.
func (s *SQLiteStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, display_name, email) VALUES (?, ?, ?)",
		person.ID, person.DisplayName, nullString(person.Email),
	)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}

	return nil
}

// GetPerson retrieves a person by their ID.
func (s *SQLiteStore) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+personColumns+" FROM users WHERE id = ?", id)

	person, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("person", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	return person, nil
}

// GetPeopleByIDs retrieves multiple people by their IDs.
// Returns a map of person ID to Person object.
// People that don't exist are omitted from the result.
func (s *SQLiteStore) GetPeopleByIDs(ctx context.Context, ids []string) (map[string]*models.Person, error) {
	if len(ids) == 0 {
		return make(map[string]*models.Person), nil
	}

	query := "SELECT " + personColumns + " FROM users WHERE id IN (?" + repeatPlaceholder(len(ids)-1) + ")"

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get people by IDs: %w", err)
	}
	defer rows.Close()

	people := make(map[string]*models.Person)
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people[person.ID] = person
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}

	return people, nil
}

// ListPeople returns everyone sorted by display name. With includeMe the
// device owner is listed first; otherwise it is left out.
func (s *SQLiteStore) ListPeople(ctx context.Context, includeMe bool) ([]models.Person, error) {
	query := "SELECT " + personColumns + " FROM users WHERE id <> ? ORDER BY display_name COLLATE NOCASE"
	args := []interface{}{models.MeID}
	if includeMe {
		query = "SELECT " + personColumns + " FROM users ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END, display_name COLLATE NOCASE"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, *person)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}

	return people, nil
}

// DeletePerson removes the person's participant rows, every settlement they
// paid or received, and the person, in one transaction. Expenses they paid
// stay behind with no payer.
func (s *SQLiteStore) DeletePerson(ctx context.Context, id string) error {
	if id == models.MeID {
		return models.ErrProtectedPerson
	}

	return s.withTx(ctx, "delete person", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM expense_participants WHERE user_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete participant rows: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM settlements WHERE payer_id = ? OR payee_id = ?", id, id); err != nil {
			return fmt.Errorf("failed to delete settlements: %w", err)
		}
		return execOne(ctx, tx, "person", id, "DELETE FROM users WHERE id = ?", id)
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPerson(row rowScanner) (*models.Person, error) {
	person := &models.Person{}
	var email sql.NullString
	if err := row.Scan(&person.ID, &person.DisplayName, &email); err != nil {
		return nil, err
	}
	if email.Valid {
		person.Email = email.String
	}
	return person, nil
}
