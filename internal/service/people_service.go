package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Virain6/money-management/internal/metrics"
	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/storage"
)

// PeopleService manages the people "me" shares expenses with.
type PeopleService struct {
	store   storage.PersonStore
	metrics *metrics.Metrics
}

// NewPeopleService creates a new PeopleService with the given storage backend.
func NewPeopleService(store storage.PersonStore, m *metrics.Metrics) *PeopleService {
	return &PeopleService{store: store, metrics: m}
}

// AddPerson creates a person. email is optional.
func (s *PeopleService) AddPerson(ctx context.Context, name, email string) (*models.Person, error) {
	var person *models.Person
	err := s.metrics.Track(ctx, "add_person", func() error {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: display name is required", models.ErrInvalidInput)
		}

		person = &models.Person{DisplayName: name, Email: strings.TrimSpace(email)}
		if err := s.store.CreatePerson(ctx, person); err != nil {
			return err
		}
		slog.Info("Person added", "person_id", person.ID, "name", name)
		return nil
	})
	return person, err
}

// GetPerson returns a person by id.
func (s *PeopleService) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	var person *models.Person
	err := s.metrics.Track(ctx, "get_person", func() error {
		var err error
		person, err = s.store.GetPerson(ctx, id)
		return err
	})
	return person, err
}

// ListPeople returns everyone except me, sorted by name.
func (s *PeopleService) ListPeople(ctx context.Context) ([]models.Person, error) {
	return s.list(ctx, "list_people", false)
}

// ListAllPeopleIncludingMe returns me first, then everyone else by name.
func (s *PeopleService) ListAllPeopleIncludingMe(ctx context.Context) ([]models.Person, error) {
	return s.list(ctx, "list_all_people", true)
}

func (s *PeopleService) list(ctx context.Context, op string, includeMe bool) ([]models.Person, error) {
	var out []models.Person
	err := s.metrics.Track(ctx, op, func() error {
		var err error
		out, err = s.store.ListPeople(ctx, includeMe)
		return err
	})
	return out, err
}

// DeletePerson removes a person together with their participant rows and
// settlements, atomically. The device owner cannot be deleted.
func (s *PeopleService) DeletePerson(ctx context.Context, id string) error {
	return s.metrics.Track(ctx, "delete_person", func() error {
		if id == models.MeID {
			return models.ErrProtectedPerson
		}
		if err := s.store.DeletePerson(ctx, id); err != nil {
			return err
		}
		slog.Info("Person deleted", "person_id", id)
		return nil
	})
}
