package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wichananm65/user-admin/internal/events"
	"github.com/wichananm65/user-admin/internal/formfield"
	"github.com/wichananm65/user-admin/internal/metrics"
	"github.com/wichananm65/user-admin/internal/upload"
)

const dateLayout = "2006-01-02"

const (
	IntentCreate = "create"
	IntentUpdate = "update"
	IntentDelete = "delete"
)

// Form is the submitted record as plain text, before parsing.
type Form struct {
	Name   string   `form:"name" validate:"required"`
	Email  string   `form:"email" validate:"required"`
	Age    string   `form:"age" validate:"required,number"`
	DOB    string   `form:"dob" validate:"required,datetime=2006-01-02"`
	Gender string   `form:"gender" validate:"required"`
	Skills []string `form:"skills"`
	Bio    string   `form:"bio" validate:"required"`
}

func (f Form) trimmed() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Age = strings.TrimSpace(f.Age)
	f.DOB = strings.TrimSpace(f.DOB)
	f.Gender = strings.TrimSpace(f.Gender)
	f.Bio = strings.TrimSpace(f.Bio)
	return f
}

// Values returns the submitted form keyed by field name, for re-rendering.
func (f Form) Values() map[string][]string {
	return map[string][]string{
		"name":   {f.Name},
		"email":  {f.Email},
		"age":    {f.Age},
		"dob":    {f.DOB},
		"gender": {f.Gender},
		"skills": f.Skills,
		"bio":    {f.Bio},
	}
}

// Attachment is an uploaded file. A zero Size means no file was chosen.
type Attachment struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type Action struct {
	Intent  string
	ID      string
	Form    Form
	Picture *Attachment
}

type Service struct {
	repo     Repository
	store    upload.Store
	events   events.Publisher
	validate *validator.Validate
	tracer   trace.Tracer
}

func NewService(repo Repository, store upload.Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("form")
	})

	return &Service{
		repo:     repo,
		store:    store,
		events:   publisher,
		validate: validate,
		tracer:   otel.Tracer("user-admin/user"),
	}
}

// List loads every record ordered by id with skills normalized.
func (s *Service) List(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Skills == nil {
			users[i].Skills = []string{}
		}
	}
	return users, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Create inserts a record. The picture, when present, is staged first and
// committed only once the row exists; any later failure discards it.
func (s *Service) Create(ctx context.Context, form Form, picture *Attachment) (User, error) {
	user, err := s.parse(form, false)
	if err != nil {
		return User{}, err
	}

	var staged upload.Staged
	if picture != nil && picture.Size > 0 {
		staged, err = s.store.Stage(ctx, picture.Filename, picture.Content)
		if err != nil {
			return User{}, fmt.Errorf("stage profile picture: %w", err)
		}
		path := staged.Path()
		user.ProfilePic = &path
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		s.discard(ctx, staged)
		return User{}, err
	}

	if staged != nil {
		if err := staged.Commit(ctx); err != nil {
			s.discard(ctx, staged)
			if delErr := s.repo.Delete(ctx, created.ID); delErr != nil {
				logrus.WithContext(ctx).WithError(delErr).WithField("user_id", created.ID).
					Error("remove user after failed picture commit")
			}
			return User{}, fmt.Errorf("commit profile picture: %w", err)
		}
	}

	s.publish(ctx, events.UserCreated, created.ID, created.Email)
	return created, nil
}

// Update overwrites every attribute except the id and the profile picture.
func (s *Service) Update(ctx context.Context, id int, form Form) (User, error) {
	user, err := s.parse(form, true)
	if err != nil {
		return User{}, err
	}

	updated, err := s.repo.Update(ctx, id, user)
	if err != nil {
		return User{}, err
	}

	s.publish(ctx, events.UserUpdated, updated.ID, updated.Email)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.UserDeleted, id, "")
	return nil
}

// Dispatch performs the action named by the intent and reports the outcome.
// It never returns an error; failures are folded into the Result.
func (s *Service) Dispatch(ctx context.Context, action Action) Result {
	intent := strings.TrimSpace(action.Intent)
	ctx, span := s.tracer.Start(ctx, "user.Dispatch",
		trace.WithAttributes(attribute.String("intent", intent)))
	defer span.End()

	var result Result
	switch intent {
	case IntentCreate:
		created, err := s.Create(ctx, action.Form, action.Picture)
		result = s.outcome(ctx, intent, err, msgCreated)
		if err == nil {
			result.User = &created
		}
	case IntentUpdate:
		id, err := parseID(action.ID)
		if err != nil {
			result = s.outcome(ctx, intent, err, "")
			break
		}
		updated, err := s.Update(ctx, id, action.Form)
		result = s.outcome(ctx, intent, err, msgUpdated)
		if err == nil {
			result.User = &updated
		}
	case IntentDelete:
		id, err := parseID(action.ID)
		if err == nil {
			err = s.Delete(ctx, id)
		}
		result = s.outcome(ctx, intent, err, msgDeleted)
	default:
		intent = "unknown"
		result = Result{Kind: ResultInvalidIntent, Message: msgInvalidAction}
	}

	span.SetAttributes(attribute.String("result", string(result.Kind)))
	if result.Kind == ResultFailure {
		span.SetStatus(codes.Error, result.Message)
	}
	metrics.ActionsTotal.WithLabelValues(intent, string(result.Kind)).Inc()
	return result
}

func (s *Service) outcome(ctx context.Context, intent string, err error, success string) Result {
	var verr *ValidationError
	switch {
	case err == nil:
		return Result{Kind: ResultSuccess, Message: success}
	case errors.As(err, &verr):
		return Result{Kind: ResultValidation, Message: msgRequired, Fields: verr.Fields}
	case errors.Is(err, ErrEmailExists):
		return Result{Kind: ResultConflict, Message: msgEmailExists}
	case errors.Is(err, ErrNotFound):
		return Result{Kind: ResultNotFound, Message: msgNotFound}
	default:
		trace.SpanFromContext(ctx).RecordError(err)
		logrus.WithContext(ctx).WithError(err).WithField("intent", intent).Error("user action failed")
		return Result{Kind: ResultFailure, Message: msgFailure}
	}
}

// parse validates the form and converts it to a record. Skills may only be
// empty when requireSkills is false.
func (s *Service) parse(form Form, requireSkills bool) (User, error) {
	form = form.trimmed()
	skills := uniqueSkills(form.Skills)

	var fields []string
	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return User{}, err
		}
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	if requireSkills && len(skills) == 0 {
		fields = append(fields, "skills")
	}

	// age is an integer column
	age, err := strconv.Atoi(form.Age)
	if (err != nil || age > math.MaxInt32) && !slices.Contains(fields, "age") {
		fields = append(fields, "age")
	}

	if len(fields) > 0 {
		slices.SortStableFunc(fields, func(a, b string) int {
			return catalogIndex(a) - catalogIndex(b)
		})
		return User{}, &ValidationError{Fields: fields}
	}

	return User{
		Name:   form.Name,
		Age:    age,
		Email:  form.Email,
		DOB:    form.DOB,
		Gender: form.Gender,
		Skills: skills,
		Bio:    form.Bio,
	}, nil
}

func (s *Service) discard(ctx context.Context, staged upload.Staged) {
	if staged == nil {
		return
	}
	if err := staged.Discard(ctx); err != nil {
		logrus.WithContext(ctx).WithError(err).WithField("path", staged.Path()).Warn("discard staged upload")
	}
}

func (s *Service) publish(ctx context.Context, eventType string, id int, email string) {
	if err := s.events.Publish(ctx, events.NewUserEvent(eventType, id, email)); err != nil {
		logrus.WithContext(ctx).WithError(err).WithField("event", eventType).Warn("publish user event")
	}
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, &ValidationError{Fields: []string{"id"}}
	}
	return id, nil
}

// catalogIndex orders field names as the form shows them; unknown names
// sort first.
func catalogIndex(name string) int {
	for i, field := range formfield.Catalog() {
		if field.Name == name {
			return i
		}
	}
	return -1
}
