package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

// ValidationError запрос не прошел проверку; Fields содержит сообщения по полям.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Fields, "; ")
}

// NewValidator создает валидатор запросов: имена полей берутся из json-тегов,
// для задач проверяется, что срок не раньше даты начала.
func NewValidator() *validator.Validate {
	return newValidator()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(createDatesValidation, models.WorkPackageCreateRequest{})
	v.RegisterStructValidation(updateDatesValidation, models.WorkPackageUpdateRequest{})
	return v
}

func createDatesValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.WorkPackageCreateRequest)
	if dueBeforeStart(req.StartDate, req.DueDate) {
		sl.ReportError(req.DueDate, "due_date", "DueDate", "duedate", "")
	}
}

func updateDatesValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.WorkPackageUpdateRequest)
	if req.StartDate != nil && req.DueDate != nil && dueBeforeStart(*req.StartDate, *req.DueDate) {
		sl.ReportError(*req.DueDate, "due_date", "DueDate", "duedate", "")
	}
}

func dueBeforeStart(start, due string) bool {
	if start == "" || due == "" {
		return false
	}
	s, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return false
	}
	d, err := time.Parse(models.DateLayout, due)
	if err != nil {
		return false
	}
	return d.Before(s)
}

func (s *OpenProjectService) validateRequest(req any) error {
	return ValidateStruct(s.validate, req)
}

// ValidateStruct проверяет структуру и переводит ошибки валидатора в *ValidationError.
func ValidateStruct(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	out := &ValidationError{Fields: make([]string, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "datetime":
		return field + " must be in YYYY-MM-DD format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "nefield":
		return field + " must differ from the source work package"
	case "duedate":
		return "due_date must not be before start_date"
	case "email":
		return field + " must be a valid email address"
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}
