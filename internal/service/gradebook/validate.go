package gradebook

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json name so errors match the API payloads.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("uuid_set", func(fl validator.FieldLevel) bool {
		id, ok := fl.Field().Interface().(uuid.UUID)
		return ok && id != uuid.Nil
	})

	return v
}

type studentForm struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	StudentID string  `json:"student_id" validate:"required,max=50"`
}

type studentPatch struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=200"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	StudentID *string `json:"student_id" validate:"omitempty,min=1,max=50"`
}

type subjectForm struct {
	Name    string `json:"name" validate:"required,max=200"`
	Code    string `json:"code" validate:"required,alphanum,uppercase,max=20"`
	Credits *int   `json:"credits" validate:"omitempty,min=1,max=6"`
}

type subjectPatch struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Code    *string `json:"code" validate:"omitempty,min=1,alphanum,uppercase,max=20"`
	Credits *int    `json:"credits" validate:"omitempty,min=1,max=6"`
}

type gradeForm struct {
	StudentID uuid.UUID        `json:"student_id" validate:"uuid_set"`
	SubjectID uuid.UUID        `json:"subject_id" validate:"uuid_set"`
	Grade     *float64         `json:"grade" validate:"required,min=0,max=100"`
	Semester  *domain.Semester `json:"semester" validate:"omitempty,oneof=Fall Spring Summer"`
	Year      *int             `json:"year" validate:"omitempty,min=1900,max=2100"`
}

type gradePatch struct {
	StudentID *uuid.UUID       `json:"student_id" validate:"omitempty,uuid_set"`
	SubjectID *uuid.UUID       `json:"subject_id" validate:"omitempty,uuid_set"`
	Grade     *float64         `json:"grade" validate:"omitempty,min=0,max=100"`
	Semester  *domain.Semester `json:"semester" validate:"omitempty,oneof=Fall Spring Summer"`
	Year      *int             `json:"year" validate:"omitempty,min=1900,max=2100"`
}

// check validates s and converts validator failures into a *domain.ValidationError.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return domain.NewValidationErrors(fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "uuid_set":
		return "required"
	case "email":
		return "invalid email"
	case "alphanum", "uppercase":
		return "only uppercase letters and digits"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("max %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			// Blank strings in a partial update.
			return "required"
		}
		return "must be at least " + fe.Param()
	default:
		return fe.Tag()
	}
}

// describe renders a validation error for a notification, e.g. "name: required".
func describe(err error) string {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}
