// Package validation implements the field rules an application draft must
// satisfy before any asset processing or persistence happens. Everything here
// is pure: the same draft always produces the same error map.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/intern-portal-api/pkg/assets"
)

// MaxArchiveBytes is the upper bound for the zipped source archive.
const MaxArchiveBytes = assets.MaxArchiveBytes

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FileMeta describes an attached file without holding its bytes.
type FileMeta struct {
	Name string
	Size int64
}

// Draft is the not-yet-persisted form state a developer submits.
type Draft struct {
	FullName      string
	PhoneNumber   string
	Location      string
	Email         string
	Hobbies       string
	ProfileImage  *FileMeta
	SourceArchive *FileMeta
}

// Normalized returns a copy of the draft with all text fields trimmed. The
// submission row persists the normalized values.
func (d Draft) Normalized() Draft {
	d.FullName = strings.TrimSpace(d.FullName)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
	d.Location = strings.TrimSpace(d.Location)
	d.Email = strings.TrimSpace(d.Email)
	d.Hobbies = strings.TrimSpace(d.Hobbies)
	return d
}

// draftFields mirrors the text fields of a draft for tag-based validation.
type draftFields struct {
	FullName    string `form:"full_name" validate:"required,min=2,max=100"`
	PhoneNumber string `form:"phone_number" validate:"required,phone_digits"`
	Location    string `form:"location" validate:"required,min=2,max=100"`
	Email       string `form:"email" validate:"required,email_shape"`
	Hobbies     string `form:"hobbies" validate:"required,min=20,max=1000"`
}

var validate = newDraftValidator()

func newDraftValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := field.Tag.Get("form")
		if name == "" {
			return field.Name
		}
		return name
	})

	// Validity depends only on the digit count after stripping every
	// non-digit character.
	_ = v.RegisterValidation("phone_digits", func(fl validator.FieldLevel) bool {
		digits := 0
		for _, r := range fl.Field().String() {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		return digits >= 7 && digits <= 15
	})

	_ = v.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})

	return v
}

// ValidateDraft checks every field rule and returns a map keyed only by the
// fields that fail. An empty map means the draft may proceed.
func ValidateDraft(draft Draft) map[string]string {
	normalized := draft.Normalized()
	problems := make(map[string]string)

	fields := draftFields{
		FullName:    normalized.FullName,
		PhoneNumber: normalized.PhoneNumber,
		Location:    normalized.Location,
		Email:       normalized.Email,
		Hobbies:     normalized.Hobbies,
	}

	if err := validate.Struct(fields); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				name := fieldErr.Field()
				if _, seen := problems[name]; !seen {
					problems[name] = fieldMessage(name, fieldErr.Tag())
				}
			}
		}
	}

	if draft.ProfileImage == nil {
		problems["profile_image"] = "profile picture is required"
	}

	if draft.SourceArchive == nil {
		problems["source_archive"] = "source code archive is required"
	} else if err := assets.ValidateArchive(draft.SourceArchive.Name, draft.SourceArchive.Size); err != nil {
		switch {
		case errors.Is(err, assets.ErrArchiveNameNotZip):
			problems["source_archive"] = "source code must be a .zip archive"
		case errors.Is(err, assets.ErrArchiveTooLarge):
			problems["source_archive"] = "source code archive must not exceed 50 MiB"
		default:
			problems["source_archive"] = "source code archive is invalid"
		}
	}

	return problems
}

func fieldMessage(field, tag string) string {
	if tag == "required" {
		return strings.ReplaceAll(field, "_", " ") + " is required"
	}

	switch field {
	case "full_name":
		return "full name must be between 2 and 100 characters"
	case "phone_number":
		return "phone number must contain between 7 and 15 digits"
	case "location":
		return "location must be between 2 and 100 characters"
	case "email":
		return "email must look like name@example.com"
	case "hobbies":
		return "hobbies must be between 20 and 1000 characters"
	default:
		return strings.ReplaceAll(field, "_", " ") + " is invalid"
	}
}
