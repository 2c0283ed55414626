package form

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	domainerr "scalesite/internal/domain/errors"
)

var (
	CompanySizes       = []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"}
	CollaborationTypes = []string{"research", "internship", "placement", "training", "consultancy", "sponsorship", "guest-lecture"}
	Timelines          = []string{"immediate", "1-3-months", "3-6-months", "6-12-months", "flexible"}
)

// Draft is the in-progress collaboration form. The oneof lists in the tags
// must match the option slices above.
type Draft struct {
	CompanyName string `json:"companyName" validate:"required,max=200"`
	Industry    string `json:"industry" validate:"required,max=100"`
	CompanySize string `json:"companySize" validate:"required,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	Website     string `json:"website" validate:"omitempty,url"`

	ContactName string `json:"contactName" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Designation string `json:"designation" validate:"required,max=100"`

	CollaborationTypes []string `json:"collaborationTypes" validate:"required,min=1,dive,oneof=research internship placement training consultancy sponsorship guest-lecture"`
	ProjectDescription string   `json:"projectDescription" validate:"required,min=20,max=5000"`

	Timeline       string `json:"timeline" validate:"required,oneof=immediate 1-3-months 3-6-months 6-12-months flexible"`
	Budget         string `json:"budget" validate:"omitempty,max=100"`
	AdditionalInfo string `json:"additionalInfo" validate:"omitempty,max=5000"`
	Consent        bool   `json:"consent" validate:"required"`
}

// Lead is what gets posted to the CMS.
type Lead struct {
	Draft
	Reference   string    `json:"reference"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func (d Draft) Payload(ref string) Lead {
	d.CollaborationTypes = append([]string(nil), d.CollaborationTypes...)
	return Lead{Draft: d, Reference: ref, SubmittedAt: time.Now().UTC()}
}

func (d Draft) IsZero() bool {
	return reflect.ValueOf(d).IsZero()
}

type field struct {
	json   string
	goName string
}

var steps = [StepCount][]field{
	{{"companyName", "CompanyName"}, {"industry", "Industry"}, {"companySize", "CompanySize"}, {"website", "Website"}},
	{{"contactName", "ContactName"}, {"email", "Email"}, {"phone", "Phone"}, {"designation", "Designation"}},
	{{"collaborationTypes", "CollaborationTypes"}, {"projectDescription", "ProjectDescription"}},
	{{"timeline", "Timeline"}, {"budget", "Budget"}, {"additionalInfo", "AdditionalInfo"}, {"consent", "Consent"}},
}

// StepFields lists the fields of step in declaration order.
func StepFields(step Step) []string {
	if !step.Valid() {
		return nil
	}
	out := make([]string, 0, len(steps[step-1]))
	for _, f := range steps[step-1] {
		out = append(out, f.json)
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStep checks only the fields declared for step. The result is keyed
// by json field name; nil means the step is valid.
func validateStep(d Draft, step Step) map[string]string {
	names := make([]string, 0, len(steps[step-1]))
	for _, f := range steps[step-1] {
		names = append(names, f.goName)
	}
	return collect(validate.StructPartial(d, names...))
}

func validateAll(d Draft) map[string]string {
	return collect(validate.Struct(d))
}

func collect(err error) map[string]string {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name, _, _ := strings.Cut(fe.Field(), "[")
		if _, seen := out[name]; !seen {
			out[name] = message(name, fe)
		}
	}
	return out
}

func message(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if name == "consent" {
			return "must be accepted"
		}
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "select at least one option"
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// Validate checks a complete draft, as the submit endpoint does.
func Validate(d Draft) error {
	errs := validateAll(d)
	if len(errs) == 0 {
		return nil
	}
	var ve domainerr.ValidationError
	for step := Step1; step <= Step4; step++ {
		for _, f := range steps[step-1] {
			if msg, ok := errs[f.json]; ok {
				ve.Add(f.json, msg)
			}
		}
	}
	return ve
}
