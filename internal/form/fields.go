package form

import (
	"fmt"
	"strings"
)

// assign sets the field named by its json name. Text fields accept strings,
// collaborationTypes accepts a string slice (or a comma separated string),
// consent accepts a bool.
func assign(d *Draft, name string, value any) error {
	switch name {
	case "collaborationTypes":
		switch v := value.(type) {
		case []string:
			d.CollaborationTypes = cleanList(v)
		case string:
			d.CollaborationTypes = cleanList(strings.Split(v, ","))
		default:
			return fmt.Errorf("%w: %s", ErrFieldType, name)
		}
		return nil
	case "consent":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s", ErrFieldType, name)
		}
		d.Consent = v
		return nil
	}

	p := textField(d, name)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFieldType, name)
	}
	*p = v
	return nil
}

// Field returns the current value of the field with the given json name.
func (d Draft) Field(name string) (any, bool) {
	return lookup(d, name)
}

func lookup(d Draft, name string) (any, bool) {
	switch name {
	case "collaborationTypes":
		return d.CollaborationTypes, true
	case "consent":
		return d.Consent, true
	}
	if p := textField(&d, name); p != nil {
		return *p, true
	}
	return nil, false
}

func textField(d *Draft, name string) *string {
	switch name {
	case "companyName":
		return &d.CompanyName
	case "industry":
		return &d.Industry
	case "companySize":
		return &d.CompanySize
	case "website":
		return &d.Website
	case "contactName":
		return &d.ContactName
	case "email":
		return &d.Email
	case "phone":
		return &d.Phone
	case "designation":
		return &d.Designation
	case "projectDescription":
		return &d.ProjectDescription
	case "timeline":
		return &d.Timeline
	case "budget":
		return &d.Budget
	case "additionalInfo":
		return &d.AdditionalInfo
	}
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
