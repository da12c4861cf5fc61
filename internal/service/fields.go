package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Columns an owner may change on a lead.
var leadUpdatableFields = map[string]bool{
	"first_name": true, "last_name": true, "work_phone": true, "mobile_phone": true,
	"email_primary": true, "street_address": true, "city": true, "state": true,
	"zip_code": true, "country": true, "organization_name": true, "job_title": true,
	"birthdate": true, "website_url": true, "comments_from_lead": true, "notes": true,
}

// Contacts additionally accept photo_url.
var contactUpdatableFields = map[string]bool{
	"first_name": true, "last_name": true, "work_phone": true, "mobile_phone": true,
	"email_primary": true, "street_address": true, "city": true, "state": true,
	"zip_code": true, "country": true, "organization_name": true, "job_title": true,
	"birthdate": true, "website_url": true, "photo_url": true, "comments_from_lead": true,
	"notes": true,
}

// Columns stored NOT NULL; every other allow-listed column is nullable.
var notNullFields = map[string]bool{
	"first_name": true, "last_name": true, "email_primary": true,
}

// Columns that may not be cleared. A contact's email may be blank.
var (
	leadRequiredFields    = map[string]bool{"first_name": true, "last_name": true, "email_primary": true}
	contactRequiredFields = map[string]bool{"first_name": true, "last_name": true}
)

var requiredMessages = map[string]string{
	"first_name":    "First name is required",
	"last_name":     "Last name is required",
	"email_primary": "Email is required",
}

// filterUpdate keeps allow-listed keys and converts values to what the
// repository expects: string for NOT NULL columns, *string or nil otherwise.
// Unknown keys are ignored. A required key may not be null or blank; other
// NOT NULL columns store null as "".
func filterUpdate(input map[string]interface{}, allowed, required map[string]bool) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	for key, raw := range input {
		if !allowed[key] {
			continue
		}

		var value *string
		switch v := raw.(type) {
		case nil:
		case string:
			trimmed := strings.TrimSpace(v)
			value = &trimmed
		default:
			return nil, invalid(key, key+" must be a string")
		}

		if notNullFields[key] {
			if value == nil {
				empty := ""
				value = &empty
			}
			if required[key] && *value == "" {
				return nil, invalid(key, requiredMessages[key])
			}
			fields[key] = *value
			continue
		}
		if value == nil || *value == "" {
			fields[key] = nil
		} else {
			fields[key] = value
		}
	}
	if len(fields) == 0 {
		return nil, ErrNoUpdatableFields
	}
	return fields, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func fullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

func validEmail(address string) bool {
	return validate.Var(address, "required,email") == nil
}

// applyNames sets full_name when either name is being changed.
func applyNames(fields map[string]interface{}, currentFirst, currentLast string) {
	first, firstSet := fields["first_name"].(string)
	last, lastSet := fields["last_name"].(string)
	if !firstSet && !lastSet {
		return
	}
	if !firstSet {
		first = currentFirst
	}
	if !lastSet {
		last = currentLast
	}
	fields["full_name"] = fullName(first, last)
}
