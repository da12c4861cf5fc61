// Package vcard renders contacts as vCard 3.0 documents.
package vcard

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	govcard "github.com/emersion/go-vcard"
)

const (
	prodID = "-//ShareMyCard//Contacts Export//EN"

	// Content lines longer than this many octets are folded.
	maxLineOctets = 75
)

// Card is the flat field set written to a vCard. Empty fields are omitted.
type Card struct {
	FirstName    string
	LastName     string
	Organization string
	Title        string
	Email        string
	WorkPhone    string
	MobilePhone  string
	Street       string
	City         string
	State        string
	ZipCode      string
	Country      string
	Website      string
	Birthdate    string
	Notes        string
	Comments     string
}

var (
	newlines     = strings.NewReplacer("\r\n", "\n", "\r", "")
	birthdateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

func clean(v string) string {
	return strings.TrimSpace(newlines.Replace(v))
}

func (c Card) fullName() string {
	return strings.TrimSpace(clean(c.FirstName) + " " + clean(c.LastName))
}

func typed(types ...string) *govcard.Field {
	return &govcard.Field{Params: govcard.Params{govcard.ParamType: types}}
}

// build maps the flat card onto vCard properties.
func (c Card) build() govcard.Card {
	card := make(govcard.Card)
	card.SetValue(govcard.FieldVersion, "3.0")
	card.SetValue(govcard.FieldProductID, prodID)
	card.SetName(&govcard.Name{
		FamilyName: clean(c.LastName),
		GivenName:  clean(c.FirstName),
	})

	fn := c.fullName()
	if fn == "" {
		fn = clean(c.Email)
	}
	if fn == "" {
		fn = "Contact"
	}
	card.SetValue(govcard.FieldFormattedName, fn)

	add := func(key, value string, field *govcard.Field) {
		v := clean(value)
		if v == "" {
			return
		}
		if field == nil {
			field = &govcard.Field{}
		}
		field.Value = v
		card.Add(key, field)
	}
	add(govcard.FieldOrganization, c.Organization, nil)
	add(govcard.FieldTitle, c.Title, nil)
	add(govcard.FieldEmail, c.Email, typed("INTERNET", "WORK"))
	add(govcard.FieldTelephone, c.WorkPhone, typed("WORK", "VOICE"))
	add(govcard.FieldTelephone, c.MobilePhone, typed("CELL", "VOICE"))

	addr := &govcard.Address{
		Field:         typed("WORK"),
		StreetAddress: clean(c.Street),
		Locality:      clean(c.City),
		Region:        clean(c.State),
		PostalCode:    clean(c.ZipCode),
		Country:       clean(c.Country),
	}
	if addr.StreetAddress+addr.Locality+addr.Region+addr.PostalCode+addr.Country != "" {
		card.AddAddress(addr)
	}

	add(govcard.FieldURL, c.Website, nil)

	if bday := clean(c.Birthdate); birthdateRe.MatchString(bday) {
		card.SetValue(govcard.FieldBirthday, bday)
	}

	var notes []string
	if v := clean(c.Notes); v != "" {
		notes = append(notes, v)
	}
	if v := clean(c.Comments); v != "" {
		notes = append(notes, "Comments: "+v)
	}
	if len(notes) > 0 {
		card.SetValue(govcard.FieldNote, strings.Join(notes, "\n\n"))
	}
	return card
}

// Encode returns the card as CRLF-terminated vCard 3.0 text.
func Encode(c Card) ([]byte, error) {
	var buf bytes.Buffer
	if err := govcard.NewEncoder(&buf).Encode(c.build()); err != nil {
		return nil, fmt.Errorf("encode vcard: %w", err)
	}
	return fold(buf.Bytes()), nil
}

// fold splits content lines longer than maxLineOctets into CRLF plus space
// continuations without breaking a UTF-8 sequence.
func fold(doc []byte) []byte {
	lines := strings.Split(strings.TrimSuffix(string(doc), "\r\n"), "\r\n")
	var out strings.Builder
	out.Grow(len(doc) + len(doc)/maxLineOctets*3)
	for _, line := range lines {
		limit := maxLineOctets
		for len(line) > limit {
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			out.WriteString(line[:cut])
			out.WriteString("\r\n ")
			line = line[cut:]
			// The leading space counts toward the next line.
			limit = maxLineOctets - 1
		}
		out.WriteString(line)
		out.WriteString("\r\n")
	}
	return []byte(out.String())
}

// FileName builds a download name from the contact's full name, falling back
// to contact-<id>.
func FileName(fullName string, id int64) string {
	base := strings.TrimSpace(fullName)
	if base == "" {
		base = fmt.Sprintf("contact-%d", id)
	}
	base = strings.Trim(unsafeNameRe.ReplaceAllString(base, "-"), "-")
	if base == "" {
		base = fmt.Sprintf("contact-%d", id)
	}
	return base + ".vcf"
}
