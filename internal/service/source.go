package service

import (
	"strings"

	"github.com/sharemycard/sharemycard-backend/internal/types"
)

// Source identifies where a lead was captured: exactly one business card
// or one custom QR code.
type Source struct {
	Kind string
	ID   string
}

// ParseSource builds a Source from the two optional form fields.
func ParseSource(businessCardID, qrID string) (Source, error) {
	businessCardID = strings.TrimSpace(businessCardID)
	qrID = strings.TrimSpace(qrID)

	switch {
	case businessCardID != "" && qrID != "":
		return Source{}, invalid("source", "Provide either business_card_id or qr_id, not both")
	case businessCardID != "":
		return Source{Kind: types.SourceBusinessCard, ID: businessCardID}, nil
	case qrID != "":
		return Source{Kind: types.SourceCustomQRCode, ID: qrID}, nil
	default:
		return Source{}, invalid("source", "Business card ID or QR ID is required")
	}
}

func (s Source) IsCard() bool { return s.Kind == types.SourceBusinessCard }

// NotFoundMessage is the client-facing text when the source cannot be resolved.
func (s Source) NotFoundMessage() string {
	if s.IsCard() {
		return "Business card not found"
	}
	return "QR code not found"
}
