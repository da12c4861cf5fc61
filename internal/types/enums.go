package types

// Lead Status values
const (
	LeadNew       = "new"
	LeadConverted = "converted"
)

// Contact source values
const (
	ContactSourceManual    = "manual"
	ContactSourceConverted = "converted"
	ContactSourceQRScan    = "qr_scan"
)

// Lead source kinds
const (
	SourceBusinessCard = "business_card"
	SourceCustomQRCode = "custom_qr_code"
)

// Custom QR code status values
const (
	QRStatusActive   = "active"
	QRStatusInactive = "inactive"
)

// Custom QR code type values
const (
	QRTypeDefault  = "default"
	QRTypeURL      = "url"
	QRTypeSocial   = "social"
	QRTypeText     = "text"
	QRTypeWifi     = "wifi"
	QRTypeAppStore = "appstore"
)

// ConvertedMarker is appended to a lead's notes on conversion and removed
// again when the resulting contact is deleted.
const ConvertedMarker = " [CONVERTED TO CONTACT]"

var ValidLeadStatuses = []string{LeadNew, LeadConverted}

var ValidQRTypes = []string{
	QRTypeDefault, QRTypeURL, QRTypeSocial,
	QRTypeText, QRTypeWifi, QRTypeAppStore,
}

// Helper functions for validation
func IsValidLeadStatus(status string) bool {
	for _, s := range ValidLeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidQRType(qrType string) bool {
	for _, t := range ValidQRTypes {
		if t == qrType {
			return true
		}
	}
	return false
}
