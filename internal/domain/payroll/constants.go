package payroll

const (
	StatusDraft    = "draft"
	StatusApproved = "approved"
	StatusPaid     = "paid"
)

// MaxDocumentBytes caps uploaded payroll documents.
const MaxDocumentBytes = 10 << 20

const documentContentType = "application/pdf"
