package dao

// Collection names.
const (
	CollectionAccount          = "account"
	CollectionAccountToken     = "account_token"
	CollectionApplication      = "application"
	CollectionInterviewSlot    = "interview_slot"
	CollectionRateLimitCounter = "rate_limit_counter"
	CollectionContactMessage   = "contact_message"
	CollectionSubscriber       = "subscriber"
	CollectionNewsletterIssue  = "newsletter_issue"
	CollectionPageContent      = "page_content"
	CollectionUploadFile       = "upload_file"
)
