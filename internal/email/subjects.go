package email

const (
	subjectOfferFmt         = "Offer %s from %s"
	subjectOfferAcceptedFmt = "Thank you for accepting offer %s"
	subjectOfferExpiredFmt  = "Offer %s has expired"
)
