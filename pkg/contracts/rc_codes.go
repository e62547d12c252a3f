package contracts

// RC classification for the contract backend.

// Fatal - authoritative rejection, surface to the customer
var FatalRCs = map[string]bool{
	"40": true, // Payload error
	"41": true, // Invalid signature
	"44": true, // Captcha invalid
	"45": true, // Captcha expired
	"47": true, // Duplicate reference
	"51": true, // Customer blocked
	"54": true, // Trim no longer orderable
	"55": true, // Offer no longer available
	"60": true, // Dealer not accepting reservations
}

// Pending - contract accepted, confirmation follows asynchronously
var PendingRCs = map[string]bool{
	"03": true, // Queued at backend
	"99": true, // Backend router issue, resolved out of band
}

// Helper functions
func IsSuccess(rc string) bool {
	return rc == "00"
}

func IsFatal(rc string) bool {
	return FatalRCs[rc]
}

func IsPending(rc string) bool {
	return PendingRCs[rc]
}
