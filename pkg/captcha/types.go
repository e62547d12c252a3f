package captcha

// Challenge is an issued CAPTCHA challenge. ImageRef points at the
// rendered challenge image; ChallengeID must be echoed back on verify.
type Challenge struct {
	ChallengeID string `json:"challengeId"`
	ImageRef    string `json:"imageRef"`
}

// VerifyResult is the provider's answer to a verification attempt. Token is
// non-empty only when the code was accepted; it is forwarded to the
// contract backend as proof of verification.
type VerifyResult struct {
	Verified bool   `json:"verified"`
	Token    string `json:"token,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type challengeResponse struct {
	Status string    `json:"status"`
	Data   Challenge `json:"data"`
}

type verifyRequest struct {
	ChallengeID string `json:"challengeId"`
	Code        string `json:"code"`
}

type verifyResponse struct {
	Status string       `json:"status"`
	Data   VerifyResult `json:"data"`
}
