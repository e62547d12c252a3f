package contracts

// CreateContractRequest is the contract-creation payload. DealerID is empty
// for installment reservations; OfferID is zero for cash reservations.
type CreateContractRequest struct {
	TrimID       int    `json:"trimId"`
	ColorID      int    `json:"colorId"`
	DealerID     string `json:"dealerId,omitempty"`
	OfferID      int    `json:"offerId,omitempty"`
	CaptchaToken string `json:"captchaToken"`
	SessionKey   string `json:"sessionKey"`
	ReferenceID  string `json:"referenceId"`
}

// ContractResponse is the backend's answer to a contract call.
type ContractResponse struct {
	RC          string `json:"rc"`
	Message     string `json:"message"`
	ContractRef string `json:"contractRef,omitempty"`
}

// StatusResponse reports the current state of a contract by reference id.
type StatusResponse struct {
	RC          string `json:"rc"`
	Message     string `json:"message"`
	ContractRef string `json:"contractRef,omitempty"`
	Status      string `json:"status,omitempty"`
}
