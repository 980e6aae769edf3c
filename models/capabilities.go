package models

// Capabilities is what the tenant UI may offer for a given status.
type Capabilities struct {
	EditProfile       bool `json:"edit_profile"`
	UploadDocuments   bool `json:"upload_documents"`
	SubmitForApproval bool `json:"submit_for_approval"`
	ViewPayments      bool `json:"view_payments"`
	VerifyMobile      bool `json:"verify_mobile"`
	EditRoom          bool `json:"edit_room"`
}

func CapabilitiesFor(status Status) Capabilities {
	switch status {
	case StatusPending:
		return Capabilities{EditProfile: true, UploadDocuments: true, SubmitForApproval: true, VerifyMobile: true}
	case StatusAwaitingApproval:
		return Capabilities{EditProfile: true, VerifyMobile: true, EditRoom: true}
	case StatusActive:
		return Capabilities{EditProfile: true, ViewPayments: true, VerifyMobile: true, EditRoom: true}
	case StatusDeparted:
		return Capabilities{ViewPayments: true}
	}
	return Capabilities{}
}
