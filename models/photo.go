package models

import "time"

type DocumentType string

const (
	DocProfile      DocumentType = "profile"
	DocAadhaarFront DocumentType = "aadhaarFront"
	DocAadhaarBack  DocumentType = "aadhaarBack"
	DocAlternateID  DocumentType = "alternateId"
)

var DocumentTypes = []DocumentType{DocProfile, DocAadhaarFront, DocAadhaarBack, DocAlternateID}

func ParseDocumentType(s string) (DocumentType, bool) {
	for _, d := range DocumentTypes {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Column is the photo_ids column holding this document's URL.
func (d DocumentType) Column() string {
	switch d {
	case DocProfile:
		return "profile_url"
	case DocAadhaarFront:
		return "aadhaar_front_url"
	case DocAadhaarBack:
		return "aadhaar_back_url"
	case DocAlternateID:
		return "other_id_url"
	}
	return ""
}

// IsIdentity is true for the identity proofs, false for the profile photo.
func (d DocumentType) IsIdentity() bool {
	return d != DocProfile
}

// PhotoIDs holds at most one URL per document type for a tenant.
type PhotoIDs struct {
	UID             string    `json:"uid" gorm:"primaryKey;type:varchar(36)"`
	ProfileURL      string    `json:"profile_url"`
	AadhaarFrontURL string    `json:"aadhaar_front_url"`
	AadhaarBackURL  string    `json:"aadhaar_back_url"`
	OtherIDURL      string    `json:"other_id_url" gorm:"column:other_id_url"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (PhotoIDs) TableName() string {
	return "photo_ids"
}

func (p *PhotoIDs) Set(doc DocumentType, url string) {
	switch doc {
	case DocProfile:
		p.ProfileURL = url
	case DocAadhaarFront:
		p.AadhaarFrontURL = url
	case DocAadhaarBack:
		p.AadhaarBackURL = url
	case DocAlternateID:
		p.OtherIDURL = url
	}
}

func (p PhotoIDs) HasAadhaar() bool {
	return p.AadhaarFrontURL != "" && p.AadhaarBackURL != ""
}
