package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Property is a tokenized real-estate asset. Address is the ERC-20 contract of its shares.
type Property struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Title              string          `gorm:"size:200;not null" json:"title"`
	Symbol             string          `gorm:"size:50;uniqueIndex;not null" json:"symbol"`
	Address            string          `gorm:"size:64;uniqueIndex;not null" json:"address"`
	Location           string          `gorm:"size:200;not null" json:"location"`
	Country            string          `gorm:"size:100;not null" json:"country"`
	ValuationUSD       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"valuationUSD"`
	TotalSupply        decimal.Decimal `gorm:"type:decimal(65,0);not null" json:"totalSupply"` // wei
	MetadataURI        string          `gorm:"size:255" json:"metadataURI"`
	Images             string          `gorm:"type:text" json:"-"` // JSON array of URLs
	Type               string          `gorm:"size:50;not null;default:Residential" json:"type"`
	Yield              decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"yield"` // annual %
	GoldenVisaEligible bool            `gorm:"default:false" json:"goldenVisaEligible"`
	SellerAddress      string          `gorm:"size:64" json:"sellerAddress"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// ImageList decodes Images, returning an empty list when it is not a JSON array.
func (p Property) ImageList() []string {
	var images []string
	if err := json.Unmarshal([]byte(p.Images), &images); err != nil || images == nil {
		return []string{}
	}
	return images
}

// SetImages stores the list as a JSON array.
func (p *Property) SetImages(images []string) {
	if images == nil {
		images = []string{}
	}
	b, _ := json.Marshal(images)
	p.Images = string(b)
}

// MarshalJSON exposes Images as an array instead of the stored string.
func (p Property) MarshalJSON() ([]byte, error) {
	type plain Property
	return json.Marshal(struct {
		plain
		Images []string `json:"images"`
	}{plain: plain(p), Images: p.ImageList()})
}
