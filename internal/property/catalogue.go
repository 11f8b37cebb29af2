package property

import (
	"errors"
	"fmt"
	"log"

	"aether-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const unsplash = "?auto=format&fit=crop&w=800&q=80"

type seedProperty struct {
	Title, Symbol, Address, Location, Country string
	ValuationUSD                              int64
	SupplyTokens                              int64
	MetadataURI                               string
	Image                                     string
	Type                                      string
	Yield                                     string
	GoldenVisa                                bool
	Seller                                    string
}

// Catalogue is the built-in demo listing.
var Catalogue = []seedProperty{
	{
		Title: "Adriatic Coastal Suite", Symbol: "ACS", Address: "0x7C4586B9ABD8cfF7A2387aa395b827c22DDf02b2",
		Location: "Budva, Montenegro", Country: "Montenegro",
		ValuationUSD: 750000, SupplyTokens: 7500, MetadataURI: "ipfs://QmBudvaSuite",
		Image: "https://images.unsplash.com/photo-1515263487990-61b07816b324",
		Type:  "Residential", Yield: "5.8", Seller: "0x28e514ce1a0554b83f6d5eeee11b07d0e294d9f9",
	},
	{
		Title: "Modern Villa in Cascais", Symbol: "MVC", Address: "0x1692Ec0372a1c95798411b7B6D6B62eEf8230592",
		Location: "Cascais, Portugal", Country: "Portugal",
		ValuationUSD: 1200000, SupplyTokens: 10000, MetadataURI: "ipfs://QmCascaisVilla",
		Image: "https://images.unsplash.com/photo-1613490493576-7fde63acd811",
		Type:  "Residential", Yield: "6.5", GoldenVisa: true,
	},
	{
		Title: "Acropolis View Apartment", Symbol: "AVA", Address: "0x58F3359F31d132eF628A1643811Fc778F4b9c789",
		Location: "Athens, Greece", Country: "Greece",
		ValuationUSD: 450000, SupplyTokens: 5000, MetadataURI: "ipfs://QmAthensApt",
		Image: "https://images.unsplash.com/photo-1560448204-e02f11c3d0e2",
		Type:  "Residential", Yield: "7.2", GoldenVisa: true,
	},
}

func (s seedProperty) model() models.Property {
	p := models.Property{
		Title:              s.Title,
		Symbol:             s.Symbol,
		Address:            s.Address,
		Location:           s.Location,
		Country:            s.Country,
		ValuationUSD:       decimal.NewFromInt(s.ValuationUSD),
		TotalSupply:        decimal.NewFromInt(s.SupplyTokens).Shift(18),
		MetadataURI:        s.MetadataURI,
		Type:               s.Type,
		Yield:              decimal.RequireFromString(s.Yield),
		GoldenVisaEligible: s.GoldenVisa,
		SellerAddress:      s.Seller,
	}
	p.SetImages([]string{s.Image + unsplash})
	return p
}

// Seed find-or-creates every catalogue entry by symbol and returns how many were new.
func Seed(db *gorm.DB) (int, error) {
	created := 0
	for _, s := range Catalogue {
		var existing models.Property
		err := db.Where("symbol = ?", s.Symbol).First(&existing).Error
		if err == nil {
			log.Printf("Property %s: already exists", s.Symbol)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("look up %s: %w", s.Symbol, err)
		}

		p := s.model()
		if err := db.Create(&p).Error; err != nil {
			return created, fmt.Errorf("seed %s: %w", s.Symbol, err)
		}
		log.Printf("Property %s: created", s.Symbol)
		created++
	}
	return created, nil
}
