package services

import (
	"testing"
	"time"

	"github.com/rcoelho-dev/olx-radar/internal/clients/olx"
	"github.com/stretchr/testify/assert"
)

func Test_ParseListing_ShouldNormalizeAd(t *testing.T) {

	collectedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ad := olx.Ad{
		ListID:        1264001122,
		Subject:       "Vendo Honda Civic 2015 4p automático",
		Price:         "R$ 64.900",
		Municipality:  "Curitiba",
		Neighbourhood: "Portão",
		URL:           "/d/anuncio/honda-civic-1264001122",
		Properties: []olx.AdProperty{
			{Name: "vehicle_model", Label: "Modelo", Value: "Civic"},
			{Name: "mileage", Label: "Quilômetros rodados", Value: "78.000"},
		},
	}

	listing := ParseListing(ad, 7, "https://www.olx.com.br", collectedAt)

	assert.Equal(t, "1264001122", listing.ListingID)
	assert.Equal(t, 7, listing.SearchID)
	assert.Equal(t, "R$ 64.900", listing.Price)
	assert.Equal(t, "https://www.olx.com.br/d/anuncio/honda-civic-1264001122", listing.AdURL)
	if assert.NotNil(t, listing.Model) {
		assert.Equal(t, "Civic", *listing.Model)
	}
	if assert.NotNil(t, listing.MileageKm) {
		assert.Equal(t, 78000, *listing.MileageKm)
	}
	assert.Equal(t, collectedAt, listing.CollectedAt)
}

func Test_ParseListing_ShouldKeepAbsoluteAdURL(t *testing.T) {

	ad := olx.Ad{ListID: 1, Subject: "Fiat Uno", URL: "https://www.olx.com.br/d/anuncio/fiat-uno-1"}
	listing := ParseListing(ad, 1, "https://www.olx.com.br", time.Now())
	assert.Equal(t, "https://www.olx.com.br/d/anuncio/fiat-uno-1", listing.AdURL)
}

func Test_ModelHeuristic_SubjectLine(t *testing.T) {

	cases := []struct {
		subject string
		model   *string
	}{
		{"Vendo Honda Civic 2015 4p automático", ptr("Honda Civic")},
		{"Fiat Uno 1.0 flex", ptr("Fiat Uno")},
		{"Troco Gol 4p completo", ptr("Gol")},
		{"URGENTE Corolla XEI 2020", ptr("Corolla XEI")},
		{"2015", nil},
		{"Vendo 2018 1.6", nil},
		{"Palio", ptr("Palio")},
	}

	for _, c := range cases {
		ad := olx.Ad{ListID: 1, Subject: c.subject, URL: "/d/x"}
		listing := ParseListing(ad, 1, "https://www.olx.com.br", time.Now())
		if c.model == nil {
			assert.Nil(t, listing.Model, "subject %q", c.subject)
		} else if assert.NotNil(t, listing.Model, "subject %q", c.subject) {
			assert.Equal(t, *c.model, *listing.Model, "subject %q", c.subject)
		}
	}
}

func Test_ModelHeuristic_PropertyLabelWins(t *testing.T) {

	ad := olx.Ad{
		ListID:  1,
		Subject: "Vendo carro lindo",
		URL:     "/d/x",
		Properties: []olx.AdProperty{
			{Name: "vehicle_model", Label: "Model", Value: "Onix LT"},
		},
	}
	listing := ParseListing(ad, 1, "https://www.olx.com.br", time.Now())
	if assert.NotNil(t, listing.Model) {
		assert.Equal(t, "Onix LT", *listing.Model)
	}
}

func Test_MileageExtraction_AbsentWithoutDigits(t *testing.T) {

	ad := olx.Ad{
		ListID:  1,
		Subject: "Gol",
		URL:     "/d/x",
		Properties: []olx.AdProperty{
			{Name: "mileage", Label: "Quilômetros rodados", Value: "não informado"},
		},
	}
	listing := ParseListing(ad, 1, "https://www.olx.com.br", time.Now())
	assert.Nil(t, listing.MileageKm)
}

func ptr(s string) *string {
	return &s
}
