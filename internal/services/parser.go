package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rcoelho-dev/olx-radar/internal/clients/olx"
	"github.com/rcoelho-dev/olx-radar/internal/entities"
)

// Classified-ad subjects routinely open with a sales word that carries no
// model information ("Vendo Honda Civic 2015...").
var subjectNoiseWords = map[string]struct{}{
	"vendo":        {},
	"troco":        {},
	"compro":       {},
	"alugo":        {},
	"financio":     {},
	"repasso":      {},
	"barato":       {},
	"urgente":      {},
	"oportunidade": {},
	"novo":         {},
	"lindo":        {},
	"top":          {},
}

// Tokens that describe trim/transmission rather than the model itself.
var subjectSpecTokens = map[string]struct{}{
	"4p":     {},
	"2p":     {},
	"flex":   {},
	"auto":   {},
	"manual": {},
	"aut":    {},
	"mt":     {},
	"at":     {},
}

var (
	yearTokenPattern    = regexp.MustCompile(`^(19|20)\d{2}$`)
	engineSizePattern   = regexp.MustCompile(`^\d\.\d$`)
	nonDigitsPattern    = regexp.MustCompile(`\D+`)
	modelLabelMarkers   = []string{"modelo", "model"}
	mileageLabelMarkers = []string{"quilômet", "mileage", "km"}
)

// ParseListing normalizes a raw ad into the canonical listing record. It is
// total for any ad that passed the fetcher's validity filter. origin is the
// site origin used to absolutize relative ad URLs.
func ParseListing(ad olx.Ad, searchID int, origin string, collectedAt time.Time) entities.Listing {

	adURL := ad.URL
	if strings.HasPrefix(adURL, "/") {
		adURL = origin + adURL
	}

	municipality := ad.Municipality
	if municipality == "" {
		municipality = ad.Location
	}

	return entities.Listing{
		ListingID:     strconv.FormatInt(ad.ListID, 10),
		SearchID:      searchID,
		Subject:       ad.Subject,
		Price:         ad.Price,
		Municipality:  municipality,
		Neighbourhood: ad.Neighbourhood,
		AdURL:         adURL,
		Model:         extractModel(ad),
		MileageKm:     extractMileage(ad.Properties),
		CollectedAt:   collectedAt,
	}
}

// extractModel prefers the ad's structured property list; the subject-line
// heuristic is the fallback for ads without one.
func extractModel(ad olx.Ad) *string {
	for _, prop := range ad.Properties {
		label := strings.ToLower(prop.Label)
		for _, marker := range modelLabelMarkers {
			if strings.Contains(label, marker) && prop.Value != "" {
				value := prop.Value
				return &value
			}
		}
	}
	return modelFromSubject(ad.Subject)
}

func modelFromSubject(subject string) *string {

	tokens := strings.Fields(subject)
	if len(tokens) > 0 {
		if _, noise := subjectNoiseWords[strings.ToLower(tokens[0])]; noise {
			tokens = tokens[1:]
		}
	}

	kept := tokens[:0]
	for _, token := range tokens {
		if yearTokenPattern.MatchString(token) || engineSizePattern.MatchString(token) {
			continue
		}
		kept = append(kept, token)
	}

	if len(kept) == 0 {
		return nil
	}

	model := kept[0]
	if len(kept) >= 2 {
		if _, spec := subjectSpecTokens[strings.ToLower(kept[1])]; !spec {
			model = kept[0] + " " + kept[1]
		}
	}
	return &model
}

func extractMileage(properties []olx.AdProperty) *int {
	for _, prop := range properties {
		label := strings.ToLower(prop.Label)
		for _, marker := range mileageLabelMarkers {
			if !strings.Contains(label, marker) {
				continue
			}
			digits := nonDigitsPattern.ReplaceAllString(prop.Value, "")
			if digits == "" {
				continue
			}
			km, err := strconv.Atoi(digits)
			if err != nil {
				continue
			}
			return &km
		}
	}
	return nil
}
