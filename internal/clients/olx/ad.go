package olx

// AdProperty is one entry of an ad's structured property list, e.g.
// {name: "vehicle_model", label: "Modelo", value: "Civic"}.
type AdProperty struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Ad is a raw result item as returned by the data endpoint. It only lives
// within one fetch cycle; the parser turns it into a canonical listing.
type Ad struct {
	ListID        int64        `json:"listId"`
	Subject       string       `json:"subject"`
	Price         string       `json:"price"`
	Location      string       `json:"location"`
	Municipality  string       `json:"municipality"`
	Neighbourhood string       `json:"neighbourhood"`
	URL           string       `json:"url"`
	Thumbnail     string       `json:"thumbnail"`
	Date          int64        `json:"date"`
	Properties    []AdProperty `json:"properties"`
}

// IsValid reports whether the ad carries the fields every downstream stage
// relies on. Items failing this check are dropped at the fetch layer.
func (a Ad) IsValid() bool {
	return a.ListID != 0 && a.URL != ""
}
