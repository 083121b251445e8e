package domain

// Station is an entry of the station directory.
type Station struct {
	Name   string `json:"name"`
	Code   string `json:"crs"`
	County string `json:"county,omitempty"`
}

// SingleQuery asks for the cheapest single fare. Date is 2006-01-02, Time is 15:04.
type SingleQuery struct {
	From string
	To   string
	Date string
	Time string
}

// ReturnQuery asks for the cheapest return fare.
type ReturnQuery struct {
	From    string
	To      string
	OutDate string
	OutTime string
	RetDate string
	RetTime string
}

// SingleQuote is the answer to a SingleQuery.
type SingleQuote struct {
	Price   string `json:"price"`
	Departs string `json:"departs"`
	URL     string `json:"url"`
}

// ReturnQuote is the answer to a ReturnQuery.
type ReturnQuote struct {
	Price         string `json:"price"`
	OutDeparts    string `json:"out_departs"`
	ReturnDeparts string `json:"return_departs"`
	URL           string `json:"url"`
}
