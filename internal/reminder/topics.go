package reminder

// Topic is a life-administration domain reminders are attached to.
type Topic struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

var topics = []Topic{
	{Slug: "impots", Title: "Impôts"},
	{Slug: "urssaf", Title: "URSSAF"},
	{Slug: "mutuelle", Title: "Mutuelle"},
	{Slug: "fiches-de-paie", Title: "Fiches de paie"},
	{Slug: "caf", Title: "CAF"},
	{Slug: "logement", Title: "Logement"},
	{Slug: "banque", Title: "Banque"},
	{Slug: "assurances", Title: "Assurances"},
}

// Topics returns the topic catalog in display order.
func Topics() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}

func LookupTopic(slug string) (Topic, bool) {
	for _, t := range topics {
		if t.Slug == slug {
			return t, true
		}
	}
	return Topic{}, false
}
