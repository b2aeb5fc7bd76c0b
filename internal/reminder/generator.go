package reminder

import (
	"time"

	"github.com/alexarts74/payetavie/internal/model"
)

type cadence int

const (
	// annual recurs every year on Month/Day.
	annual cadence = iota
	// quarterly recurs on the 15th of March, June, September and December.
	quarterly
	// monthly recurs on the 5th of every month.
	monthly
)

const (
	quarterlyDay = 15
	monthlyDay   = 5
)

var quarterMonths = []time.Month{time.March, time.June, time.September, time.December}

type definition struct {
	id          string
	title       string
	description string
	cadence     cadence
	month       time.Month
	day         int
}

var catalog = map[string][]definition{
	"impots": {
		{
			id:          "impots-declaration-start",
			title:       "Début de la période de déclaration",
			description: "La déclaration des impôts est ouverte. Rassemblez vos justificatifs.",
			month:       time.April,
			day:         1,
		},
		{
			id:          "impots-paper-deadline",
			title:       "Date limite déclaration papier",
			description: "Dernier jour pour envoyer votre déclaration par courrier (31 mai).",
			month:       time.May,
			day:         31,
		},
		{
			id:          "impots-online-deadline",
			title:       "Date limite déclaration en ligne",
			description: "Dernier jour pour déclarer vos impôts en ligne (8 juin).",
			month:       time.June,
			day:         8,
		},
		{
			id:          "impots-avis-reception",
			title:       "Réception de l'avis d'imposition",
			description: "Vérifiez votre avis d'imposition reçu en août/septembre.",
			month:       time.September,
			day:         1,
		},
		{
			id:          "impots-prelevement-source",
			title:       "Vérifier le taux de prélèvement à la source",
			description: "Vérifiez et ajustez si nécessaire votre taux de prélèvement à la source pour l'année suivante.",
			month:       time.December,
			day:         1,
		},
	},
	"urssaf": {
		{
			id:          "urssaf-declaration-trimestrielle",
			title:       "Déclaration trimestrielle URSSAF",
			description: "Déclarez votre chiffre d'affaires du trimestre et payez vos cotisations.",
			cadence:     quarterly,
		},
		{
			id:          "urssaf-cfe",
			title:       "Paiement de la CFE",
			description: "Date limite de paiement de la cotisation foncière des entreprises.",
			month:       time.December,
			day:         15,
		},
	},
	"fiches-de-paie": {
		{
			id:          "fiches-de-paie-verification-mensuelle",
			title:       "Vérifier votre fiche de paie",
			description: "Contrôlez salaire, heures et cotisations de votre dernière fiche de paie.",
			cadence:     monthly,
		},
		{
			id:          "fiches-de-paie-archivage",
			title:       "Archiver les fiches de paie de l'année",
			description: "Sauvegardez vos fiches de paie : elles sont à conserver sans limite de durée.",
			month:       time.January,
			day:         31,
		},
	},
	"caf": {
		{
			id:          "caf-declaration-ressources",
			title:       "Déclaration annuelle de ressources CAF",
			description: "Vérifiez que vos ressources de l'année passée sont à jour sur votre espace CAF.",
			month:       time.January,
			day:         15,
		},
	},
	"logement": {
		{
			id:          "logement-taxe-fonciere",
			title:       "Paiement de la taxe foncière",
			description: "Date limite de paiement de la taxe foncière.",
			month:       time.October,
			day:         15,
		},
		{
			id:          "logement-taxe-habitation-secondaire",
			title:       "Taxe d'habitation résidence secondaire",
			description: "Date limite de paiement de la taxe d'habitation sur les résidences secondaires.",
			month:       time.December,
			day:         15,
		},
	},
	"assurances": {
		{
			id:          "assurances-revision-contrats",
			title:       "Revoir vos contrats d'assurance",
			description: "Comparez vos contrats auto et habitation avant leur échéance annuelle.",
			month:       time.January,
			day:         15,
		},
	},
}

// Generate returns the predefined candidates of topic with their next occurrence
// relative to now. Dates are compared by calendar day in now's location.
// Unknown topics yield no candidates.
func Generate(topic string, now time.Time) []model.Candidate {
	defs := catalog[topic]
	if len(defs) == 0 {
		return []model.Candidate{}
	}

	today := model.DateOf(now)
	out := make([]model.Candidate, 0, len(defs))
	for _, def := range defs {
		c := model.Candidate{
			ID:          def.id,
			Title:       def.title,
			Description: def.description,
		}
		switch def.cadence {
		case quarterly:
			c.DueDate = nextQuarterly(today)
		case monthly:
			c.DueDate = nextMonthly(today)
		default:
			c.DueDate = nextAnnual(today, def.month, def.day)
			c.Month, c.Day = def.month, def.day
		}
		out = append(out, c)
	}
	return out
}

// nextAnnual keeps today's year unless the date has already passed.
func nextAnnual(today model.Date, month time.Month, day int) model.Date {
	d := model.NewDate(today.Year, month, day)
	if d.Before(today) {
		d = model.NewDate(today.Year+1, month, day)
	}
	return d
}

// nextQuarterly returns the first quarter boundary strictly after today.
func nextQuarterly(today model.Date) model.Date {
	for _, m := range quarterMonths {
		d := model.NewDate(today.Year, m, quarterlyDay)
		if d.After(today) {
			return d
		}
	}
	return model.NewDate(today.Year+1, quarterMonths[0], quarterlyDay)
}

func nextMonthly(today model.Date) model.Date {
	d := model.NewDate(today.Year, today.Month, monthlyDay)
	if d.Before(today) {
		d = model.NewDate(today.Year, today.Month+1, monthlyDay)
	}
	return d
}
