package kanban

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
)

type ProfessionalTag struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

type Card struct {
	CaseID        uuid.UUID         `json:"caseId"`
	PatientName   string            `json:"patientName"`
	Status        cases.Status      `json:"status"`
	Professionals []ProfessionalTag `json:"professionals"`
	// Pending counts active engagements without a scheduled session.
	Pending       int       `json:"pending"`
	LastUpdate    time.Time `json:"lastUpdate"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

type Column struct {
	Status cases.Status `json:"status"`
	Title  string       `json:"title"`
	Count  int          `json:"count"`
	Cards  []Card       `json:"cards"`
}

type Board struct {
	Columns     []Column  `json:"columns"`
	Total       int       `json:"total"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// ReadModel carries the display data a board needs besides the cases themselves.
// It is rebuilt for every projection.
type ReadModel struct {
	Professionals map[uuid.UUID]ProfessionalTag
}

func NewReadModel(profs []professional.Professional) ReadModel {
	rm := ReadModel{Professionals: make(map[uuid.UUID]ProfessionalTag, len(profs))}
	for _, p := range profs {
		color := p.Color
		if color == "" {
			color = professional.DefaultColor(p.Username)
		}
		rm.Professionals[p.ID] = ProfessionalTag{ID: p.ID, Name: p.FullName, Color: color}
	}
	return rm
}

func (rm ReadModel) tag(id uuid.UUID) ProfessionalTag {
	if t, ok := rm.Professionals[id]; ok {
		return t
	}
	return ProfessionalTag{ID: id, Name: id.String(), Color: professional.DefaultColor(id.String())}
}

// Build groups cases into one column per status in journey order. It is a pure
// function of its inputs; calling it twice on the same snapshot yields the same board.
func Build(recs []cases.CaseRecord, rm ReadModel, at time.Time) Board {
	index := make(map[cases.Status]int, len(cases.AllStatuses))
	board := Board{Columns: make([]Column, 0, len(cases.AllStatuses)), GeneratedAt: at}
	for i, s := range cases.AllStatuses {
		index[s] = i
		board.Columns = append(board.Columns, Column{Status: s, Title: s.Title(), Cards: []Card{}})
	}

	for _, rec := range recs {
		i, ok := index[rec.Status]
		if !ok {
			continue
		}
		board.Columns[i].Cards = append(board.Columns[i].Cards, cardFor(rec, rm))
	}

	for i := range board.Columns {
		cards := board.Columns[i].Cards
		sort.SliceStable(cards, func(a, b int) bool {
			if !cards[a].LastUpdate.Equal(cards[b].LastUpdate) {
				return cards[a].LastUpdate.After(cards[b].LastUpdate)
			}
			return cards[a].CaseID.String() < cards[b].CaseID.String()
		})
		board.Columns[i].Count = len(cards)
		board.Total += len(cards)
	}
	return board
}

func cardFor(rec cases.CaseRecord, rm ReadModel) Card {
	c := Card{
		CaseID:        rec.ID,
		PatientName:   rec.Patient.FullName,
		Status:        rec.Status,
		Professionals: []ProfessionalTag{},
		LastUpdate:    rec.LastUpdate,
		LastUpdatedBy: rec.LastUpdatedBy,
	}
	for _, e := range rec.Engagements.Active() {
		c.Professionals = append(c.Professionals, rm.tag(e.ProfessionalID))
		if !cases.HasSession(e) {
			c.Pending++
		}
	}
	if len(c.Professionals) == 0 && rec.OnCall != nil && rec.OnCall.ProfessionalID != uuid.Nil {
		c.Professionals = append(c.Professionals, rm.tag(rec.OnCall.ProfessionalID))
	}
	return c
}
