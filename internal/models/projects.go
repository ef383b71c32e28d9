package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectOnHold     ProjectStatus = "On Hold"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectCancelled  ProjectStatus = "Cancelled"
)

type Project struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Status         ProjectStatus `json:"status"`
	Completion     int           `json:"completion"`
	Team           []string      `json:"team"`
	LastUpdate     string        `json:"lastUpdate"`
	KeyMilestones  []string      `json:"keyMilestones"`
	DocumentsCount int           `json:"documentsCount"`
	UpdatesCount   int           `json:"updatesCount"`
	Priority       Priority      `json:"priority"`
	StartDate      string        `json:"startDate"`
	EndDate        string        `json:"endDate"`
	AssignedTo     []string      `json:"assignedTo"`
	CreatedBy      string        `json:"createdBy,omitempty"`
	CreatedDate    string        `json:"createdDate,omitempty"`
}

func (p *Project) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Status, validation.Required, validation.In(
			ProjectPlanning, ProjectInProgress, ProjectOnHold, ProjectCompleted, ProjectCancelled)),
		validation.Field(&p.Completion, validation.Min(0), validation.Max(100)),
		validation.Field(&p.Priority, validation.Required, validation.In(PriorityHigh, PriorityMedium, PriorityLow)),
		validation.Field(&p.StartDate, validation.Date("2006-01-02")),
		validation.Field(&p.EndDate, validation.Date("2006-01-02")),
	)
}

// Matches reports whether query occurs, ignoring case, in the name,
// description, a team or an assignee.
func (p *Project) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, s := range append(append([]string{}, p.Team...), p.AssignedTo...) {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

type ProjectPatch struct {
	Name           *string        `json:"name,omitempty"`
	Description    *string        `json:"description,omitempty"`
	Status         *ProjectStatus `json:"status,omitempty"`
	Completion     *int           `json:"completion,omitempty"`
	Team           *[]string      `json:"team,omitempty"`
	KeyMilestones  *[]string      `json:"keyMilestones,omitempty"`
	DocumentsCount *int           `json:"documentsCount,omitempty"`
	UpdatesCount   *int           `json:"updatesCount,omitempty"`
	Priority       *Priority      `json:"priority,omitempty"`
	StartDate      *string        `json:"startDate,omitempty"`
	EndDate        *string        `json:"endDate,omitempty"`
	AssignedTo     *[]string      `json:"assignedTo,omitempty"`
}

func (p *Project) Apply(patch ProjectPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Completion != nil {
		p.Completion = *patch.Completion
	}
	if patch.Team != nil {
		p.Team = *patch.Team
	}
	if patch.KeyMilestones != nil {
		p.KeyMilestones = *patch.KeyMilestones
	}
	if patch.DocumentsCount != nil {
		p.DocumentsCount = *patch.DocumentsCount
	}
	if patch.UpdatesCount != nil {
		p.UpdatesCount = *patch.UpdatesCount
	}
	if patch.Priority != nil {
		p.Priority = *patch.Priority
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = *patch.EndDate
	}
	if patch.AssignedTo != nil {
		p.AssignedTo = *patch.AssignedTo
	}
}

type ProjectFilter struct {
	Query    string
	Status   ProjectStatus
	Priority Priority
}
