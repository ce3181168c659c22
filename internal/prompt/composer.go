package prompt

import (
	"auticonnect/internal/model"
	"fmt"
	"strings"
)

// Scenario is a tagged union: each variant carries exactly the data its template interpolates.
type Scenario interface {
	Kind() model.ScenarioKind
}

type GroupFacilitation struct {
	Group model.GroupContext
}

type IndividualSupport struct {
	User model.UserContext
}

type ActivityGuidance struct {
	Group    model.GroupContext
	Activity model.Activity
	Stage    string
}

type ConflictMediation struct {
	Group model.GroupContext
}

type ProfessionalAlert struct {
	Summary string
}

func (GroupFacilitation) Kind() model.ScenarioKind { return model.ScenarioGroupFacilitation }
func (IndividualSupport) Kind() model.ScenarioKind { return model.ScenarioIndividualSupport }
func (ActivityGuidance) Kind() model.ScenarioKind  { return model.ScenarioActivityGuidance }
func (ConflictMediation) Kind() model.ScenarioKind { return model.ScenarioConflictMediation }
func (ProfessionalAlert) Kind() model.ScenarioKind { return model.ScenarioProfessionalAlert }

// Composer renders system instructions from a template set
type Composer struct {
	templates TemplateSet
}

// NewComposer copies the set so later changes to the caller's map are not observed.
func NewComposer(templates TemplateSet) *Composer {
	set := make(TemplateSet, len(templates)+1)
	for k, v := range templates {
		set[k] = v
	}
	if strings.TrimSpace(set.Base()) == "" {
		set[BaseKey] = DefaultTemplates().Base()
	}
	return &Composer{templates: set}
}

// Base returns the persona text every rendered prompt starts with
func (c *Composer) Base() string {
	return c.templates.Base()
}

// Render returns base persona, scenario template and scenario details as one instruction string.
func (c *Composer) Render(s Scenario) string {
	addendum := c.templates.For(s.Kind()) + details(s)
	return c.templates.Base() + "\n\n" + addendum
}

func details(s Scenario) string {
	var b strings.Builder
	switch v := s.(type) {
	case GroupFacilitation:
		g := v.Group
		fmt.Fprintf(&b, "\n\nVocê está mediando o grupo '%s' com tema '%s'. ", g.Name, g.Theme)
		fmt.Fprintf(&b, "Descrição do grupo: %s\n", g.Description)
		fmt.Fprintf(&b, "Há %d participantes no grupo.", len(g.Members))
	case IndividualSupport:
		fmt.Fprintf(&b, "\n\nVocê está conversando com %s. ", v.User.DisplayName)
		if len(v.User.Interests) > 0 {
			fmt.Fprintf(&b, "Seus interesses incluem: %s. ", strings.Join(v.User.Interests, ", "))
		}
	case ActivityGuidance:
		a := v.Activity
		fmt.Fprintf(&b, "\n\nVocê está facilitando a atividade '%s' ", a.Title)
		fmt.Fprintf(&b, "do tipo '%s'. ", a.Type)
		fmt.Fprintf(&b, "Descrição: %s\n", a.Description)
		fmt.Fprintf(&b, "Duração planejada: %d minutos.", a.DurationMin)
		if len(a.Stages) > 0 {
			fmt.Fprintf(&b, "\nEtapas: %s.", strings.Join(a.Stages, " → "))
		}
		if v.Stage != "" {
			fmt.Fprintf(&b, " Etapa atual: %s.", v.Stage)
		}
		if v.Group.Name != "" {
			fmt.Fprintf(&b, "\nGrupo: '%s' com %d participantes.", v.Group.Name, len(v.Group.Members))
		}
	case ConflictMediation:
		names := make([]string, 0, len(v.Group.Members))
		for _, m := range v.Group.Members {
			names = append(names, m.DisplayName)
		}
		fmt.Fprintf(&b, "\n\nVocê está mediando o grupo '%s'.", v.Group.Name)
		if len(names) > 0 {
			fmt.Fprintf(&b, " Participantes: %s.", strings.Join(names, ", "))
		}
	case ProfessionalAlert:
		if v.Summary != "" {
			b.WriteString("\n\n" + v.Summary)
		}
	}
	return b.String()
}
