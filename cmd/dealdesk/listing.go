package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/store"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6BCB77"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func printPipelines(ctx context.Context, w io.Writer, st store.Store) error {
	pipelines, err := st.Pipelines(ctx)
	if err != nil {
		return err
	}
	if len(pipelines) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No pipelines."))
		return nil
	}
	for _, p := range pipelines {
		stages, err := st.Stages(ctx, p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", headingStyle.Render(p.Name), mutedStyle.Render("("+p.ID+")"))
		if len(stages) == 0 {
			fmt.Fprintln(w, "  "+mutedStyle.Render("no stages"))
			continue
		}
		for _, s := range stages {
			line := fmt.Sprintf("  %d. %s", s.Order, s.Name)
			if s.DealProbability != nil {
				line += fmt.Sprintf(" (%.0f%%)", *s.DealProbability*100)
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

func printDeals(ctx context.Context, w io.Writer, st store.Store) error {
	deals, err := st.Deals(ctx)
	if err != nil {
		return err
	}
	if len(deals) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No deals."))
		return nil
	}
	names, err := stageNames(ctx, st)
	if err != nil {
		return err
	}
	people, err := st.People(ctx)
	if err != nil {
		return err
	}
	contacts := make(map[string]string, len(people))
	for _, p := range people {
		contacts[p.ID] = p.DisplayName()
	}

	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Deals (%d)", len(deals))))
	for _, d := range deals {
		parts := []string{names[d.StageID]}
		if d.Amount != nil {
			parts = append(parts, fmt.Sprintf("%.2f", *d.Amount))
		}
		if name, ok := contacts[d.PersonID]; ok {
			parts = append(parts, name)
		}
		fmt.Fprintf(w, "  %s  %s\n", d.Name, mutedStyle.Render(strings.Join(parts, " · ")))
	}
	return nil
}

// stageNames maps stage ids to "Pipeline / Stage".
func stageNames(ctx context.Context, st store.Store) (map[string]string, error) {
	pipelines, err := st.Pipelines(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, p := range pipelines {
		stages, err := st.Stages(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, s := range stages {
			out[s.ID] = stageLabel(p, s)
		}
	}
	return out, nil
}

func stageLabel(p crm.Pipeline, s crm.Stage) string {
	return p.Name + " / " + s.Name
}
