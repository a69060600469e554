// Package builtin registers the stock validation rules for the club content
// categories: team naming, season date consistency, league standing
// arithmetic and duplicate detection.
package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/headonpro/contenthooks/internal/apperr"
	"github.com/headonpro/contenthooks/internal/hook"
	"github.com/headonpro/contenthooks/internal/rules"
)

// Content categories covered by the stock rule pack.
const (
	CategoryTeam     = "team"
	CategoryPlayer   = "player"
	CategorySeason   = "season"
	CategoryStanding = "league-standing"
)

// Register installs the stock rules. Definitions are registered in
// dependency order, so every DependsOn reference resolves.
func Register(reg *rules.Registry) error {
	defs := []rules.Definition{
		{
			ID:       "team.name-required",
			Category: CategoryTeam,
			Severity: hook.SeverityCritical,
			Priority: 10,
			Enabled:  true,
			Evaluate: teamNameRequired,
		},
		{
			ID:        "team.name-length",
			Category:  CategoryTeam,
			Severity:  hook.SeverityWarning,
			Priority:  20,
			DependsOn: []string{"team.name-required"},
			Enabled:   true,
			Evaluate:  teamNameLength,
			Config:    map[string]any{"min_length": 3, "max_length": 80},
		},
		{
			ID:        "team.duplicate-name",
			Category:  CategoryTeam,
			Severity:  hook.SeverityWarning,
			Priority:  30,
			DependsOn: []string{"team.name-required"},
			Enabled:   true,
			Evaluate:  teamDuplicateName,
		},
		{
			ID:       "player.duplicate",
			Category: CategoryPlayer,
			Severity: hook.SeverityWarning,
			Priority: 10,
			Enabled:  true,
			Evaluate: playerDuplicate,
		},
		{
			ID:       "season.date-order",
			Category: CategorySeason,
			Severity: hook.SeverityCritical,
			Priority: 10,
			Enabled:  true,
			Evaluate: seasonDateOrder,
		},
		{
			ID:        "season.date-overlap",
			Category:  CategorySeason,
			Severity:  hook.SeverityCritical,
			Priority:  20,
			DependsOn: []string{"season.date-order"},
			Enabled:   true,
			Evaluate:  seasonDateOverlap,
		},
		{
			ID:       "standing.games-played",
			Category: CategoryStanding,
			Severity: hook.SeverityCritical,
			Priority: 10,
			Enabled:  true,
			Evaluate: standingGamesPlayed,
		},
		{
			ID:        "standing.points",
			Category:  CategoryStanding,
			Severity:  hook.SeverityWarning,
			Priority:  20,
			DependsOn: []string{"standing.games-played"},
			Enabled:   true,
			Evaluate:  standingPoints,
		},
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("register builtin rule %s: %w", def.ID, err)
		}
	}
	return nil
}

func teamNameRequired(_ context.Context, in rules.Input) (rules.Outcome, error) {
	name, err := rules.StringField(in.Payload, "name")
	if err != nil && !errors.Is(err, apperr.ErrMissingField) {
		return rules.Outcome{}, err
	}
	if err := validation.Validate(strings.TrimSpace(name), validation.Required); err != nil {
		return rules.Outcome{
			Passed:     false,
			Message:    "name is required",
			Suggestion: "provide a non-empty team name",
		}, nil
	}
	return rules.Pass(), nil
}

func teamNameLength(_ context.Context, in rules.Input) (rules.Outcome, error) {
	name, err := rules.StringField(in.Payload, "name")
	if err != nil {
		return rules.Outcome{}, err
	}
	min := configInt(in.Config, "min_length", 3)
	max := configInt(in.Config, "max_length", 80)
	if err := validation.Validate(name, validation.Length(min, max)); err != nil {
		return rules.Outcome{
			Passed:     false,
			Message:    fmt.Sprintf("name must be between %d and %d characters", min, max),
			Suggestion: "adjust the team name length",
		}, nil
	}
	return rules.Pass(), nil
}

func teamDuplicateName(_ context.Context, in rules.Input) (rules.Outcome, error) {
	name, err := rules.StringField(in.Payload, "name")
	if err != nil {
		return rules.Outcome{}, err
	}
	if in.Existing == nil {
		return rules.Pass(), nil
	}
	teams, err := rules.ListField(in.Existing, "teams")
	if err != nil {
		if errors.Is(err, apperr.ErrMissingField) {
			return rules.Pass(), nil
		}
		return rules.Outcome{}, err
	}
	for _, t := range teams {
		other, fieldErr := rules.StringField(t, "name")
		if fieldErr != nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(other), strings.TrimSpace(name)) {
			return rules.Fail("a team named %q already exists", other), nil
		}
	}
	return rules.Pass(), nil
}

func playerDuplicate(_ context.Context, in rules.Input) (rules.Outcome, error) {
	name, err := rules.StringField(in.Payload, "name")
	if err != nil {
		return rules.Outcome{}, err
	}
	birth, err := rules.StringField(in.Payload, "birth_date")
	if err != nil && !errors.Is(err, apperr.ErrMissingField) {
		return rules.Outcome{}, err
	}
	if in.Existing == nil {
		return rules.Pass(), nil
	}
	players, err := rules.ListField(in.Existing, "players")
	if err != nil {
		if errors.Is(err, apperr.ErrMissingField) {
			return rules.Pass(), nil
		}
		return rules.Outcome{}, err
	}
	for _, p := range players {
		otherName, _ := rules.StringField(p, "name")
		otherBirth, _ := rules.StringField(p, "birth_date")
		if strings.EqualFold(otherName, name) && otherBirth == birth {
			return rules.Outcome{
				Passed:     false,
				Message:    fmt.Sprintf("player %q with the same birth date already exists", name),
				Suggestion: "check whether this is a re-registration of the same player",
			}, nil
		}
	}
	return rules.Pass(), nil
}

func seasonDateOrder(_ context.Context, in rules.Input) (rules.Outcome, error) {
	start, err := rules.DateField(in.Payload, "start_date")
	if err != nil {
		return rules.Outcome{}, err
	}
	end, err := rules.DateField(in.Payload, "end_date")
	if err != nil {
		return rules.Outcome{}, err
	}
	if !end.After(start) {
		return rules.Outcome{
			Passed:     false,
			Message:    "end_date must be after start_date",
			Suggestion: "swap or correct the season dates",
		}, nil
	}
	return rules.Pass(), nil
}

func seasonDateOverlap(_ context.Context, in rules.Input) (rules.Outcome, error) {
	start, err := rules.DateField(in.Payload, "start_date")
	if err != nil {
		return rules.Outcome{}, err
	}
	end, err := rules.DateField(in.Payload, "end_date")
	if err != nil {
		return rules.Outcome{}, err
	}
	if in.Existing == nil {
		return rules.Pass(), nil
	}
	seasons, err := rules.ListField(in.Existing, "seasons")
	if err != nil {
		if errors.Is(err, apperr.ErrMissingField) {
			return rules.Pass(), nil
		}
		return rules.Outcome{}, err
	}
	for _, s := range seasons {
		otherStart, startErr := rules.DateField(s, "start_date")
		otherEnd, endErr := rules.DateField(s, "end_date")
		if startErr != nil || endErr != nil {
			continue
		}
		if start.Before(otherEnd) && otherStart.Before(end) {
			name, _ := rules.StringField(s, "name")
			return rules.Outcome{
				Passed:     false,
				Message:    fmt.Sprintf("season dates overlap with existing season %q", name),
				Suggestion: "adjust the season window so it does not overlap",
			}, nil
		}
	}
	return rules.Pass(), nil
}

func standingGamesPlayed(_ context.Context, in rules.Input) (rules.Outcome, error) {
	games, err := rules.NumberField(in.Payload, "games_played")
	if err != nil {
		return rules.Outcome{}, err
	}
	wins, err := rules.NumberField(in.Payload, "wins")
	if err != nil {
		return rules.Outcome{}, err
	}
	draws, err := rules.NumberField(in.Payload, "draws")
	if err != nil {
		return rules.Outcome{}, err
	}
	losses, err := rules.NumberField(in.Payload, "losses")
	if err != nil {
		return rules.Outcome{}, err
	}
	if games != wins+draws+losses {
		return rules.Outcome{
			Passed:     false,
			Message:    fmt.Sprintf("games_played (%.0f) must equal wins+draws+losses (%.0f)", games, wins+draws+losses),
			Suggestion: "recount the result columns",
		}, nil
	}
	return rules.Pass(), nil
}

func standingPoints(_ context.Context, in rules.Input) (rules.Outcome, error) {
	points, err := rules.NumberField(in.Payload, "points")
	if err != nil {
		return rules.Outcome{}, err
	}
	wins, err := rules.NumberField(in.Payload, "wins")
	if err != nil {
		return rules.Outcome{}, err
	}
	draws, err := rules.NumberField(in.Payload, "draws")
	if err != nil {
		return rules.Outcome{}, err
	}
	expected := 3*wins + draws
	if points != expected {
		return rules.Fail("points (%.0f) do not match 3*wins+draws (%.0f)", points, expected), nil
	}
	return rules.Pass(), nil
}

func configInt(cfg map[string]any, key string, fallback int) int {
	v, ok := cfg[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return fallback
}
