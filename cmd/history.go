package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mtx/internal/formatter"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// History prints recorded list mutations, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.database(); err != nil {
		return err
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if user := cmd.String("user"); user != "" {
		criteria["username"] = user
	}
	if name := cmd.String("list"); name != "" {
		list, err := models.ParseListKind(name)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		criteria["list"] = list
	}
	if cmd.Bool("failed") {
		criteria["ok"] = false
	}

	activities, err := r.activity.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(activities))
		for _, a := range activities {
			rows = append(rows, map[string]any{
				"sequence":  a.Sequence(),
				"createdAt": a.CreatedAt(),
				"username":  a.Username(),
				"op":        a.Op(),
				"list":      a.List(),
				"kind":      a.Kind(),
				"tmdbId":    a.TmdbID(),
				"title":     a.Title(),
				"ok":        a.OK(),
				"error":     a.ErrorText(),
			})
		}
		return r.writeJSON(rows, true)
	}

	if len(activities) == 0 {
		return r.writePlain("No recorded activity\n")
	}
	return r.writePlain("%s\n", formatter.ActivityTable(activities))
}

// HistoryPrune removes activity older than --older-than.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	age := cmd.Duration("older-than")
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidFlag)
	}
	if _, err := r.database(); err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-age)
	n, err := r.activity.Prune(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	r.logger.Info("pruned activity", "cutoff", cutoff, "removed", n)
	return r.writePlain("✓ Removed %d record(s) older than %s\n", n, cutoff.Local().Format("2006-01-02 15:04"))
}
