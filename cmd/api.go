package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend with the stored session.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.currentSession(ctx); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	useJSON := cmd.Bool("json")

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !useJSON)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request to the backend with the stored session.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.currentSession(ctx); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// apiDump is the raw backend state for the signed in user.
type apiDump struct {
	Backend string              `json:"backend"`
	Me      any                 `json:"me"`
	Lists   map[string]any      `json:"lists,omitempty"`
	Errors  []map[string]string `json:"errors,omitempty"`
}

// APIDump fetches the identity and every list of the signed in user as raw JSON.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	pretty := cmd.Bool("pretty")
	save := cmd.String("save")

	r.logger.Info("dumping backend state")

	dump := apiDump{Backend: r.backend.BaseURL(), Lists: map[string]any{}}
	dump.Me = r.dumpPath(ctx, &dump, "/api/user/me")

	if username := session.Username(); username != "" {
		for _, list := range models.ListKinds {
			for _, kind := range models.MediaKinds {
				path := fmt.Sprintf("/api/user/%s/%s?username=%s", kind.ListPath(), list, url.QueryEscape(username))
				name := models.ListExport{List: list, Kind: kind}.Name()
				r.logger.Debug("fetching list", "name", name)
				if data := r.dumpPath(ctx, &dump, path); data != nil {
					dump.Lists[name] = data
				}
			}
		}
	}

	if save != "" {
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(save, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", save)
		}
	}

	return r.writeJSON(dump, pretty)
}

// dumpPath GETs path and returns its decoded body, recording any failure in the dump.
func (r *Runner) dumpPath(ctx context.Context, dump *apiDump, path string) any {
	resp, err := r.api.Get(ctx, path)
	switch {
	case err != nil:
		dump.Errors = append(dump.Errors, map[string]string{"endpoint": path, "error": err.Error()})
	case !resp.OK():
		dump.Errors = append(dump.Errors, map[string]string{"endpoint": path, "error": fmt.Sprintf("status %d", resp.StatusCode)})
	case resp.IsJSON:
		return resp.JSONData
	default:
		return string(resp.Body)
	}
	r.logger.Warn("failed to fetch", "path", path)
	return nil
}
