package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yigit/campushub/internal/app/models"
)

func reconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Copy each community's college onto its events where they differ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := depsFromContext(cmd.Context()).Scheduler.RunReconcile(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func expireCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Complete reservations dated before today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := depsFromContext(cmd.Context()).Scheduler.RunExpire(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func chainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chain <event-id>",
		Short: "Show the approval chain of an event and who decides each stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid event id %q: %w", args[0], err)
			}
			chain, err := depsFromContext(cmd.Context()).Services.Events.ResolveChain(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			return printJSON(cmd, chain)
		},
	}
}

// tokenCommand issues an access token for local development. Accepts a
// numeric user id or an email address.
func tokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <email|user-id>",
		Short: "Issue an access token for a user (development only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFromContext(cmd.Context())
			users := deps.Repos.UserRepository

			var (
				user *models.User
				err  error
			)
			if id, parseErr := strconv.ParseInt(args[0], 10, 64); parseErr == nil {
				user, err = users.GetByID(cmd.Context(), id)
			} else {
				user, err = users.GetByEmail(cmd.Context(), strings.TrimSpace(args[0]))
			}
			if err != nil {
				return fmt.Errorf("failed to find user %q: %w", args[0], err)
			}
			if !user.IsActive {
				return errors.New("user account is deactivated")
			}

			token, expiresAt, err := deps.JWTService.IssueToken(user)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"userId":    user.ID,
				"role":      user.Role,
				"token":     token,
				"expiresAt": expiresAt,
			})
		},
	}
}
