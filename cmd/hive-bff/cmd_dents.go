package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hivehq/hive-bff/internal/dents"
	"github.com/hivehq/hive-bff/internal/models"
)

func dentsCmd() *cobra.Command {
	var (
		entityType     string
		accountID      string
		userID         string
		contentTypes   []string
		includeDeleted bool
	)

	cmd := &cobra.Command{
		Use:   "dents [entity-id]",
		Short: "Fetch the content aggregate for a contact, tile, or member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			et := models.EntityType(entityType)
			if !et.IsValid() {
				return fmt.Errorf("dents: invalid --type %q: must be one of contact, tile, user", entityType)
			}

			// The config default applies unless the flag was given.
			if !cmd.Flags().Changed("include-deleted") {
				includeDeleted = cfg.Dents.IncludeDeleted
			}

			opts := dents.Options{
				AccountID:      accountID,
				UserID:         userID,
				IncludeDeleted: includeDeleted,
			}
			for _, raw := range contentTypes {
				kind := models.ContentKind(strings.TrimSpace(raw))
				if !kind.IsValid() {
					return fmt.Errorf("dents: invalid content type %q", raw)
				}
				opts.ContentTypes = append(opts.ContentTypes, kind)
			}

			fetcher := newFetcher(logger)

			var (
				resp     *models.DentsResponse
				fetchErr error
			)
			switch et {
			case models.EntityContact:
				resp, fetchErr = fetcher.ContactDents(ctx, args[0], opts)
			case models.EntityTile:
				resp, fetchErr = fetcher.TileDents(ctx, args[0], opts)
			case models.EntityUser:
				resp, fetchErr = fetcher.UserDents(ctx, args[0], opts)
			}
			if fetchErr != nil {
				// The aggregate is still printable; note the degradation.
				fmt.Fprintf(os.Stderr, "warning: degraded aggregate: %v\n", fetchErr)
			}

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("dents: marshaling JSON: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&entityType, "type", "tile", "entity kind: contact, tile, or user")
	cmd.Flags().StringVar(&accountID, "account", "", "account id (required)")
	cmd.Flags().StringVar(&userID, "user", "", "requesting user id (required)")
	cmd.Flags().StringSliceVar(&contentTypes, "content-types", nil, "subset of files,notes,events,tasks (default: all)")
	cmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "include soft-deleted items (default: dents.include_deleted from config)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
