package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hivehq/hive-bff/internal/upload"
)

func uploadCmd() *cobra.Command {
	var (
		targetID   string
		targetKind string
		accountID  string
		ownerID    string
	)

	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Attach a local document to a hive member or tile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("upload: opening file: %w", err)
			}
			defer f.Close()

			uploader := newUploader(logger)
			record, err := uploader.Attach(ctx, upload.Request{
				TargetID:   targetID,
				TargetKind: upload.TargetKind(targetKind),
				AccountID:  accountID,
				OwnerID:    ownerID,
				Filename:   filepath.Base(args[0]),
				Content:    f,
			})
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}

			fmt.Printf("Uploaded %s\n", record.Filename)
			fmt.Printf("ID:  %s\n", record.ID)
			fmt.Printf("URL: %s\n", record.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetID, "target", "", "member or tile id to attach to (required)")
	cmd.Flags().StringVar(&targetKind, "kind", "tile", "attach target kind: user or tile")
	cmd.Flags().StringVar(&accountID, "account", "", "account id (required)")
	cmd.Flags().StringVar(&ownerID, "owner", "", "owning user id")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
