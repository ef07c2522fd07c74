package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hivehq/hive-bff/internal/dents"
	"github.com/hivehq/hive-bff/internal/models"
)

func healthCmd() *cobra.Command {
	var (
		accountID string
		userID    string
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the upstream aggregation routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			fetcher := newFetcher(logger)
			opts := dents.Options{AccountID: accountID, UserID: userID}

			// One probe per entity kind, concurrently. The sentinel id may
			// well 404, which still proves the route is served; transport
			// failures and 5xx responses fail the probe.
			probes := []struct {
				name string
				run  func() (*models.DentsResponse, error)
			}{
				{"contacts", func() (*models.DentsResponse, error) {
					return fetcher.ContactDents(ctx, "health-probe", opts)
				}},
				{"tiles", func() (*models.DentsResponse, error) {
					return fetcher.TileDents(ctx, "health-probe", opts)
				}},
				{"users", func() (*models.DentsResponse, error) {
					return fetcher.UserDents(ctx, "health-probe", opts)
				}},
			}

			results := make([]error, len(probes))
			g, _ := errgroup.WithContext(ctx)
			for i := range probes {
				i := i
				g.Go(func() error {
					_, err := probes[i].run()
					results[i] = err
					return nil
				})
			}
			_ = g.Wait()

			allOK := true
			for i, p := range probes {
				if err := results[i]; !probeHealthy(err) {
					fmt.Printf("dents/%s: FAIL (%v)\n", p.name, err)
					allOK = false
				} else {
					fmt.Printf("dents/%s: OK\n", p.name)
				}
			}

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "health", "account id used for probes")
	cmd.Flags().StringVar(&userID, "user", "health", "user id used for probes")

	return cmd
}

// probeHealthy decides one probe's outcome. A 4xx on the sentinel id still
// proves the route is served; server errors and transport failures do not.
func probeHealthy(err error) bool {
	if err == nil {
		return true
	}
	code, responded := dents.StatusCode(err)
	return responded && code < 500
}
