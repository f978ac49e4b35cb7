package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/birbparty/rush-analytics/sdk"
)

func languagesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withClient(cmd, func(client sdk.Client) error {
				return rt.call(cmd, sdk.EndpointListLanguages.Name, client.ListLanguages)
			})
		},
	}
}

func regionsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "regions google|yandex",
		Short:     "List regions for a search engine",
		Args:      exactArgs(1),
		ValidArgs: []string{"google", "yandex"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				endpoint sdk.Endpoint
				list     func(sdk.Client, context.Context) (sdk.Response, error)
			)
			switch args[0] {
			case "google":
				endpoint, list = sdk.EndpointListGoogleRegions, sdk.Client.ListGoogleRegions
			case "yandex":
				endpoint, list = sdk.EndpointListYandexRegions, sdk.Client.ListYandexRegions
			default:
				return fmt.Errorf("%w: unknown search engine %q (want google or yandex)", ErrUsage, args[0])
			}

			return rt.withClient(cmd, func(client sdk.Client) error {
				return rt.call(cmd, endpoint.Name, func(ctx context.Context) (sdk.Response, error) {
					return list(client, ctx)
				})
			})
		},
	}
}

func catalogCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Fetch languages and both region lists concurrently",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rt.config(cmd)
			if err != nil {
				return err
			}

			client, err := sdk.NewAsyncClient(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			calls := []struct {
				key      string
				endpoint sdk.Endpoint
				start    func(context.Context) *sdk.Future[sdk.Response]
			}{
				{"languages", sdk.EndpointListLanguages, client.ListLanguages},
				{"google_regions", sdk.EndpointListGoogleRegions, client.ListGoogleRegions},
				{"yandex_regions", sdk.EndpointListYandexRegions, client.ListYandexRegions},
			}

			results := make([]sdk.Response, len(calls))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, call := range calls {
				i, call := i, call
				g.Go(func() error {
					resp, err := sdk.Retry(ctx, rt.strategy(), func(ctx context.Context) (sdk.Response, error) {
						return call.start(ctx).Await(ctx)
					}, sdk.WithRetryObserver(rt.observer, call.endpoint.Name))
					if err != nil {
						return fmt.Errorf("%s: %w", call.key, err)
					}
					results[i] = resp
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := make(map[string]sdk.Response, len(calls))
			for i, call := range calls {
				out[call.key] = results[i]
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
