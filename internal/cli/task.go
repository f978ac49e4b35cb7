package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/birbparty/rush-analytics/sdk"
)

func taskCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create and inspect tracking tasks",
	}

	cmd.AddCommand(
		taskCreateCmd(rt),
		taskStatusCmd(rt),
		taskResultsCmd(rt),
	)

	return cmd
}

func taskCreateCmd(rt *runtime) *cobra.Command {
	var (
		name          string
		url           string
		competitors   []string
		frequency     int
		googleRegions []int
		yandexRegions []int
		keywords      []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a keyword tracking task",
		Example: `  rushctl task create --name Shoes --url https://shop.example.com \
    --google-region 2840 --keyword "running shoes" --keyword "trail shoes"`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []sdk.TaskOption{
				sdk.WithCompetitors(competitors...),
				sdk.WithDataCollectionFrequency(frequency),
				sdk.WithGoogleRegions(regionList(googleRegions)...),
				sdk.WithYandexRegions(regionList(yandexRegions)...),
				sdk.WithKeywords(keywordList(keywords)...),
			}

			return rt.withClient(cmd, func(client sdk.Client) error {
				// Task creation is not retried.
				resp, err := client.CreateTask(cmd.Context(), name, url, opts...)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&url, "url", "", "Tracked site URL")
	cmd.Flags().StringArrayVar(&competitors, "competitor", nil, "Competitor URL (repeatable)")
	cmd.Flags().IntVar(&frequency, "frequency", 0, "Data collection frequency")
	cmd.Flags().IntSliceVar(&googleRegions, "google-region", nil, "Google region ID (repeatable)")
	cmd.Flags().IntSliceVar(&yandexRegions, "yandex-region", nil, "Yandex region ID (repeatable)")
	cmd.Flags().StringArrayVar(&keywords, "keyword", nil, "Tracked keyword (repeatable)")

	return cmd
}

func taskStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the status of a task",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withClient(cmd, func(client sdk.Client) error {
				return rt.call(cmd, sdk.EndpointTaskStatus.Name, func(ctx context.Context) (sdk.Response, error) {
					return client.GetTaskStatus(ctx, args[0])
				})
			})
		},
	}
}

func taskResultsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "results <task-id>",
		Short: "Show the collected results of a task",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withClient(cmd, func(client sdk.Client) error {
				return rt.call(cmd, sdk.EndpointTaskResults.Name, func(ctx context.Context) (sdk.Response, error) {
					return client.GetTaskResults(ctx, args[0])
				})
			})
		},
	}
}

func regionList(ids []int) []sdk.Region {
	regions := make([]sdk.Region, 0, len(ids))
	for _, id := range ids {
		regions = append(regions, sdk.Region{"id": id})
	}
	return regions
}

func keywordList(phrases []string) []sdk.Keyword {
	keywords := make([]sdk.Keyword, 0, len(phrases))
	for _, p := range phrases {
		keywords = append(keywords, sdk.Keyword{"keyword": p})
	}
	return keywords
}
