package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"nodemonitor/internal/model"
	"nodemonitor/internal/service"
	mysqlstore "nodemonitor/pkg/store/mysql"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print application statistics from MySQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			cfg := loadConfig()
			dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				cfg.MySQL.User, cfg.MySQL.Password, cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.Database)
			repo, err := mysqlstore.NewRepository(dsn)
			if err != nil {
				return err
			}
			defer repo.Close()

			stats, err := service.NewStatisticsService(
				repo.User, repo.Node, repo.Earnings, repo.Preferences, repo.DeviceToken, repo.Telegram,
			).GetAppStatistics(ctx)
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}
}

func printStats(out io.Writer, s *model.AppStatistics) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Generated\t%s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Users\t%d\n", s.Users)
	fmt.Fprintf(w, "Nodes\t%d\n", s.Nodes)
	for _, k := range sortedKeys(s.NodesByStatus) {
		fmt.Fprintf(w, "  %s\t%d\n", k, s.NodesByStatus[k])
	}
	fmt.Fprintf(w, "Jobs running\t%d\n", s.JobsRunning)
	fmt.Fprintf(w, "Jobs recorded\t%d\n", s.JobsRecorded)
	fmt.Fprintf(w, "Earnings USD\t%.2f\n", s.EarningsUSD)
	fmt.Fprintf(w, "Earnings NOS\t%.2f\n", s.EarningsNOS)
	fmt.Fprintf(w, "Telegram linked\t%d\n", s.TelegramLinked)
	fmt.Fprintf(w, "Device tokens\t%d\n", s.DeviceTokens)
	fmt.Fprintf(w, "Opt-in offline/online\t%d/%d\n", s.Preferences.Offline, s.Preferences.Online)
	fmt.Fprintf(w, "Opt-in job started/completed\t%d/%d\n", s.Preferences.JobStarted, s.Preferences.JobCompleted)
	fmt.Fprintf(w, "Opt-in low balance\t%d\n", s.Preferences.LowBalance)
	return w.Flush()
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
