package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vanshika/downline/internal/dataset"
	"github.com/vanshika/downline/internal/logging"
	"github.com/vanshika/downline/internal/service"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	dataDir     string
	output      string
	timezone    string
	preset      string
	from        string
	to          string
	granularity string
	top         int
	scopeLimit  int
	trendCap    int
	now         string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Team production reports over a members/deals dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data", "data", "directory holding members.json and deals.json")
	flags.StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	flags.StringVar(&opts.timezone, "tz", "UTC", "IANA timezone for day boundaries")
	flags.StringVar(&opts.preset, "preset", "", "window preset (today, yesterday, last7, this_week, this_month, last30, ytd)")
	flags.StringVar(&opts.from, "from", "", "window start, RFC 3339 or YYYY-MM-DD")
	flags.StringVar(&opts.to, "to", "", "window end (exclusive), RFC 3339 or YYYY-MM-DD")
	flags.StringVar(&opts.granularity, "granularity", "day", "bucket size: day, week or month")
	flags.IntVar(&opts.top, "top", 0, "leaderboard length, 0 for everyone")
	flags.IntVar(&opts.scopeLimit, "scope-limit", 0, "maximum members in a scope")
	flags.IntVar(&opts.trendCap, "trend-cap", 0, "maximum trend buckets")
	flags.StringVar(&opts.now, "now", "", "evaluate presets as of this RFC 3339 instant")

	root.AddCommand(
		&cobra.Command{
			Use:   "scope <member-id>",
			Short: "List a member and their downline",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := opts.analytics(cmd.Context())
				if err != nil {
					return err
				}
				view, err := svc.Scope(cmd.Context(), args[0], opts.scopeLimit)
				if err != nil {
					return err
				}
				return opts.render(cmd.OutOrStdout(), view)
			},
		},
		&cobra.Command{
			Use:   "upline <member-id>",
			Short: "List a member's ancestors, nearest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := opts.analytics(cmd.Context())
				if err != nil {
					return err
				}
				view, err := svc.Upline(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return opts.render(cmd.OutOrStdout(), view)
			},
		},
		opts.reportCmd("report", "Full team report", func(rep service.TeamReport) any { return rep }),
		opts.reportCmd("leaderboard", "Ranked production per member", func(rep service.TeamReport) any { return rep.Leaderboard }),
		opts.reportCmd("inactive", "Members without deals in the window", func(rep service.TeamReport) any { return rep.Inactive }),
		opts.reportCmd("carriers", "Production per carrier", func(rep service.TeamReport) any { return rep.Carriers }),
		opts.reportCmd("products", "Production per product", func(rep service.TeamReport) any { return rep.Products }),
		opts.reportCmd("trend", "Production per bucket", func(rep service.TeamReport) any { return rep.Trend }),
		opts.reportCmd("branches", "Production per direct branch", func(rep service.TeamReport) any { return rep.Branches }),
		opts.reportCmd("grid", "Member by bucket production grid", func(rep service.TeamReport) any { return rep.Grid }),
	)
	return root
}

func (o *options) reportCmd(use, short string, pick func(service.TeamReport) any) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <root-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := o.analytics(cmd.Context())
			if err != nil {
				return err
			}
			query, err := o.query(args[0])
			if err != nil {
				return err
			}
			rep, err := svc.Report(cmd.Context(), query)
			if err != nil {
				return err
			}
			return o.render(cmd.OutOrStdout(), pick(rep))
		},
	}
}

func (o *options) analytics(ctx context.Context) (*service.AnalyticsService, error) {
	loc, err := o.location()
	if err != nil {
		return nil, err
	}
	snap, err := dataset.Load(o.dataDir)
	if err != nil {
		return nil, err
	}
	svc := service.NewAnalyticsService(dataset.FromSnapshot(snap), service.AnalyticsOptions{
		ScopeLimit: o.scopeLimit,
		TrendCap:   o.trendCap,
		Location:   loc,
		Logger:     logging.Discard(),
	})
	if o.now != "" {
		now, err := time.Parse(time.RFC3339, o.now)
		if err != nil {
			return nil, fmt.Errorf("--now: %w", err)
		}
		svc.WithClock(func() time.Time { return now })
	}
	return svc, ctx.Err()
}

func (o *options) location() (*time.Location, error) {
	if strings.TrimSpace(o.timezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("--tz: %w", err)
	}
	return loc, nil
}

func (o *options) query(rootID string) (service.ReportQuery, error) {
	loc, err := o.location()
	if err != nil {
		return service.ReportQuery{}, err
	}
	q := service.ReportQuery{
		RootID:      rootID,
		Preset:      o.preset,
		Granularity: o.granularity,
		Timezone:    o.timezone,
		Top:         o.top,
	}
	if q.From, err = parseInstant(o.from, loc); err != nil {
		return q, fmt.Errorf("--from: %w", err)
	}
	if q.To, err = parseInstant(o.to, loc); err != nil {
		return q, fmt.Errorf("--to: %w", err)
	}
	return q, nil
}

func (o *options) render(w io.Writer, v any) error {
	switch strings.ToLower(o.output) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", o.output)
	}
}

func parseInstant(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return nil, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", value)
	}
	return &t, nil
}
