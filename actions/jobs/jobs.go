package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/PiotrWarzachowski/go-anonymizer/actions"
	"github.com/PiotrWarzachowski/go-anonymizer/client"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/logging"
	"github.com/PiotrWarzachowski/go-anonymizer/providers"
)

// maxParallel bounds concurrent uploads, polls and downloads.
const maxParallel = 4

// JobsCommand is the CLI command for anonymization jobs
var JobsCommand = &cli.Command{
	Name:  "jobs",
	Usage: "Submit media for anonymization and collect the results",
	Commands: []*cli.Command{
		{
			Name:      "submit",
			Usage:     "Upload images or videos as new anonymization jobs",
			ArgsUsage: "<file>...",
			Aliases:   []string{"s"},
			Flags: append([]cli.Flag{
				&cli.BoolFlag{
					Name:    "wait",
					Aliases: []string{"w"},
					Usage:   "Wait for each job to finish",
				},
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "With --wait, download results into this directory",
				},
			}, newOptionFlags()...),
			Action: submitAction,
		},
		{
			Name:      "status",
			Usage:     "Show the status of one or more jobs",
			ArgsUsage: "<job-id>...",
			Action:    statusAction,
		},
		{
			Name:      "wait",
			Usage:     "Poll a job until it finishes",
			ArgsUsage: "<job-id>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "Download results into this directory",
				},
			},
			Action: waitAction,
		},
		{
			Name:      "download",
			Usage:     "Download result files named by a finished job",
			ArgsUsage: "<filename>...",
			Aliases:   []string{"d"},
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Value:   ".",
					Usage:   "Directory to save results into",
				},
			},
			Action: downloadAction,
		},
	},
}

func submitAction(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("at least one file is required")
	}

	opts, err := optionsFromCommand(cmd)
	if err != nil {
		return err
	}

	reporter := NewCLIReporter()
	provider, _, err := actions.NewProvider(cmd, client.WithProgressReporter(reporter))
	if err != nil {
		return err
	}
	if err := provider.EnsureSession(ctx); err != nil {
		return err
	}

	jobIDs := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, file := range files {
		g.Go(func() error {
			job, err := provider.Client().CreateJobFromPath(gctx, file, opts)
			if err != nil {
				return logging.NewOperationError("submit", file, err)
			}
			jobIDs[i] = job.AnonymizationJobID
			return nil
		})
	}
	err = g.Wait()
	reporter.Wait()

	for i, file := range files {
		if jobIDs[i] != "" {
			fmt.Printf("✓ %s → job %s\n", file, jobIDs[i])
		}
	}
	if err != nil {
		return err
	}

	if !cmd.Bool("wait") {
		return nil
	}

	fmt.Println()
	defer reporter.Wait()
	for _, id := range jobIDs {
		if err := waitAndCollect(ctx, provider, id, cmd.String("out")); err != nil {
			return err
		}
	}
	return nil
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("at least one job id is required")
	}

	provider, _, err := actions.NewProvider(cmd)
	if err != nil {
		return err
	}
	if err := provider.EnsureSession(ctx); err != nil {
		return err
	}

	statuses := make([]*client.JobStatusResponse, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, id := range ids {
		g.Go(func() error {
			status, err := provider.Client().GetJobStatus(gctx, id)
			if err != nil {
				return logging.NewOperationError("status", id, err)
			}
			statuses[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, status := range statuses {
		printStatus(ids[i], status)
	}
	return nil
}

func waitAction(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("job id is required")
	}

	var opts []client.Option
	var reporter *CLIReporter
	if cmd.String("out") != "" {
		reporter = NewCLIReporter()
		opts = append(opts, client.WithProgressReporter(reporter))
	}

	provider, _, err := actions.NewProvider(cmd, opts...)
	if err != nil {
		return err
	}
	if err := provider.EnsureSession(ctx); err != nil {
		return err
	}

	err = waitAndCollect(ctx, provider, id, cmd.String("out"))
	if reporter != nil {
		reporter.Wait()
	}
	return err
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	names := cmd.Args().Slice()
	if len(names) == 0 {
		return fmt.Errorf("at least one result filename is required")
	}

	reporter := NewCLIReporter()
	provider, _, err := actions.NewProvider(cmd, client.WithProgressReporter(reporter))
	if err != nil {
		return err
	}
	if err := provider.EnsureSession(ctx); err != nil {
		return err
	}

	saved, err := download(ctx, provider.Client(), cmd.String("out"), names)
	reporter.Wait()

	for _, path := range saved {
		if path != "" {
			fmt.Printf("💾 %s\n", path)
		}
	}
	return err
}

// download saves each named result into dir concurrently and returns the
// written paths, empty for failures.
func download(ctx context.Context, c *client.Client, dir string, names []string) ([]string, error) {
	if dir == "" {
		dir = "."
	}

	saved := make([]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, name := range names {
		g.Go(func() error {
			path := filepath.Join(dir, filepath.Base(name))
			if err := c.SaveResultFile(gctx, name, path); err != nil {
				return logging.NewOperationError("download", name, err)
			}
			saved[i] = path
			return nil
		})
	}
	return saved, g.Wait()
}

func waitAndCollect(ctx context.Context, provider *providers.JobProvider, id, outDir string) error {
	var last client.JobStatus
	status, err := provider.WaitForJob(ctx, id, func(s *client.JobStatusResponse) {
		if s.Status != last {
			fmt.Printf("⏳ %s: %s\n", id, s.Status)
			last = s.Status
		}
	})
	if err != nil {
		return logging.NewOperationError("wait", id, err)
	}

	printStatus(id, status)
	if status.Status != client.StatusSucceeded || outDir == "" {
		return nil
	}

	var names []string
	for _, name := range []string{status.OutputMedia, status.OutputJSON} {
		if name != "" {
			names = append(names, name)
		}
	}
	saved, err := download(ctx, provider.Client(), outDir, names)
	for _, path := range saved {
		if path != "" {
			fmt.Printf("   💾 %s\n", path)
		}
	}
	return err
}

func printStatus(id string, status *client.JobStatusResponse) {
	icon := "⏳"
	switch status.Status {
	case client.StatusSucceeded:
		icon = "✅"
	case client.StatusFailed, client.StatusRevoked, client.StatusUnknownJob:
		icon = "❌"
	}

	fmt.Printf("%s Job %s: %s\n", icon, id, status.Status)
	if status.OutputMedia != "" {
		fmt.Printf("   ├─ Media:      %s\n", status.OutputMedia)
	}
	if status.OutputJSON != "" {
		fmt.Printf("   ├─ Detections: %s\n", status.OutputJSON)
	}
	if status.Error != "" {
		fmt.Printf("   └─ Error:      %s\n", strings.TrimSpace(status.Error))
	}
}
