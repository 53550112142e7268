package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"conkiri_sight/internal/adapters/observability"
	"conkiri_sight/internal/adapters/sightapi"
)

const version = "1.0.0"

// Exit codes
const (
	ExitSuccess    = 0
	ExitUsageError = 2
	ExitValidation = 3
	ExitServer     = 4
	ExitFailure    = 5 // timeout, transport or unknown
)

// session carries one invocation's flags and outputs so commands stay free of
// package-level state.
type session struct {
	stdout, stderr io.Writer

	baseURL string
	prefix  string
	token   string
	timeout time.Duration
	verbose bool

	exitCode int
}

// Run executes sightctl with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	s := &session{stdout: stdout, stderr: stderr}
	root := s.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		// cobra already printed it
		return ExitUsageError
	}
	return s.exitCode
}

func (s *session) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sightctl",
		Short:         "Sight review API client",
		Long:          "sightctl submits, updates, reads and deletes arena seat-view reviews.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&s.baseURL, "base-url", envOr("SIGHT_BASE_URL", "http://localhost:8080"), "API base URL")
	pf.StringVar(&s.prefix, "prefix", envOr("SIGHT_API_PREFIX", sightapi.DefaultPrefix), "API path prefix")
	pf.StringVar(&s.token, "token", os.Getenv("SIGHT_API_TOKEN"), "Bearer token")
	pf.DurationVar(&s.timeout, "timeout", sightapi.DefaultTimeout, "Per-request timeout")
	pf.BoolVarP(&s.verbose, "verbose", "v", false, "Log requests to stderr")

	root.AddCommand(
		s.submitCmd(),
		s.updateCmd(),
		s.deleteCmd(),
		s.getCmd(),
		s.arenaCmd(),
		s.mineCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print sightctl version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(s.stdout, "sightctl version %s\n", version)
			},
		},
	)
	return root
}

func (s *session) client() (*sightapi.Client, error) {
	level := "error"
	if s.verbose {
		level = "debug"
	}
	l := observability.NewLogger("prod", level).Output(zerolog.ConsoleWriter{Out: s.stderr, NoColor: true})

	opts := []sightapi.Option{
		sightapi.WithEndpoints(sightapi.NewEndpoints(s.prefix)),
		sightapi.WithTimeout(s.timeout),
		sightapi.WithLogger(l),
	}
	if s.token != "" {
		opts = append(opts, sightapi.WithHeader("Authorization", "Bearer "+s.token))
	}
	return sightapi.New(s.baseURL, opts...)
}

// fail reports err on stderr and records the exit code. It returns nil so
// cobra does not print usage for API failures.
func (s *session) fail(err error) error {
	if sightapi.KindOf(err) == 0 {
		fmt.Fprintln(s.stderr, "error:", err)
		s.exitCode = ExitUsageError
		return nil
	}
	fmt.Fprintln(s.stderr, sightapi.Message(err))
	s.exitCode = exitFor(err)
	return nil
}

func exitFor(err error) int {
	switch sightapi.KindOf(err) {
	case 0:
		if err == nil {
			return ExitSuccess
		}
		return ExitUsageError
	case sightapi.KindValidation:
		return ExitValidation
	case sightapi.KindServer:
		return ExitServer
	default:
		return ExitFailure
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
