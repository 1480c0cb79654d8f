package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/dirk.krummacker/professionals-service/internal/randomgen"
	"gitlab.com/dirk.krummacker/professionals-service/pkg/model"
)

var (
	serviceURL string
	timeout    time.Duration
)

// rootCmd is the entry point of the client.
var rootCmd = &cobra.Command{
	Use:           "client",
	Short:         "Command line client for the professionals service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// listCmd prints the stored professionals.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List professionals, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		professionals, err := newAPIClient(serviceURL, timeout).list(source)
		if err != nil {
			return err
		}
		printProfessionals(cmd.OutOrStdout(), professionals)
		return nil
	},
}

// createCmd creates a single professional from flags.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a professional",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProfessionalFromFlags(cmd)
		if err != nil {
			return err
		}
		created, err := newAPIClient(serviceURL, timeout).create(p)
		if err != nil {
			return err
		}
		printProfessionals(cmd.OutOrStdout(), []model.Professional{created})
		return nil
	},
}

// importCmd sends the content of a JSON file as one bulk request.
var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Create or update the professionals listed in a JSON file",
	Long: `Send the JSON list in the given file to the bulk endpoint. Every professional is matched
by email first and by phone second; matching professionals are updated, all others are
created. The result of every item is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0]) // nosemgrep
		if err != nil {
			return err
		}
		var items json.RawMessage
		if err := json.Unmarshal(content, &items); err != nil {
			return fmt.Errorf("%s is not a JSON file: %w", args[0], err)
		}
		response, _, err := newAPIClient(serviceURL, timeout).bulk(items)
		if err != nil {
			return err
		}
		printOutcomes(cmd.OutOrStdout(), response)
		return nil
	},
}

// benchCmd measures bulk requests with random professionals.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure bulk requests of increasing size",
	RunE: func(cmd *cobra.Command, args []string) error {
		sizes, _ := cmd.Flags().GetIntSlice("size")
		rounds, _ := cmd.Flags().GetInt("rounds")
		return runBench(cmd.OutOrStdout(), newAPIClient(serviceURL, timeout), sizes, rounds)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serviceURL, "url", "http://localhost:8080", "base URL of the service")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "timeout of a single request")

	listCmd.Flags().String("source", "", "only list professionals with this source")

	createCmd.Flags().String("name", "", "full name (required)")
	createCmd.Flags().String("email", "", "email address")
	createCmd.Flags().String("phone", "", "phone number")
	createCmd.Flags().String("company", "", "company name")
	createCmd.Flags().String("title", "", "job title")
	createCmd.Flags().String("source", "direct", "one of direct, partner, internal")
	_ = createCmd.MarkFlagRequired("name")

	benchCmd.Flags().IntSlice("size", []int{10, 100, 1000}, "number of professionals per request")
	benchCmd.Flags().Int("rounds", 3, "requests per size")

	rootCmd.AddCommand(listCmd, createCmd, importCmd, benchCmd)
}

// Usage examples on the command line:
// > go run . list --source=partner
// > go run . create --name="Erika Mustermann" --email=erika@example.com
// > go run . import professionals.json
// > go run . bench --size=100,1000 --rounds=5
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newProfessionalFromFlags(cmd *cobra.Command) (model.NewProfessional, error) {
	flags := cmd.Flags()
	p := model.NewProfessional{}
	p.FullName, _ = flags.GetString("name")
	p.CompanyName, _ = flags.GetString("company")
	p.JobTitle, _ = flags.GetString("title")
	p.Source, _ = flags.GetString("source")
	if email, _ := flags.GetString("email"); email != "" {
		p.Email = &email
	}
	if phone, _ := flags.GetString("phone"); phone != "" {
		p.Phone = &phone
	}
	if p.Email == nil && p.Phone == nil {
		return p, fmt.Errorf("at least one of --email or --phone must be provided")
	}
	return p, nil
}

func runBench(w io.Writer, api *apiClient, sizes []int, rounds int) error {
	if rounds < 1 {
		return fmt.Errorf("rounds must be at least 1")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Elements   Created   Updated    Errors   ms/item")
	fmt.Fprintln(w, "---------------------------------------------------")
	for _, size := range sizes {
		var duration time.Duration
		counts := map[string]int{}
		for i := 0; i < rounds; i++ {
			response, d, err := api.bulk(randomgen.Professionals(size))
			if err != nil {
				return err
			}
			duration += d
			for status, n := range response.Counts() {
				counts[status] += n
			}
		}
		perItem := 0.0
		if size > 0 {
			perItem = float64(duration.Microseconds()) / float64(size*rounds*1000)
		}
		fmt.Fprintf(w, "%10d%10d%10d%10d%10.3f\n", size, counts["created"], counts["updated"], counts["error"], perItem)
	}
	return nil
}

func printProfessionals(w io.Writer, professionals []model.Professional) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tCOMPANY\tTITLE\tSOURCE\tCREATED")
	for _, p := range professionals {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", p.Id, p.FullName, deref(p.Email), deref(p.Phone),
			p.CompanyName, p.JobTitle, p.Source, p.CreatedAt.Format(time.RFC3339))
	}
	tw.Flush()
}

func printOutcomes(w io.Writer, response model.BulkResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tSTATUS\tID\tDETAILS")
	for _, outcome := range response.Results {
		if outcome.Professional != nil {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", outcome.Index, outcome.Status, outcome.Professional.Id, outcome.Professional.FullName)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t\t%v\n", outcome.Index, outcome.Status, outcome.Errors)
	}
	tw.Flush()
	counts := response.Counts()
	fmt.Fprintf(w, "%d created, %d updated, %d failed\n", counts["created"], counts["updated"], counts["error"])
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
