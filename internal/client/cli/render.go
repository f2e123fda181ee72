package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

func printCorrespondences(w io.Writer, cs []models.Correspondence) {
	if len(cs) == 0 {
		fmt.Fprintln(w, "No field correspondences found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tTARGET\tCONFIDENCE")
	for _, c := range cs {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", c.SourceField, c.TargetField, c.Confidence)
	}
	tw.Flush()
}

func printReport(w io.Writer, r *models.MappingReport) {
	switch {
	case r.Stale:
		fmt.Fprintln(w, "Mapping is stale")
	case r.Valid:
		fmt.Fprintln(w, "Mapping is valid")
	default:
		fmt.Fprintln(w, "Mapping has issues")
	}
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  %s: %s\n", issue.Kind, issue.Field)
	}
}

func printMappings(w io.Writer, list []*models.MappingSpec) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No mappings")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tTARGET\tLABEL\tFIELDS\tSTALE")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\n", m.ID, m.SourceResourceID, m.TargetResourceID, m.Label, len(m.Correspondences), m.Stale)
	}
	tw.Flush()
}

func printIntegrations(w io.Writer, list []models.IntegrationStatus) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tCONNECTED\tBACKEND\tSINCE\tLAST CHECK")
	for _, s := range list {
		since := "-"
		if s.ConnectedAt != nil {
			since = s.ConnectedAt.Format(time.RFC3339)
		}
		backend := string(s.Backend)
		if backend == "" {
			backend = "-"
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\n", s.Provider, s.Connected, backend, since, lastCheck(s.LastValidation))
	}
	tw.Flush()
}

func lastCheck(v *models.ValidationResult) string {
	if v == nil {
		return "-"
	}
	if v.Validated {
		return "ok " + strings.Join(v.CapabilitySummary, ",")
	}
	return string(v.FailureReason)
}

func printRepos(w io.Writer, list []models.Repo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REPOSITORY\tVISIBILITY")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\n", r.FullName, r.Visibility)
	}
	tw.Flush()
}

func printTables(w io.Writer, list []models.Table) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tLABEL")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\n", t.Name, t.Label)
	}
	tw.Flush()
}

func printFields(w io.Writer, list []models.FieldDescriptor) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No fields")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tREQUIRED")
	for _, f := range list {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", f.Name, f.DeclaredType, f.Required)
	}
	tw.Flush()
}
