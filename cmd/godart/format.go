package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	dart "github.com/RxDataLab/go-dart"
)

const rule = "═══════════════════════════════════════════════════"

func printStatement(out io.Writer, stmt dart.Statement, prov dart.Provenance) {
	_, _ = fmt.Fprintln(out, rule)
	_, _ = fmt.Fprintf(out, "  %s 손익계산서\n", stmt.Company)
	_, _ = fmt.Fprintln(out, rule)
	if prov.Year > 0 {
		_, _ = fmt.Fprintf(out, "Period: %d %s\n", prov.Year, prov.Report)
	}
	_, _ = fmt.Fprintf(out, "Source: %s (%s)\n\n", prov.Reference, describeMethod(prov))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, r := range stmt.Rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t\n", r.Label, r.Display)
	}
	if len(stmt.Ratios) > 0 {
		_, _ = fmt.Fprintln(w, "\t\t")
		for _, r := range stmt.Ratios {
			_, _ = fmt.Fprintf(w, "%s\t%s\t\n", r.Label, r.Display)
		}
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out, rule)
}

// describeMethod summarises how the figures were obtained.
func describeMethod(prov dart.Provenance) string {
	parts := []string{string(prov.Source)}
	if prov.Slice != "" {
		parts = append(parts, string(prov.Slice))
	}
	if prov.Scanned {
		parts = append(parts, "scanned")
	}
	return strings.Join(parts, ", ")
}

func printQuarterly(out io.Writer, company string, year int, records []dart.QuarterlyRecord) {
	_, _ = fmt.Fprintf(out, "%s %d (억원)\n", company, year)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{""}
	for _, r := range records {
		header = append(header, r.Quarter)
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t")+"\t")

	for _, item := range dart.StandardItems {
		cells := []string{item.Label()}
		present := false
		for _, r := range records {
			v, ok := r.Eok[item]
			if !ok {
				cells = append(cells, dart.MissingPlaceholder)
				continue
			}
			present = true
			cells = append(cells, fmt.Sprintf("%.0f", v))
		}
		if present {
			_, _ = fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
		}
	}

	cells := []string{"영업이익률"}
	for _, r := range records {
		if v, ok := r.Ratios["operating_margin"]; ok {
			cells = append(cells, dart.FormatRatio(v))
		} else {
			cells = append(cells, dart.MissingPlaceholder)
		}
	}
	_, _ = fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
	_ = w.Flush()
}

func printMerged(out io.Writer, table dart.MergedTable) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, "\t"+strings.Join(table.Companies, "\t")+"\t")
	for _, row := range table.Rows {
		_, _ = fmt.Fprintln(w, row.Label+"\t"+strings.Join(row.Display, "\t")+"\t")
	}
	_ = w.Flush()
}

func printCorps(out io.Writer, corps []dart.Corp) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CORP CODE\tSTOCK\tNAME\tENGLISH NAME")
	_, _ = fmt.Fprintln(w, "---------\t-----\t----\t------------")
	for _, c := range corps {
		stock := c.StockCode
		if stock == "" {
			stock = dart.MissingPlaceholder
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Code, stock, c.Name, c.EnglishName)
	}
	_ = w.Flush()
}
