/*
Package iosystem contains a convenience tab-separated text format for
loading and saving a titratable-site table and its interaction matrix.

This is not required by the core: the EnergyModel can be populated
directly by any caller that already holds the tables in memory. The
format exists for small test fixtures and command-line round-tripping,
in the same spirit as the fixed-column-count .tsv conventions slow5
uses for nanopore reads.

Site lines have 4 tab-separated columns:

	site_index	index_first	index_last	label

Interaction lines have 3 tab-separated columns:

	instance_i	instance_j	value
*/
package iosystem

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/efliks/pcetk/energy"
)

// SiteRecord is one parsed line of the sites table.
type SiteRecord struct {
	SiteIndex  int
	IndexFirst int
	IndexLast  int
	Label      string
}

// ReadSites parses the tab-separated site table from r. Malformed lines
// fail with the 1-based line number embedded in the error.
func ReadSites(r io.Reader) ([]SiteRecord, error) {
	scanner := bufio.NewScanner(r)
	var records []SiteRecord
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values := strings.Split(line, "\t")
		if len(values) != 4 {
			return nil, fmt.Errorf("iosystem: line %d: expected 4 columns, got %d: %q", lineNumber, len(values), line)
		}

		siteIndex, err := strconv.Atoi(values[0])
		if err != nil {
			return nil, fmt.Errorf("iosystem: line %d: site_index %q: %w", lineNumber, values[0], err)
		}
		indexFirst, err := strconv.Atoi(values[1])
		if err != nil {
			return nil, fmt.Errorf("iosystem: line %d: index_first %q: %w", lineNumber, values[1], err)
		}
		indexLast, err := strconv.Atoi(values[2])
		if err != nil {
			return nil, fmt.Errorf("iosystem: line %d: index_last %q: %w", lineNumber, values[2], err)
		}

		records = append(records, SiteRecord{
			SiteIndex:  siteIndex,
			IndexFirst: indexFirst,
			IndexLast:  indexLast,
			Label:      values[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("iosystem: read sites: %w", err)
	}
	return records, nil
}

// WriteSites writes records back out in the ReadSites format.
func WriteSites(w io.Writer, records []SiteRecord) error {
	for _, record := range records {
		_, err := fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", record.SiteIndex, record.IndexFirst, record.IndexLast, record.Label)
		if err != nil {
			return fmt.Errorf("iosystem: write sites: %w", err)
		}
	}
	return nil
}

// ApplyToModel calls Vector().SetSite for every parsed record against
// model's private StateVector.
func ApplyToModel(model *energy.Model, records []SiteRecord) error {
	for _, record := range records {
		if err := model.Vector().SetSite(record.SiteIndex, record.IndexFirst, record.IndexLast); err != nil {
			return fmt.Errorf("iosystem: apply site %d: %w", record.SiteIndex, err)
		}
	}
	return nil
}

// InteractionRecord is one parsed line of the interaction table.
type InteractionRecord struct {
	I, J  int
	Value float64
}

// ReadInteractions parses the tab-separated raw interaction table.
func ReadInteractions(r io.Reader) ([]InteractionRecord, error) {
	scanner := bufio.NewScanner(r)
	var records []InteractionRecord
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values := strings.Split(line, "\t")
		if len(values) != 3 {
			return nil, fmt.Errorf("iosystem: line %d: expected 3 columns, got %d: %q", lineNumber, len(values), line)
		}

		i, err := strconv.Atoi(values[0])
		if err != nil {
			return nil, fmt.Errorf("iosystem: line %d: instance_i %q: %w", lineNumber, values[0], err)
		}
		j, err := strconv.Atoi(values[1])
		if err != nil {
			return nil, fmt.Errorf("iosystem: line %d: instance_j %q: %w", lineNumber, values[1], err)
		}
		value, err := strconv.ParseFloat(values[2], 64)
		if err != nil {
			return nil, fmt.Errorf("iosystem: line %d: value %q: %w", lineNumber, values[2], err)
		}

		records = append(records, InteractionRecord{I: i, J: j, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("iosystem: read interactions: %w", err)
	}
	return records, nil
}

// WriteInteractions writes records back out in the ReadInteractions
// format.
func WriteInteractions(w io.Writer, records []InteractionRecord) error {
	for _, record := range records {
		_, err := fmt.Fprintf(w, "%d\t%d\t%g\n", record.I, record.J, record.Value)
		if err != nil {
			return fmt.Errorf("iosystem: write interactions: %w", err)
		}
	}
	return nil
}

// ApplyInteractionsToModel calls SetInteraction for every parsed record.
func ApplyInteractionsToModel(model *energy.Model, records []InteractionRecord) error {
	for _, record := range records {
		if err := model.SetInteraction(record.I, record.J, record.Value); err != nil {
			return fmt.Errorf("iosystem: apply interaction (%d,%d): %w", record.I, record.J, err)
		}
	}
	return nil
}
