package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gitlab.com/dirk.krummacker/professionals-service/internal/model"
	"gopkg.in/yaml.v3"
)

// splitStatements reads an sql script line by line and returns its statements. A statement ends
// with the line that contains a ';'.
func splitStatements(r io.Reader) ([]string, error) {
	var statements []string
	fileScanner := bufio.NewScanner(r)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			statements = append(statements, strings.TrimSpace(builder.String()))
			builder = strings.Builder{}
		}
	}
	if rest := strings.TrimSpace(builder.String()); rest != "" {
		statements = append(statements, rest)
	}
	return statements, fileScanner.Err()
}

// seedFile is the layout of a seed file: a list of professionals under 'professionals'.
type seedFile struct {
	Professionals []interface{} `yaml:"professionals"`
}

// readSeed reads the raw items of a seed file. Each item keeps the keys and values as written so
// that it is validated like an item of a bulk request.
func readSeed(r io.Reader) ([]interface{}, error) {
	var seed seedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		if err == io.EOF {
			return []interface{}{}, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if seed.Professionals == nil {
		return []interface{}{}, nil
	}
	return seed.Professionals, nil
}

// describe renders an outcome as one line of text.
func describe(outcome model.Outcome) string {
	if outcome.Status == model.StatusError {
		return fmt.Sprintf("%4d  %-7s  %s", outcome.Index, outcome.Status, outcome.Errors.Error())
	}
	return fmt.Sprintf("%4d  %-7s  #%d %s", outcome.Index, outcome.Status, outcome.Professional.Id, outcome.Professional)
}
