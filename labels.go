package detparse

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Labels are the class names a Model was trained with, indexed by the label
// number the parsers return
type Labels []string

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line.
func LoadLabels(file string) (Labels, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels Labels

	// read each line, dropping the carriage return of files saved on windows
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		labels = append(labels, strings.TrimSpace(line))
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// Name returns the label text for the class index.  Indexes outside of the
// label list are returned as their decimal number
func (l Labels) Name(index int) string {

	if index >= 0 && index < len(l) {
		return l[index]
	}

	return strconv.Itoa(index)
}
